package tui

import (
	"context"
	"errors"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Choice is an entry of the main menu.
type Choice int

const (
	ChoiceNone Choice = iota
	ChoiceIndex
	ChoiceCount
	ChoiceDelete
	ChoiceChat
	ChoiceExit
)

var menuOptions = []string{
	"Index documents",
	"Check total number of documents",
	"Delete document store",
	"Start RAG chat",
	"Exit",
}

func (c Choice) String() string {
	if c < ChoiceIndex || c > ChoiceExit {
		return "None"
	}
	return menuOptions[c-1]
}

// MenuModel lets the user pick one menu entry.
type MenuModel struct {
	cursor int
	choice Choice
}

func NewMenu() MenuModel { return MenuModel{} }

func (m MenuModel) Init() tea.Cmd { return nil }

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
		m.choice = ChoiceExit
		return m, tea.Quit
	case tea.KeyEnter:
		m.choice = Choice(m.cursor + 1)
		return m, tea.Quit
	case tea.KeyUp:
		m.cursor = (m.cursor - 1 + len(menuOptions)) % len(menuOptions)
		return m, nil
	case tea.KeyDown, tea.KeyTab:
		m.cursor = (m.cursor + 1) % len(menuOptions)
		return m, nil
	}
	switch s := key.String(); s {
	case "q":
		m.choice = ChoiceExit
		return m, tea.Quit
	case "k":
		m.cursor = (m.cursor - 1 + len(menuOptions)) % len(menuOptions)
	case "j":
		m.cursor = (m.cursor + 1) % len(menuOptions)
	case "1", "2", "3", "4", "5":
		m.choice = Choice(s[0] - '0')
		m.cursor = int(m.choice) - 1
		return m, tea.Quit
	}
	return m, nil
}

func (m MenuModel) View() string {
	if m.choice != ChoiceNone {
		return ""
	}
	var b strings.Builder
	b.WriteString(MenuTable(menuOptions, m.cursor))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Choose an option [1-5], or use ↑/↓ and enter"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the selected entry, or ChoiceNone while the menu is open.
func (m MenuModel) Selected() Choice { return m.choice }

// RunMenu shows the menu until the user picks an entry.
func RunMenu(ctx context.Context, in io.Reader, out io.Writer) (Choice, error) {
	p := tea.NewProgram(NewMenu(), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ChoiceExit, ctx.Err()
		}
		return ChoiceExit, err
	}
	return final.(MenuModel).Selected(), nil
}
