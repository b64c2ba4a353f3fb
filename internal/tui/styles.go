package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tmc/langchaingo/schema"

	"docqa/internal/domain"
)

const (
	sourcePanelWidth = 100
	previewRunes     = 100
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 2)
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle     = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

// Banner is printed once when the program starts.
func Banner() string {
	return bannerStyle.Render("RAG Document Q&A System") + "\n" +
		dimStyle.Render("Ask questions about your text documents")
}

func Info(msg string) string    { return infoStyle.Render(msg) }
func Success(msg string) string { return successStyle.Render("✓ " + msg) }
func Error(msg string) string   { return errorStyle.Render("✗ " + msg) }
func Warn(msg string) string    { return warnStyle.Render("! " + msg) }

// Panel draws body inside a rounded border coloured by color, with title
// rendered bold on the first line.
func Panel(title, body string, color lipgloss.Color) string {
	content := body
	if title != "" {
		content = titleStyle.Copy().Foreground(color).Render(title) + "\n\n" + body
	}
	return panelStyle.Copy().BorderForeground(color).Render(content)
}

// MenuTable renders the numbered menu. cursor marks the highlighted row;
// pass -1 to render without a cursor.
func MenuTable(options []string, cursor int) string {
	rows := make([][]string, len(options))
	for i, o := range options {
		mark := " "
		if i == cursor {
			mark = "›"
		}
		rows[i] = []string{mark, fmt.Sprintf("%d", i+1), o}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("", "Option", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == 0:
				return s.Bold(true)
			case col == 0:
				return s.Inherit(cursorStyle)
			case col == 1:
				return s.Foreground(lipgloss.Color("14"))
			}
			return s
		})
	return t.Render()
}

// SourceRow is one line of the sources table.
type SourceRow struct {
	Source  string
	Preview string
}

// SourcesTable renders the numbered list of sources behind an answer.
func SourcesTable(rows []SourceRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{fmt.Sprintf("%d", i+1), r.Source, r.Preview}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("№", "Source", "Preview").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == 0:
				return s.Bold(true).Foreground(lipgloss.Color("13"))
			case col == 0:
				return s.Foreground(lipgloss.Color("14"))
			case col == 1:
				return s.Foreground(lipgloss.Color("10"))
			}
			return s.Width(60)
		})
	return titleStyle.Render("Sources") + "\n" + t.Render()
}

// SourcePanel renders the full text of one retrieved chunk with the sentence
// that best matches question highlighted.
func SourcePanel(n int, doc schema.Document, question string) string {
	body := highlightBestSentence(doc.PageContent, question)
	title := fmt.Sprintf("Source %d: %s", n, domain.Source(doc))
	return panelStyle.Copy().
		BorderForeground(lipgloss.Color("4")).
		Width(sourcePanelWidth).
		Render(titleStyle.Render(title) + "\n\n" + body)
}

// EnvHelp explains how to create the .env file.
func EnvHelp(template string) string {
	body := "Please create a .env file with the following content:\n\n" + template
	return Panel("Required Configuration", body, lipgloss.Color("11"))
}

// preview shortens text to previewRunes runes, marking the cut with "...".
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "..."
}
