package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tmc/langchaingo/schema"

	"docqa/internal/domain"
)

const (
	welcomeText = "Welcome to the RAG Chat System!\n\n" +
		"Ask questions about your documents.\n" +
		"Type 'sources' to see detailed source information for the last answer.\n" +
		"Type 'quit', 'exit' or 'q' to leave."
	sourcesHint  = "Type 'sources' to see detailed source information"
	rephraseHint = "Please try rephrasing your question or check the logs for details."
)

type answerMsg struct {
	question string
	answer   domain.Answer
	err      error
}

// ChatModel is the question/answer loop.
type ChatModel struct {
	ctx        context.Context
	asker      domain.Asker
	summarizer domain.Summarizer

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript   []string
	lastQuestion string
	lastSources  []schema.Document
	thinking     bool
	quitting     bool
}

// NewChat creates a chat model answering with asker. summarizer builds the
// previews in the sources table and may be nil.
func NewChat(ctx context.Context, asker domain.Asker, summarizer domain.Summarizer) ChatModel {
	ti := textinput.New()
	ti.Prompt = "Question: "
	ti.Placeholder = "Ask about your documents"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = infoStyle

	m := ChatModel{
		ctx:        ctx,
		asker:      asker,
		summarizer: summarizer,
		input:      ti,
		viewport:   viewport.New(sourcePanelWidth+4, 20),
		spinner:    sp,
	}
	m.appendOutput(Panel("RAG Chat", welcomeText, lipgloss.Color("12")))
	return m
}

func (m ChatModel) Init() tea.Cmd { return textinput.Blink }

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = max(20, msg.Width)
		// input line, spinner line and a spacer
		m.viewport.Height = max(3, msg.Height-3)
		m.refresh()
		return m, nil
	case answerMsg:
		m.thinking = false
		m.handleAnswer(msg)
		return m, nil
	case spinner.TickMsg:
		if !m.thinking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m.quit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if m.thinking {
				return m, nil
			}
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	switch strings.ToLower(question) {
	case "quit", "exit", "q":
		return m.quit()
	case "":
		m.appendOutput(Warn("Please enter a question."))
		return m, nil
	case "sources":
		m.showSources()
		return m, nil
	}
	m.appendOutput(titleStyle.Render("Question: ") + question)
	m.thinking = true
	return m, tea.Batch(m.spinner.Tick, ask(m.ctx, m.asker, question))
}

func (m ChatModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.appendOutput(Info("Goodbye!"))
	return m, tea.Quit
}

func ask(ctx context.Context, asker domain.Asker, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := asker.Ask(ctx, question)
		return answerMsg{question: question, answer: answer, err: err}
	}
}

func (m *ChatModel) handleAnswer(msg answerMsg) {
	if msg.err != nil {
		m.appendOutput(Error(fmt.Sprintf("An error occurred: %v", msg.err)) + "\n" + Warn(rephraseHint))
		return
	}
	m.lastQuestion = msg.question
	m.lastSources = msg.answer.Sources
	m.appendOutput(RenderAnswer(msg.answer, m.summarizer))
}

func (m *ChatModel) showSources() {
	if len(m.lastSources) == 0 {
		m.appendOutput(Warn("No sources yet. Ask a question first."))
		return
	}
	panels := make([]string, len(m.lastSources))
	for i, doc := range m.lastSources {
		panels[i] = SourcePanel(i+1, doc, m.lastQuestion)
	}
	m.appendOutput(strings.Join(panels, "\n"))
}

// RenderAnswer renders the answer panel followed by the sources table.
// summarizer shortens the previews and may be nil.
func RenderAnswer(answer domain.Answer, summarizer domain.Summarizer) string {
	out := Panel("Answer", answer.Text, lipgloss.Color("10"))
	if len(answer.Sources) == 0 {
		return out
	}
	rows := make([]SourceRow, len(answer.Sources))
	for i, doc := range answer.Sources {
		text := doc.PageContent
		if summarizer != nil {
			if s, err := summarizer.Summarize(text, 1); err == nil && s != "" {
				text = s
			}
		}
		rows[i] = SourceRow{Source: domain.Source(doc), Preview: preview(text)}
	}
	return out + "\n" + SourcesTable(rows) + "\n" + dimStyle.Render(sourcesHint)
}

func (m *ChatModel) appendOutput(s string) {
	m.transcript = append(m.transcript, s)
	m.refresh()
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m ChatModel) View() string {
	if m.quitting {
		return m.Transcript() + "\n"
	}
	status := ""
	if m.thinking {
		status = m.spinner.View() + " Thinking..."
	}
	return m.viewport.View() + "\n" + status + "\n" + m.input.View()
}

// Transcript returns everything printed in the session so far.
func (m ChatModel) Transcript() string {
	return strings.Join(m.transcript, "\n\n")
}

// RunChat runs the chat loop until the user leaves or ctx is cancelled.
func RunChat(ctx context.Context, asker domain.Asker, summarizer domain.Summarizer, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewChat(ctx, asker, summarizer), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
