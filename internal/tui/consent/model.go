package consent

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Digital-Shane/vlc-presence/internal/tui/theme"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrAborted is returned when the prompt is cancelled with esc or ctrl+c
var ErrAborted = errors.New("prompt cancelled")

// Model is a single line question with a free text answer
type Model struct {
	question string
	input    textinput.Model
	theme    theme.Theme

	answer  string
	done    bool
	aborted bool
}

// New creates a prompt model for question
func New(question string) *Model {
	th := theme.Default()

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "y/n"
	ti.CharLimit = 16
	ti.Width = 16
	ti.CursorStyle = lipgloss.NewStyle().Background(th.Colors().Accent).Foreground(th.Colors().Background)
	ti.TextStyle = lipgloss.NewStyle().Foreground(th.Colors().Primary)
	ti.Focus()

	return &Model{
		question: question,
		input:    ti,
		theme:    th,
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.answer = m.input.Value()
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.HeaderStyle().Render(m.theme.Icon("update") + " " + m.question))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.theme.HintStyle().Render("enter to confirm, esc to cancel"))

	return m.theme.PanelStyle().Render(b.String()) + "\n"
}

// Answer returns the submitted text and whether it was submitted
func (m *Model) Answer() (string, bool) {
	return m.answer, m.done
}

// Prompter asks questions with the interactive model
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// Ask runs the prompt until the user submits or cancels
func (p Prompter) Ask(question string) (string, error) {
	opts := []tea.ProgramOption{}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(New(question), opts...).Run()
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}

	model, ok := final.(*Model)
	if !ok {
		return "", fmt.Errorf("unexpected prompt model %T", final)
	}
	answer, submitted := model.Answer()
	if !submitted {
		return "", ErrAborted
	}
	return answer, nil
}
