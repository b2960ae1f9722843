// Package console provides an interactive terminal chat for exercising the
// assistant locally, without a WhatsApp number or webhook tunnel.
package console

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rotinabot/rotina/internal/assistant"
)

// defaultChannelID is the synthetic identity the console chats under.
const defaultChannelID = "console:local"

// maxHistory caps the scrollback kept in memory.
const maxHistory = 200

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7eb8da")) // steel blue

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7ec699")) // sage green

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c9d1d9"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6e7681"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d48a8a")) // dusty rose

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#d4a054")) // amber
)

type chatLine struct {
	fromUser bool
	meta     string
	text     string
}

// Model is the bubbletea model for the chat console.
type Model struct {
	assistant *assistant.Assistant
	channelID string
	lines     []chatLine
	input     string
	width     int
	height    int
	quitting  bool
}

// NewModel creates a console model chatting under the default local identity.
func NewModel(a *assistant.Assistant) Model {
	return Model{
		assistant: a,
		channelID: defaultChannelID,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key and window events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.submit(), nil
		case "backspace":
			if len(m.input) > 0 {
				runes := []rune(m.input)
				m.input = string(runes[:len(runes)-1])
			}
		default:
			if msg.Type == tea.KeyRunes {
				m.input += string(msg.Runes)
			} else if msg.Type == tea.KeySpace {
				m.input += " "
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// submit sends the typed line through the assistant and appends both turns.
func (m Model) submit() Model {
	text := strings.TrimSpace(m.input)
	m.input = ""
	if text == "" {
		return m
	}

	m.lines = append(m.lines, chatLine{fromUser: true, text: text})

	resp, err := m.assistant.HandleMessage(context.Background(), m.channelID, m.channelID, text)
	switch {
	case err != nil:
		m.lines = append(m.lines, chatLine{meta: "error", text: err.Error()})
	case resp.Kind == assistant.KindIgnored:
		m.lines = append(m.lines, chatLine{meta: "ignored: " + resp.Reason})
	default:
		meta := string(resp.Kind)
		if resp.Intent != "" {
			meta += " / " + string(resp.Intent)
		}
		m.lines = append(m.lines, chatLine{meta: meta, text: resp.Text})
	}

	if len(m.lines) > maxHistory {
		m.lines = m.lines[len(m.lines)-maxHistory:]
	}
	return m
}

// View renders the conversation and the input prompt.
func (m Model) View() string {
	if m.quitting {
		return "Até logo.\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Rotina — console de conversa"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter envia, esc sai"))
	b.WriteString("\n\n")

	visible := m.lines
	if max := m.visibleLines(); len(visible) > max {
		visible = visible[len(visible)-max:]
	}
	for _, line := range visible {
		switch {
		case line.fromUser:
			b.WriteString(userStyle.Render("você> " + line.text))
		case line.meta == "error":
			b.WriteString(errorStyle.Render("erro: " + line.text))
		case line.text == "":
			b.WriteString(metaStyle.Render("(" + line.meta + ")"))
		default:
			b.WriteString(metaStyle.Render("[" + line.meta + "] "))
			b.WriteString(botStyle.Render(line.text))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptStyle.Render("> "))
	b.WriteString(m.input)
	b.WriteString("\n")
	return b.String()
}

// visibleLines estimates how many chat lines fit above the prompt.
func (m Model) visibleLines() int {
	if m.height == 0 {
		return maxHistory
	}
	n := m.height - 6
	if n < 1 {
		n = 1
	}
	return n
}

// Run starts the interactive console and blocks until the user quits.
func Run(a *assistant.Assistant) error {
	p := tea.NewProgram(NewModel(a))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}
