// Package chatui holds the chat display collaborators: a Bubble Tea terminal
// chat and a headless line console.
package chatui

import (
	"fmt"
	"strings"

	"github.com/Krajiyah/ble-chat/pkg/models"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

const maxLines = 500

// Sender delivers typed text to the connected central.
type Sender interface {
	Send(text string) error
}

type line struct {
	id       uuid.UUID
	text     string
	outgoing bool
}

// sendResultMsg carries the outcome of a Send.
type sendResultMsg struct {
	err error
}

// Model is the Bubbletea model for the chat.
type Model struct {
	title       string
	sender      Sender
	bridge      *Bridge
	input       textinput.Model
	lines       []line
	state       models.LifecycleState
	subscribers int
	errorMsg    string
	width       int
	height      int

	keys   KeyMap
	help   help.Model
	styles Styles
}

func NewModel(title string, sender Sender, bridge *Bridge) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message"
	ti.CharLimit = 512
	ti.Focus()

	h := help.New()
	h.ShowAll = false

	return Model{
		title:  title,
		sender: sender,
		bridge: bridge,
		input:  ti,
		keys:   DefaultKeyMap(),
		help:   h,
		styles: DefaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bridge.Next())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - 6
		return m, nil

	case incomingMsg:
		m.appendLine(line{id: msg.id, text: msg.text})
		return m, m.bridge.Next()
	case outgoingMsg:
		m.appendLine(line{id: msg.id, text: msg.text, outgoing: true})
		return m, m.bridge.Next()
	case stateMsg:
		m.state = msg.to
		return m, m.bridge.Next()
	case subscribersMsg:
		m.subscribers = msg.count
		return m, m.bridge.Next()
	case errorMsg:
		m.errorMsg = msg.err.Error()
		return m, m.bridge.Next()

	case sendResultMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Send failed: %v", msg.err)
		} else {
			m.errorMsg = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Send):
		text := m.input.Value()
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		return m, sendCmd(m.sender, text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func sendCmd(s Sender, text string) tea.Cmd {
	return func() tea.Msg {
		return sendResultMsg{err: s.Send(text)}
	}
}

func (m *Model) appendLine(l line) {
	m.lines = append(m.lines, l)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
}

// visibleLines is how many chat lines fit above the input and status bar.
func (m Model) visibleLines() int {
	if m.height == 0 {
		return len(m.lines)
	}
	n := m.height - 10
	if n < 1 {
		n = 1
	}
	return n
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")

	lines := m.lines
	if n := m.visibleLines(); len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		if l.outgoing {
			b.WriteString(m.styles.Outgoing.Render("> " + l.text))
		} else {
			b.WriteString(m.styles.Incoming.Render(l.text))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.errorMsg))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return m.styles.App.Render(b.String())
}

func (m Model) renderStatusBar() string {
	state := m.styles.StatusOffline.Render(m.state.String())
	if m.state == models.Subscribed || m.state == models.Advertising {
		state = m.styles.StatusOnline.Render(m.state.String())
	}
	return m.styles.StatusBar.Render(
		m.styles.StatusKey.Render("state") + m.styles.StatusValue.Render(state) +
			m.styles.StatusKey.Render("subscribers") + m.styles.StatusValue.Render(fmt.Sprint(m.subscribers)),
	)
}
