// Package ui renders the console over a terminal using bubbletea. The
// model is a thin projection: all state lives in the console package,
// and the UI only translates key events and repaints on change.
package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tokendeck/tokendeck/internal/console"
)

// refreshMsg asks the program to repaint after the transcript or the
// dispatcher changed on another goroutine.
type refreshMsg struct{}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	sessionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	commandStyle = lipgloss.NewStyle().Bold(true)
	infoStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	busyStyle    = lipgloss.NewStyle().Faint(true).Italic(true)
)

type model struct {
	controller *console.Controller
	network    string
}

func newModel(c *console.Controller, network string) model {
	return model{controller: c, network: network}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		switch v.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.controller.HandleEnter()
		case tea.KeyBackspace:
			m.controller.HandleBackspace()
		case tea.KeyUp:
			m.controller.HandleUp()
		case tea.KeyDown:
			m.controller.HandleDown()
		case tea.KeySpace:
			m.controller.HandleRune(' ')
		case tea.KeyRunes:
			for _, r := range v.Runes {
				m.controller.HandleRune(r)
			}
		}
		return m, nil

	case refreshMsg:
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("tokendeck") + "  " + m.sessionLine() + "\n")
	b.WriteString(strings.Repeat("─", 60) + "\n")

	for _, line := range m.controller.Transcript().Lines() {
		b.WriteString(renderLine(line) + "\n")
	}

	b.WriteString("\n")
	if m.controller.Busy() {
		b.WriteString(busyStyle.Render("working…") + "\n")
	}
	b.WriteString(promptStyle.Render("> ") + m.controller.InputBuffer() + "_\n")

	return b.String()
}

// sessionLine summarizes the wallet session for the header.
func (m model) sessionLine() string {
	s := m.controller.Session()
	if s == nil || !s.Connected {
		return sessionStyle.Render(m.network + " · not connected")
	}
	return sessionStyle.Render(m.network + " · " + s.Address.Short())
}

func renderLine(line console.Line) string {
	switch line.Kind {
	case console.LineCommand:
		return commandStyle.Render(line.Text)
	case console.LineInfo:
		return infoStyle.Render(line.Text)
	case console.LineError:
		return errorStyle.Render(line.Text)
	default:
		return line.Text
	}
}

// Run drives the console until the user quits. Transcript changes and
// command completions arrive on other goroutines, so both are bridged
// into the program as refresh messages.
func Run(c *console.Controller, d *console.Dispatcher, network string) error {
	p := tea.NewProgram(newModel(c, network))

	c.Transcript().OnChange(func() {
		go p.Send(refreshMsg{})
	})
	d.OnDone(func() {
		go p.Send(refreshMsg{})
	})

	_, err := p.Run()
	return err
}
