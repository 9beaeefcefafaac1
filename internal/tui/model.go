// Package tui is the interactive terminal front end. It renders the
// orchestrator state and forwards key presses as intents; it never changes
// the state itself.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dshills/byteme/internal/analysis"
	"github.com/dshills/byteme/internal/render"
	"github.com/dshills/byteme/internal/request"
)

// Controller is the slice of the orchestrator the UI drives.
type Controller interface {
	Submit(request.Request) error
	Reset()
	Retry() error
	State() analysis.State
}

// StateMsg carries an orchestrator transition into the program.
type StateMsg analysis.State

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")).MarginBottom(1)
	styleHelp   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginTop(1)
)

// Model is the bubbletea model.
type Model struct {
	ctl      Controller
	url      textinput.Model
	desc     textinput.Model
	spinner  spinner.Model
	state    analysis.State
	notice   string
	width    int
	quitting bool
}

// New builds a model showing the controller's current state.
func New(ctl Controller) Model {
	url := textinput.New()
	url.Placeholder = "https://www.tiktok.com/@user/video/123"
	url.Prompt = "URL: "
	url.CharLimit = 2048
	url.Width = 60
	url.Focus()

	desc := textinput.New()
	desc.Placeholder = "optional description"
	desc.Prompt = "Description: "
	desc.CharLimit = 500
	desc.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{ctl: ctl, url: url, desc: desc, spinner: sp, state: ctl.State()}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case StateMsg:
		return m.onState(analysis.State(msg))

	case spinner.TickMsg:
		if m.state.Phase != analysis.PhaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.onKey(msg)
	}
	return m, nil
}

func (m Model) onState(st analysis.State) (tea.Model, tea.Cmd) {
	prev := m.state.Phase
	m.state = st
	switch st.Phase {
	case analysis.PhaseLoading:
		m.notice = ""
		if prev != analysis.PhaseLoading {
			return m, m.spinner.Tick
		}
	case analysis.PhaseIdle:
		if prev != analysis.PhaseIdle {
			m.url.Reset()
			m.desc.Reset()
			m.desc.Blur()
			return m, m.url.Focus()
		}
	}
	return m, nil
}

func (m Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state.Phase {
	case analysis.PhaseLoading:
		if msg.Type == tea.KeyEsc {
			m.ctl.Reset()
		}
		return m, nil

	case analysis.PhaseSucceeded, analysis.PhaseFailed:
		switch msg.String() {
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.state.Phase == analysis.PhaseFailed {
				m.notice = errText(m.ctl.Retry())
			}
		case "esc", "n", "enter":
			m.ctl.Reset()
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyTab, tea.KeyShiftTab:
		if m.url.Focused() {
			m.url.Blur()
			return m, m.desc.Focus()
		}
		m.desc.Blur()
		return m, m.url.Focus()
	case tea.KeyEnter:
		m.notice = errText(m.ctl.Submit(request.New(m.url.Value(), m.desc.Value())))
		return m, nil
	}

	var cmd tea.Cmd
	if m.url.Focused() {
		m.url, cmd = m.url.Update(msg)
	} else {
		m.desc, cmd = m.desc.Update(msg)
	}
	return m, cmd
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(styleHeader.Render("BYTEME video analyzer"))
	b.WriteString("\n")

	switch m.state.Phase {
	case analysis.PhaseIdle:
		b.WriteString(m.url.View() + "\n")
		b.WriteString(m.desc.View() + "\n")
		if m.notice != "" {
			b.WriteString("\n" + render.ErrorStyle().Render(m.notice) + "\n")
		}
		b.WriteString(styleHelp.Render("enter analyze • tab switch field • esc quit"))
	case analysis.PhaseLoading:
		fmt.Fprintf(&b, "%s Analyzing %s ...\n", m.spinner.View(), m.state.Request.URL)
		b.WriteString(styleHelp.Render("esc cancel • ctrl+c quit"))
	case analysis.PhaseSucceeded:
		b.WriteString(render.Text(m.state))
		b.WriteString(styleHelp.Render("n new analysis • q quit"))
	case analysis.PhaseFailed:
		b.WriteString(render.Text(m.state))
		if m.notice != "" {
			b.WriteString(render.ErrorStyle().Render(m.notice) + "\n")
		}
		b.WriteString(styleHelp.Render("r retry • esc back • q quit"))
	}
	return b.String() + "\n"
}
