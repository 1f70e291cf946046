// Package tui is an interactive arrangement front end that talks to the
// daemon over IPC.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbletea"

	"github.com/xarrange/xarrange/internal/config"
	"github.com/xarrange/xarrange/internal/ipc"
)

// TUI wraps the bubbletea program.
type TUI struct {
	client *ipc.Client
	cfg    *config.Config
}

// New creates a new TUI instance.
func New() *TUI {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return &TUI{
		client: ipc.NewClient(),
		cfg:    cfg,
	}
}

// Run starts the TUI main loop.
func (t *TUI) Run() error {
	if err := t.client.Ping(); err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}
	p := tea.NewProgram(newModel(t.client, t.cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type outputsMsg *ipc.OutputsData
type statusMsg *ipc.StatusData
type opErrMsg struct{ err error }
type tickMsg time.Time

// model is the root bubbletea model for the TUI.
type model struct {
	client *ipc.Client
	cfg    *config.Config

	outputs  *ipc.OutputsData
	status   *ipc.StatusData
	selected int
	snap     bool
	lastErr  string

	width  int
	height int
}

func newModel(client *ipc.Client, cfg *config.Config) model {
	return model{
		client: client,
		cfg:    cfg,
		snap:   true,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetchOutputs, m.fetchStatus, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) fetchOutputs() tea.Msg {
	data, err := m.client.GetOutputs()
	if err != nil {
		return opErrMsg{err}
	}
	return outputsMsg(data)
}

func (m model) fetchStatus() tea.Msg {
	status, err := m.client.GetStatus()
	if err != nil {
		return opErrMsg{err}
	}
	return statusMsg(status)
}

// mutate runs an IPC mutation and refreshes the output list.
func (m model) mutate(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return opErrMsg{err}
		}
		return nil
	}
}

func (m model) selectedOutput() *ipc.OutputInfo {
	if m.outputs == nil || len(m.outputs.Outputs) == 0 {
		return nil
	}
	if m.selected >= len(m.outputs.Outputs) {
		return &m.outputs.Outputs[0]
	}
	return &m.outputs.Outputs[m.selected]
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case outputsMsg:
		m.outputs = msg
		if m.selected >= len(m.outputs.Outputs) {
			m.selected = 0
		}
		return m, nil

	case statusMsg:
		m.status = msg
		return m, nil

	case opErrMsg:
		m.lastErr = msg.err.Error()
		return m, m.fetchOutputs

	case tickMsg:
		return m, tea.Batch(m.fetchStatus, m.fetchOutputs, tick())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.cfg.PosMoveDist
	if step <= 0 {
		step = 10
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "j", "tab":
		if m.outputs != nil && len(m.outputs.Outputs) > 0 {
			m.selected = (m.selected + 1) % len(m.outputs.Outputs)
		}
		return m, nil

	case "k", "shift+tab":
		if m.outputs != nil && len(m.outputs.Outputs) > 0 {
			m.selected = (m.selected - 1 + len(m.outputs.Outputs)) % len(m.outputs.Outputs)
		}
		return m, nil

	case "s":
		m.snap = !m.snap
		return m, nil

	case "left", "right", "up", "down":
		o := m.selectedOutput()
		if o == nil || !o.Enabled {
			return m, nil
		}
		dx, dy := 0, 0
		switch msg.String() {
		case "left":
			dx = -step
		case "right":
			dx = step
		case "up":
			dy = -step
		case "down":
			dy = step
		}
		name, snap := o.Name, m.snap
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(func() error { return m.client.MoveOutput(name, dx, dy, snap) }),
			m.fetchOutputs,
		)

	case "e":
		o := m.selectedOutput()
		if o == nil {
			return m, nil
		}
		name, enable := o.Name, !o.Enabled
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(func() error { return m.client.SetEnabled(name, enable) }),
			m.fetchOutputs,
		)

	case "r":
		o := m.selectedOutput()
		if o == nil || !o.Enabled {
			return m, nil
		}
		name, rot := o.Name, nextRotation(o.Rotation)
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(func() error { return m.client.SetRotation(name, rot) }),
			m.fetchOutputs,
		)

	case "p":
		o := m.selectedOutput()
		if o == nil || !o.Enabled {
			return m, nil
		}
		name := o.Name
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(func() error { return m.client.SetPrimary(name) }),
			m.fetchOutputs,
		)

	case "a":
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(func() error { _, err := m.client.Apply(); return err }),
			m.fetchStatus,
		)

	case "c":
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(m.client.Confirm),
			m.fetchStatus,
			m.fetchOutputs,
		)

	case "v":
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(m.client.Revert),
			m.fetchStatus,
			m.fetchOutputs,
		)

	case "R":
		m.lastErr = ""
		return m, tea.Sequence(
			m.mutate(m.client.Reset),
			m.fetchOutputs,
		)
	}

	return m, nil
}

// nextRotation cycles normal -> left -> inverted -> right.
func nextRotation(current string) string {
	switch current {
	case "normal":
		return "left"
	case "left":
		return "inverted"
	case "inverted":
		return "right"
	default:
		return "normal"
	}
}
