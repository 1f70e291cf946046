package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	pendingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("236"))

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Padding(0, 1)
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := m.renderStatusBar()
	content := m.renderOutputs()
	helpBar := helpStyle.Render(
		"j/k select  arrows move  s snap  e enable  r rotate  p primary  " +
			"a apply  c confirm  v revert  R reset  q quit")

	var errLine string
	if m.lastErr != "" {
		errLine = errorStyle.Render(m.lastErr)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		content,
		errLine,
		helpBar,
	)
}

func (m model) renderStatusBar() string {
	if m.status == nil {
		return statusBarStyle.Width(m.width).Render("xarrange | connecting...")
	}

	snapLabel := "snap off"
	if m.snap {
		snapLabel = "snap on"
	}
	label := fmt.Sprintf("xarrange | %s | %s", m.status.State, snapLabel)
	if m.status.Modified {
		label += " | modified"
	}

	style := statusBarStyle
	if m.status.ConfirmRemaining > 0 {
		label += fmt.Sprintf(" | reverting in %.0fs unless confirmed (c)", m.status.ConfirmRemaining)
		style = pendingStyle
	}
	return style.Width(m.width).Render(label)
}

func (m model) renderOutputs() string {
	if m.outputs == nil {
		return "\n  loading outputs...\n"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n  screen %dx%d\n\n", m.outputs.ScreenWidth, m.outputs.ScreenHeight))

	for i, o := range m.outputs.Outputs {
		marker := "  "
		if o.Primary {
			marker = " *"
		}

		var desc string
		switch {
		case !o.Enabled:
			desc = "off"
		case o.Mode != nil:
			desc = fmt.Sprintf("%dx%d@%.2f  +%d+%d  %s", o.Mode.Width, o.Mode.Height,
				o.Mode.Refresh, o.X, o.Y, o.Rotation)
		default:
			desc = "enabled (no mode)"
		}
		if o.Product != "" {
			desc += fmt.Sprintf("  [%s]", o.Product)
		}

		line := fmt.Sprintf("%s %-12s %s", marker, o.Name, desc)
		switch {
		case i == m.selected:
			line = selectedStyle.Width(m.width).Render(line)
		case !o.Enabled:
			line = disabledStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
