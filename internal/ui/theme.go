package ui

import "github.com/charmbracelet/lipgloss"

// uiTheme collects every style the renderer uses. The palette echoes the
// dark scheme the assistant's other surfaces use.
type uiTheme struct {
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	userLabel   lipgloss.Style
	botLabel    lipgloss.Style
	agentTag    lipgloss.Style
	timestamp   lipgloss.Style
	paneTitle   lipgloss.Style
	paneBorder  lipgloss.Style
	priHigh     lipgloss.Style
	priMedium   lipgloss.Style
	priLow      lipgloss.Style
	dim         lipgloss.Style
	statusOK    lipgloss.Style
	statusErr   lipgloss.Style
	toast       lipgloss.Style
	xpBarFull   lipgloss.Style
	xpBarEmpty  lipgloss.Style
	help        lipgloss.Style
	modal       lipgloss.Style
	settingKey  lipgloss.Style
}

func newTheme() uiTheme {
	var t uiTheme
	t.header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60a5fa")).Background(lipgloss.Color("#0e1117")).Padding(0, 1)
	t.tabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0e1117")).Background(lipgloss.Color("#60a5fa")).Padding(0, 1)
	t.tabInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")).Padding(0, 1)
	t.userLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10b981"))
	t.botLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60a5fa"))
	t.agentTag = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	t.timestamp = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	t.paneTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e5e7eb"))
	t.paneBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#374151")).Padding(0, 1)
	t.priHigh = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	t.priMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	t.priLow = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	t.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	t.statusOK = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	t.statusErr = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	t.toast = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0e1117")).Background(lipgloss.Color("#10b981")).Padding(0, 1)
	t.xpBarFull = lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa"))
	t.xpBarEmpty = lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))
	t.help = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	t.modal = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#ef4444")).Padding(1, 3)
	t.settingKey = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e5e7eb"))
	return t
}

func (t uiTheme) priorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "High":
		return t.priHigh
	case "Medium":
		return t.priMedium
	case "Low":
		return t.priLow
	default:
		return t.dim
	}
}
