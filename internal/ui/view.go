package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"postui/internal/panels"
	"postui/internal/session"
)

// layout recomputes pane geometry and rebuilds the markdown renderer for
// the new chat width.
func (m *Model) layout() {
	sidebarWidth := clampInt(m.width/3, 28, 46)
	chatWidth := maxInt(20, m.width-sidebarWidth-3)
	chatHeight := maxInt(4, m.height-5)

	if m.chat.Width == 0 {
		m.chat = viewport.New(chatWidth, chatHeight)
	} else {
		m.chat.Width = chatWidth
		m.chat.Height = chatHeight
	}
	m.input.Width = chatWidth - 4
	m.filter.Width = sidebarWidth - 6

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(maxInt(20, chatWidth-2)),
	)
	if err != nil {
		m.markdown = nil
	} else {
		m.markdown = renderer
	}
}

// syncChat re-renders the transcript into the viewport. Scroll position is
// kept unless the caller wants the newest turn visible.
func (m *Model) syncChat(toBottom bool) {
	if m.chat.Width == 0 {
		return
	}
	wasAtBottom := m.chat.AtBottom()
	m.chat.SetContent(m.renderTranscript())
	if toBottom || wasAtBottom {
		m.chat.GotoBottom()
	}
}

func (m *Model) renderTranscript() string {
	turns := m.store.Transcript()
	if len(turns) == 0 {
		return m.theme.dim.Render("No messages yet. Ask your assistant anything.")
	}
	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderTurn(turn))
	}
	return b.String()
}

func (m *Model) renderTurn(turn session.ChatTurn) string {
	stamp := m.theme.timestamp.Render(turn.At.Format("15:04:05"))
	if turn.Role == session.RoleUser {
		header := m.theme.userLabel.Render("You") + " " + stamp
		body := lipgloss.NewStyle().Width(m.chat.Width).Render(turn.Text)
		return header + "\n" + body + "\n"
	}
	header := m.theme.botLabel.Render("POS")
	if turn.Agent != "" {
		header += " " + m.theme.agentTag.Render("["+turn.Agent+"]")
	}
	if turn.Intent != "" {
		header += " " + m.theme.dim.Render("("+turn.Intent+")")
	}
	header += " " + stamp
	return header + "\n" + m.safeRenderMarkdown(turn.Text) + "\n"
}

// safeRenderMarkdown renders assistant text through glamour, falling back
// to the raw text if rendering fails or panics on odd input.
func (m *Model) safeRenderMarkdown(text string) (out string) {
	out = text
	if m.markdown == nil {
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()
	rendered, err := m.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}
	var body string
	switch m.activeTab {
	case tabSettings:
		body = m.renderSettings()
	default:
		body = m.renderChatTab()
	}
	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
	if m.quitConfirm {
		modal := m.theme.modal.Render("Quit? Press y to confirm, any other key to stay.")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	return view
}

func (m Model) renderHeader() string {
	title := m.theme.header.Render("POS Assistant")
	backend := m.theme.dim.Render(m.backend.BaseURL())
	var tabs string
	if m.activeTab == tabChat {
		tabs = m.theme.tabActive.Render("Chat") + m.theme.tabInactive.Render("Settings")
	} else {
		tabs = m.theme.tabInactive.Render("Chat") + m.theme.tabActive.Render("Settings")
	}
	gap := maxInt(1, m.width-lipgloss.Width(title)-lipgloss.Width(backend)-lipgloss.Width(tabs))
	return title + strings.Repeat(" ", gap) + backend + " " + tabs
}

func (m Model) renderChatTab() string {
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.chat.View(),
		m.renderInput(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", m.renderSidebar())
}

func (m Model) renderInput() string {
	marker := "> "
	if m.busy {
		marker = m.spin.View()
	}
	return marker + m.input.View()
}

func (m Model) renderSidebar() string {
	width := clampInt(m.width/3, 28, 46)
	inner := width - 4
	sections := []string{
		m.renderTasksPane(inner),
		m.renderEventsPane(inner),
		m.renderMemoriesPane(inner),
		m.renderXPPane(inner),
	}
	return m.theme.paneBorder.Width(width - 2).Render(strings.Join(sections, "\n\n"))
}

func (m Model) renderTasksPane(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.paneTitle.Render("Tasks"))
	b.WriteString("\n")
	tasks, loaded := m.store.Tasks()
	if !loaded {
		b.WriteString(m.theme.dim.Render("loading..."))
		return b.String()
	}
	groups := panels.GroupTasks(tasks)
	if len(groups) == 0 {
		b.WriteString(m.theme.dim.Render("No tasks yet"))
		return b.String()
	}
	for i, group := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.theme.priorityStyle(group.Priority).Render(group.Priority))
		for _, task := range group.Tasks {
			b.WriteString("\n  " + truncate(task.Name, width-12))
			if task.XP > 0 {
				b.WriteString(m.theme.dim.Render(fmt.Sprintf(" +%d XP", task.XP)))
			}
		}
	}
	return b.String()
}

func (m Model) renderEventsPane(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.paneTitle.Render("Calendar"))
	b.WriteString("\n")
	events, loaded := m.store.Events()
	if !loaded {
		b.WriteString(m.theme.dim.Render("loading..."))
		return b.String()
	}
	visible := panels.VisibleEvents(events)
	if len(visible) == 0 {
		b.WriteString(m.theme.dim.Render("No upcoming events"))
		return b.String()
	}
	for i, event := range visible {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(truncate(event.Title, width))
		when := strings.TrimSpace(event.Date + " " + event.Time)
		if when != "" {
			b.WriteString("\n  " + m.theme.dim.Render(when))
		}
	}
	return b.String()
}

func (m Model) renderMemoriesPane(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.paneTitle.Render("Memories"))
	b.WriteString(" " + m.filter.View())
	b.WriteString("\n")
	memories, loaded := m.store.Memories()
	if !loaded {
		b.WriteString(m.theme.dim.Render("loading..."))
		return b.String()
	}
	matched := panels.FilterMemories(memories, m.filter.Value())
	if len(matched) == 0 {
		if strings.TrimSpace(m.filter.Value()) != "" {
			b.WriteString(m.theme.dim.Render("No memories match"))
		} else {
			b.WriteString(m.theme.dim.Render("No memories yet"))
		}
		return b.String()
	}
	for i, memory := range matched {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + truncate(string(memory), width-2))
	}
	return b.String()
}

func (m Model) renderXPPane(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.paneTitle.Render("XP"))
	b.WriteString("\n")
	xp, loaded := m.store.XP()
	if !loaded {
		b.WriteString(m.theme.dim.Render("loading..."))
		return b.String()
	}
	rows := panels.XPProgress(xp)
	barWidth := maxInt(6, width-22)
	any := false
	for _, row := range rows {
		if row.XP == 0 {
			continue
		}
		if any {
			b.WriteString("\n")
		}
		any = true
		b.WriteString(fmt.Sprintf("%-13s %s %d XP", row.Role, m.progressBar(barWidth, row.Progress), row.XP))
	}
	if !any {
		b.WriteString(m.theme.dim.Render("No XP earned yet"))
	}
	return b.String()
}

func (m Model) progressBar(width int, frac float64) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return m.theme.xpBarFull.Render(strings.Repeat("█", filled)) +
		m.theme.xpBarEmpty.Render(strings.Repeat("░", width-filled))
}

func (m Model) renderSettings() string {
	row := func(key, value string) string {
		return m.theme.settingKey.Render(fmt.Sprintf("%-18s", key)) + value
	}
	count := func(n int, loaded bool) string {
		if !loaded {
			return m.theme.dim.Render("not loaded")
		}
		return fmt.Sprintf("%d", n)
	}
	tasks, tasksLoaded := m.store.Tasks()
	events, eventsLoaded := m.store.Events()
	memories, memoriesLoaded := m.store.Memories()
	uptime := time.Since(m.startedAt).Round(time.Second)
	lines := []string{
		m.theme.paneTitle.Render("Settings"),
		"",
		row("Backend", m.backend.BaseURL()),
		row("Fetch timeout", fmt.Sprintf("%ds", m.cfg.FetchTimeoutSeconds)),
		row("Query timeout", fmt.Sprintf("%ds", m.cfg.QueryTimeoutSeconds)),
		row("Debug log", onOff(m.cfg.Debug)),
		"",
		m.theme.paneTitle.Render("Connected Services"),
		"",
		row("Notion", m.theme.statusOK.Render("connected")),
		row("Google Calendar", m.theme.statusOK.Render("connected")),
		row("PineconeDB", m.theme.statusOK.Render("connected")),
		"",
		m.theme.paneTitle.Render("AI Model"),
		"",
		row("Model", "Gemini 2.5 Flash"),
		row("Provider", "Google AI"),
		row("Backend stack", "FastAPI + LangGraph"),
		row("Version", "1.0.0"),
		"",
		m.theme.paneTitle.Render("Session"),
		"",
		row("Prompts sent", fmt.Sprintf("%d", m.store.UserTurnCount())),
		row("Cached tasks", count(len(tasks), tasksLoaded)),
		row("Cached events", count(len(events), eventsLoaded)),
		row("Cached memories", count(len(memories), memoriesLoaded)),
		row("Uptime", uptime.String()),
		"",
		m.theme.paneTitle.Render("Actions"),
		"",
		"  c  clear chat history",
		"  r  reset all panel data",
		"  q  quit",
	}
	body := strings.Join(lines, "\n")
	height := maxInt(4, m.height-3)
	return lipgloss.NewStyle().Height(height).Padding(0, 2).Render(body)
}

func (m Model) renderFooter() string {
	var help string
	if m.activeTab == tabChat {
		help = "enter send | ctrl+r refresh all | ctrl+t/g/o refresh pane | ctrl+l clear | ctrl+f filter | tab settings | esc quit"
	} else {
		help = "tab chat | esc quit"
	}
	left := m.theme.help.Render(help)
	var right string
	switch {
	case m.toastText != "":
		right = m.theme.toast.Render(m.toastText)
	case m.statusErr:
		right = m.theme.statusErr.Render(m.statusLine)
	case m.statusLine != "":
		right = m.theme.statusOK.Render(m.statusLine)
	}
	gap := maxInt(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
