// Package ui is the terminal front end: a chat transcript beside live
// panels for tasks, calendar, memories, and XP, all fed by one backend.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"postui/internal/api"
	"postui/internal/config"
	"postui/internal/session"
)

// Backend is the slice of the transport client the UI consumes.
type Backend interface {
	Tasks() ([]api.Task, error)
	Events() ([]api.Event, error)
	Memories() ([]api.Memory, error)
	XPSummary() (api.XPSummary, error)
	Query(prompt string) (api.QueryResponse, error)
	BaseURL() string
}

type tabID int

const (
	tabChat tabID = iota
	tabSettings
)

type focusTarget int

const (
	focusPrompt focusTarget = iota
	focusFilter
)

const toastDuration = 3 * time.Second

// Panel fetch results. notify carries the toast text for intent-driven
// refreshes; manual and startup fetches leave it empty.
type tasksMsg struct {
	tasks  []api.Task
	err    error
	notify string
}

type eventsMsg struct {
	events []api.Event
	err    error
	notify string
}

type memoriesMsg struct {
	memories []api.Memory
	err      error
	notify   string
}

type xpMsg struct {
	xp  api.XPSummary
	err error
}

type queryDoneMsg struct {
	resp api.QueryResponse
	err  error
}

type toastExpiredMsg struct{ seq int }

// Model is the bubbletea state machine for the whole client.
type Model struct {
	cfg     config.Config
	backend Backend
	store   *session.Store
	logger  *zap.Logger

	activeTab tabID
	focus     focusTarget
	input     textinput.Model
	filter    textinput.Model
	chat      viewport.Model
	spin      spinner.Model
	theme     uiTheme
	markdown  *glamour.TermRenderer

	width  int
	height int
	ready  bool

	busy        bool
	pending     int
	refreshBulk bool

	statusLine string
	statusErr  bool
	toastText  string
	toastSeq   int

	quitConfirm bool
	startedAt   time.Time
}

func NewModel(cfg config.Config, backend Backend, logger *zap.Logger) Model {
	input := textinput.New()
	input.Placeholder = "Ask your assistant anything..."
	input.CharLimit = 2000
	input.Focus()

	filter := textinput.New()
	filter.Placeholder = "filter memories"
	filter.CharLimit = 200

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	theme := newTheme()
	spin.Style = theme.botLabel

	return Model{
		cfg:       cfg,
		backend:   backend,
		store:     session.NewStore(),
		logger:    logger,
		input:     input,
		filter:    filter,
		spin:      spin,
		theme:     theme,
		startedAt: time.Now(),
	}
}

// Init kicks off the one automatic load of every panel for this session.
// Later refreshes only happen on demand or when an intent requests them.
func (m Model) Init() tea.Cmd {
	cmds := append(m.refreshAllCmds(), m.spin.Tick, textinput.Blink)
	return tea.Batch(cmds...)
}

func (m Model) refreshAllCmds() []tea.Cmd {
	return []tea.Cmd{
		m.fetchTasksCmd(""),
		m.fetchEventsCmd(""),
		m.fetchMemoriesCmd(""),
		m.fetchXPCmd(),
	}
}

func (m Model) fetchTasksCmd(notify string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		tasks, err := backend.Tasks()
		return tasksMsg{tasks: tasks, err: err, notify: notify}
	}
}

func (m Model) fetchEventsCmd(notify string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		events, err := backend.Events()
		return eventsMsg{events: events, err: err, notify: notify}
	}
}

func (m Model) fetchMemoriesCmd(notify string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		memories, err := backend.Memories()
		return memoriesMsg{memories: memories, err: err, notify: notify}
	}
}

func (m Model) fetchXPCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		xp, err := backend.XPSummary()
		return xpMsg{xp: xp, err: err}
	}
}

func (m Model) queryCmd(prompt string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		resp, err := backend.Query(prompt)
		return queryDoneMsg{resp: resp, err: err}
	}
}

// submitPrompt records the user turn and returns the query command. Blank
// input and an in-flight query both submit nothing.
func (m *Model) submitPrompt(raw string) tea.Cmd {
	prompt := strings.TrimSpace(raw)
	if prompt == "" || m.busy {
		return nil
	}
	m.store.AppendTurn(session.RoleUser, prompt, "", "")
	m.input.SetValue("")
	m.busy = true
	m.setStatus("thinking...", false)
	m.syncChat(true)
	return m.queryCmd(prompt)
}

// refreshAll refetches every panel at once and tracks the countdown so a
// single confirmation toast fires when the last fetch lands.
func (m *Model) refreshAll() tea.Cmd {
	m.pending = 4
	m.refreshBulk = true
	m.setStatus("refreshing...", false)
	return tea.Batch(m.refreshAllCmds()...)
}

func (m *Model) showToast(text string) tea.Cmd {
	m.toastText = text
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m *Model) setStatus(text string, isErr bool) {
	m.statusLine = text
	m.statusErr = isErr
}

func (m *Model) noteFetchDone() (tea.Cmd, bool) {
	if !m.refreshBulk {
		return nil, false
	}
	m.pending--
	if m.pending > 0 {
		return nil, false
	}
	m.refreshBulk = false
	m.setStatus("", false)
	return m.showToast("All data refreshed"), true
}

func (m *Model) handleFetchErr(op string, err error) {
	m.setStatus(fmt.Sprintf("%s failed: %v", op, err), true)
	m.logger.Warn("fetch failed", zap.String("op", op), zap.Error(err))
}

// applyQueryResult folds the backend's reply into the transcript and kicks
// off whichever panel refreshes the intent calls for.
func (m *Model) applyQueryResult(msg queryDoneMsg) tea.Cmd {
	m.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrEmptyResponse) {
			m.setStatus("assistant returned an empty response", true)
		} else {
			m.setStatus(fmt.Sprintf("query failed: %v", msg.err), true)
		}
		m.logger.Warn("query failed", zap.Error(msg.err))
		return nil
	}
	m.store.AppendTurn(session.RoleAssistant, msg.resp.Reply, msg.resp.Agent, msg.resp.Intent)
	m.setStatus("", false)
	m.syncChat(true)

	targets := session.RefreshTargets(msg.resp.Intent)
	if len(targets) == 0 {
		return nil
	}
	// One toast slot, so multi-category intents get their notices joined
	// rather than racing each other off the screen.
	notices := make([]string, 0, len(targets))
	for _, target := range targets {
		notices = append(notices, session.Notification(target))
	}
	notify := strings.Join(notices, " · ")
	cmds := make([]tea.Cmd, 0, len(targets)+1)
	for _, target := range targets {
		switch target {
		case session.PanelTasks:
			cmds = append(cmds, m.fetchTasksCmd(notify))
		case session.PanelEvents:
			cmds = append(cmds, m.fetchEventsCmd(notify))
		case session.PanelMemories:
			cmds = append(cmds, m.fetchMemoriesCmd(notify))
		}
	}
	// Panel mutations usually move XP too.
	cmds = append(cmds, m.fetchXPCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.syncChat(true)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tasksMsg:
		if msg.err != nil {
			m.handleFetchErr("tasks", msg.err)
		} else {
			m.store.SetTasks(msg.tasks)
			if msg.notify != "" {
				cmds = append(cmds, m.showToast(msg.notify))
			}
		}
		if cmd, ok := m.noteFetchDone(); ok {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case eventsMsg:
		if msg.err != nil {
			m.handleFetchErr("events", msg.err)
		} else {
			m.store.SetEvents(msg.events)
			if msg.notify != "" {
				cmds = append(cmds, m.showToast(msg.notify))
			}
		}
		if cmd, ok := m.noteFetchDone(); ok {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case memoriesMsg:
		if msg.err != nil {
			m.handleFetchErr("memories", msg.err)
		} else {
			m.store.SetMemories(msg.memories)
			if msg.notify != "" {
				cmds = append(cmds, m.showToast(msg.notify))
			}
		}
		if cmd, ok := m.noteFetchDone(); ok {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case xpMsg:
		if msg.err != nil {
			m.handleFetchErr("xp", msg.err)
		} else {
			m.store.SetXP(msg.xp)
		}
		if cmd, ok := m.noteFetchDone(); ok {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case queryDoneMsg:
		cmd := m.applyQueryResult(msg)
		return m, cmd

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toastText = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.quitConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			return m, tea.Quit
		default:
			m.quitConfirm = false
			return m, nil
		}
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		if m.focus == focusFilter && msg.String() == "esc" {
			m.focusPromptInput()
			return m, nil
		}
		m.quitConfirm = true
		return m, nil
	case "tab":
		if m.activeTab == tabChat {
			m.activeTab = tabSettings
		} else {
			m.activeTab = tabChat
		}
		return m, nil
	}

	switch m.activeTab {
	case tabChat:
		return m.handleChatKey(msg)
	case tabSettings:
		return m.handleSettingsKey(msg)
	}
	return m, nil
}

func (m *Model) focusPromptInput() {
	m.focus = focusPrompt
	m.filter.Blur()
	m.input.Focus()
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.focus == focusFilter {
			m.focusPromptInput()
			return m, nil
		}
		cmd := m.submitPrompt(m.input.Value())
		return m, cmd
	case "ctrl+r":
		cmd := m.refreshAll()
		return m, cmd
	case "ctrl+t":
		return m, m.fetchTasksCmd("Tasks refreshed")
	case "ctrl+g":
		return m, m.fetchEventsCmd("Events refreshed")
	case "ctrl+o":
		return m, m.fetchMemoriesCmd("Memory refreshed")
	case "ctrl+l":
		m.store.ClearTranscript()
		m.syncChat(true)
		cmd := m.showToast("Chat history cleared")
		return m, cmd
	case "ctrl+f":
		if m.focus == focusFilter {
			m.focusPromptInput()
		} else {
			m.focus = focusFilter
			m.input.Blur()
			m.filter.Focus()
		}
		return m, nil
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focus == focusFilter {
		m.filter, cmd = m.filter.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		m.store.ClearTranscript()
		m.syncChat(true)
		cmd := m.showToast("Chat history cleared")
		return m, cmd
	case "r":
		m.store.ResetPanels()
		cmd := m.showToast("All data reset")
		return m, cmd
	case "q":
		m.quitConfirm = true
		return m, nil
	}
	return m, nil
}
