package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"postui/internal/api"
	"postui/internal/config"
	"postui/internal/session"
)

type fakeBackend struct {
	tasks    []api.Task
	events   []api.Event
	memories []api.Memory
	xp       api.XPSummary
	queryRes api.QueryResponse
	queryErr error

	taskCalls   int
	eventCalls  int
	memoryCalls int
	xpCalls     int
	queryCalls  int
	lastPrompt  string
}

func (f *fakeBackend) Tasks() ([]api.Task, error) {
	f.taskCalls++
	return f.tasks, nil
}

func (f *fakeBackend) Events() ([]api.Event, error) {
	f.eventCalls++
	return f.events, nil
}

func (f *fakeBackend) Memories() ([]api.Memory, error) {
	f.memoryCalls++
	return f.memories, nil
}

func (f *fakeBackend) XPSummary() (api.XPSummary, error) {
	f.xpCalls++
	return f.xp, nil
}

func (f *fakeBackend) Query(prompt string) (api.QueryResponse, error) {
	f.queryCalls++
	f.lastPrompt = prompt
	return f.queryRes, f.queryErr
}

func (f *fakeBackend) BaseURL() string { return "http://test:8000" }

func newTestModel(backend Backend) Model {
	m := NewModel(config.Default(), backend, zap.NewNop())
	m.width = 100
	m.height = 30
	m.layout()
	m.ready = true
	return m
}

// drain runs a command tree to completion, feeding every produced message
// back through Update, and returns the final model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if msg == nil {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tasksMsg, eventsMsg, memoriesMsg, xpMsg, queryDoneMsg:
			updated, follow := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, follow)
		default:
			// Spinner ticks, cursor blinks, and toast expiry timers repeat
			// or sleep; the assertions inspect state before they fire.
		}
	}
	return m
}

func TestSubmitPromptAppendsTurnsAndClearsInput(t *testing.T) {
	backend := &fakeBackend{queryRes: api.QueryResponse{Reply: "hello back"}}
	m := newTestModel(backend)
	m.input.SetValue("  hello there  ")

	cmd := m.submitPrompt(m.input.Value())
	if cmd == nil {
		t.Fatalf("expected a query command")
	}
	if m.input.Value() != "" {
		t.Fatalf("input not cleared: %q", m.input.Value())
	}
	if !m.busy {
		t.Fatalf("model should be busy while the query runs")
	}

	m = drain(t, m, cmd)
	if backend.lastPrompt != "hello there" {
		t.Fatalf("prompt not trimmed: %q", backend.lastPrompt)
	}
	turns := m.store.Transcript()
	if len(turns) != 2 {
		t.Fatalf("expected user and assistant turns, got %d", len(turns))
	}
	if turns[0].Role != session.RoleUser || turns[0].Text != "hello there" {
		t.Fatalf("unexpected user turn: %+v", turns[0])
	}
	if turns[1].Role != session.RoleAssistant || turns[1].Text != "hello back" {
		t.Fatalf("unexpected assistant turn: %+v", turns[1])
	}
	if m.busy {
		t.Fatalf("model should be idle after the reply lands")
	}
}

func TestSubmitPromptIgnoresBlankAndBusy(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(backend)
	if cmd := m.submitPrompt("   "); cmd != nil {
		t.Fatalf("blank prompt should not submit")
	}
	m.busy = true
	if cmd := m.submitPrompt("real prompt"); cmd != nil {
		t.Fatalf("in-flight query should block a second submit")
	}
	if backend.queryCalls != 0 {
		t.Fatalf("backend should not have been called")
	}
}

func TestIntentDrivenRefresh(t *testing.T) {
	backend := &fakeBackend{
		queryRes: api.QueryResponse{Reply: "done", Intent: "task_and_calendar"},
		tasks:    []api.Task{{Name: "new task", Priority: "High"}},
	}
	m := newTestModel(backend)

	m = drain(t, m, m.submitPrompt("add a task"))

	if backend.taskCalls != 1 || backend.eventCalls != 1 {
		t.Fatalf("expected tasks and events refreshed once, got %d/%d", backend.taskCalls, backend.eventCalls)
	}
	if backend.memoryCalls != 0 {
		t.Fatalf("memories should not refresh for this intent, got %d calls", backend.memoryCalls)
	}
	if backend.xpCalls != 1 {
		t.Fatalf("xp should refresh alongside panel mutations, got %d calls", backend.xpCalls)
	}
	tasks, loaded := m.store.Tasks()
	if !loaded || len(tasks) != 1 {
		t.Fatalf("refreshed tasks not stored: loaded=%v n=%d", loaded, len(tasks))
	}
	turns := m.store.Transcript()
	if turns[len(turns)-1].Intent != "task_and_calendar" {
		t.Fatalf("assistant turn should carry the intent, got %q", turns[len(turns)-1].Intent)
	}
}

func TestChitchatIntentRefreshesNothing(t *testing.T) {
	backend := &fakeBackend{queryRes: api.QueryResponse{Reply: "hi", Intent: "chitchat"}}
	m := newTestModel(backend)
	drain(t, m, m.submitPrompt("hello"))
	if backend.taskCalls+backend.eventCalls+backend.memoryCalls+backend.xpCalls != 0 {
		t.Fatalf("no panel should refresh for chitchat")
	}
}

func TestMemoryIntentShowsToast(t *testing.T) {
	backend := &fakeBackend{queryRes: api.QueryResponse{Reply: "saved", Intent: "memory"}}
	m := newTestModel(backend)
	m = drain(t, m, m.submitPrompt("remember this"))
	if m.toastText != "Memory saved" {
		t.Fatalf("expected memory toast, got %q", m.toastText)
	}
}

func TestMultiCategoryIntentJoinsNotices(t *testing.T) {
	backend := &fakeBackend{queryRes: api.QueryResponse{Reply: "done", Intent: "task_and_memory"}}
	m := newTestModel(backend)
	m = drain(t, m, m.submitPrompt("do both"))
	if m.toastText != "Task operation completed · Memory saved" {
		t.Fatalf("multi-category intent should show both notices, got %q", m.toastText)
	}
}

func TestQueryErrorKeepsUserTurn(t *testing.T) {
	backend := &fakeBackend{queryErr: &api.FetchError{Op: "submit query", Err: errors.New("connection refused")}}
	m := newTestModel(backend)
	m = drain(t, m, m.submitPrompt("hello"))

	turns := m.store.Transcript()
	if len(turns) != 1 || turns[0].Role != session.RoleUser {
		t.Fatalf("user turn should survive a failed query: %+v", turns)
	}
	if !m.statusErr || m.statusLine == "" {
		t.Fatalf("error status not set: %q", m.statusLine)
	}
	if m.busy {
		t.Fatalf("busy flag should clear on error")
	}
}

func TestEmptyResponseHasDistinctStatus(t *testing.T) {
	backend := &fakeBackend{queryErr: api.ErrEmptyResponse}
	m := newTestModel(backend)
	m = drain(t, m, m.submitPrompt("hello"))
	if m.statusLine != "assistant returned an empty response" {
		t.Fatalf("unexpected status %q", m.statusLine)
	}
	if len(m.store.Transcript()) != 1 {
		t.Fatalf("no assistant turn should be appended on empty response")
	}
}

func TestRefreshAllFetchesEverythingAndToasts(t *testing.T) {
	backend := &fakeBackend{xp: api.XPSummary{"Producer": 10}}
	m := newTestModel(backend)

	m = drain(t, m, m.refreshAll())

	if backend.taskCalls != 1 || backend.eventCalls != 1 || backend.memoryCalls != 1 || backend.xpCalls != 1 {
		t.Fatalf("expected each fetch once, got %d/%d/%d/%d",
			backend.taskCalls, backend.eventCalls, backend.memoryCalls, backend.xpCalls)
	}
	if m.toastText != "All data refreshed" {
		t.Fatalf("expected bulk refresh toast, got %q", m.toastText)
	}
	if _, loaded := m.store.XP(); !loaded {
		t.Fatalf("xp snapshot should be loaded")
	}
}

func TestInitFetchesAllPanelsOnce(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(backend)
	drain(t, m, m.Init())
	if backend.taskCalls != 1 || backend.eventCalls != 1 || backend.memoryCalls != 1 || backend.xpCalls != 1 {
		t.Fatalf("startup should fetch each panel exactly once, got %d/%d/%d/%d",
			backend.taskCalls, backend.eventCalls, backend.memoryCalls, backend.xpCalls)
	}
}

func TestToastExpiryIgnoresStaleSeq(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	_ = m.showToast("first")
	_ = m.showToast("second")

	updated, _ := m.Update(toastExpiredMsg{seq: 1})
	m = updated.(Model)
	if m.toastText != "second" {
		t.Fatalf("stale expiry must not clear a newer toast, got %q", m.toastText)
	}

	updated, _ = m.Update(toastExpiredMsg{seq: 2})
	m = updated.(Model)
	if m.toastText != "" {
		t.Fatalf("current expiry should clear the toast, got %q", m.toastText)
	}
}

func TestSettingsKeysClearAndReset(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.store.AppendTurn(session.RoleUser, "hi", "", "")
	m.store.SetTasks([]api.Task{{Name: "a"}})
	m.activeTab = tabSettings

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	m = updated.(Model)
	if len(m.store.Transcript()) != 0 {
		t.Fatalf("c should clear the transcript")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(Model)
	if _, loaded := m.store.Tasks(); loaded {
		t.Fatalf("r should drop panel snapshots")
	}
}

func TestTabKeyTogglesViews(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.activeTab != tabSettings {
		t.Fatalf("tab should switch to settings")
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	if m.activeTab != tabChat {
		t.Fatalf("tab should switch back to chat")
	}
}

func TestQuitConfirmFlow(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if !m.quitConfirm {
		t.Fatalf("esc should open the quit prompt")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = updated.(Model)
	if m.quitConfirm {
		t.Fatalf("any non-confirm key should dismiss the quit prompt")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	if cmd == nil {
		t.Fatalf("y should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestPerPanelRefreshKeys(t *testing.T) {
	cases := []struct {
		key   tea.KeyType
		toast string
		calls func(f *fakeBackend) int
	}{
		{tea.KeyCtrlT, "Tasks refreshed", func(f *fakeBackend) int { return f.taskCalls }},
		{tea.KeyCtrlG, "Events refreshed", func(f *fakeBackend) int { return f.eventCalls }},
		{tea.KeyCtrlO, "Memory refreshed", func(f *fakeBackend) int { return f.memoryCalls }},
	}
	for _, tc := range cases {
		backend := &fakeBackend{}
		m := newTestModel(backend)

		updated, cmd := m.Update(tea.KeyMsg{Type: tc.key})
		m = updated.(Model)
		m = drain(t, m, cmd)

		if tc.calls(backend) != 1 {
			t.Fatalf("%v should fetch its panel once, got %d calls", tc.key, tc.calls(backend))
		}
		if m.toastText != tc.toast {
			t.Fatalf("%v toast = %q, want %q", tc.key, m.toastText, tc.toast)
		}
	}
}

func TestSettingsShowsServicesModelAndCachedCounts(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.store.SetTasks([]api.Task{{Name: "a"}, {Name: "b"}})
	m.store.SetMemories([]api.Memory{"note"})

	view := m.renderSettings()
	for _, want := range []string{"Notion", "Google Calendar", "PineconeDB", "Gemini 2.5 Flash", "FastAPI + LangGraph"} {
		if !strings.Contains(view, want) {
			t.Fatalf("settings view missing %q", want)
		}
	}
	if !strings.Contains(view, "Cached tasks") || !strings.Contains(view, "2") {
		t.Fatalf("settings view missing task count:\n%s", view)
	}
	if !strings.Contains(view, "not loaded") {
		t.Fatalf("unloaded events cache should read as not loaded")
	}
}

func TestNegativeXPRendersWithoutPanic(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.store.SetXP(api.XPSummary{"Producer": -100})
	pane := m.renderXPPane(40)
	if !strings.Contains(pane, "-100 XP") {
		t.Fatalf("malformed xp value should still render raw: %q", pane)
	}
}

func TestFailedFetchKeepsStaleSnapshot(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.store.SetTasks([]api.Task{{Name: "keep me"}})

	updated, _ := m.Update(tasksMsg{err: errors.New("backend down")})
	m = updated.(Model)

	tasks, loaded := m.store.Tasks()
	if !loaded || len(tasks) != 1 || tasks[0].Name != "keep me" {
		t.Fatalf("failed fetch must not overwrite cached tasks: %v", tasks)
	}
	if !m.statusErr {
		t.Fatalf("fetch failure should surface in the status line")
	}
}
