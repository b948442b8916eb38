// Package session holds all client-side state for one run of the UI: the
// chat transcript and the cached panel snapshots. Nothing here talks to the
// network; the store only records what the transport layer delivered.
package session

import (
	"time"

	"postui/internal/api"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one transcript entry. Agent and Intent are set only on
// assistant turns, when the backend supplied them.
type ChatTurn struct {
	Role   Role
	Text   string
	Agent  string
	Intent string
	At     time.Time
}

// snapshot distinguishes "never fetched" from "fetched and empty". A failed
// fetch never writes a snapshot, so stale data survives transient errors.
type snapshot[T any] struct {
	loaded bool
	items  []T
}

func (s *snapshot[T]) set(items []T) {
	s.loaded = true
	s.items = items
}

func (s *snapshot[T]) get() ([]T, bool) { return s.items, s.loaded }

func (s *snapshot[T]) reset() { *s = snapshot[T]{} }

// Store is the single owner of session state. The UI model runs in one
// goroutine, so no locking is needed.
type Store struct {
	transcript []ChatTurn
	tasks      snapshot[api.Task]
	events     snapshot[api.Event]
	memories   snapshot[api.Memory]
	xp         api.XPSummary
	xpLoaded   bool
}

func NewStore() *Store { return &Store{} }

// AppendTurn adds one transcript entry, stamping it with the current time.
func (s *Store) AppendTurn(role Role, text, agent, intent string) {
	s.transcript = append(s.transcript, ChatTurn{Role: role, Text: text, Agent: agent, Intent: intent, At: time.Now()})
}

// Transcript returns a copy of the chat history in arrival order.
func (s *Store) Transcript() []ChatTurn {
	out := make([]ChatTurn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// ClearTranscript drops the chat history. Panel caches are untouched.
func (s *Store) ClearTranscript() { s.transcript = nil }

// UserTurnCount reports how many prompts were submitted this session.
func (s *Store) UserTurnCount() int {
	n := 0
	for _, turn := range s.transcript {
		if turn.Role == RoleUser {
			n++
		}
	}
	return n
}

func (s *Store) SetTasks(tasks []api.Task) { s.tasks.set(tasks) }

func (s *Store) Tasks() ([]api.Task, bool) { return s.tasks.get() }

func (s *Store) SetEvents(events []api.Event) { s.events.set(events) }

func (s *Store) Events() ([]api.Event, bool) { return s.events.get() }

func (s *Store) SetMemories(memories []api.Memory) { s.memories.set(memories) }

func (s *Store) Memories() ([]api.Memory, bool) { return s.memories.get() }

// SetXP records per-role totals. A nil summary still counts as loaded.
func (s *Store) SetXP(xp api.XPSummary) {
	s.xp = xp
	s.xpLoaded = true
}

func (s *Store) XP() (api.XPSummary, bool) { return s.xp, s.xpLoaded }

// ResetPanels drops every cached snapshot, XP included, returning the panels
// to their never-fetched state. The transcript is untouched.
func (s *Store) ResetPanels() {
	s.tasks.reset()
	s.events.reset()
	s.memories.reset()
	s.xp = nil
	s.xpLoaded = false
}
