package session

import "strings"

// Panel identifies one refreshable data pane.
type Panel int

const (
	PanelTasks Panel = iota
	PanelEvents
	PanelMemories
)

func (p Panel) String() string {
	switch p {
	case PanelTasks:
		return "tasks"
	case PanelEvents:
		return "events"
	case PanelMemories:
		return "memories"
	default:
		return "unknown"
	}
}

// RefreshTargets maps a backend intent string to the panels it invalidates.
// Matching is case-insensitive substring, each keyword checked independently,
// so a combined intent like "task_and_calendar" refreshes both. An intent
// matching nothing refreshes nothing.
func RefreshTargets(intent string) []Panel {
	lowered := strings.ToLower(intent)
	var targets []Panel
	if strings.Contains(lowered, "task") {
		targets = append(targets, PanelTasks)
	}
	if strings.Contains(lowered, "calendar") {
		targets = append(targets, PanelEvents)
	}
	if strings.Contains(lowered, "memory") {
		targets = append(targets, PanelMemories)
	}
	return targets
}

// Notification is the toast shown when an intent-driven refresh lands.
func Notification(p Panel) string {
	switch p {
	case PanelTasks:
		return "Task operation completed"
	case PanelEvents:
		return "Calendar operation completed"
	case PanelMemories:
		return "Memory saved"
	default:
		return ""
	}
}
