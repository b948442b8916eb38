// Package panels shapes cached backend snapshots into the exact structures
// the renderer draws: priority-bucketed tasks, the capped event list, the
// filtered memory list, and per-role XP progress. Everything here is pure.
package panels

import (
	"strings"

	"postui/internal/api"
)

// eventDisplayCap bounds how many upcoming events the calendar pane shows.
const eventDisplayCap = 5

// PriorityOrder lists the recognized task buckets in display order. Tasks
// with any other priority value are silently dropped.
var PriorityOrder = []string{"High", "Medium", "Low"}

// Roles lists the four XP roles in display order.
var Roles = []string{"Producer", "Administrator", "Entrepreneur", "Integrator"}

// xpPerLevel is the XP needed to fill one progress gauge.
const xpPerLevel = 1000

// TaskGroup is one non-empty priority bucket, tasks in arrival order.
type TaskGroup struct {
	Priority string
	Tasks    []api.Task
}

// GroupTasks buckets tasks by priority, High before Medium before Low.
// Buckets with no tasks are omitted entirely.
func GroupTasks(tasks []api.Task) []TaskGroup {
	var groups []TaskGroup
	for _, priority := range PriorityOrder {
		var bucket []api.Task
		for _, task := range tasks {
			if task.Priority == priority {
				bucket = append(bucket, task)
			}
		}
		if len(bucket) > 0 {
			groups = append(groups, TaskGroup{Priority: priority, Tasks: bucket})
		}
	}
	return groups
}

// VisibleEvents returns at most the first five events, preserving order.
func VisibleEvents(events []api.Event) []api.Event {
	if len(events) > eventDisplayCap {
		return events[:eventDisplayCap]
	}
	return events
}

// FilterMemories keeps memories whose text contains the query,
// case-insensitive. An empty or whitespace query keeps everything.
func FilterMemories(memories []api.Memory, query string) []api.Memory {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return memories
	}
	var kept []api.Memory
	for _, memory := range memories {
		if strings.Contains(strings.ToLower(string(memory)), needle) {
			kept = append(kept, memory)
		}
	}
	return kept
}

// RoleProgress is one row of the XP box.
type RoleProgress struct {
	Role     string
	XP       int
	Progress float64
}

// XPProgress builds one row per known role in fixed order. The gauge clamps
// to [0, 1] while the raw XP keeps whatever value the backend sent, so a
// malformed negative total still renders instead of crashing. Roles absent
// from the summary show zero.
func XPProgress(xp api.XPSummary) []RoleProgress {
	rows := make([]RoleProgress, 0, len(Roles))
	for _, role := range Roles {
		value := xp[role]
		progress := float64(value) / float64(xpPerLevel)
		if progress > 1.0 {
			progress = 1.0
		}
		if progress < 0 {
			progress = 0
		}
		rows = append(rows, RoleProgress{Role: role, XP: value, Progress: progress})
	}
	return rows
}
