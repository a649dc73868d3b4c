// Package timer defines the task timer domain model: one record per work
// session tracked against a task, attributable to one or more assignees.
package timer

import (
	"time"

	"github.com/google/uuid"
	"github.com/oyucel/timeledger/internal/timefmt"
)

// Timer is a single start/stop session against a task. A timer with a start
// and no stop is running; one with both is closed. Durations are kept as
// whole minutes and formatted to "HH:MM" only at the presentation boundary.
type Timer struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	Assignees    []string   `json:"assignees"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	StoppedAt    *time.Time `json:"stopped_at,omitempty"`
	TotalMinutes int        `json:"total_minutes"`
}

func NewTimer(taskID string, assignees []string, startedAt time.Time) *Timer {
	return &Timer{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Assignees: assignees,
		StartedAt: &startedAt,
	}
}

func (t *Timer) IsRunning() bool {
	return t.StartedAt != nil && t.StoppedAt == nil
}

func (t *Timer) IsClosed() bool {
	return t.StartedAt != nil && t.StoppedAt != nil
}

// ElapsedMinutes returns the whole minutes between start and stop, rounded
// down. It is 0 for timers that are not closed or whose stop precedes start.
func (t *Timer) ElapsedMinutes() int {
	if !t.IsClosed() {
		return 0
	}

	elapsed := int(t.StoppedAt.Sub(*t.StartedAt) / time.Minute)
	if elapsed < 0 {
		return 0
	}

	return elapsed
}

// TotalHours renders the accumulated session duration as "HH:MM".
func (t *Timer) TotalHours() string {
	return timefmt.FormatMinutes(t.TotalMinutes)
}
