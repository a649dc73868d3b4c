// Package tracking implements the task timer state machine, the timer-to-
// ledger reconciliation that credits elapsed minutes to each assignee's
// monthly ledger entry, and the hour-management query side.
package tracking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/oyucel/timeledger/internal/ledger"
	"github.com/oyucel/timeledger/internal/metrics"
	"github.com/oyucel/timeledger/internal/repository"
	"github.com/oyucel/timeledger/internal/statuscache"
	"github.com/oyucel/timeledger/internal/timefmt"
	"github.com/oyucel/timeledger/internal/timer"
)

// Notifier raises an alert when reconciliation pushes a user into overtime.
type Notifier interface {
	NotifyOvertime(user repository.User, month string, overtimeMinutes int) error
}

// Service coordinates timers, ledgers, and the external task/user directory.
// The status cache and the notifier are optional; a nil value disables them.
type Service struct {
	timers    repository.TimerRepository
	ledgers   repository.LedgerRepository
	directory repository.DirectoryRepository
	cache     *statuscache.Cache
	notifier  Notifier
}

func NewService(
	timers repository.TimerRepository,
	ledgers repository.LedgerRepository,
	directory repository.DirectoryRepository,
	cache *statuscache.Cache,
	notifier Notifier,
) *Service {
	return &Service{
		timers:    timers,
		ledgers:   ledgers,
		directory: directory,
		cache:     cache,
		notifier:  notifier,
	}
}

// StartTimer opens a running session against a task. The task must exist and
// at least one assignee must be named.
func (s *Service) StartTimer(ctx context.Context, taskID string, assignees []string, startedAt time.Time) (*timer.Timer, error) {
	if taskID == "" {
		return nil, &ValidationError{Field: "task_id", Reason: "is required"}
	}
	if err := validateAssignees(assignees); err != nil {
		return nil, err
	}
	if startedAt.IsZero() {
		return nil, &ValidationError{Field: "started_at", Reason: "is required"}
	}

	exists, err := s.directory.TaskExists(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTaskNotFound
	}

	t := timer.NewTimer(taskID, assignees, startedAt)
	if err := s.timers.Create(ctx, t); err != nil {
		return nil, err
	}

	metrics.RecordTimerStarted()
	s.cacheRunning(t)

	return t, nil
}

// StopTimer closes a running session, persists the floor-minute elapsed
// duration, and credits it to every assignee's current-month ledger entry.
func (s *Service) StopTimer(ctx context.Context, timerID string, stoppedAt time.Time) (*timer.Timer, error) {
	if stoppedAt.IsZero() {
		return nil, &ValidationError{Field: "stopped_at", Reason: "is required"}
	}

	t, err := s.timers.Get(ctx, timerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTimerNotFound
		}
		return nil, err
	}

	if t.StartedAt == nil {
		return nil, ErrNeverStarted
	}
	if stoppedAt.Before(*t.StartedAt) {
		return nil, &ValidationError{Field: "stopped_at", Reason: "must not precede started_at"}
	}

	t.StoppedAt = &stoppedAt
	t.TotalMinutes = t.ElapsedMinutes()

	if err := s.timers.Update(ctx, t); err != nil {
		return nil, err
	}

	metrics.RecordTimerStopped()
	s.clearRunning(t.TaskID)
	s.reconcile(ctx, t.Assignees, t.TotalMinutes)

	return t, nil
}

// UpsertParams carries a manual timer create or edit. Pointer fields are
// applied only when set; TotalTime, when given, overrides any recomputation.
type UpsertParams struct {
	ID        string
	TaskID    string
	Assignees []string
	StartedAt *time.Time
	StoppedAt *time.Time
	TotalTime *string
}

// UpsertTimer finds the timer by id or creates a new one, applies the given
// fields, and reconciles the full elapsed span when the result is closed.
// Re-editing an already reconciled timer credits its span again; that
// accumulation behavior is inherited and deliberately preserved.
func (s *Service) UpsertTimer(ctx context.Context, p UpsertParams) (*timer.Timer, error) {
	if p.TaskID == "" {
		return nil, &ValidationError{Field: "task_id", Reason: "is required"}
	}
	if err := validateAssignees(p.Assignees); err != nil {
		return nil, err
	}
	if p.TotalTime != nil && !timefmt.Valid(*p.TotalTime) {
		return nil, &ValidationError{Field: "total_time", Reason: "must be in HH:MM format"}
	}

	exists, err := s.directory.TaskExists(ctx, p.TaskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTaskNotFound
	}

	var t *timer.Timer
	created := false
	if p.ID != "" {
		t, err = s.timers.Get(ctx, p.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	if t == nil {
		t = &timer.Timer{ID: p.ID}
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		created = true
	}

	t.TaskID = p.TaskID
	t.Assignees = p.Assignees
	if p.StartedAt != nil {
		t.StartedAt = p.StartedAt
	}
	if p.StoppedAt != nil {
		t.StoppedAt = p.StoppedAt
	}

	if t.StoppedAt != nil && t.StartedAt == nil {
		return nil, &ValidationError{Field: "stopped_at", Reason: "cannot be set without started_at"}
	}
	if t.IsClosed() && t.StoppedAt.Before(*t.StartedAt) {
		return nil, &ValidationError{Field: "stopped_at", Reason: "must not precede started_at"}
	}

	switch {
	case p.TotalTime != nil:
		t.TotalMinutes = timefmt.ParseHHMM(*p.TotalTime)
	case t.IsClosed():
		t.TotalMinutes = t.ElapsedMinutes()
	}

	if created {
		err = s.timers.Create(ctx, t)
	} else {
		err = s.timers.Update(ctx, t)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordManualTimerEdit()

	if t.IsRunning() {
		s.cacheRunning(t)
	} else {
		s.clearRunning(t.TaskID)
	}

	if t.IsClosed() {
		s.reconcile(ctx, t.Assignees, t.ElapsedMinutes())
	}

	return t, nil
}

func (s *Service) GetTimer(ctx context.Context, id string) (*timer.Timer, error) {
	t, err := s.timers.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTimerNotFound
	}

	return t, err
}

// TimerStatus reports whether a timer is currently running for the task.
// With more than one concurrent session, an arbitrary one is reported.
type TimerStatus struct {
	Running   bool       `json:"running"`
	TimerID   string     `json:"timer_id,omitempty"`
	TaskID    string     `json:"task_id"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

func (s *Service) TimerStatus(ctx context.Context, taskID string) (*TimerStatus, error) {
	if s.cache != nil {
		rt, err := s.cache.GetRunning(taskID)
		if err != nil {
			log.Printf("status cache lookup failed for task %s: %v", taskID, err)
		} else if rt != nil {
			return &TimerStatus{
				Running:   true,
				TimerID:   rt.TimerID,
				TaskID:    taskID,
				StartedAt: &rt.StartedAt,
			}, nil
		}
	}

	t, err := s.timers.FindRunningByTask(ctx, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		return &TimerStatus{TaskID: taskID}, nil
	}
	if err != nil {
		return nil, err
	}

	s.cacheRunning(t)

	return &TimerStatus{
		Running:   true,
		TimerID:   t.ID,
		TaskID:    taskID,
		StartedAt: t.StartedAt,
	}, nil
}

// TotalHoursByAssignee sums every timer's recorded minutes per assignee,
// across all months, and formats the lifetime aggregates as "HH:MM".
func (s *Service) TotalHoursByAssignee(ctx context.Context) (map[string]string, error) {
	timers, err := s.timers.List(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	for _, t := range timers {
		for _, assignee := range t.Assignees {
			totals[assignee] += t.TotalMinutes
		}
	}

	formatted := make(map[string]string, len(totals))
	for assignee, minutes := range totals {
		formatted[assignee] = timefmt.FormatMinutes(minutes)
	}

	return formatted, nil
}

// reconcile credits elapsed minutes to each assignee's ledger entry for the
// month in which the stop is processed. Assignee updates are independent:
// one failure is logged and counted without blocking the rest, so a partial
// application is possible and reconciliation is at-least-once, not atomic.
func (s *Service) reconcile(ctx context.Context, assignees []string, minutes int) {
	if minutes <= 0 {
		return
	}

	month := ledger.CurrentMonth(time.Now())
	for _, assignee := range assignees {
		if ledger.IsSystemAccount(assignee) {
			continue
		}

		entry, err := s.ledgers.AddConsumed(ctx, assignee, month, minutes)
		if err != nil {
			log.Printf("failed to reconcile %d minutes for user %s in %s: %v", minutes, assignee, month, err)
			metrics.RecordReconcileFailure()
			continue
		}

		metrics.RecordMinutesReconciled(minutes)

		if entry.OvertimeMinutes() > 0 && entry.ConsumedMinutes-minutes <= entry.TotalMinutes {
			s.alertOvertime(ctx, entry)
		}
	}
}

func (s *Service) alertOvertime(ctx context.Context, entry *ledger.Entry) {
	if s.notifier == nil {
		return
	}

	user, err := s.directory.GetUser(ctx, entry.UserID)
	if err != nil {
		log.Printf("failed to load user %s for overtime alert: %v", entry.UserID, err)
		return
	}

	if err := s.notifier.NotifyOvertime(*user, entry.Month, entry.OvertimeMinutes()); err != nil {
		log.Printf("failed to send overtime alert for user %s: %v", entry.UserID, err)
		return
	}

	metrics.RecordOvertimeAlert()
}

// SetTotalHours overrides the allotted minutes for a user and month. The
// consumed column is never touched by this path.
func (s *Service) SetTotalHours(ctx context.Context, userID, month string, totalMinutes int) (*ledger.Entry, error) {
	if ledger.IsSystemAccount(userID) {
		return nil, ErrSystemAccount
	}
	if !ledger.ValidMonth(month) {
		return nil, &ValidationError{Field: "month", Reason: "must be in YYYY-MM format"}
	}
	if totalMinutes < 0 {
		return nil, &ValidationError{Field: "total_hours", Reason: "must not be negative"}
	}

	exists, err := s.directory.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	return s.ledgers.SetTotal(ctx, userID, month, totalMinutes)
}

// UserHours is the per-user monthly summary of allotted, consumed, remaining,
// and overtime minutes.
type UserHours struct {
	UserID           string
	Name             string
	Month            string
	TotalMinutes     int
	ConsumedMinutes  int
	RemainingMinutes int
	OvertimeMinutes  int
}

// UserHours reads one user's summary for a month (current when empty). Reads
// are pure: an absent ledger entry is defaulted in memory, never written.
func (s *Service) UserHours(ctx context.Context, userID, month string) (*UserHours, error) {
	if ledger.IsSystemAccount(userID) {
		return nil, ErrUserNotFound
	}
	if month == "" {
		month = ledger.CurrentMonth(time.Now())
	} else if !ledger.ValidMonth(month) {
		return nil, &ValidationError{Field: "month", Reason: "must be in YYYY-MM format"}
	}

	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	entry, err := s.entryOrDefault(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	return summarize(user.ID, user.Name, entry), nil
}

// AllUsersHours batches the monthly summary over every user except the
// system account.
func (s *Service) AllUsersHours(ctx context.Context, month string) ([]UserHours, error) {
	if month == "" {
		month = ledger.CurrentMonth(time.Now())
	} else if !ledger.ValidMonth(month) {
		return nil, &ValidationError{Field: "month", Reason: "must be in YYYY-MM format"}
	}

	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]UserHours, 0, len(users))
	for _, user := range users {
		entry, err := s.entryOrDefault(ctx, user.ID, month)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, *summarize(user.ID, user.Name, entry))
	}

	return summaries, nil
}

func (s *Service) entryOrDefault(ctx context.Context, userID, month string) (*ledger.Entry, error) {
	entry, err := s.ledgers.Get(ctx, userID, month)
	if errors.Is(err, repository.ErrNotFound) {
		return ledger.NewEntry(userID, month), nil
	}

	return entry, err
}

func summarize(userID, name string, entry *ledger.Entry) *UserHours {
	return &UserHours{
		UserID:           userID,
		Name:             name,
		Month:            entry.Month,
		TotalMinutes:     entry.TotalMinutes,
		ConsumedMinutes:  entry.ConsumedMinutes,
		RemainingMinutes: entry.RemainingMinutes(),
		OvertimeMinutes:  entry.OvertimeMinutes(),
	}
}

func (s *Service) cacheRunning(t *timer.Timer) {
	if s.cache == nil || !t.IsRunning() {
		return
	}

	err := s.cache.SetRunning(t.TaskID, statuscache.RunningTimer{
		TimerID:   t.ID,
		StartedAt: *t.StartedAt,
	})
	if err != nil {
		log.Printf("failed to cache running timer for task %s: %v", t.TaskID, err)
	}
}

func (s *Service) clearRunning(taskID string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.ClearRunning(taskID); err != nil {
		log.Printf("failed to clear cached timer for task %s: %v", taskID, err)
	}
}

func validateAssignees(assignees []string) error {
	if len(assignees) == 0 {
		return &ValidationError{Field: "assignees", Reason: "must not be empty"}
	}
	for _, assignee := range assignees {
		if assignee == "" {
			return &ValidationError{Field: "assignees", Reason: "must not contain empty ids"}
		}
	}

	return nil
}
