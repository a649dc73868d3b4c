package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyucel/timeledger/internal/ledger"
	"github.com/oyucel/timeledger/internal/repository"
	"github.com/oyucel/timeledger/internal/timer"
)

type fakeNotifier struct {
	mu    sync.Mutex
	Calls []struct {
		UserID          string
		Month           string
		OvertimeMinutes int
	}
	Err error
}

func (f *fakeNotifier) NotifyOvertime(user repository.User, month string, overtimeMinutes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, struct {
		UserID          string
		Month           string
		OvertimeMinutes int
	}{user.ID, month, overtimeMinutes})

	return f.Err
}

func setupService() (*Service, *repository.MockTimerRepository, *repository.MockLedgerRepository, *repository.MockDirectoryRepository) {
	timers := repository.NewMockTimerRepository()
	ledgers := repository.NewMockLedgerRepository()
	directory := repository.NewMockDirectoryRepository()

	directory.TaskProjects["task-1"] = "project-1"
	directory.Users["5"] = repository.User{ID: "5", Name: "Alice", Email: "alice@example.com"}
	directory.Users["7"] = repository.User{ID: "7", Name: "Bob", Email: "bob@example.com"}

	svc := NewService(timers, ledgers, directory, nil, nil)
	return svc, timers, ledgers, directory
}

func TestStartTimer(t *testing.T) {
	svc, timers, _, _ := setupService()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	tm, err := svc.StartTimer(context.Background(), "task-1", []string{"5", "7"}, startedAt)
	require.NoError(t, err)

	assert.NotEmpty(t, tm.ID)
	assert.Equal(t, "task-1", tm.TaskID)
	assert.True(t, tm.IsRunning())
	assert.Equal(t, []string{tm.ID}, timers.CreateCalls)
}

func TestStartTimer_Validation(t *testing.T) {
	svc, _, _, _ := setupService()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	var vErr *ValidationError

	_, err := svc.StartTimer(ctx, "", []string{"5"}, startedAt)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "task_id", vErr.Field)

	_, err = svc.StartTimer(ctx, "task-1", nil, startedAt)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "assignees", vErr.Field)

	_, err = svc.StartTimer(ctx, "task-1", []string{"5", ""}, startedAt)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "assignees", vErr.Field)

	_, err = svc.StartTimer(ctx, "task-1", []string{"5"}, time.Time{})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "started_at", vErr.Field)
}

func TestStartTimer_TaskNotFound(t *testing.T) {
	svc, timers, _, _ := setupService()

	_, err := svc.StartTimer(context.Background(), "missing", []string{"5"}, time.Now())

	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Empty(t, timers.CreateCalls)
}

func TestStopTimer_RecordsElapsedAndReconciles(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	stoppedAt := time.Date(2024, 10, 1, 11, 30, 0, 0, time.UTC)

	tm, err := svc.StartTimer(ctx, "task-1", []string{"5", "7"}, startedAt)
	require.NoError(t, err)

	stopped, err := svc.StopTimer(ctx, tm.ID, stoppedAt)
	require.NoError(t, err)

	assert.Equal(t, 150, stopped.TotalMinutes)
	assert.Equal(t, "02:30", stopped.TotalHours())
	assert.True(t, stopped.IsClosed())

	month := ledger.CurrentMonth(time.Now())
	require.Equal(t, 2, ledgers.AddConsumedCallCount())

	for _, userID := range []string{"5", "7"} {
		entry, err := ledgers.Get(ctx, userID, month)
		require.NoError(t, err)
		assert.Equal(t, ledger.DefaultTotalMinutes, entry.TotalMinutes)
		assert.Equal(t, 150, entry.ConsumedMinutes)
	}
}

func TestStopTimer_NotFound(t *testing.T) {
	svc, _, _, _ := setupService()

	_, err := svc.StopTimer(context.Background(), "missing", time.Now())

	assert.ErrorIs(t, err, ErrTimerNotFound)
}

func TestStopTimer_NeverStarted(t *testing.T) {
	svc, timers, ledgers, _ := setupService()
	ctx := context.Background()

	tm := &timer.Timer{ID: "timer-1", TaskID: "task-1", Assignees: []string{"5"}}
	require.NoError(t, timers.Create(ctx, tm))

	_, err := svc.StopTimer(ctx, "timer-1", time.Now())

	assert.ErrorIs(t, err, ErrNeverStarted)
	assert.Zero(t, ledgers.AddConsumedCallCount())
}

func TestStopTimer_BeforeStart(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	tm, err := svc.StartTimer(ctx, "task-1", []string{"5"}, startedAt)
	require.NoError(t, err)

	var vErr *ValidationError
	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(-time.Minute))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "stopped_at", vErr.Field)
	assert.Zero(t, ledgers.AddConsumedCallCount())
}

func TestReconcile_AccumulatesAcrossStops(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		tm, err := svc.StartTimer(ctx, "task-1", []string{"5"}, startedAt)
		require.NoError(t, err)

		_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(time.Hour))
		require.NoError(t, err)
	}

	month := ledger.CurrentMonth(time.Now())
	entry, err := ledgers.Get(ctx, "5", month)
	require.NoError(t, err)
	assert.Equal(t, 120, entry.ConsumedMinutes)
}

func TestReconcile_SkipsSystemAccount(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	tm, err := svc.StartTimer(ctx, "task-1", []string{"1", "5"}, startedAt)
	require.NoError(t, err)

	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(time.Hour))
	require.NoError(t, err)

	require.Equal(t, 1, ledgers.AddConsumedCallCount())
	assert.Equal(t, "5", ledgers.AddConsumedCalls[0].UserID)
}

func TestReconcile_PartialFailureCreditsRemaining(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	ledgers.AddConsumedErrorFor["5"] = errors.New("connection reset")

	tm, err := svc.StartTimer(ctx, "task-1", []string{"5", "7"}, startedAt)
	require.NoError(t, err)

	stopped, err := svc.StopTimer(ctx, tm.ID, startedAt.Add(time.Hour))
	require.NoError(t, err, "ledger failure must not fail the stop")
	assert.True(t, stopped.IsClosed())

	month := ledger.CurrentMonth(time.Now())
	entry, err := ledgers.Get(ctx, "7", month)
	require.NoError(t, err)
	assert.Equal(t, 60, entry.ConsumedMinutes)

	_, err = ledgers.Get(ctx, "5", month)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestReconcile_ZeroMinutesWritesNothing(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	tm, err := svc.StartTimer(ctx, "task-1", []string{"5"}, startedAt)
	require.NoError(t, err)

	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(30*time.Second))
	require.NoError(t, err)

	assert.Zero(t, ledgers.AddConsumedCallCount())
}

func TestOvertimeAlert_FiredOnCrossing(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	notifier := &fakeNotifier{}
	svc.notifier = notifier

	ctx := context.Background()
	month := ledger.CurrentMonth(time.Now())
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	_, err := ledgers.SetTotal(ctx, "5", month, 90)
	require.NoError(t, err)

	// First stop crosses the 90 minute allotment.
	tm, err := svc.StartTimer(ctx, "task-1", []string{"5"}, startedAt)
	require.NoError(t, err)
	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(2*time.Hour))
	require.NoError(t, err)

	require.Len(t, notifier.Calls, 1)
	assert.Equal(t, "5", notifier.Calls[0].UserID)
	assert.Equal(t, month, notifier.Calls[0].Month)
	assert.Equal(t, 30, notifier.Calls[0].OvertimeMinutes)

	// Already in overtime, no further alert.
	tm, err = svc.StartTimer(ctx, "task-1", []string{"5"}, startedAt)
	require.NoError(t, err)
	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(time.Hour))
	require.NoError(t, err)

	assert.Len(t, notifier.Calls, 1)
}

func TestUpsertTimer_CreatesWithExplicitTotal(t *testing.T) {
	svc, timers, ledgers, _ := setupService()
	totalTime := "05:00"

	tm, err := svc.UpsertTimer(context.Background(), UpsertParams{
		TaskID:    "task-1",
		Assignees: []string{"5"},
		TotalTime: &totalTime,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tm.ID)
	assert.Equal(t, 300, tm.TotalMinutes)
	assert.Equal(t, []string{tm.ID}, timers.CreateCalls)
	assert.Zero(t, ledgers.AddConsumedCallCount(), "an open timer is never reconciled")
}

func TestUpsertTimer_RecomputesFromSpan(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	stoppedAt := startedAt.Add(2*time.Hour + 30*time.Minute)

	tm, err := svc.UpsertTimer(ctx, UpsertParams{
		TaskID:    "task-1",
		Assignees: []string{"5"},
		StartedAt: &startedAt,
		StoppedAt: &stoppedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, 150, tm.TotalMinutes)

	month := ledger.CurrentMonth(time.Now())
	entry, err := ledgers.Get(ctx, "5", month)
	require.NoError(t, err)
	assert.Equal(t, 150, entry.ConsumedMinutes)
}

func TestUpsertTimer_ExplicitTotalWinsOverSpan(t *testing.T) {
	svc, _, _, _ := setupService()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	stoppedAt := startedAt.Add(2 * time.Hour)
	totalTime := "01:15"

	tm, err := svc.UpsertTimer(context.Background(), UpsertParams{
		TaskID:    "task-1",
		Assignees: []string{"5"},
		StartedAt: &startedAt,
		StoppedAt: &stoppedAt,
		TotalTime: &totalTime,
	})
	require.NoError(t, err)

	assert.Equal(t, 75, tm.TotalMinutes)
}

func TestUpsertTimer_ReeditCreditsSpanAgain(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	stoppedAt := startedAt.Add(time.Hour)

	tm, err := svc.UpsertTimer(ctx, UpsertParams{
		TaskID:    "task-1",
		Assignees: []string{"5"},
		StartedAt: &startedAt,
		StoppedAt: &stoppedAt,
	})
	require.NoError(t, err)

	_, err = svc.UpsertTimer(ctx, UpsertParams{
		ID:        tm.ID,
		TaskID:    "task-1",
		Assignees: []string{"5"},
	})
	require.NoError(t, err)

	month := ledger.CurrentMonth(time.Now())
	entry, err := ledgers.Get(ctx, "5", month)
	require.NoError(t, err)
	assert.Equal(t, 120, entry.ConsumedMinutes, "each edit credits the full span")
}

func TestUpsertTimer_Validation(t *testing.T) {
	svc, _, _, _ := setupService()
	ctx := context.Background()

	var vErr *ValidationError

	badTotal := "abc"
	_, err := svc.UpsertTimer(ctx, UpsertParams{TaskID: "task-1", Assignees: []string{"5"}, TotalTime: &badTotal})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "total_time", vErr.Field)

	stoppedAt := time.Date(2024, 10, 1, 11, 0, 0, 0, time.UTC)
	_, err = svc.UpsertTimer(ctx, UpsertParams{TaskID: "task-1", Assignees: []string{"5"}, StoppedAt: &stoppedAt})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "stopped_at", vErr.Field)

	_, err = svc.UpsertTimer(ctx, UpsertParams{TaskID: "missing", Assignees: []string{"5"}})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTimerStatus(t *testing.T) {
	svc, _, _, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	status, err := svc.TimerStatus(ctx, "task-1")
	require.NoError(t, err)
	assert.False(t, status.Running)

	tm, err := svc.StartTimer(ctx, "task-1", []string{"5"}, startedAt)
	require.NoError(t, err)

	status, err = svc.TimerStatus(ctx, "task-1")
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, tm.ID, status.TimerID)
	require.NotNil(t, status.StartedAt)
	assert.Equal(t, startedAt, *status.StartedAt)

	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(time.Hour))
	require.NoError(t, err)

	status, err = svc.TimerStatus(ctx, "task-1")
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestTotalHoursByAssignee(t *testing.T) {
	svc, _, _, _ := setupService()
	ctx := context.Background()
	startedAt := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)

	tm, err := svc.StartTimer(ctx, "task-1", []string{"5", "7"}, startedAt)
	require.NoError(t, err)
	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(time.Hour))
	require.NoError(t, err)

	tm, err = svc.StartTimer(ctx, "task-1", []string{"5"}, startedAt)
	require.NoError(t, err)
	_, err = svc.StopTimer(ctx, tm.ID, startedAt.Add(90*time.Minute))
	require.NoError(t, err)

	totals, err := svc.TotalHoursByAssignee(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"5": "02:30",
		"7": "01:00",
	}, totals)
}

func TestSetTotalHours(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()

	entry, err := svc.SetTotalHours(ctx, "5", "2024-10", 150*60)
	require.NoError(t, err)

	assert.Equal(t, 150*60, entry.TotalMinutes)
	assert.Zero(t, entry.ConsumedMinutes)
	require.Len(t, ledgers.SetTotalCalls, 1)
}

func TestSetTotalHours_SystemAccount(t *testing.T) {
	svc, _, ledgers, _ := setupService()

	_, err := svc.SetTotalHours(context.Background(), "1", "2024-10", 9600)

	assert.ErrorIs(t, err, ErrSystemAccount)
	assert.Empty(t, ledgers.SetTotalCalls)
}

func TestSetTotalHours_Validation(t *testing.T) {
	svc, _, _, _ := setupService()
	ctx := context.Background()

	var vErr *ValidationError

	_, err := svc.SetTotalHours(ctx, "5", "2024-13", 9600)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "month", vErr.Field)

	_, err = svc.SetTotalHours(ctx, "5", "2024-10", -1)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "total_hours", vErr.Field)

	_, err = svc.SetTotalHours(ctx, "99", "2024-10", 9600)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetTotalHours_LeavesConsumedUntouched(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()

	_, err := ledgers.AddConsumed(ctx, "5", "2024-10", 120)
	require.NoError(t, err)

	entry, err := svc.SetTotalHours(ctx, "5", "2024-10", 100*60)
	require.NoError(t, err)

	assert.Equal(t, 100*60, entry.TotalMinutes)
	assert.Equal(t, 120, entry.ConsumedMinutes)
}

func TestUserHours_DefaultsWhenAbsent(t *testing.T) {
	svc, _, _, _ := setupService()

	hours, err := svc.UserHours(context.Background(), "5", "2024-10")
	require.NoError(t, err)

	assert.Equal(t, "5", hours.UserID)
	assert.Equal(t, "Alice", hours.Name)
	assert.Equal(t, "2024-10", hours.Month)
	assert.Equal(t, ledger.DefaultTotalMinutes, hours.TotalMinutes)
	assert.Zero(t, hours.ConsumedMinutes)
	assert.Equal(t, ledger.DefaultTotalMinutes, hours.RemainingMinutes)
	assert.Zero(t, hours.OvertimeMinutes)
}

func TestUserHours_ReadIsPure(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()

	_, err := svc.UserHours(ctx, "5", "2024-10")
	require.NoError(t, err)

	_, err = ledgers.Get(ctx, "5", "2024-10")
	assert.ErrorIs(t, err, repository.ErrNotFound, "reads must not create rows")
}

func TestUserHours_Overtime(t *testing.T) {
	svc, _, ledgers, _ := setupService()
	ctx := context.Background()

	_, err := ledgers.SetTotal(ctx, "5", "2024-10", 60)
	require.NoError(t, err)
	_, err = ledgers.AddConsumed(ctx, "5", "2024-10", 90)
	require.NoError(t, err)

	hours, err := svc.UserHours(ctx, "5", "2024-10")
	require.NoError(t, err)

	assert.Equal(t, 90, hours.ConsumedMinutes)
	assert.Zero(t, hours.RemainingMinutes)
	assert.Equal(t, 30, hours.OvertimeMinutes)
}

func TestUserHours_NotFound(t *testing.T) {
	svc, _, _, _ := setupService()
	ctx := context.Background()

	_, err := svc.UserHours(ctx, "99", "2024-10")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.UserHours(ctx, "1", "2024-10")
	assert.ErrorIs(t, err, ErrUserNotFound, "system account is not reportable")
}

func TestAllUsersHours(t *testing.T) {
	svc, _, ledgers, directory := setupService()
	ctx := context.Background()

	directory.Users["1"] = repository.User{ID: "1", Name: "System", Email: "system@example.com"}

	_, err := ledgers.AddConsumed(ctx, "5", "2024-10", 150)
	require.NoError(t, err)

	summaries, err := svc.AllUsersHours(ctx, "2024-10")
	require.NoError(t, err)
	require.Len(t, summaries, 2, "system account is excluded")

	byUser := make(map[string]UserHours, len(summaries))
	for _, s := range summaries {
		byUser[s.UserID] = s
	}

	assert.Equal(t, 150, byUser["5"].ConsumedMinutes)
	assert.Zero(t, byUser["7"].ConsumedMinutes)
	assert.Equal(t, ledger.DefaultTotalMinutes, byUser["7"].TotalMinutes)
}
