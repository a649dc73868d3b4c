package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oyucel/timeledger/internal/repository"
	"github.com/oyucel/timeledger/internal/timer"
)

type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) Create(ctx context.Context, t *timer.Timer) error {
	assignees, err := json.Marshal(t.Assignees)
	if err != nil {
		return fmt.Errorf("failed to marshal assignees: %w", err)
	}

	query := `
		INSERT INTO task_timers (id, task_id, assignees, started_at, stopped_at, total_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		t.ID,
		t.TaskID,
		assignees,
		nullableTime(t.StartedAt),
		nullableTime(t.StoppedAt),
		t.TotalMinutes,
	)

	return err
}

func (r *TimerRepository) Get(ctx context.Context, id string) (*timer.Timer, error) {
	query := `
		SELECT id, task_id, assignees, started_at, stopped_at, total_minutes
		FROM task_timers
		WHERE id = $1
	`

	t, err := scanTimer(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}

	return t, err
}

func (r *TimerRepository) Update(ctx context.Context, t *timer.Timer) error {
	assignees, err := json.Marshal(t.Assignees)
	if err != nil {
		return fmt.Errorf("failed to marshal assignees: %w", err)
	}

	query := `
		UPDATE task_timers
		SET task_id = $1,
		    assignees = $2,
		    started_at = $3,
		    stopped_at = $4,
		    total_minutes = $5
		WHERE id = $6
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		t.TaskID,
		assignees,
		nullableTime(t.StartedAt),
		nullableTime(t.StoppedAt),
		t.TotalMinutes,
		t.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *TimerRepository) FindRunningByTask(ctx context.Context, taskID string) (*timer.Timer, error) {
	query := `
		SELECT id, task_id, assignees, started_at, stopped_at, total_minutes
		FROM task_timers
		WHERE task_id = $1
		  AND started_at IS NOT NULL
		  AND stopped_at IS NULL
		LIMIT 1
	`

	t, err := scanTimer(r.db.QueryRowContext(ctx, query, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}

	return t, err
}

func (r *TimerRepository) List(ctx context.Context) ([]*timer.Timer, error) {
	query := `
		SELECT id, task_id, assignees, started_at, stopped_at, total_minutes
		FROM task_timers
		ORDER BY started_at ASC NULLS LAST
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var timers []*timer.Timer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}

		timers = append(timers, t)
	}

	return timers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimer(row rowScanner) (*timer.Timer, error) {
	var t timer.Timer
	var assignees []byte
	var startedAt, stoppedAt sql.NullTime

	if err := row.Scan(
		&t.ID,
		&t.TaskID,
		&assignees,
		&startedAt,
		&stoppedAt,
		&t.TotalMinutes,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(assignees, &t.Assignees); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assignees: %w", err)
	}

	if startedAt.Valid {
		t.StartedAt = &startedAt.Time
	}
	if stoppedAt.Valid {
		t.StoppedAt = &stoppedAt.Time
	}

	return &t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}
