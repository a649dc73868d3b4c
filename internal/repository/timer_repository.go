package repository

import (
	"context"

	"github.com/oyucel/timeledger/internal/timer"
)

type TimerRepository interface {
	Create(ctx context.Context, t *timer.Timer) error
	Get(ctx context.Context, id string) (*timer.Timer, error)
	Update(ctx context.Context, t *timer.Timer) error

	// FindRunningByTask returns the first timer for the task with a start
	// and no stop, or ErrNotFound. Concurrent starts are allowed by the
	// data model, so there may be more than one match.
	FindRunningByTask(ctx context.Context, taskID string) (*timer.Timer, error)

	List(ctx context.Context) ([]*timer.Timer, error)
}
