// Package progress derives a project's completion percentage from the
// statuses of its tasks.
package progress

import (
	"context"
	"math"

	"github.com/oyucel/timeledger/internal/metrics"
	"github.com/oyucel/timeledger/internal/repository"
)

type Recalculator struct {
	directory repository.DirectoryRepository
}

func NewRecalculator(directory repository.DirectoryRepository) *Recalculator {
	return &Recalculator{directory: directory}
}

// Recompute recalculates and persists a project's progress: the completed
// share of its tasks rounded to the nearest whole percent, or 0 when the
// project has no tasks. Idempotent and safe to call on every task change.
func (r *Recalculator) Recompute(ctx context.Context, projectID string) (int, error) {
	total, completed, err := r.directory.CountProjectTasks(ctx, projectID)
	if err != nil {
		return 0, err
	}

	percent := 0
	if total > 0 {
		percent = int(math.Round(100 * float64(completed) / float64(total)))
	}

	if err := r.directory.SetProjectProgress(ctx, projectID, percent); err != nil {
		return 0, err
	}

	metrics.RecordProgressRecalculation()
	return percent, nil
}
