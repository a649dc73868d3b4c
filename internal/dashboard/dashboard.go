// Package dashboard exposes an aggregate analytics view over timers and
// users for the management UI.
package dashboard

import (
	"net/http"
	"time"

	"github.com/oyucel/timeledger/internal/httputil"
	"github.com/oyucel/timeledger/internal/repository"
	"github.com/oyucel/timeledger/internal/timefmt"
)

type Dashboard struct {
	timers    repository.TimerRepository
	directory repository.DirectoryRepository
}

type Stats struct {
	TotalTimers   int       `json:"total_timers"`
	RunningTimers int       `json:"running_timers"`
	ClosedTimers  int       `json:"closed_timers"`
	TrackedTotal  string    `json:"tracked_total"`
	TotalUsers    int       `json:"total_users"`
	LastUpdated   time.Time `json:"last_updated"`
}

func NewDashboard(timers repository.TimerRepository, directory repository.DirectoryRepository) *Dashboard {
	return &Dashboard{
		timers:    timers,
		directory: directory,
	}
}

func (d *Dashboard) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	timers, err := d.timers.List(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to retrieve dashboard analytics", err)
		return
	}

	stats := Stats{
		TotalTimers: len(timers),
		LastUpdated: time.Now(),
	}

	trackedMinutes := 0
	for _, t := range timers {
		if t.IsRunning() {
			stats.RunningTimers++
		}
		if t.IsClosed() {
			stats.ClosedTimers++
		}

		trackedMinutes += t.TotalMinutes
	}
	stats.TrackedTotal = timefmt.FormatMinutes(trackedMinutes)

	users, err := d.directory.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to retrieve dashboard analytics", err)
		return
	}
	stats.TotalUsers = len(users)

	httputil.WriteSuccess(w, http.StatusOK, "Dashboard analytics retrieved successfully", stats)
}
