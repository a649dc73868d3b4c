// Package api exposes the REST surface for timers, hour management, and
// project progress.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oyucel/timeledger/internal/dashboard"
	"github.com/oyucel/timeledger/internal/httputil"
	"github.com/oyucel/timeledger/internal/progress"
	"github.com/oyucel/timeledger/internal/repository"
	"github.com/oyucel/timeledger/internal/timefmt"
	"github.com/oyucel/timeledger/internal/timer"
	"github.com/oyucel/timeledger/internal/tracking"
)

type API struct {
	tracking  *tracking.Service
	progress  *progress.Recalculator
	directory repository.DirectoryRepository
	mux       *http.ServeMux
}

type StartTimerRequest struct {
	TaskID    string    `json:"task_id"`
	Assignees []string  `json:"assignees"`
	StartedAt time.Time `json:"started_at"`
}

type StopTimerRequest struct {
	StoppedAt time.Time `json:"stopped_at"`
}

type UpdateTimerRequest struct {
	TaskID    string     `json:"task_id"`
	Assignees []string   `json:"assignees"`
	StartedAt *time.Time `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at"`
	TotalTime *string    `json:"total_time"`
}

type SetTotalHoursRequest struct {
	UserID     string `json:"user_id"`
	Month      string `json:"month"`
	TotalHours string `json:"total_hours"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

func NewAPI(svc *tracking.Service, prog *progress.Recalculator, directory repository.DirectoryRepository, dash *dashboard.Dashboard) *API {
	api := &API{
		tracking:  svc,
		progress:  prog,
		directory: directory,
		mux:       http.NewServeMux(),
	}

	api.setupRoutes(dash)
	return api
}

func (a *API) setupRoutes(dash *dashboard.Dashboard) {
	a.mux.HandleFunc("/api/task-timer/start", a.handleStartTimer)
	a.mux.HandleFunc("/api/task-timer/stop/", a.handleStopTimer)
	a.mux.HandleFunc("/api/task-timer/status/", a.handleTimerStatus)
	a.mux.HandleFunc("/api/task-timer/total-hours", a.handleTotalHours)
	a.mux.HandleFunc("/api/task-timer/update-timer", a.handleUpdateTimer)
	a.mux.HandleFunc("/api/task-timer/update-timer/", a.handleUpdateTimer)
	a.mux.HandleFunc("/api/task-timer/", a.handleTimerByID)
	a.mux.HandleFunc("/api/set-totalhours", a.handleSetTotalHours)
	a.mux.HandleFunc("/api/allusershours", a.handleAllUsersHours)
	a.mux.HandleFunc("/api/hours-management/user/", a.handleUserHours)
	a.mux.HandleFunc("/api/tasks/", a.handleUpdateTaskStatus)

	if dash != nil {
		a.mux.HandleFunc("/api/dashboard/analytics", dash.GetAnalytics)
	}
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req StartTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	t, err := a.tracking.StartTimer(r.Context(), req.TaskID, req.Assignees, req.StartedAt)
	if err != nil {
		a.writeError(w, "Failed to start task timer", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Task timer started successfully", timerView(t))
}

func (a *API) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	timerID := strings.TrimPrefix(r.URL.Path, "/api/task-timer/stop/")
	if timerID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Timer ID is required", nil)
		return
	}

	var req StopTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	t, err := a.tracking.StopTimer(r.Context(), timerID, req.StoppedAt)
	if err != nil {
		a.writeError(w, "Failed to stop task timer", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Task timer stopped and hours updated successfully", timerView(t))
}

func (a *API) handleTimerStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/api/task-timer/status/")
	if taskID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	status, err := a.tracking.TimerStatus(r.Context(), taskID)
	if err != nil {
		a.writeError(w, "Failed to check task timer status", err)
		return
	}

	message := "Task timer is not running"
	if status.Running {
		message = "Task timer is running"
	}

	httputil.WriteSuccess(w, http.StatusOK, message, status)
}

func (a *API) handleTotalHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	totals, err := a.tracking.TotalHoursByAssignee(r.Context())
	if err != nil {
		a.writeError(w, "Failed to retrieve total hours", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Total hours retrieved successfully", totals)
}

func (a *API) handleUpdateTimer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	timerID := strings.TrimPrefix(r.URL.Path, "/api/task-timer/update-timer")
	timerID = strings.TrimPrefix(timerID, "/")

	var req UpdateTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	t, err := a.tracking.UpsertTimer(r.Context(), tracking.UpsertParams{
		ID:        timerID,
		TaskID:    req.TaskID,
		Assignees: req.Assignees,
		StartedAt: req.StartedAt,
		StoppedAt: req.StoppedAt,
		TotalTime: req.TotalTime,
	})
	if err != nil {
		a.writeError(w, "Failed to update timer", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Timer updated manually", timerView(t))
}

func (a *API) handleTimerByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	timerID := strings.TrimPrefix(r.URL.Path, "/api/task-timer/")
	if timerID == "" || strings.Contains(timerID, "/") {
		httputil.WriteError(w, http.StatusBadRequest, "Timer ID is required", nil)
		return
	}

	t, err := a.tracking.GetTimer(r.Context(), timerID)
	if err != nil {
		a.writeError(w, "Task timer not found", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Task timer retrieved successfully", timerView(t))
}

func (a *API) handleSetTotalHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	var req SetTotalHoursRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if !timefmt.Valid(req.TotalHours) {
		httputil.WriteError(w, http.StatusBadRequest, "total_hours must be in HH:MM format", nil)
		return
	}

	entry, err := a.tracking.SetTotalHours(r.Context(), req.UserID, req.Month, timefmt.ParseHHMM(req.TotalHours))
	if err != nil {
		a.writeError(w, "Failed to set user total hours", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User total hours set successfully", map[string]string{
		"user_id":        entry.UserID,
		"month":          entry.Month,
		"total_hours":    timefmt.FormatMinutes(entry.TotalMinutes),
		"consumed_hours": timefmt.FormatMinutes(entry.ConsumedMinutes),
	})
}

func (a *API) handleAllUsersHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	summaries, err := a.tracking.AllUsersHours(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		a.writeError(w, "Failed to retrieve users hours", err)
		return
	}

	views := make([]hoursView, 0, len(summaries))
	for i := range summaries {
		views = append(views, hoursViewOf(&summaries[i]))
	}

	httputil.WriteSuccess(w, http.StatusOK, "All users hours retrieved successfully", views)
}

func (a *API) handleUserHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/api/hours-management/user/")
	if userID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "User ID is required", nil)
		return
	}

	summary, err := a.tracking.UserHours(r.Context(), userID, r.URL.Query().Get("month"))
	if err != nil {
		a.writeError(w, "Failed to retrieve user hours", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "User hours retrieved successfully", hoursViewOf(summary))
}

func (a *API) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	taskID, ok := strings.CutSuffix(rest, "/status")
	if !ok || taskID == "" {
		httputil.WriteError(w, http.StatusNotFound, "Invalid endpoint", nil)
		return
	}

	var req UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if !repository.ValidTaskStatus(req.Status) {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid task status", nil)
		return
	}

	taskProjectID, percent, err := a.updateTaskStatus(r, taskID, req.Status)
	if err != nil {
		a.writeError(w, "Failed to update task status", err)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Task updated successfully", map[string]any{
		"task_id":    taskID,
		"status":     req.Status,
		"project_id": taskProjectID,
		"progress":   percent,
	})
}

func (a *API) updateTaskStatus(r *http.Request, taskID, status string) (string, int, error) {
	ctx := r.Context()

	if err := a.directory.UpdateTaskStatus(ctx, taskID, status); err != nil {
		return "", 0, err
	}

	projectID, err := a.directory.TaskProjectID(ctx, taskID)
	if err != nil {
		return "", 0, err
	}

	percent, err := a.progress.Recompute(ctx, projectID)
	if err != nil {
		return "", 0, err
	}

	return projectID, percent, nil
}

func (a *API) writeError(w http.ResponseWriter, message string, err error) {
	var verr *tracking.ValidationError

	switch {
	case errors.As(err, &verr):
		httputil.WriteError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, tracking.ErrNeverStarted):
		httputil.WriteError(w, http.StatusBadRequest, "Timer has not started yet", nil)
	case errors.Is(err, tracking.ErrSystemAccount):
		httputil.WriteError(w, http.StatusForbidden, message, err)
	case errors.Is(err, tracking.ErrTaskNotFound),
		errors.Is(err, tracking.ErrTimerNotFound),
		errors.Is(err, tracking.ErrUserNotFound),
		errors.Is(err, repository.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, message, err)
	default:
		httputil.WriteError(w, http.StatusInternalServerError, message, err)
	}
}

type timerPayload struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"task_id"`
	Assignees    []string   `json:"assignees"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	StoppedAt    *time.Time `json:"stopped_at,omitempty"`
	TotalHours   string     `json:"total_hours"`
	TotalMinutes int        `json:"total_minutes"`
}

func timerView(t *timer.Timer) timerPayload {
	return timerPayload{
		ID:           t.ID,
		TaskID:       t.TaskID,
		Assignees:    t.Assignees,
		StartedAt:    t.StartedAt,
		StoppedAt:    t.StoppedAt,
		TotalHours:   t.TotalHours(),
		TotalMinutes: t.TotalMinutes,
	}
}

type hoursView struct {
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Month          string `json:"month"`
	TotalHours     string `json:"total_hours"`
	ConsumedHours  string `json:"consumed_hours"`
	RemainingHours string `json:"remaining_hours"`
	OvertimeHours  string `json:"overtime_hours"`
}

func hoursViewOf(h *tracking.UserHours) hoursView {
	return hoursView{
		UserID:         h.UserID,
		Name:           h.Name,
		Month:          h.Month,
		TotalHours:     timefmt.FormatMinutes(h.TotalMinutes),
		ConsumedHours:  timefmt.FormatMinutes(h.ConsumedMinutes),
		RemainingHours: timefmt.FormatMinutes(h.RemainingMinutes),
		OvertimeHours:  timefmt.FormatMinutes(h.OvertimeMinutes),
	}
}
