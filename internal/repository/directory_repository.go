package repository

import "context"

// Task statuses as the CRM stores them. Only the completed state matters to
// progress recalculation; the rest are validated at the API boundary.
const (
	TaskStatusNotStarted       = "not started"
	TaskStatusInProgress       = "in progress"
	TaskStatusTesting          = "testing"
	TaskStatusAwaitingFeedback = "awaiting feedback"
	TaskStatusCompleted        = "completed"
)

func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusTesting,
		TaskStatusAwaitingFeedback, TaskStatusCompleted:
		return true
	}

	return false
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// DirectoryRepository is the read/write surface over the externally owned
// task, user, and project tables. The tracking core validates references
// against it and writes back derived project progress.
type DirectoryRepository interface {
	TaskExists(ctx context.Context, taskID string) (bool, error)
	TaskProjectID(ctx context.Context, taskID string) (string, error)
	UpdateTaskStatus(ctx context.Context, taskID, status string) error

	// CountProjectTasks returns the total and completed task counts for a
	// project. Both are 0 when the project has no tasks.
	CountProjectTasks(ctx context.Context, projectID string) (total, completed int, err error)
	SetProjectProgress(ctx context.Context, projectID string, progress int) error

	UserExists(ctx context.Context, userID string) (bool, error)
	GetUser(ctx context.Context, userID string) (*User, error)

	// ListUsers returns every user except the reserved system account.
	ListUsers(ctx context.Context) ([]User, error)
}
