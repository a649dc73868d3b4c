package repository

import (
	"context"
	"sync"

	"github.com/oyucel/timeledger/internal/ledger"
)

type SetProgressCall struct {
	ProjectID string
	Progress  int
}

type MockDirectoryRepository struct {
	mu sync.Mutex

	// TaskProjects maps task id to project id; presence means the task exists.
	TaskProjects map[string]string
	TaskStatuses map[string]string
	Users        map[string]User
	Progress     map[string]int

	SetProgressCalls []SetProgressCall

	TaskExistsError  error
	CountTasksError  error
	SetProgressError error
	UserError        error
}

func NewMockDirectoryRepository() *MockDirectoryRepository {
	return &MockDirectoryRepository{
		TaskProjects: make(map[string]string),
		TaskStatuses: make(map[string]string),
		Users:        make(map[string]User),
		Progress:     make(map[string]int),
	}
}

func (m *MockDirectoryRepository) TaskExists(ctx context.Context, taskID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.TaskExistsError != nil {
		return false, m.TaskExistsError
	}

	_, exists := m.TaskProjects[taskID]
	return exists, nil
}

func (m *MockDirectoryRepository) TaskProjectID(ctx context.Context, taskID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	projectID, exists := m.TaskProjects[taskID]
	if !exists {
		return "", ErrNotFound
	}

	return projectID, nil
}

func (m *MockDirectoryRepository) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.TaskProjects[taskID]; !exists {
		return ErrNotFound
	}

	m.TaskStatuses[taskID] = status
	return nil
}

func (m *MockDirectoryRepository) CountProjectTasks(ctx context.Context, projectID string) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CountTasksError != nil {
		return 0, 0, m.CountTasksError
	}

	var total, completed int
	for taskID, project := range m.TaskProjects {
		if project != projectID {
			continue
		}

		total++
		if m.TaskStatuses[taskID] == TaskStatusCompleted {
			completed++
		}
	}

	return total, completed, nil
}

func (m *MockDirectoryRepository) SetProjectProgress(ctx context.Context, projectID string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetProgressCalls = append(m.SetProgressCalls, SetProgressCall{
		ProjectID: projectID,
		Progress:  progress,
	})

	if m.SetProgressError != nil {
		return m.SetProgressError
	}

	m.Progress[projectID] = progress
	return nil
}

func (m *MockDirectoryRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UserError != nil {
		return false, m.UserError
	}

	_, exists := m.Users[userID]
	return exists, nil
}

func (m *MockDirectoryRepository) GetUser(ctx context.Context, userID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UserError != nil {
		return nil, m.UserError
	}

	u, exists := m.Users[userID]
	if !exists {
		return nil, ErrNotFound
	}

	return &u, nil
}

func (m *MockDirectoryRepository) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UserError != nil {
		return nil, m.UserError
	}

	users := make([]User, 0, len(m.Users))
	for _, u := range m.Users {
		if ledger.IsSystemAccount(u.ID) {
			continue
		}
		users = append(users, u)
	}

	return users, nil
}
