package repository

import (
	"context"
	"sync"

	"github.com/oyucel/timeledger/internal/timer"
)

type MockTimerRepository struct {
	mu          sync.Mutex
	Timers      map[string]*timer.Timer
	CreateCalls []string
	UpdateCalls []string
	CreateError error
	GetError    error
	UpdateError error
	ListError   error
}

func NewMockTimerRepository() *MockTimerRepository {
	return &MockTimerRepository{
		Timers: make(map[string]*timer.Timer),
	}
}

func (m *MockTimerRepository) Create(ctx context.Context, t *timer.Timer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, t.ID)

	if m.CreateError != nil {
		return m.CreateError
	}

	timerCopy := *t
	m.Timers[t.ID] = &timerCopy
	return nil
}

func (m *MockTimerRepository) Get(ctx context.Context, id string) (*timer.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}

	t, exists := m.Timers[id]
	if !exists {
		return nil, ErrNotFound
	}

	timerCopy := *t
	return &timerCopy, nil
}

func (m *MockTimerRepository) Update(ctx context.Context, t *timer.Timer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, t.ID)

	if m.UpdateError != nil {
		return m.UpdateError
	}

	if _, exists := m.Timers[t.ID]; !exists {
		return ErrNotFound
	}

	timerCopy := *t
	m.Timers[t.ID] = &timerCopy
	return nil
}

func (m *MockTimerRepository) FindRunningByTask(ctx context.Context, taskID string) (*timer.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}

	for _, t := range m.Timers {
		if t.TaskID == taskID && t.IsRunning() {
			timerCopy := *t
			return &timerCopy, nil
		}
	}

	return nil, ErrNotFound
}

func (m *MockTimerRepository) List(ctx context.Context) ([]*timer.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListError != nil {
		return nil, m.ListError
	}

	timers := make([]*timer.Timer, 0, len(m.Timers))
	for _, t := range m.Timers {
		timerCopy := *t
		timers = append(timers, &timerCopy)
	}

	return timers, nil
}
