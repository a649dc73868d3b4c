package repository

import (
	"context"
	"sync"

	"github.com/oyucel/timeledger/internal/ledger"
)

type AddConsumedCall struct {
	UserID  string
	Month   string
	Minutes int
}

type SetTotalCall struct {
	UserID       string
	Month        string
	TotalMinutes int
}

type MockLedgerRepository struct {
	mu               sync.Mutex
	Entries          map[string]*ledger.Entry
	AddConsumedCalls []AddConsumedCall
	SetTotalCalls    []SetTotalCall
	GetError         error
	AddConsumedError error
	SetTotalError    error

	// AddConsumedErrorFor fails AddConsumed for a single user id, letting
	// tests exercise partial reconciliation.
	AddConsumedErrorFor map[string]error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		Entries:             make(map[string]*ledger.Entry),
		AddConsumedErrorFor: make(map[string]error),
	}
}

func entryKey(userID, month string) string {
	return userID + "|" + month
}

func (m *MockLedgerRepository) Get(ctx context.Context, userID, month string) (*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}

	e, exists := m.Entries[entryKey(userID, month)]
	if !exists {
		return nil, ErrNotFound
	}

	entryCopy := *e
	return &entryCopy, nil
}

func (m *MockLedgerRepository) AddConsumed(ctx context.Context, userID, month string, minutes int) (*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddConsumedCalls = append(m.AddConsumedCalls, AddConsumedCall{
		UserID:  userID,
		Month:   month,
		Minutes: minutes,
	})

	if m.AddConsumedError != nil {
		return nil, m.AddConsumedError
	}
	if err, exists := m.AddConsumedErrorFor[userID]; exists {
		return nil, err
	}

	key := entryKey(userID, month)
	e, exists := m.Entries[key]
	if !exists {
		e = ledger.NewEntry(userID, month)
		m.Entries[key] = e
	}

	e.ConsumedMinutes += minutes
	entryCopy := *e
	return &entryCopy, nil
}

func (m *MockLedgerRepository) SetTotal(ctx context.Context, userID, month string, totalMinutes int) (*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetTotalCalls = append(m.SetTotalCalls, SetTotalCall{
		UserID:       userID,
		Month:        month,
		TotalMinutes: totalMinutes,
	})

	if m.SetTotalError != nil {
		return nil, m.SetTotalError
	}

	key := entryKey(userID, month)
	e, exists := m.Entries[key]
	if !exists {
		e = ledger.NewEntry(userID, month)
		m.Entries[key] = e
	}

	e.TotalMinutes = totalMinutes
	entryCopy := *e
	return &entryCopy, nil
}

func (m *MockLedgerRepository) AddConsumedCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.AddConsumedCalls)
}
