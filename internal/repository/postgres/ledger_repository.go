package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/oyucel/timeledger/internal/ledger"
	"github.com/oyucel/timeledger/internal/repository"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Get(ctx context.Context, userID, month string) (*ledger.Entry, error) {
	query := `
		SELECT user_id, month, total_minutes, consumed_minutes
		FROM user_hours
		WHERE user_id = $1 AND month = $2
	`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, userID, month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}

	return e, err
}

// AddConsumed increments the consumed column in a single statement so that
// concurrent timer stops for the same user and month cannot lose updates.
func (r *LedgerRepository) AddConsumed(ctx context.Context, userID, month string, minutes int) (*ledger.Entry, error) {
	query := `
		INSERT INTO user_hours (user_id, month, total_minutes, consumed_minutes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, month) DO UPDATE SET
			consumed_minutes = user_hours.consumed_minutes + EXCLUDED.consumed_minutes
		RETURNING user_id, month, total_minutes, consumed_minutes
	`

	return scanEntry(r.db.QueryRowContext(ctx, query, userID, month, ledger.DefaultTotalMinutes, minutes))
}

func (r *LedgerRepository) SetTotal(ctx context.Context, userID, month string, totalMinutes int) (*ledger.Entry, error) {
	query := `
		INSERT INTO user_hours (user_id, month, total_minutes, consumed_minutes)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, month) DO UPDATE SET
			total_minutes = EXCLUDED.total_minutes
		RETURNING user_id, month, total_minutes, consumed_minutes
	`

	return scanEntry(r.db.QueryRowContext(ctx, query, userID, month, totalMinutes))
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var e ledger.Entry
	if err := row.Scan(&e.UserID, &e.Month, &e.TotalMinutes, &e.ConsumedMinutes); err != nil {
		return nil, err
	}

	return &e, nil
}
