package repository

import (
	"context"

	"github.com/oyucel/timeledger/internal/ledger"
)

type LedgerRepository interface {
	// Get returns the entry for (userID, month), or ErrNotFound.
	Get(ctx context.Context, userID, month string) (*ledger.Entry, error)

	// AddConsumed atomically adds minutes to the consumed column of the
	// (userID, month) entry, creating it with default totals when absent,
	// and returns the resulting row. Implementations must not read-modify-
	// write the consumed column: concurrent stops race otherwise.
	AddConsumed(ctx context.Context, userID, month string, minutes int) (*ledger.Entry, error)

	// SetTotal upserts the allotted minutes for (userID, month) without
	// touching the consumed column.
	SetTotal(ctx context.Context, userID, month string, totalMinutes int) (*ledger.Entry, error)
}
