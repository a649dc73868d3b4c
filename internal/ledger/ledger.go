// Package ledger defines the per-user, per-calendar-month record of allotted
// versus consumed work minutes.
package ledger

import (
	"regexp"
	"time"
)

// DefaultTotalMinutes is the allotment a ledger entry starts with when it is
// created lazily: 160 hours, roughly a full-time month.
const DefaultTotalMinutes = 160 * 60

// systemUserID is the reserved account excluded from all ledger operations.
const systemUserID = "1"

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Entry holds one user's hour budget for one calendar month. ConsumedMinutes
// only ever grows through reconciliation.
type Entry struct {
	UserID          string `json:"user_id"`
	Month           string `json:"month"`
	TotalMinutes    int    `json:"total_minutes"`
	ConsumedMinutes int    `json:"consumed_minutes"`
}

func NewEntry(userID, month string) *Entry {
	return &Entry{
		UserID:       userID,
		Month:        month,
		TotalMinutes: DefaultTotalMinutes,
	}
}

func (e *Entry) RemainingMinutes() int {
	if remaining := e.TotalMinutes - e.ConsumedMinutes; remaining > 0 {
		return remaining
	}

	return 0
}

func (e *Entry) OvertimeMinutes() int {
	if overtime := e.ConsumedMinutes - e.TotalMinutes; overtime > 0 {
		return overtime
	}

	return 0
}

// IsSystemAccount reports whether userID refers to the reserved system
// account, which never participates in hour tracking.
func IsSystemAccount(userID string) bool {
	return userID == systemUserID
}

// CurrentMonth formats t as the "YYYY-MM" ledger month key.
func CurrentMonth(t time.Time) string {
	return t.Format("2006-01")
}

// ValidMonth reports whether s is a well-formed "YYYY-MM" month key.
func ValidMonth(s string) bool {
	return monthPattern.MatchString(s)
}
