// Package repository defines the persistence interfaces for timers, monthly
// hour ledgers, and the narrow task/user/project collaborator surface the
// tracking core depends on.
package repository

import "errors"

// ErrNotFound is returned when a queried row does not exist.
var ErrNotFound = errors.New("not found")
