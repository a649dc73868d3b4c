package tracking

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTimerNotFound = errors.New("timer not found")
	ErrUserNotFound  = errors.New("user not found")

	// ErrNeverStarted is returned when stopping a timer that has no start.
	ErrNeverStarted = errors.New("timer has not started yet")

	// ErrSystemAccount is returned when an hour-management operation
	// targets the reserved system account.
	ErrSystemAccount = errors.New("cannot manage hours for the system account")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
