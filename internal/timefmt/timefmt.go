// Package timefmt converts between whole minutes and the "HH:MM" textual
// representation used by timer totals and ledger columns.
package timefmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var hhmmPattern = regexp.MustCompile(`^\d{1,}:\d{2}$`)

// strictPattern matches the "HH:MM" shape accepted for manual timer edits.
var strictPattern = regexp.MustCompile(`^\d{2,}:\d{2}$`)

// FormatMinutes renders a non-negative minute count as "HH:MM". Hours are
// zero-padded to at least two digits and may exceed 99 (e.g. "160:00").
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}

	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseHHMM converts an "H:MM" or "HH:MM" string to whole minutes.
// Malformed input yields 0 rather than an error; stored durations predating
// validation are treated as empty instead of poisoning an aggregate.
func ParseHHMM(s string) int {
	if !hhmmPattern.MatchString(s) {
		return 0
	}

	parts := strings.SplitN(s, ":", 2)
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes > 59 {
		return 0
	}

	return hours*60 + minutes
}

// Valid reports whether s is a well-formed zero-padded "HH:MM" duration.
func Valid(s string) bool {
	if !strictPattern.MatchString(s) {
		return false
	}

	minutes, err := strconv.Atoi(s[strings.LastIndex(s, ":")+1:])
	return err == nil && minutes <= 59
}
