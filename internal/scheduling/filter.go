// Package scheduling decides which form submissions are due for processing.
package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// TimestampLayout is the day-first layout the form writes into its Timestamp column
const TimestampLayout = "02/01/2006 15:04:05"

// Skip reasons reported by Filter.Keep
const (
	ReasonMissingTimestamp = "missing timestamp"
	ReasonBadTimestamp     = "unparseable timestamp"
	ReasonBeforeCutoff     = "submitted before cutoff"
	ReasonNoManagerEmail   = "manager email missing"
)

// ParseTimestamp parses a form timestamp such as "26/03/2025 16:46:08"
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// Filter selects submissions made at or after Since. With
// RequireManagerEmail set, a submission also needs a manager address.
type Filter struct {
	Since               time.Time
	TimestampKey        string
	ManagerEmailKey     string
	RequireManagerEmail bool
}

// DefaultFilter returns a filter over the live form's column names
func DefaultFilter(since time.Time) Filter {
	return Filter{
		Since:               since,
		TimestampKey:        "Timestamp",
		ManagerEmailKey:     "Manager Email",
		RequireManagerEmail: true,
	}
}

// Keep reports whether rec should be processed, and why not when it should not
func (f Filter) Keep(rec types.Record) (bool, string) {
	raw, ok := rec.Lookup(f.TimestampKey)
	if !ok {
		return false, ReasonMissingTimestamp
	}

	submitted, err := ParseTimestamp(raw)
	if err != nil {
		return false, ReasonBadTimestamp
	}
	if submitted.Before(f.Since) {
		return false, ReasonBeforeCutoff
	}

	if f.RequireManagerEmail {
		email, ok := rec.Lookup(f.ManagerEmailKey)
		if !ok || !strings.Contains(email, "@") {
			return false, ReasonNoManagerEmail
		}
	}
	return true, ""
}
