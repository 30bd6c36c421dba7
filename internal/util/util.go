// Package util provides shared utilities: the process-wide cooperative
// abort flag, date parsing shared by the loader and cleaner, and a small
// multi-error collector used wherever one failure must not stop a batch.
package util

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// ─── Abort Flag ───────────────────────────────────────────────────────────────

// AbortFlag is a process-wide cooperative cancellation signal.
// Long-running operations poll Check at coarse checkpoints (after each
// pipeline step, during a database push) and return model.Aborted
// when it is set. There is no preemption.
type AbortFlag struct {
	flag atomic.Bool
}

// Init resets the flag to the not-aborted state. Call once at the start of
// each long-running operation that owns cancellation for its duration.
func (a *AbortFlag) Init() { a.flag.Store(false) }

// Set requests cooperative cancellation.
func (a *AbortFlag) Set() { a.flag.Store(true) }

// Check reports whether abort has been requested.
func (a *AbortFlag) Check() bool { return a.flag.Load() }

// Global is the single process-wide abort flag instance
// ("the abort flag ... is the only process-wide mutable state").
var Global AbortFlag

// ─── Date Parsing ─────────────────────────────────────────────────────────────

// ISODate is the canonical YYYY-MM-DD layout used by CLI flags and CSV date
// columns absent an explicit temporal_format.
const ISODate = "2006-01-02"

// ParseISODate parses a YYYY-MM-DD string into a UTC time.Time.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// CommonTemporalLayouts are tried, in order, when no temporal_format is
// given for a String→Temporal cast.
var CommonTemporalLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"20060102",
}

// ParseTemporal tries format first (if non-empty), then the common layouts,
// returning the first successful parse.
func ParseTemporal(s, format string) (time.Time, bool) {
	if format != "" {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	for _, layout := range CommonTemporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ─── Error Helpers ────────────────────────────────────────────────────────────

// MultiError collects multiple errors and presents them as one, preserving
// insertion order. Used when a batch operation must report every failure
// rather than stopping at the first.
type MultiError struct {
	Errors []error
}

// Add appends err if non-nil.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Err returns nil if no errors were added, otherwise m itself.
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ─── Temp File Guard ──────────────────────────────────────────────────────────

// TempGuard tracks a partially-written file and removes it unless Commit is
// called. The writers in internal/sink and internal/parquetio do not use
// it, so a failed export can leave a partial output file behind.
type TempGuard struct {
	path      string
	committed bool
	remove    func(string) error
}

// NewTempGuard wraps path with remove as the deletion function (normally
// os.Remove; injectable for tests).
func NewTempGuard(path string, remove func(string) error) *TempGuard {
	return &TempGuard{path: path, remove: remove}
}

// Commit marks the file as successfully finished; Close becomes a no-op.
func (g *TempGuard) Commit() { g.committed = true }

// Close removes the tracked file unless Commit was called.
func (g *TempGuard) Close() error {
	if g.committed {
		return nil
	}
	return g.remove(g.path)
}
