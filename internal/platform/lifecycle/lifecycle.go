// Package lifecycle implements the shared soft-delete policy used by wallets,
// postings and transfers: records are tombstoned rather than erased, excluded
// from active aggregates, and can be restored.
package lifecycle

import "errors"

var (
	// ErrNotTombstoned is returned when restoring a record that is active.
	ErrNotTombstoned = errors.New("record is not tombstoned")
)

// Status represents the soft-delete state of a record
type Status string

const (
	StatusActive     Status = "active"
	StatusTombstoned Status = "tombstoned"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusTombstoned
}

// IsActive returns true if the record participates in aggregates
func (s Status) IsActive() bool {
	return s == StatusActive
}

// IsTombstoned returns true if the record is soft-deleted
func (s Status) IsTombstoned() bool {
	return s == StatusTombstoned
}

// Tombstone returns the tombstoned status and whether the state changed.
// Tombstoning an already-tombstoned record is a no-op, not an error, so
// duplicate delete requests from the UI stay idempotent.
func Tombstone(s Status) (Status, bool) {
	if s.IsTombstoned() {
		return s, false
	}
	return StatusTombstoned, true
}

// Restore returns the active status. Only tombstoned records can be restored.
func Restore(s Status) (Status, error) {
	if !s.IsTombstoned() {
		return s, ErrNotTombstoned
	}
	return StatusActive, nil
}
