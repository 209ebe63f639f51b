// Package sentinel holds the storage facts stores report. Services translate
// them into domain errors; validation failures never use them.
package sentinel

import "errors"

var (
	// ErrNotFound means no row matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState means a conditional update found the row no longer in
	// the expected state, for example a review that lost a race.
	ErrInvalidState = errors.New("invalid state")
)
