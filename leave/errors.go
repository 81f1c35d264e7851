/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the HTTP layer maps these
  onto status codes.

ERROR CATEGORIES:
  1. Validation errors - Invalid ranges, overlapping requests, bad transitions
  2. Lookup errors     - Unknown employee, request, or balance
  3. Store errors      - Persistence failures, optimistic-concurrency conflicts

RETRY SEMANTICS:
  Validation and lookup errors are surfaced to the caller and never
  retried. ErrConflict is retried transparently a small, bounded number
  of times by the lifecycle before surfacing.

SEE ALSO:
  - ledger.go: Raises ErrBalanceNotFound, ErrBalanceExists, ErrConflict
  - lifecycle.go: Raises the validation errors
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a range has start after end, or
	// starts in the past at creation time.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrOverlappingRange is returned when a candidate range conflicts
	// with an existing pending or approved request of the same employee.
	ErrOverlappingRange = errors.New("overlapping leave request")

	// ErrInvalidTransition is returned for repeated decisions and any
	// other transition out of a terminal status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRequestNotFound is returned when a request id is unknown.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrBalanceNotFound is returned when no balance row exists for an
	// employee and year.
	ErrBalanceNotFound = errors.New("balance not found")

	// ErrEmployeeNotFound is returned when the identity collaborator
	// does not know the employee id.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrBalanceExists is returned when provisioning a new-year balance
	// that is already present for the (employee, year) key.
	ErrBalanceExists = errors.New("balance already exists")

	// ErrConflict is returned when optimistic locking detects a
	// concurrent write to the same balance row.
	ErrConflict = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OverlapError reports which existing request blocked a candidate range.
type OverlapError struct {
	EmployeeID    EmployeeID
	Start         Date
	End           Date
	ConflictID    RequestID
	ConflictStart Date
	ConflictEnd   Date
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range %s..%s overlaps request %s (%s..%s)",
		e.Start, e.End, e.ConflictID, e.ConflictStart, e.ConflictEnd)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRange }

// TransitionError reports a rejected state-machine transition.
type TransitionError struct {
	RequestID RequestID
	From      Status
	To        Status
}

func (e *TransitionError) Error() string {
	if e.From == e.To {
		return fmt.Sprintf("request %s is already %s", e.RequestID, e.From)
	}
	return fmt.Sprintf("request %s cannot transition from %s to %s", e.RequestID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrOverlappingRange) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrBalanceExists)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrBalanceNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}
