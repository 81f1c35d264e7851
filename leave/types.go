/*
Package leave implements the leave balance engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  employee leave entitlement: how many working days an employee may take
  off, how many have been consumed, and how approving or rejecting a
  pending request affects the stored balance.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A whole-day quantity carried as an exact decimal
  - Balance: Per-employee, per-year entitlement record
  - Request: A leave application with its lifecycle status
  - Status: Closed Pending/Approved/Rejected variant

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so balances never drift
  2. Type Safety: Strong typing for employee and request identifiers
  3. Closed Status: Unknown status strings are rejected at the boundary,
     never deep inside the engine
  4. Year Scoping: A Balance belongs to exactly one accounting year

SEE ALSO:
  - date.go: Day-granularity date value
  - ledger.go: Balance mutation operations
  - lifecycle.go: Request state machine
*/
package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Day quantity with exact arithmetic
// =============================================================================

// Amount is a quantity of leave days. The engine only ever produces whole
// days, but the representation is exact so repeated adjustments never drift.
type Amount struct {
	Value decimal.Decimal
}

// Days builds an Amount from a whole-day count.
func Days(n int) Amount {
	return Amount{Value: decimal.NewFromInt(int64(n))}
}

// ParseAmount parses a stored decimal string. Invalid input yields zero.
func ParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{Value: decimal.Zero}
	}
	return Amount{Value: d}
}

func (a Amount) Add(b Amount) Amount    { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount    { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount            { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool       { return a.Value.IsNegative() }
func (a Amount) IsZero() bool           { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool    { return a.Value.Equal(b.Value) }
func (a Amount) LessThan(b Amount) bool { return a.Value.LessThan(b.Value) }
func (a Amount) Int() int               { return int(a.Value.IntPart()) }
func (a Amount) String() string         { return a.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RequestID string

// =============================================================================
// STATUS - Closed request status variant
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus converts an external status string into a Status.
// Unknown strings are rejected here, at the boundary, so the engine
// never sees a loosely-typed status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q: %w", s, ErrInvalidTransition)
}

// Terminal reports whether the status ends the request lifecycle.
// No transition leads back to pending.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// =============================================================================
// BALANCE - Per-employee, per-year entitlement record
// =============================================================================

// Balance is one employee's entitlement for one accounting year.
//
// INVARIANT: Remaining == Initial - Used after every mutation, and
// Used is never negative. Remaining MAY go negative: the engine does
// not guard against overdraft.
type Balance struct {
	EmployeeID EmployeeID
	Year       int
	Initial    Amount
	Used       Amount
	Remaining  Amount

	// Version is the optimistic-concurrency row version. SaveBalance
	// fails with ErrConflict when it no longer matches the stored row.
	Version int64
}

// Recompute restores the Remaining invariant after Used changed.
func (b *Balance) Recompute() {
	b.Remaining = b.Initial.Sub(b.Used)
}

// =============================================================================
// REQUEST - A leave application
// =============================================================================

// Request is one leave application. StartDate and EndDate are inclusive
// and StartDate <= EndDate always holds for persisted requests.
type Request struct {
	ID            RequestID
	EmployeeID    EmployeeID
	StartDate     Date
	EndDate       Date
	Type          string // free-form label ("annual", "sick", ...)
	Status        Status
	CreatedAt     time.Time
	Comments      string
	Justification string

	// Decision metadata, set when the request leaves pending.
	DecidedAt *time.Time
	DecidedBy string
}

// Overlaps reports whether the request's range overlaps [start, end].
func (r *Request) Overlaps(start, end Date) bool {
	return Overlaps(r.StartDate, r.EndDate, start, end)
}

// =============================================================================
// EMPLOYEE - External identity record, referenced by id
// =============================================================================

// Employee is the slice of the identity collaborator the engine needs.
// The engine never creates or deletes employees through the lifecycle.
type Employee struct {
	ID       EmployeeID
	Name     string
	Email    string
	HireDate time.Time
}
