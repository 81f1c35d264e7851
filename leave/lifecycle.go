/*
lifecycle.go - Leave request state machine

PURPOSE:
  Drives the request lifecycle and the balance adjustment each
  transition implies.

STATES:
  pending (initial) -> approved (terminal)
                    -> rejected (terminal)

  No transition leads back to pending. Re-deciding an already decided
  request fails with ErrInvalidTransition, including a repeat of the
  same terminal status: no-op transitions are rejected, not silently
  accepted.

CREATE FLOW:
  validate range -> verify employee -> overlap check -> persist pending.
  Creation does NOT debit any balance: consumption is recorded only on
  decision, so the balance reflects committed days.

DECIDE FLOW:
  load -> transition check -> count chargeable days (year-split aware)
  -> approved: EnsureBalance + ApplyDelta(+days) per affected year
  -> rejected: release held balance per affected year
  -> persist status + balances as ONE store transaction.

  Any failure leaves both the request status and the balance unchanged.
  Optimistic-concurrency conflicts are retried a bounded number of
  times; everything else surfaces immediately.

REJECTION POLICY:
  The compatibility default resets the year's balance to the full
  entitlement on rejection, erasing consumption from other approved
  requests in the same year. RejectReverseDelta is the alternative
  policy that reverses nothing (the pending request never consumed),
  leaving prior approvals intact.

SEE ALSO:
  - days.go: Chargeable-day counting and year splitting
  - ledger.go: Balance mutations
  - overlap.go: Conflict detection at creation
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RejectionPolicy selects how a rejection affects the year's balance.
type RejectionPolicy string

const (
	// RejectResetToInitial restores the full entitlement on rejection.
	// This matches the original system's behavior and is the default.
	RejectResetToInitial RejectionPolicy = "reset_to_initial"

	// RejectReverseDelta reverses only the rejected request's own
	// consumption. A pending request holds no balance, so prior
	// approvals stay intact.
	RejectReverseDelta RejectionPolicy = "reverse_delta"
)

// ParseRejectionPolicy validates an external policy string.
func ParseRejectionPolicy(s string) (RejectionPolicy, error) {
	switch RejectionPolicy(s) {
	case RejectResetToInitial, RejectReverseDelta:
		return RejectionPolicy(s), nil
	case "":
		return RejectResetToInitial, nil
	}
	return "", fmt.Errorf("unknown rejection policy %q", s)
}

// decideRetries bounds transparent retries of conflicting decisions.
const decideRetries = 3

// Service is the leave engine facade invoked by transports.
type Service struct {
	Store     Store
	Directory EmployeeDirectory
	Calendar  Calendar
	Ledger    *BalanceLedger
	Rejection RejectionPolicy
	Notifier  Notifier

	// Now is the clock used for "start must not be in the past";
	// overridable in tests.
	Now func() Date

	locks *keyedLocks
}

// NewService wires a Service with the compatibility rejection policy
// and a logging notifier.
func NewService(store Store, dir EmployeeDirectory, cal Calendar, entitlementDays int) *Service {
	return &Service{
		Store:     store,
		Directory: dir,
		Calendar:  cal,
		Ledger:    NewBalanceLedger(store, entitlementDays),
		Rejection: RejectResetToInitial,
		Notifier:  LogNotifier{},
		Now:       Today,
		locks:     newKeyedLocks(),
	}
}

// =============================================================================
// CREATE - pending request, no balance debit
// =============================================================================

// Create validates and persists a new pending leave request.
func (s *Service) Create(ctx context.Context, id EmployeeID, start, end Date, leaveType, justification string) (*Request, error) {
	if start.After(end) {
		return nil, fmt.Errorf("start %s after end %s: %w", start, end, ErrInvalidRange)
	}
	if start.Before(s.Now()) {
		return nil, fmt.Errorf("start %s is in the past: %w", start, ErrInvalidRange)
	}

	known, err := s.Directory.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("verify employee: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("employee %s: %w", id, ErrEmployeeNotFound)
	}

	existing, err := s.Store.ListRequests(ctx, id, StatusPending, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if conflict := FindConflict(existing, start, end); conflict != nil {
		return nil, &OverlapError{
			EmployeeID:    id,
			Start:         start,
			End:           end,
			ConflictID:    conflict.ID,
			ConflictStart: conflict.StartDate,
			ConflictEnd:   conflict.EndDate,
		}
	}

	req := &Request{
		ID:            RequestID(uuid.NewString()),
		EmployeeID:    id,
		StartDate:     start,
		EndDate:       end,
		Type:          leaveType,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
		Justification: justification,
	}

	if err := s.Store.SaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}
	return req, nil
}

// =============================================================================
// DECIDE - terminal transition with atomic balance adjustment
// =============================================================================

// Decide transitions a pending request to approved or rejected and
// applies the implied balance adjustment. Returns the updated balance
// for the request's start year.
//
// Safe to retry: a second decision of an already decided request fails
// with ErrInvalidTransition and changes nothing.
func (s *Service) Decide(ctx context.Context, id RequestID, newStatus Status, decidedBy string) (*Balance, error) {
	if !newStatus.Terminal() {
		return nil, &TransitionError{RequestID: id, From: StatusPending, To: newStatus}
	}

	// Locate the employee first so the per-employee lock can be taken
	// before the transactional read.
	probe, err := s.Store.FindRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find request: %w", err)
	}
	if probe == nil {
		return nil, fmt.Errorf("request %s: %w", id, ErrRequestNotFound)
	}

	unlock := s.locks.Lock(probe.EmployeeID)
	defer unlock()

	var (
		balance *Balance
		decided *Request
	)
	for attempt := 0; ; attempt++ {
		balance, decided, err = s.decideOnce(ctx, id, newStatus, decidedBy)
		if err == nil {
			break
		}
		if IsRetryable(err) && attempt < decideRetries-1 {
			continue
		}
		return nil, err
	}

	if s.Notifier != nil {
		// Side effect only; a delivery failure never fails the decision.
		s.Notifier.RequestDecided(ctx, *decided, *balance)
	}
	return balance, nil
}

// decideOnce runs one transactional decide attempt.
func (s *Service) decideOnce(ctx context.Context, id RequestID, newStatus Status, decidedBy string) (*Balance, *Request, error) {
	var (
		resultBalance *Balance
		resultRequest *Request
	)

	err := s.Store.WithTx(ctx, func(tx Store) error {
		req, err := tx.FindRequest(ctx, id)
		if err != nil {
			return fmt.Errorf("find request: %w", err)
		}
		if req == nil {
			return fmt.Errorf("request %s: %w", id, ErrRequestNotFound)
		}
		if req.Status != StatusPending {
			return &TransitionError{RequestID: id, From: req.Status, To: newStatus}
		}

		split, err := SplitAcrossYearBoundary(s.Calendar, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}

		led := s.Ledger.WithStore(tx)
		resultBalance, err = s.adjustYear(ctx, led, req.EmployeeID, split.StartYear, split.DaysInStartYear, newStatus)
		if err != nil {
			return err
		}
		if split.CrossesYear() {
			if _, err := s.adjustYear(ctx, led, req.EmployeeID, split.EndYear, split.DaysInEndYear, newStatus); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		req.Status = newStatus
		req.DecidedAt = &now
		req.DecidedBy = decidedBy
		if err := tx.SaveRequest(ctx, req); err != nil {
			return fmt.Errorf("save request: %w", err)
		}

		resultRequest = req
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return resultBalance, resultRequest, nil
}

// adjustYear applies one year's share of the decision to its balance.
func (s *Service) adjustYear(ctx context.Context, led *BalanceLedger, id EmployeeID, year, days int, newStatus Status) (*Balance, error) {
	bal, err := led.EnsureBalance(ctx, id, year)
	if err != nil {
		return nil, err
	}

	switch newStatus {
	case StatusApproved:
		return led.ApplyDelta(ctx, bal, Days(days))
	case StatusRejected:
		if s.Rejection == RejectReverseDelta {
			// The pending request never consumed balance, so there is
			// nothing to reverse; prior approvals stay intact.
			return bal, nil
		}
		return led.ResetToInitial(ctx, bal)
	}
	return bal, nil
}

// =============================================================================
// READ SURFACE
// =============================================================================

// Balance returns the employee's balance for the given year, creating
// the default lazily when none exists yet.
func (s *Service) Balance(ctx context.Context, id EmployeeID, year int) (*Balance, error) {
	known, err := s.Directory.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("verify employee: %w", err)
	}
	if !known {
		return nil, fmt.Errorf("employee %s: %w", id, ErrEmployeeNotFound)
	}
	return s.Ledger.EnsureBalance(ctx, id, year)
}

// Requests lists an employee's requests, optionally filtered by status.
func (s *Service) Requests(ctx context.Context, id EmployeeID, statuses ...Status) ([]Request, error) {
	return s.Store.ListRequests(ctx, id, statuses...)
}

// Request returns one request by id.
func (s *Service) Request(ctx context.Context, id RequestID) (*Request, error) {
	req, err := s.Store.FindRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("request %s: %w", id, ErrRequestNotFound)
	}
	return req, nil
}
