/*
ledger.go - Balance ledger operations

PURPOSE:
  Owns the Balance record per (employee, year): read, lazy creation,
  delta application, and administrative resets. Every mutation restores
  the invariant Remaining == Initial - Used before persisting.

LAZY CREATION:
  The original system created a default balance ad hoc at several call
  sites, with the entitlement sometimes hardcoded. EnsureBalance is the
  single consolidation point: wherever a balance is read for mutation
  and none exists yet, one is created with the configured entitlement.
  There is no explicit "new hire" provisioning step.

ATOMICITY:
  The ledger itself does not open transactions. The lifecycle runs
  ledger operations against a transaction-scoped Store (WithStore) so a
  status write and its balance writes commit or roll back together.

SEE ALSO:
  - store.go: SaveBalance CAS contract
  - lifecycle.go: Transactional approve/reject flow
*/
package leave

import (
	"context"
	"fmt"
)

// BalanceLedger exposes balance reads and mutations over a Store.
type BalanceLedger struct {
	Store       Store
	Entitlement Amount // yearly entitlement for freshly created balances
}

// NewBalanceLedger creates a ledger with the configured yearly entitlement.
func NewBalanceLedger(store Store, entitlementDays int) *BalanceLedger {
	return &BalanceLedger{Store: store, Entitlement: Days(entitlementDays)}
}

// WithStore returns a ledger bound to another store, typically a
// transaction scope obtained from Store.WithTx.
func (l *BalanceLedger) WithStore(s Store) *BalanceLedger {
	return &BalanceLedger{Store: s, Entitlement: l.Entitlement}
}

// GetBalance returns the balance for (employee, year).
// Fails with ErrBalanceNotFound when no row exists.
func (l *BalanceLedger) GetBalance(ctx context.Context, id EmployeeID, year int) (*Balance, error) {
	b, err := l.Store.FindBalance(ctx, id, year)
	if err != nil {
		return nil, fmt.Errorf("find balance: %w", err)
	}
	if b == nil {
		return nil, fmt.Errorf("employee %s year %d: %w", id, year, ErrBalanceNotFound)
	}
	return b, nil
}

// EnsureBalance returns the existing balance for (employee, year) or
// creates, persists, and returns a default one: Used = 0 and Remaining
// equal to the configured entitlement.
func (l *BalanceLedger) EnsureBalance(ctx context.Context, id EmployeeID, year int) (*Balance, error) {
	b, err := l.Store.FindBalance(ctx, id, year)
	if err != nil {
		return nil, fmt.Errorf("find balance: %w", err)
	}
	if b != nil {
		return b, nil
	}

	b = &Balance{
		EmployeeID: id,
		Year:       year,
		Initial:    l.Entitlement,
		Used:       Days(0),
		Remaining:  l.Entitlement,
	}
	if err := l.Store.SaveBalance(ctx, b); err != nil {
		return nil, fmt.Errorf("create balance: %w", err)
	}
	return b, nil
}

// ApplyDelta adds usedDelta to the balance's consumption, recomputes
// Remaining, and persists. Used is clamped at zero so a reversal can
// never drive consumption negative. Remaining is deliberately allowed
// to go negative (overdraft is not guarded).
func (l *BalanceLedger) ApplyDelta(ctx context.Context, b *Balance, usedDelta Amount) (*Balance, error) {
	b.Used = b.Used.Add(usedDelta)
	if b.Used.IsNegative() {
		b.Used = Days(0)
	}
	b.Recompute()

	if err := l.Store.SaveBalance(ctx, b); err != nil {
		return nil, fmt.Errorf("apply delta: %w", err)
	}
	return b, nil
}

// ResetToInitial restores the balance to a full entitlement:
// Used = 0, Remaining = Initial.
func (l *BalanceLedger) ResetToInitial(ctx context.Context, b *Balance) (*Balance, error) {
	b.Used = Days(0)
	b.Recompute()

	if err := l.Store.SaveBalance(ctx, b); err != nil {
		return nil, fmt.Errorf("reset balance: %w", err)
	}
	return b, nil
}

// DeleteBalance removes every balance row for an employee.
// Administrative operation.
func (l *BalanceLedger) DeleteBalance(ctx context.Context, id EmployeeID) error {
	if err := l.Store.DeleteBalances(ctx, id); err != nil {
		return fmt.Errorf("delete balances: %w", err)
	}
	return nil
}

// AddBalanceForNewYear provisions a balance for a new accounting year.
// Fails with ErrBalanceExists when the (employee, year) key is already
// present, which makes the operation idempotent for schedulers.
func (l *BalanceLedger) AddBalanceForNewYear(ctx context.Context, b *Balance) error {
	existing, err := l.Store.FindBalance(ctx, b.EmployeeID, b.Year)
	if err != nil {
		return fmt.Errorf("find balance: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("employee %s year %d: %w", b.EmployeeID, b.Year, ErrBalanceExists)
	}

	if b.Initial.IsZero() {
		b.Initial = l.Entitlement
	}
	b.Used = Days(0)
	b.Recompute()

	if err := l.Store.SaveBalance(ctx, b); err != nil {
		return fmt.Errorf("add balance: %w", err)
	}
	return nil
}
