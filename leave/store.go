/*
store.go - Persistence contract for balances and requests

PURPOSE:
  Defines the interface between the engine and the database. The engine
  is transport- and storage-agnostic: it issues reads and writes against
  this contract and requires transactional grouping for decisions.

ATOMICITY CONTRACT:
  Decide persists a new request status and one or two balance rows as a
  single unit. WithTx provides that grouping: if the callback returns an
  error, nothing it wrote is visible.

OPTIMISTIC CONCURRENCY:
  SaveBalance performs a compare-and-swap on Balance.Version. A stale
  version fails with ErrConflict, which the lifecycle retries a bounded
  number of times.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - leave/store:  In-memory store for tests and development

SEE ALSO:
  - ledger.go: Balance operations on top of Store
  - lifecycle.go: Transactional decide flow
*/
package leave

import "context"

// Store durably holds Balance and Request records.
type Store interface {
	// FindBalance returns the balance for (employee, year), or nil when
	// no row exists.
	FindBalance(ctx context.Context, id EmployeeID, year int) (*Balance, error)

	// SaveBalance inserts or updates a balance row. Updates are a
	// compare-and-swap on Version: a stale version fails with
	// ErrConflict. On success the stored (and passed) Version advances.
	SaveBalance(ctx context.Context, b *Balance) error

	// DeleteBalances removes every balance row for an employee.
	DeleteBalances(ctx context.Context, id EmployeeID) error

	// FindRequest returns a request by id, or nil when unknown.
	FindRequest(ctx context.Context, id RequestID) (*Request, error)

	// SaveRequest inserts or updates a leave request.
	SaveRequest(ctx context.Context, r *Request) error

	// ListRequests returns an employee's requests, newest first.
	// With statuses given, only matching requests are returned.
	ListRequests(ctx context.Context, id EmployeeID, statuses ...Status) ([]Request, error)

	// WithTx executes fn atomically. If fn returns an error, every
	// write it performed is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// EmployeeDirectory is the slice of the identity collaborator the
// engine depends on: existence checks and listing. The engine never
// writes through this interface.
type EmployeeDirectory interface {
	// Exists reports whether the employee id is known.
	Exists(ctx context.Context, id EmployeeID) (bool, error)

	// ListEmployees returns all known employees.
	ListEmployees(ctx context.Context) ([]Employee, error)
}
