/*
Package sqlite provides the SQLite-backed implementation of the leave
storage contracts.

PURPOSE:
  Implements leave.Store (balances, requests, transactional grouping)
  and leave.EmployeeDirectory, plus holiday persistence feeding the
  engine's work calendar.

KEY TABLES:
  balances:   One row per (employee_id, year), with a row version for
              optimistic concurrency
  requests:   Leave requests and their lifecycle status
  employees:  The identity collaborator's records
  holidays:   Configured non-working dates

OPTIMISTIC CONCURRENCY:
  Balance updates are compare-and-swap on the version column. A stale
  version reports leave.ErrConflict, which the lifecycle retries.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better
  concurrency: readers don't block, single writer at a time.

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/leave"
)

// Store implements the leave storage contracts using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// dbtx abstracts *sql.DB and *sql.Tx so the same queries serve both
// direct calls and transaction scopes.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Balances: one row per employee and accounting year
	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		initial_days TEXT NOT NULL,
		used_days TEXT NOT NULL,
		remaining_days TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (employee_id, year)
	);

	-- Leave requests
	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		leave_type TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		comments TEXT,
		justification TEXT,
		decided_at TEXT,
		decided_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);
	-- Overlap checks scan an employee's open requests by range
	CREATE INDEX IF NOT EXISTS idx_requests_employee_dates
		ON requests(employee_id, start_date, end_date);

	-- Employees (identity collaborator)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Holidays feeding the work calendar
	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BALANCES (leave.Store)
// =============================================================================

// FindBalance returns the balance for (employee, year), or nil.
func (s *Store) FindBalance(ctx context.Context, id leave.EmployeeID, year int) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findBalance(ctx, s.db, id, year)
}

func findBalance(ctx context.Context, q dbtx, id leave.EmployeeID, year int) (*leave.Balance, error) {
	var (
		b       leave.Balance
		initial string
		used    string
		rem     string
	)
	err := q.QueryRowContext(ctx,
		`SELECT employee_id, year, initial_days, used_days, remaining_days, version
		 FROM balances WHERE employee_id = ? AND year = ?`,
		string(id), year,
	).Scan(&b.EmployeeID, &b.Year, &initial, &used, &rem, &b.Version)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query balance: %w", err)
	}

	b.Initial = leave.ParseAmount(initial)
	b.Used = leave.ParseAmount(used)
	b.Remaining = leave.ParseAmount(rem)
	return &b, nil
}

// SaveBalance inserts or CAS-updates a balance row.
func (s *Store) SaveBalance(ctx context.Context, b *leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBalance(ctx, s.db, b)
}

func saveBalance(ctx context.Context, q dbtx, b *leave.Balance) error {
	now := time.Now().UTC().Format(time.RFC3339)

	res, err := q.ExecContext(ctx,
		`UPDATE balances
		 SET initial_days = ?, used_days = ?, remaining_days = ?,
		     version = version + 1, updated_at = ?
		 WHERE employee_id = ? AND year = ? AND version = ?`,
		b.Initial.String(), b.Used.String(), b.Remaining.String(), now,
		string(b.EmployeeID), b.Year, b.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		b.Version++
		return nil
	}

	// No row matched: either the row doesn't exist yet, or the caller
	// holds a stale version.
	existing, err := findBalance(ctx, q, b.EmployeeID, b.Year)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("balance %s/%d version %d: %w",
			b.EmployeeID, b.Year, b.Version, leave.ErrConflict)
	}

	_, err = q.ExecContext(ctx,
		`INSERT INTO balances
		 (employee_id, year, initial_days, used_days, remaining_days, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(b.EmployeeID), b.Year,
		b.Initial.String(), b.Used.String(), b.Remaining.String(),
		b.Version+1, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			// Lost the insert race to a concurrent writer.
			return fmt.Errorf("balance %s/%d: %w", b.EmployeeID, b.Year, leave.ErrConflict)
		}
		return fmt.Errorf("failed to insert balance: %w", err)
	}
	b.Version++
	return nil
}

// DeleteBalances removes every balance row for an employee.
func (s *Store) DeleteBalances(ctx context.Context, id leave.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM balances WHERE employee_id = ?", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete balances: %w", err)
	}
	return nil
}

// =============================================================================
// REQUESTS (leave.Store)
// =============================================================================

// FindRequest returns a request by id, or nil.
func (s *Store) FindRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRequest(ctx, s.db, id)
}

func findRequest(ctx context.Context, q dbtx, id leave.RequestID) (*leave.Request, error) {
	rows, err := q.QueryContext(ctx, requestColumns+" FROM requests WHERE id = ?", string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query request: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRequest(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveRequest inserts or updates a leave request.
func (s *Store) SaveRequest(ctx context.Context, r *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRequest(ctx, s.db, r)
}

func saveRequest(ctx context.Context, q dbtx, r *leave.Request) error {
	var decidedAt *string
	if r.DecidedAt != nil {
		t := r.DecidedAt.Format(time.RFC3339)
		decidedAt = &t
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO requests
		 (id, employee_id, start_date, end_date, leave_type, status, created_at,
		  comments, justification, decided_at, decided_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			comments = excluded.comments,
			decided_at = excluded.decided_at,
			decided_by = excluded.decided_by`,
		string(r.ID), string(r.EmployeeID),
		r.StartDate.String(), r.EndDate.String(),
		r.Type, string(r.Status),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.Comments, r.Justification, decidedAt, r.DecidedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// ListRequests returns an employee's requests, newest first,
// optionally filtered by status.
func (s *Store) ListRequests(ctx context.Context, id leave.EmployeeID, statuses ...leave.Status) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(ctx, s.db, id, statuses)
}

func listRequests(ctx context.Context, q dbtx, id leave.EmployeeID, statuses []leave.Status) ([]leave.Request, error) {
	query := requestColumns + " FROM requests WHERE employee_id = ?"
	args := []any{string(id)}

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ListAllRequests returns every request in the system, newest first,
// optionally filtered by status.
func (s *Store) ListAllRequests(ctx context.Context, statuses ...leave.Status) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := requestColumns + " FROM requests"
	var args []any

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// ListPendingRequests returns every employee's pending requests,
// oldest first, for the approval queue.
func (s *Store) ListPendingRequests(ctx context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		requestColumns+" FROM requests WHERE status = ? ORDER BY created_at ASC",
		string(leave.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

const requestColumns = `SELECT id, employee_id, start_date, end_date, leave_type, status,
	created_at, comments, justification, decided_at, decided_by`

func scanRequest(rows *sql.Rows) (leave.Request, error) {
	var (
		r         leave.Request
		start     string
		end       string
		leaveType sql.NullString
		createdAt string
		comments  sql.NullString
		just      sql.NullString
		decidedAt sql.NullString
		decidedBy sql.NullString
	)

	err := rows.Scan(&r.ID, &r.EmployeeID, &start, &end, &leaveType, &r.Status,
		&createdAt, &comments, &just, &decidedAt, &decidedBy)
	if err != nil {
		return r, fmt.Errorf("failed to scan request: %w", err)
	}

	if r.StartDate, err = leave.ParseDate(start); err != nil {
		return r, err
	}
	if r.EndDate, err = leave.ParseDate(end); err != nil {
		return r, err
	}
	r.Type = leaveType.String
	r.Comments = comments.String
	r.Justification = just.String
	r.DecidedBy = decidedBy.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if decidedAt.Valid {
		t, _ := time.Parse(time.RFC3339, decidedAt.String)
		r.DecidedAt = &t
	}
	return r, nil
}

// =============================================================================
// TRANSACTIONS (leave.Store)
// =============================================================================

// WithTx executes fn within a database transaction. If fn returns an
// error, the transaction is rolled back. The store's write lock is
// held for the duration, matching the single-writer SQLite model.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the transaction-scoped leave.Store. It reuses the shared
// query helpers against the open *sql.Tx and takes no locks: the
// parent's write lock is already held.
type txStore struct {
	q dbtx
}

func (ts *txStore) FindBalance(ctx context.Context, id leave.EmployeeID, year int) (*leave.Balance, error) {
	return findBalance(ctx, ts.q, id, year)
}

func (ts *txStore) SaveBalance(ctx context.Context, b *leave.Balance) error {
	return saveBalance(ctx, ts.q, b)
}

func (ts *txStore) DeleteBalances(ctx context.Context, id leave.EmployeeID) error {
	_, err := ts.q.ExecContext(ctx, "DELETE FROM balances WHERE employee_id = ?", string(id))
	return err
}

func (ts *txStore) FindRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	return findRequest(ctx, ts.q, id)
}

func (ts *txStore) SaveRequest(ctx context.Context, r *leave.Request) error {
	return saveRequest(ctx, ts.q, r)
}

func (ts *txStore) ListRequests(ctx context.Context, id leave.EmployeeID, statuses ...leave.Status) ([]leave.Request, error) {
	return listRequests(ctx, ts.q, id, statuses)
}

func (ts *txStore) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	// Already inside a transaction; nesting flattens.
	return fn(ts)
}

// =============================================================================
// EMPLOYEE DIRECTORY (leave.EmployeeDirectory)
// =============================================================================

// Exists reports whether the employee id is known.
func (s *Store) Exists(ctx context.Context, id leave.EmployeeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM employees WHERE id = ?", string(id),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check employee: %w", err)
	}
	return count > 0, nil
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, hire_date FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		var (
			e        leave.Employee
			email    sql.NullString
			hireDate string
		)
		if err := rows.Scan(&e.ID, &e.Name, &email, &hireDate); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		e.Email = email.String
		e.HireDate, _ = time.Parse(time.RFC3339, hireDate)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// SaveEmployee upserts an employee record. Administrative plumbing;
// the engine itself never writes employees.
func (s *Store) SaveEmployee(ctx context.Context, e leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, email, hire_date, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			hire_date = excluded.hire_date`,
		string(e.ID), e.Name, e.Email,
		e.HireDate.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee returns an employee by id, or nil.
func (s *Store) GetEmployee(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		e        leave.Employee
		email    sql.NullString
		hireDate string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, hire_date FROM employees WHERE id = ?", string(id),
	).Scan(&e.ID, &e.Name, &email, &hireDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	e.Email = email.String
	e.HireDate, _ = time.Parse(time.RFC3339, hireDate)
	return &e, nil
}

// DeleteEmployee removes an employee record.
func (s *Store) DeleteEmployee(ctx context.Context, id leave.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", string(id))
	return err
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// Holiday is a stored non-working date.
type Holiday struct {
	Date leave.Date
	Name string
}

// SaveHoliday persists a holiday. Takes effect in the engine's
// calendar on the next startup: the calendar is an immutable snapshot.
func (s *Store) SaveHoliday(ctx context.Context, h Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO holidays (date, name, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET name = excluded.name`,
		h.Date.String(), h.Name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// DeleteHoliday removes a holiday by date.
func (s *Store) DeleteHoliday(ctx context.Context, date leave.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE date = ?", date.String())
	return err
}

// ListHolidays returns all stored holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT date, name FROM holidays ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []Holiday
	for rows.Next() {
		var (
			h       Holiday
			dateStr string
		)
		if err := rows.Scan(&dateStr, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		if h.Date, err = leave.ParseDate(dateStr); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// LoadCalendar builds the immutable holiday calendar from the stored
// holidays plus any extra configured dates.
func (s *Store) LoadCalendar(ctx context.Context, extra ...leave.Date) (*leave.HolidaySet, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}

	dates := make([]leave.Date, 0, len(holidays)+len(extra))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	dates = append(dates, extra...)
	return leave.NewHolidaySet(dates...), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
