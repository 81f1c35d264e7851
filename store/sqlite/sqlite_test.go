package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func pendingRequest(id, employee string, start, end leave.Date) *leave.Request {
	return &leave.Request{
		ID:         leave.RequestID(id),
		EmployeeID: leave.EmployeeID(employee),
		StartDate:  start,
		EndDate:    end,
		Status:     leave.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// =============================================================================
// BALANCES
// =============================================================================

func TestStore_Balance_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bal := &leave.Balance{
		EmployeeID: "emp-1",
		Year:       2025,
		Initial:    leave.Days(23),
		Used:       leave.Days(5),
		Remaining:  leave.Days(18),
	}
	require.NoError(t, store.SaveBalance(ctx, bal))
	assert.Equal(t, int64(1), bal.Version, "insert advances the version")

	loaded, err := store.FindBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, leave.Days(23), loaded.Initial)
	assert.Equal(t, leave.Days(5), loaded.Used)
	assert.Equal(t, leave.Days(18), loaded.Remaining)
	assert.Equal(t, int64(1), loaded.Version)
}

func TestStore_FindBalance_Missing(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.FindBalance(context.Background(), "ghost", 2025)

	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_SaveBalance_StaleVersionConflicts(t *testing.T) {
	// GIVEN: A stored balance at version 1
	// WHEN: Writing with a stale version
	// THEN: ErrConflict; a fresh version still writes

	store := newTestStore(t)
	ctx := context.Background()

	bal := &leave.Balance{EmployeeID: "emp-1", Year: 2025, Initial: leave.Days(23)}
	require.NoError(t, store.SaveBalance(ctx, bal))

	stale := *bal
	stale.Version = 0
	err := store.SaveBalance(ctx, &stale)
	assert.ErrorIs(t, err, leave.ErrConflict)

	bal.Used = leave.Days(3)
	bal.Recompute()
	require.NoError(t, store.SaveBalance(ctx, bal))
	assert.Equal(t, int64(2), bal.Version)
}

func TestStore_DeleteBalances(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, year := range []int{2024, 2025} {
		bal := &leave.Balance{EmployeeID: "emp-1", Year: year, Initial: leave.Days(23)}
		require.NoError(t, store.SaveBalance(ctx, bal))
	}
	other := &leave.Balance{EmployeeID: "emp-2", Year: 2025, Initial: leave.Days(23)}
	require.NoError(t, store.SaveBalance(ctx, other))

	require.NoError(t, store.DeleteBalances(ctx, "emp-1"))

	gone, err := store.FindBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := store.FindBalance(ctx, "emp-2", 2025)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestStore_Request_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := pendingRequest("r1", "emp-1",
		leave.NewDate(2025, time.March, 3),
		leave.NewDate(2025, time.March, 7))
	req.Type = "annual"
	req.Justification = "spring break"
	require.NoError(t, store.SaveRequest(ctx, req))

	loaded, err := store.FindRequest(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, req.StartDate, loaded.StartDate)
	assert.Equal(t, req.EndDate, loaded.EndDate)
	assert.Equal(t, "annual", loaded.Type)
	assert.Equal(t, leave.StatusPending, loaded.Status)
	assert.Nil(t, loaded.DecidedAt)
}

func TestStore_SaveRequest_UpsertsDecision(t *testing.T) {
	// GIVEN: A stored pending request
	// WHEN: Saving it again with decision fields set
	// THEN: Status and decision metadata are updated in place

	store := newTestStore(t)
	ctx := context.Background()

	req := pendingRequest("r1", "emp-1",
		leave.NewDate(2025, time.March, 3),
		leave.NewDate(2025, time.March, 7))
	require.NoError(t, store.SaveRequest(ctx, req))

	now := time.Now().UTC().Truncate(time.Second)
	req.Status = leave.StatusApproved
	req.DecidedAt = &now
	req.DecidedBy = "boss"
	require.NoError(t, store.SaveRequest(ctx, req))

	loaded, err := store.FindRequest(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, leave.StatusApproved, loaded.Status)
	assert.Equal(t, "boss", loaded.DecidedBy)
	require.NotNil(t, loaded.DecidedAt)
	assert.True(t, loaded.DecidedAt.Equal(now))
}

func TestStore_ListRequests_StatusFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r1 := pendingRequest("r1", "emp-1", leave.NewDate(2025, time.March, 3), leave.NewDate(2025, time.March, 7))
	r2 := pendingRequest("r2", "emp-1", leave.NewDate(2025, time.April, 7), leave.NewDate(2025, time.April, 11))
	r2.Status = leave.StatusRejected
	r3 := pendingRequest("r3", "emp-2", leave.NewDate(2025, time.March, 3), leave.NewDate(2025, time.March, 7))
	for _, r := range []*leave.Request{r1, r2, r3} {
		require.NoError(t, store.SaveRequest(ctx, r))
	}

	all, err := store.ListRequests(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	open, err := store.ListRequests(ctx, "emp-1", leave.StatusPending, leave.StatusApproved)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, leave.RequestID("r1"), open[0].ID)
}

func TestStore_ListPendingRequests_AllEmployees(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r1 := pendingRequest("r1", "emp-1", leave.NewDate(2025, time.March, 3), leave.NewDate(2025, time.March, 7))
	r2 := pendingRequest("r2", "emp-2", leave.NewDate(2025, time.April, 7), leave.NewDate(2025, time.April, 11))
	r3 := pendingRequest("r3", "emp-1", leave.NewDate(2025, time.May, 5), leave.NewDate(2025, time.May, 9))
	r3.Status = leave.StatusApproved
	for _, r := range []*leave.Request{r1, r2, r3} {
		require.NoError(t, store.SaveRequest(ctx, r))
	}

	pending, err := store.ListPendingRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, r := range pending {
		assert.Equal(t, leave.StatusPending, r.Status)
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction writing a request and a balance
	// WHEN: The callback returns an error
	// THEN: Neither write is visible

	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx leave.Store) error {
		bal := &leave.Balance{EmployeeID: "emp-1", Year: 2025, Initial: leave.Days(23)}
		if err := tx.SaveBalance(ctx, bal); err != nil {
			return err
		}
		req := pendingRequest("r1", "emp-1", leave.NewDate(2025, time.March, 3), leave.NewDate(2025, time.March, 7))
		if err := tx.SaveRequest(ctx, req); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	bal, err := store.FindBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.Nil(t, bal)

	req, err := store.FindRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestStore_WithTx_CommitsTogether(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx leave.Store) error {
		bal := &leave.Balance{EmployeeID: "emp-1", Year: 2025, Initial: leave.Days(23)}
		if err := tx.SaveBalance(ctx, bal); err != nil {
			return err
		}
		return tx.SaveRequest(ctx, pendingRequest("r1", "emp-1",
			leave.NewDate(2025, time.March, 3), leave.NewDate(2025, time.March, 7)))
	})
	require.NoError(t, err)

	bal, err := store.FindBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.NotNil(t, bal)

	req, err := store.FindRequest(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, req)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestStore_EmployeeDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	emp := leave.Employee{
		ID:       "emp-1",
		Name:     "Alice",
		Email:    "alice@example.com",
		HireDate: time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveEmployee(ctx, emp))

	ok, err := store.Exists(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Alice", loaded.Name)
	assert.True(t, loaded.HireDate.Equal(emp.HireDate))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, employees, 1)

	require.NoError(t, store.DeleteEmployee(ctx, "emp-1"))
	gone, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestStore_Holidays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	newYear := sqlite.Holiday{Date: leave.NewDate(2025, time.January, 1), Name: "New Year's Day"}
	christmas := sqlite.Holiday{Date: leave.NewDate(2025, time.December, 25), Name: "Christmas Day"}
	require.NoError(t, store.SaveHoliday(ctx, newYear))
	require.NoError(t, store.SaveHoliday(ctx, christmas))

	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, newYear.Date, holidays[0].Date, "ordered by date")

	require.NoError(t, store.DeleteHoliday(ctx, christmas.Date))
	holidays, err = store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, holidays, 1)
}

func TestStore_LoadCalendar_MergesExtraDates(t *testing.T) {
	// GIVEN: One stored holiday and one from configuration
	// WHEN: Building the calendar snapshot
	// THEN: Both dates are holidays in the resulting set

	store := newTestStore(t)
	ctx := context.Background()

	stored := leave.NewDate(2025, time.January, 1)
	configured := leave.NewDate(2025, time.July, 14)
	require.NoError(t, store.SaveHoliday(ctx, sqlite.Holiday{Date: stored, Name: "New Year's Day"}))

	cal, err := store.LoadCalendar(ctx, configured)
	require.NoError(t, err)

	assert.True(t, cal.IsHoliday(stored))
	assert.True(t, cal.IsHoliday(configured))
	assert.Equal(t, 2, cal.Len())
}
