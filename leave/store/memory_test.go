package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A committed balance
	// WHEN: A transaction mutates it and then fails
	// THEN: The pre-transaction state is restored

	mem := store.NewMemory()
	ctx := context.Background()

	bal := &leave.Balance{EmployeeID: "emp-1", Year: 2025, Initial: leave.Days(23), Remaining: leave.Days(23)}
	require.NoError(t, mem.SaveBalance(ctx, bal))

	boom := errors.New("boom")
	err := mem.WithTx(ctx, func(tx leave.Store) error {
		inner, err := tx.FindBalance(ctx, "emp-1", 2025)
		require.NoError(t, err)
		inner.Used = leave.Days(10)
		inner.Recompute()
		if err := tx.SaveBalance(ctx, inner); err != nil {
			return err
		}
		if err := tx.SaveRequest(ctx, &leave.Request{ID: "r1", EmployeeID: "emp-1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	kept, err := mem.FindBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.True(t, kept.Used.IsZero(), "rollback must restore the untouched balance")

	gone, err := mem.FindRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemory_WithTx_CommitsOnSuccess(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	err := mem.WithTx(ctx, func(tx leave.Store) error {
		return tx.SaveRequest(ctx, &leave.Request{ID: "r1", EmployeeID: "emp-1"})
	})
	require.NoError(t, err)

	kept, err := mem.FindRequest(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, kept)
}

// =============================================================================
// OPTIMISTIC CONCURRENCY
// =============================================================================

func TestMemory_SaveBalance_VersionConflict(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	bal := &leave.Balance{EmployeeID: "emp-1", Year: 2025}
	require.NoError(t, mem.SaveBalance(ctx, bal))
	assert.Equal(t, int64(1), bal.Version)

	stale := *bal
	stale.Version = 0

	err := mem.SaveBalance(ctx, &stale)
	assert.ErrorIs(t, err, leave.ErrConflict)

	// The in-version copy still writes fine.
	require.NoError(t, mem.SaveBalance(ctx, bal))
	assert.Equal(t, int64(2), bal.Version)
}

// =============================================================================
// REQUEST LISTING
// =============================================================================

func TestMemory_ListRequests_FiltersAndOrders(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	base := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	requests := []leave.Request{
		{ID: "r1", EmployeeID: "emp-1", Status: leave.StatusPending, CreatedAt: base},
		{ID: "r2", EmployeeID: "emp-1", Status: leave.StatusApproved, CreatedAt: base.Add(time.Hour)},
		{ID: "r3", EmployeeID: "emp-1", Status: leave.StatusRejected, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "r4", EmployeeID: "emp-2", Status: leave.StatusPending, CreatedAt: base},
	}
	for i := range requests {
		require.NoError(t, mem.SaveRequest(ctx, &requests[i]))
	}

	all, err := mem.ListRequests(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, leave.RequestID("r3"), all[0].ID, "newest first")

	open, err := mem.ListRequests(ctx, "emp-1", leave.StatusPending, leave.StatusApproved)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestMemoryDirectory(t *testing.T) {
	dir := store.NewMemoryDirectory(
		leave.Employee{ID: "b", Name: "Bea"},
		leave.Employee{ID: "a", Name: "Al"},
	)
	ctx := context.Background()

	ok, err := dir.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	employees, err := dir.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, leave.EmployeeID("a"), employees[0].ID, "sorted by id")
}
