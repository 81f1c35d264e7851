package leave_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

func newTestLedger() *leave.BalanceLedger {
	return leave.NewBalanceLedger(store.NewMemory(), 23)
}

// =============================================================================
// LAZY CREATION
// =============================================================================

func TestLedger_EnsureBalance_CreatesDefault(t *testing.T) {
	// GIVEN: No balance exists for the employee and year
	// WHEN: EnsureBalance is called
	// THEN: A default balance is created with the configured entitlement

	ledger := newTestLedger()
	ctx := context.Background()

	bal, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)

	assert.Equal(t, leave.Days(23), bal.Initial)
	assert.Equal(t, leave.Days(0), bal.Used)
	assert.Equal(t, leave.Days(23), bal.Remaining)

	// And it is persisted, not just returned.
	again, err := ledger.GetBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, bal.Remaining, again.Remaining)
}

func TestLedger_EnsureBalance_ReturnsExisting(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	bal, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	_, err = ledger.ApplyDelta(ctx, bal, leave.Days(5))
	require.NoError(t, err)

	again, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, leave.Days(5), again.Used)
}

func TestLedger_GetBalance_NotFound(t *testing.T) {
	ledger := newTestLedger()

	_, err := ledger.GetBalance(context.Background(), "ghost", 2025)

	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

// =============================================================================
// MUTATIONS AND THE REMAINING INVARIANT
// =============================================================================

func TestLedger_ApplyDelta_KeepsInvariant(t *testing.T) {
	// GIVEN: A fresh 23-day balance
	// WHEN: Consuming 5 days, then 3 more
	// THEN: Remaining == Initial - Used after every mutation

	ledger := newTestLedger()
	ctx := context.Background()

	bal, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)

	bal, err = ledger.ApplyDelta(ctx, bal, leave.Days(5))
	require.NoError(t, err)
	assert.Equal(t, leave.Days(5), bal.Used)
	assert.Equal(t, leave.Days(18), bal.Remaining)

	bal, err = ledger.ApplyDelta(ctx, bal, leave.Days(3))
	require.NoError(t, err)
	assert.Equal(t, leave.Days(8), bal.Used)
	assert.Equal(t, leave.Days(15), bal.Remaining)
}

func TestLedger_ApplyDelta_ClampsUsedAtZero(t *testing.T) {
	// GIVEN: A balance with 2 days used
	// WHEN: Reversing 5 days
	// THEN: Used clamps to zero instead of going negative

	ledger := newTestLedger()
	ctx := context.Background()

	bal, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	bal, err = ledger.ApplyDelta(ctx, bal, leave.Days(2))
	require.NoError(t, err)

	bal, err = ledger.ApplyDelta(ctx, bal, leave.Days(-5))
	require.NoError(t, err)

	assert.Equal(t, leave.Days(0), bal.Used)
	assert.Equal(t, leave.Days(23), bal.Remaining)
}

func TestLedger_ApplyDelta_AllowsOverdraft(t *testing.T) {
	// Remaining may go negative: the engine does not guard overdraft.
	ledger := newTestLedger()
	ctx := context.Background()

	bal, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)

	bal, err = ledger.ApplyDelta(ctx, bal, leave.Days(30))
	require.NoError(t, err)

	assert.Equal(t, leave.Days(30), bal.Used)
	assert.True(t, bal.Remaining.IsNegative())
}

func TestLedger_ResetToInitial(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	bal, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	bal, err = ledger.ApplyDelta(ctx, bal, leave.Days(10))
	require.NoError(t, err)

	bal, err = ledger.ResetToInitial(ctx, bal)
	require.NoError(t, err)

	assert.Equal(t, leave.Days(0), bal.Used)
	assert.Equal(t, bal.Initial, bal.Remaining)
}

// =============================================================================
// NEW-YEAR PROVISIONING
// =============================================================================

func TestLedger_AddBalanceForNewYear(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	bal := &leave.Balance{EmployeeID: "emp-1", Year: 2026}
	err := ledger.AddBalanceForNewYear(ctx, bal)
	require.NoError(t, err)

	// Zero initial defaults to the configured entitlement.
	assert.Equal(t, leave.Days(23), bal.Initial)
	assert.Equal(t, leave.Days(23), bal.Remaining)
}

func TestLedger_AddBalanceForNewYear_Duplicate(t *testing.T) {
	// GIVEN: A balance already exists for the year
	// WHEN: Provisioning the same year again
	// THEN: ErrBalanceExists, and the stored balance is untouched

	ledger := newTestLedger()
	ctx := context.Background()

	bal, err := ledger.EnsureBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	_, err = ledger.ApplyDelta(ctx, bal, leave.Days(4))
	require.NoError(t, err)

	err = ledger.AddBalanceForNewYear(ctx, &leave.Balance{EmployeeID: "emp-1", Year: 2026})
	assert.ErrorIs(t, err, leave.ErrBalanceExists)

	kept, err := ledger.GetBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, leave.Days(4), kept.Used)
}

func TestLedger_DeleteBalance_RemovesAllYears(t *testing.T) {
	ledger := newTestLedger()
	ctx := context.Background()

	_, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)
	_, err = ledger.EnsureBalance(ctx, "emp-1", 2026)
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteBalance(ctx, "emp-1"))

	_, err = ledger.GetBalance(ctx, "emp-1", 2025)
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
	_, err = ledger.GetBalance(ctx, "emp-1", 2026)
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

// =============================================================================
// OPTIMISTIC CONCURRENCY
// =============================================================================

func TestLedger_StaleVersionConflicts(t *testing.T) {
	// GIVEN: Two readers holding the same balance snapshot
	// WHEN: Both write
	// THEN: The second write fails with ErrConflict

	mem := store.NewMemory()
	ledger := leave.NewBalanceLedger(mem, 23)
	ctx := context.Background()

	first, err := ledger.EnsureBalance(ctx, "emp-1", 2025)
	require.NoError(t, err)

	stale := *first

	_, err = ledger.ApplyDelta(ctx, first, leave.Days(1))
	require.NoError(t, err)

	_, err = ledger.ApplyDelta(ctx, &stale, leave.Days(1))
	assert.ErrorIs(t, err, leave.ErrConflict)
	assert.True(t, leave.IsRetryable(err))
}
