package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// CHARGEABLE DAY COUNTING
// =============================================================================

func TestCountChargeableDays_SkipsWeekendsAndHolidays(t *testing.T) {
	// GIVEN: Jan 1 2024 (a Monday) is a holiday
	// WHEN: Counting Mon Jan 1 .. Sun Jan 7
	// THEN: Tue-Fri count, the holiday Monday and the weekend do not

	cal := leave.NewHolidaySet(leave.NewDate(2024, time.January, 1))

	days, err := leave.CountChargeableDays(cal,
		leave.NewDate(2024, time.January, 1),
		leave.NewDate(2024, time.January, 7))

	require.NoError(t, err)
	assert.Equal(t, 4, days)
}

func TestCountChargeableDays_SingleNonWorkingDay(t *testing.T) {
	// GIVEN: A single-day range on a Saturday
	// WHEN: Counting chargeable days
	// THEN: The count is zero, not an error

	saturday := leave.NewDate(2024, time.January, 6)

	days, err := leave.CountChargeableDays(leave.NoHolidays{}, saturday, saturday)

	require.NoError(t, err)
	assert.Equal(t, 0, days)
}

func TestCountChargeableDays_InvalidRange(t *testing.T) {
	// GIVEN: A range with start after end
	// WHEN: Counting chargeable days
	// THEN: ErrInvalidRange

	_, err := leave.CountChargeableDays(leave.NoHolidays{},
		leave.NewDate(2024, time.March, 10),
		leave.NewDate(2024, time.March, 9))

	assert.ErrorIs(t, err, leave.ErrInvalidRange)
}

func TestCountChargeableDays_NeverExceedsSpan(t *testing.T) {
	// GIVEN: A two-week range
	// WHEN: Counting chargeable days
	// THEN: The count is bounded by the inclusive calendar span

	start := leave.NewDate(2024, time.June, 3)
	end := leave.NewDate(2024, time.June, 16)

	days, err := leave.CountChargeableDays(leave.NoHolidays{}, start, end)

	require.NoError(t, err)
	assert.LessOrEqual(t, days, leave.SpanDays(start, end))
	assert.Equal(t, 10, days) // two full working weeks
}

// =============================================================================
// YEAR SPLITTING
// =============================================================================

func TestSplitAcrossYearBoundary_SameYear(t *testing.T) {
	// GIVEN: A range entirely within 2024
	// WHEN: Splitting at the year boundary
	// THEN: Everything lands in the start year, nothing crosses

	split, err := leave.SplitAcrossYearBoundary(leave.NoHolidays{},
		leave.NewDate(2024, time.June, 3),
		leave.NewDate(2024, time.June, 7))

	require.NoError(t, err)
	assert.False(t, split.CrossesYear())
	assert.Equal(t, 2024, split.StartYear)
	assert.Equal(t, 5, split.DaysInStartYear)
	assert.Equal(t, 0, split.DaysInEndYear)
	assert.Equal(t, 5, split.Total())
}

func TestSplitAcrossYearBoundary_CrossYear(t *testing.T) {
	// GIVEN: Sun Dec 29 2024 .. Fri Jan 3 2025
	// WHEN: Splitting at the year boundary
	// THEN: Mon+Tue charge 2024, Wed+Thu+Fri charge 2025

	split, err := leave.SplitAcrossYearBoundary(leave.NoHolidays{},
		leave.NewDate(2024, time.December, 29),
		leave.NewDate(2025, time.January, 3))

	require.NoError(t, err)
	assert.True(t, split.CrossesYear())
	assert.Equal(t, 2024, split.StartYear)
	assert.Equal(t, 2025, split.EndYear)
	assert.Equal(t, 2, split.DaysInStartYear)
	assert.Equal(t, 3, split.DaysInEndYear)
}

func TestSplitAcrossYearBoundary_SidesSumToWholeCount(t *testing.T) {
	// GIVEN: A cross-year range with a holiday on Jan 1
	// WHEN: Counting the whole range and the two split sides
	// THEN: The sides sum to the whole-range count

	cal := leave.NewHolidaySet(leave.NewDate(2025, time.January, 1))
	start := leave.NewDate(2024, time.December, 23)
	end := leave.NewDate(2025, time.January, 10)

	whole, err := leave.CountChargeableDays(cal, start, end)
	require.NoError(t, err)

	split, err := leave.SplitAcrossYearBoundary(cal, start, end)
	require.NoError(t, err)

	assert.Equal(t, whole, split.Total())
}

func TestSplitAcrossYearBoundary_InvalidRange(t *testing.T) {
	_, err := leave.SplitAcrossYearBoundary(leave.NoHolidays{},
		leave.NewDate(2025, time.January, 3),
		leave.NewDate(2024, time.December, 29))

	assert.ErrorIs(t, err, leave.ErrInvalidRange)
}
