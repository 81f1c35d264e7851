/*
days.go - Chargeable day counting

PURPOSE:
  Computes how many working days a leave range consumes. Weekends and
  configured holidays are free; everything else counts against the
  employee's entitlement.

YEAR SPLITTING:
  A Balance is scoped to one calendar year. A request straddling New
  Year's Eve must debit two different Balance rows, so the counter can
  split a range at the year boundary and charge each side separately.

COMPLEXITY:
  Counting iterates calendar days, O(days in range). Leave ranges are
  bounded by realistic leave lengths, so this is never a hot path.

SEE ALSO:
  - calendar.go: WorkingDay predicate
  - lifecycle.go: Uses the split when approving cross-year requests
*/
package leave

import "fmt"

// CountChargeableDays counts the working days in [start, end] inclusive.
// Fails with ErrInvalidRange when start is after end.
func CountChargeableDays(cal Calendar, start, end Date) (int, error) {
	if start.After(end) {
		return 0, fmt.Errorf("start %s after end %s: %w", start, end, ErrInvalidRange)
	}

	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if WorkingDay(cal, d) {
			count++
		}
	}
	return count, nil
}

// YearSplit is the per-year breakdown of a range's chargeable days.
// For a same-year range, EndYear == StartYear and DaysInEndYear == 0.
type YearSplit struct {
	StartYear      int
	EndYear        int
	DaysInStartYear int
	DaysInEndYear   int
}

// CrossesYear reports whether the range spanned two calendar years.
func (ys YearSplit) CrossesYear() bool { return ys.EndYear != ys.StartYear }

// Total is the chargeable-day count of the whole range.
func (ys YearSplit) Total() int { return ys.DaysInStartYear + ys.DaysInEndYear }

// SplitAcrossYearBoundary computes chargeable days per calendar year.
// When the range crosses a year boundary, the start segment runs to
// Dec 31 and the end segment from Jan 1; each side is counted with
// CountChargeableDays so the two sides always sum to the full count.
func SplitAcrossYearBoundary(cal Calendar, start, end Date) (YearSplit, error) {
	if start.After(end) {
		return YearSplit{}, fmt.Errorf("start %s after end %s: %w", start, end, ErrInvalidRange)
	}

	if start.Year() == end.Year() {
		days, err := CountChargeableDays(cal, start, end)
		if err != nil {
			return YearSplit{}, err
		}
		return YearSplit{
			StartYear:       start.Year(),
			EndYear:         start.Year(),
			DaysInStartYear: days,
		}, nil
	}

	head, err := CountChargeableDays(cal, start, EndOfYear(start.Year()))
	if err != nil {
		return YearSplit{}, err
	}
	tail, err := CountChargeableDays(cal, StartOfYear(end.Year()), end)
	if err != nil {
		return YearSplit{}, err
	}

	return YearSplit{
		StartYear:       start.Year(),
		EndYear:         end.Year(),
		DaysInStartYear: head,
		DaysInEndYear:   tail,
	}, nil
}
