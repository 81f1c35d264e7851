package leave

// =============================================================================
// CALENDAR - Which days are working days
// =============================================================================

// Calendar answers whether a date is a configured holiday. It is
// process-wide configuration built once at startup, never mutated
// during a run.
type Calendar interface {
	IsHoliday(d Date) bool
}

// HolidaySet is an immutable Calendar backed by a set of dates.
type HolidaySet struct {
	days map[Date]struct{}
}

// NewHolidaySet builds a HolidaySet from explicit dates.
func NewHolidaySet(dates ...Date) *HolidaySet {
	days := make(map[Date]struct{}, len(dates))
	for _, d := range dates {
		days[d] = struct{}{}
	}
	return &HolidaySet{days: days}
}

func (h *HolidaySet) IsHoliday(d Date) bool {
	_, ok := h.days[d]
	return ok
}

// Len returns the number of configured holidays.
func (h *HolidaySet) Len() int { return len(h.days) }

// NoHolidays is a Calendar with no holidays configured.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(Date) bool { return false }

// WorkingDay reports whether a date is chargeable: not a weekend and
// not a configured holiday. Pure and total over any date.
func WorkingDay(cal Calendar, d Date) bool {
	if d.IsWeekend() {
		return false
	}
	if cal != nil && cal.IsHoliday(d) {
		return false
	}
	return true
}
