package leave

// =============================================================================
// OVERLAP CHECKING - One employee cannot hold two requests for the same day
// =============================================================================

// Overlaps is the inclusive interval-overlap test: [s1,e1] and [s2,e2]
// overlap when s1 <= e2 && s2 <= e1. Symmetric in its two ranges.
func Overlaps(s1, e1, s2, e2 Date) bool {
	return s1.BeforeOrEqual(e2) && s2.BeforeOrEqual(e1)
}

// FindConflict returns the first existing request whose range overlaps
// the candidate [start, end], or nil when the candidate is clear.
//
// Only pending and approved requests block: a rejected request frees
// its days. Requests belonging to other employees never block; callers
// pass only the candidate employee's own requests.
//
// Used at creation time only. A request already accepted into the
// system is assumed non-overlapping with itself.
func FindConflict(existing []Request, start, end Date) *Request {
	for i := range existing {
		r := &existing[i]
		if r.Status == StatusRejected {
			continue
		}
		if r.Overlaps(start, end) {
			return r
		}
	}
	return nil
}
