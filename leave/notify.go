package leave

import (
	"context"
	"log"
)

// =============================================================================
// NOTIFICATION - Side effect after a decision, not part of the invariants
// =============================================================================

// Notifier is told about decided requests so employees can be informed.
// Delivery is best effort: a notification failure never rolls back a
// decision that already committed.
type Notifier interface {
	RequestDecided(ctx context.Context, req Request, bal Balance)
}

// LogNotifier writes decisions to the process log. Stands in for real
// delivery (email) in development and tests.
type LogNotifier struct{}

func (LogNotifier) RequestDecided(_ context.Context, req Request, bal Balance) {
	log.Printf("[notify] request %s for %s %s (%s..%s); remaining %s days in %d",
		req.ID, req.EmployeeID, req.Status, req.StartDate, req.EndDate,
		bal.Remaining, bal.Year)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) RequestDecided(context.Context, Request, Balance) {}
