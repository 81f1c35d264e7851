/*
report.go - Per-employee leave detail summaries

PURPOSE:
  Builds the read-side view combining an employee's requests with their
  current-year balance: what was taken, what is pending, what remains.

CONCURRENCY:
  The batch report fans out per employee with plain sequential reads.
  No process-wide mutex is held; each employee's summary is an
  independent snapshot.
*/
package leave

import (
	"context"
	"fmt"
)

// Details is the per-employee leave summary.
type Details struct {
	Employee Employee
	Balance  Balance
	Requests []Request
}

// DetailsFor returns one employee's requests and current-year balance.
func (s *Service) DetailsFor(ctx context.Context, id EmployeeID) (*Details, error) {
	employees, err := s.Directory.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	var emp *Employee
	for i := range employees {
		if employees[i].ID == id {
			emp = &employees[i]
			break
		}
	}
	if emp == nil {
		return nil, fmt.Errorf("employee %s: %w", id, ErrEmployeeNotFound)
	}

	return s.detailsFor(ctx, *emp)
}

// AllDetails returns the leave summary for every known employee.
func (s *Service) AllDetails(ctx context.Context) ([]Details, error) {
	employees, err := s.Directory.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	details := make([]Details, 0, len(employees))
	for _, emp := range employees {
		d, err := s.detailsFor(ctx, emp)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

func (s *Service) detailsFor(ctx context.Context, emp Employee) (*Details, error) {
	requests, err := s.Store.ListRequests(ctx, emp.ID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	bal, err := s.Ledger.EnsureBalance(ctx, emp.ID, s.Now().Year())
	if err != nil {
		return nil, err
	}

	return &Details{Employee: emp, Balance: *bal, Requests: requests}, nil
}
