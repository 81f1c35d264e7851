/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	HireDate string `json:"hire_date"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	HireDate string `json:"hire_date"`
}

// BalanceDTO represents one employee's balance for one year.
type BalanceDTO struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Initial    string `json:"initial_days"`
	Used       string `json:"used_days"`
	Remaining  string `json:"remaining_days"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Type          string `json:"type,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	Comments      string `json:"comments,omitempty"`
	Justification string `json:"justification,omitempty"`
	DecidedAt     string `json:"decided_at,omitempty"`
	DecidedBy     string `json:"decided_by,omitempty"`
}

// CreateRequestDTO is the body for submitting a leave request.
type CreateRequestDTO struct {
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Type          string `json:"type,omitempty"`
	Justification string `json:"justification,omitempty"`
}

// DecideRequestDTO is the body for deciding a pending request.
type DecideRequestDTO struct {
	Status    string `json:"status"`
	DecidedBy string `json:"decided_by,omitempty"`
}

// DecisionDTO is the response after a request is decided.
type DecisionDTO struct {
	Request RequestDTO `json:"request"`
	Balance BalanceDTO `json:"balance"`
}

// DetailsDTO combines an employee with their balance and requests.
type DetailsDTO struct {
	Employee EmployeeDTO  `json:"employee"`
	Balance  BalanceDTO   `json:"balance"`
	Requests []RequestDTO `json:"requests"`
}

// NewYearBalanceRequest provisions a balance for a new accounting year.
type NewYearBalanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Initial    *int   `json:"initial_days,omitempty"` // nil = configured entitlement
}

// HolidayDTO represents a stored holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:       string(e.ID),
		Name:     e.Name,
		Email:    e.Email,
		HireDate: e.HireDate.Format("2006-01-02"),
	}
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	return BalanceDTO{
		EmployeeID: string(b.EmployeeID),
		Year:       b.Year,
		Initial:    b.Initial.String(),
		Used:       b.Used.String(),
		Remaining:  b.Remaining.String(),
	}
}

func toRequestDTO(r leave.Request) RequestDTO {
	dto := RequestDTO{
		ID:            string(r.ID),
		EmployeeID:    string(r.EmployeeID),
		StartDate:     r.StartDate.String(),
		EndDate:       r.EndDate.String(),
		Type:          r.Type,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		Comments:      r.Comments,
		Justification: r.Justification,
		DecidedBy:     r.DecidedBy,
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = r.DecidedAt.Format(time.RFC3339)
	}
	return dto
}

func toRequestDTOs(requests []leave.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(requests))
	for i, r := range requests {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}
