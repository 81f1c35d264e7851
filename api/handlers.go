/*
handlers.go - HTTP API handlers for the leave balance engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                 List all employees
    POST   /api/employees                 Create employee
    GET    /api/employees/{id}            Get employee details
    DELETE /api/employees/{id}            Delete employee and balances
    GET    /api/employees/{id}/balance    Get balance (?year=YYYY)
    GET    /api/employees/{id}/requests   List requests (?status=)
    POST   /api/employees/{id}/requests   Submit leave request
    GET    /api/employees/{id}/details    Balance plus request history

  Requests:
    GET    /api/requests                  List all requests (?status=)
    GET    /api/requests/pending          Approval queue
    GET    /api/requests/{id}             Get one request
    POST   /api/requests/{id}/decide      Approve or reject
    POST   /api/requests/{id}/approve     Shorthand for decide
    POST   /api/requests/{id}/reject      Shorthand for decide

  Reporting:
    GET    /api/details                   All employees with balances

  Admin:
    DELETE /api/admin/balances/{id}       Drop all balances for employee
    POST   /api/admin/balances            Provision new-year balance

  Holidays:
    GET    /api/holidays                  List configured holidays
    POST   /api/holidays                  Add holiday (effective next start)
    POST   /api/holidays/defaults         Seed common holidays
    DELETE /api/holidays/{date}           Remove holiday

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (overlap, double decision, version conflict)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/lifecycle.go: The domain logic behind these handlers
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Service *leave.Service
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, service *leave.Service) *Handler {
	return &Handler{Store: store, Service: service}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	hireDate, err := time.Parse("2006-01-02", req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}

	emp := leave.Employee{
		ID:       leave.EmployeeID(req.ID),
		Name:     req.Name,
		Email:    req.Email,
		HireDate: hireDate,
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee and all their balances. Requests
// are kept for the audit trail.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	if err := h.Service.Ledger.DeleteBalance(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete balances", err)
		return
	}
	if err := h.Store.DeleteEmployee(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns an employee's balance for a year. Defaults to the
// current year; a missing balance is created lazily with the full
// entitlement.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	year := leave.Today().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	bal, err := h.Service.Balance(r.Context(), id, year)
	if err != nil {
		writeDomainError(w, "Failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(*bal))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest submits a leave request for an employee.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	var req CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := leave.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := leave.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	created, err := h.Service.Create(r.Context(), id, start, end, req.Type, req.Justification)
	if err != nil {
		writeDomainError(w, "Failed to create request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(*created))
}

// ListRequests returns an employee's requests, optionally filtered by
// status (?status=pending).
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	var statuses []leave.Status
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := leave.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status filter", err)
			return
		}
		statuses = append(statuses, status)
	}

	requests, err := h.Service.Requests(r.Context(), id, statuses...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// GetRequest returns one request by id.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	req, err := h.Service.Request(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// ListAllRequests returns every request in the system, optionally
// filtered by status (?status=approved).
func (h *Handler) ListAllRequests(w http.ResponseWriter, r *http.Request) {
	var statuses []leave.Status
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := leave.ParseStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status filter", err)
			return
		}
		statuses = append(statuses, status)
	}

	requests, err := h.Store.ListAllRequests(r.Context(), statuses...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// ListPendingRequests returns the approval queue across all employees.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requests, err := h.Store.ListPendingRequests(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pending requests", err)
		return
	}

	// Enrich with employee names for the approval UI.
	type pendingDTO struct {
		RequestDTO
		EmployeeName string `json:"employee_name,omitempty"`
	}

	dtos := make([]pendingDTO, 0, len(requests))
	for _, req := range requests {
		dto := pendingDTO{RequestDTO: toRequestDTO(req)}
		if emp, _ := h.Store.GetEmployee(ctx, req.EmployeeID); emp != nil {
			dto.EmployeeName = emp.Name
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": dtos})
}

// =============================================================================
// DECISION HANDLERS
// =============================================================================

// DecideRequest approves or rejects a pending request.
func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	var body DecideRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status, err := leave.ParseStatus(body.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid status", err)
		return
	}
	h.decide(w, r, status, body.DecidedBy)
}

// ApproveRequest approves a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var body DecideRequestDTO
	json.NewDecoder(r.Body).Decode(&body)
	h.decide(w, r, leave.StatusApproved, body.DecidedBy)
}

// RejectRequest rejects a pending request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var body DecideRequestDTO
	json.NewDecoder(r.Body).Decode(&body)
	h.decide(w, r, leave.StatusRejected, body.DecidedBy)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, status leave.Status, decidedBy string) {
	ctx := r.Context()
	id := leave.RequestID(chi.URLParam(r, "id"))

	if decidedBy == "" {
		decidedBy = "admin"
	}

	bal, err := h.Service.Decide(ctx, id, status, decidedBy)
	if err != nil {
		writeDomainError(w, "Failed to decide request", err)
		return
	}

	req, err := h.Service.Request(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to load decided request", err)
		return
	}

	writeJSON(w, http.StatusOK, DecisionDTO{
		Request: toRequestDTO(*req),
		Balance: toBalanceDTO(*bal),
	})
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// GetDetails returns one employee's balance and request history.
func (h *Handler) GetDetails(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	details, err := h.Service.DetailsFor(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get details", err)
		return
	}
	writeJSON(w, http.StatusOK, toDetailsDTO(*details))
}

// ListDetails returns the balance and request history for every employee.
func (h *Handler) ListDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.Service.AllDetails(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list details", err)
		return
	}

	dtos := make([]DetailsDTO, len(details))
	for i, d := range details {
		dtos[i] = toDetailsDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func toDetailsDTO(d leave.Details) DetailsDTO {
	return DetailsDTO{
		Employee: toEmployeeDTO(d.Employee),
		Balance:  toBalanceDTO(d.Balance),
		Requests: toRequestDTOs(d.Requests),
	}
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// DeleteBalances drops every balance row for an employee.
func (h *Handler) DeleteBalances(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	if err := h.Service.Ledger.DeleteBalance(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete balances", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddYearBalance provisions a balance for a new accounting year.
// Conflicts (the year already has a balance) return 409, which makes
// the endpoint safe to call from schedulers and scripts.
func (h *Handler) AddYearBalance(w http.ResponseWriter, r *http.Request) {
	var req NewYearBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EmployeeID == "" || req.Year == 0 {
		writeError(w, http.StatusBadRequest, "employee_id and year are required", nil)
		return
	}

	bal := &leave.Balance{
		EmployeeID: leave.EmployeeID(req.EmployeeID),
		Year:       req.Year,
	}
	if req.Initial != nil {
		bal.Initial = leave.Days(*req.Initial)
	}

	if err := h.Service.Ledger.AddBalanceForNewYear(r.Context(), bal); err != nil {
		writeDomainError(w, "Failed to add balance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBalanceDTO(*bal))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================
//
// Holiday edits persist immediately but the engine's calendar is an
// immutable snapshot taken at startup; changes apply on restart.

// ListHolidays returns all stored holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, HolidayDTO{Date: hol.Date.String(), Name: hol.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday stores a new holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}

	date, err := leave.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.SaveHoliday(r.Context(), sqlite.Holiday{Date: date, Name: req.Name}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
		"note":   "effective after restart",
	})
}

// DeleteHoliday removes a holiday by date.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := leave.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.DeleteHoliday(r.Context(), date); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddDefaultHolidays seeds common fixed-date holidays for a year.
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Year int `json:"year"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.Year == 0 {
		req.Year = leave.Today().Year()
	}

	defaults := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 1, "New Year's Day"},
		{time.May, 1, "Labour Day"},
		{time.December, 25, "Christmas Day"},
		{time.December, 26, "Boxing Day"},
	}

	for _, d := range defaults {
		holiday := sqlite.Holiday{
			Date: leave.NewDate(req.Year, d.month, d.day),
			Name: d.name,
		}
		if err := h.Store.SaveHoliday(ctx, holiday); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed holidays", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"count":  len(defaults),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the engine's error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var overlap *leave.OverlapError
	if errors.As(err, &overlap) {
		resp := ErrorResponse{
			Error: "Requested range overlaps an existing request",
			Code:  "overlap",
			Details: map[string]string{
				"conflict_id":    string(overlap.ConflictID),
				"conflict_start": overlap.ConflictStart.String(),
				"conflict_end":   overlap.ConflictEnd.String(),
			},
		}
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, leave.ErrInvalidTransition),
		errors.Is(err, leave.ErrBalanceExists),
		errors.Is(err, leave.ErrConflict):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, leave.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
