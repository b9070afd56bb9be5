/*
handlers.go - HTTP API handlers for the property-management core

PURPOSE:
  Exposes the rent ledger and the lease service via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS (all under /api/v1):
  Directory:
    GET    /housing-units                      List units
    POST   /housing-units                      Create unit
    GET    /housing-units/{unitId}             Get unit
    GET    /persons                            List persons
    POST   /persons                            Create person

  Rent:
    GET    /housing-units/{unitId}/rents         Rent history, newest first
    GET    /housing-units/{unitId}/rents/current Current rent (204 if none)
    POST   /housing-units/{unitId}/rents         Add interval
    PUT    /housing-units/{unitId}/rents/{rentId} Amend interval
    DELETE /housing-units/{unitId}/rents/{rentId} Remove interval

  Leases:
    GET    /housing-units/{unitId}/leases      Leases of a unit with alerts
    POST   /leases?activate=bool               Create (DRAFT or ACTIVE)
    GET    /leases/{id}                        Lease with alerts
    PUT    /leases/{id}                        Update terms
    PATCH  /leases/{id}/status                 Status transition
    POST   /leases/{id}/tenants                Add tenant
    DELETE /leases/{id}/tenants/{personId}     Remove tenant
    GET    /leases/{id}/rent-adjustments       Adjustment history
    POST   /leases/{id}/rent-adjustments       Record adjustment
    GET    /leases/alerts?date=                Due alerts of active leases
    GET    /leases/alerts/export?date=         Same, as an XLSX workbook

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Directory lookups and scenario resets
  - Rents, Leases: Domain services (own their transactions)
  - Log: Request-independent failures (500s)

ERROR HANDLING:
  Domain errors are mapped by kind (see generic/errors.go):
  - 400: Validation errors, malformed body or query
  - 404: Resource not found
  - 409: State conflict (overlap, terminal lease, duplicate start)
  - 500: Internal errors, logged

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jtbgroup/immocare-sub000/export"
	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/jtbgroup/immocare-sub000/logging"
	"github.com/jtbgroup/immocare-sub000/rent"
	"github.com/jtbgroup/immocare-sub000/store/sqlite"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Rents  *rent.Ledger
	Leases *lease.Service
	Log    *zap.Logger

	// Clock returns "today" for date-dependent responses.
	Clock func() generic.Date

	workbooks *export.AlertGenerator

	// scenarioMu serializes scenario loads and resets and guards
	// currentScenario.
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given store and services.
func NewHandler(store *sqlite.Store, rents *rent.Ledger, leases *lease.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Rents:     rents,
		Leases:    leases,
		Log:       log.Named("api"),
		Clock:     generic.Today,
		workbooks: export.NewAlertGenerator(),
	}
}

// Health reports liveness and database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListHousingUnits returns all housing units.
func (h *Handler) ListHousingUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Store.ListHousingUnits(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]HousingUnitDTO, len(units))
	for i, u := range units {
		dtos[i] = toHousingUnitDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetHousingUnit returns a single housing unit.
func (h *Handler) GetHousingUnit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "unitId")

	unit, err := h.Store.GetHousingUnit(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if unit == nil {
		writeError(w, http.StatusNotFound, "Housing unit not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toHousingUnitDTO(*unit))
}

// CreateHousingUnit creates a new housing unit.
func (h *Handler) CreateHousingUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateHousingUnitRequest
	if !decode(w, r, &req) {
		return
	}
	if err := generic.FromValidation(req.Validate()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	unit := sqlite.HousingUnit{ID: req.ID, BuildingName: req.BuildingName, UnitNumber: req.UnitNumber}
	if err := h.Store.SaveHousingUnit(r.Context(), unit); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	saved, err := h.Store.GetHousingUnit(r.Context(), unit.ID)
	if err != nil || saved == nil {
		h.writeDomainError(w, r, fmt.Errorf("reload housing unit %s: %w", unit.ID, err))
		return
	}
	writeJSON(w, http.StatusCreated, toHousingUnitDTO(*saved))
}

// ListPersons returns all persons.
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.Store.ListPersons(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]PersonDTO, len(persons))
	for i, p := range persons {
		dtos[i] = toPersonDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePerson creates a new person.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if !decode(w, r, &req) {
		return
	}
	if err := generic.FromValidation(req.Validate()); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	p := sqlite.Person{
		ID:        req.ID,
		LastName:  req.LastName,
		FirstName: req.FirstName,
		Email:     req.Email,
		GSM:       req.GSM,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SavePerson(r.Context(), p); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonDTO(p))
}

// =============================================================================
// RENT HANDLERS
// =============================================================================

// ListRents returns the rent history of a unit, newest first.
func (h *Handler) ListRents(w http.ResponseWriter, r *http.Request) {
	history, err := h.Rents.History(r.Context(), chi.URLParam(r, "unitId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentDTOs(history, h.Clock()))
}

// GetCurrentRent returns the open interval, or 204 when the unit has no rent.
func (h *Handler) GetCurrentRent(w http.ResponseWriter, r *http.Request) {
	current, err := h.Rents.Current(r.Context(), chi.URLParam(r, "unitId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if current == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toRentDTO(*current, h.Clock()))
}

// GetRentAt returns the interval in force on ?date= (default today), or 204
// when the unit had no rent on that day.
func (h *Handler) GetRentAt(w http.ResponseWriter, r *http.Request) {
	day, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	iv, err := h.Rents.At(r.Context(), chi.URLParam(r, "unitId"), day)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if iv == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toRentDTO(*iv, h.Clock()))
}

// AddRent appends or inserts a rent interval.
func (h *Handler) AddRent(w http.ResponseWriter, r *http.Request) {
	var in rent.Input
	if !decode(w, r, &in) {
		return
	}

	iv, err := h.Rents.Add(r.Context(), chi.URLParam(r, "unitId"), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRentDTO(*iv, h.Clock()))
}

// UpdateRent amends an interval's amount, start date or notes.
func (h *Handler) UpdateRent(w http.ResponseWriter, r *http.Request) {
	var in rent.Input
	if !decode(w, r, &in) {
		return
	}

	iv, err := h.Rents.Update(r.Context(), chi.URLParam(r, "unitId"), chi.URLParam(r, "rentId"), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentDTO(*iv, h.Clock()))
}

// DeleteRent removes an interval and re-links its neighbours.
func (h *Handler) DeleteRent(w http.ResponseWriter, r *http.Request) {
	if err := h.Rents.Delete(r.Context(), chi.URLParam(r, "unitId"), chi.URLParam(r, "rentId")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEASE HANDLERS
// =============================================================================

// ListUnitLeases returns the leases of a unit with their alert state.
func (h *Handler) ListUnitLeases(w http.ResponseWriter, r *http.Request) {
	views, err := h.Leases.ListByUnit(r.Context(), chi.URLParam(r, "unitId"), h.Clock())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]LeaseDTO, len(views))
	for i, v := range views {
		dtos[i] = toLeaseDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLease creates a lease, activating it when ?activate=true.
func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	activate := false
	if raw := r.URL.Query().Get("activate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid activate parameter", err)
			return
		}
		activate = v
	}

	var in lease.CreateInput
	if !decode(w, r, &in) {
		return
	}

	l, err := h.Leases.Create(r.Context(), in, activate)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeLease(w, r, http.StatusCreated, l.ID)
}

// GetLease returns a lease with its alert state and adjustment history.
func (h *Handler) GetLease(w http.ResponseWriter, r *http.Request) {
	h.writeLease(w, r, http.StatusOK, chi.URLParam(r, "id"))
}

// UpdateLease replaces the editable terms of a lease.
func (h *Handler) UpdateLease(w http.ResponseWriter, r *http.Request) {
	var terms lease.Terms
	if !decode(w, r, &terms) {
		return
	}

	l, err := h.Leases.Update(r.Context(), chi.URLParam(r, "id"), terms)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeLease(w, r, http.StatusOK, l.ID)
}

// ChangeLeaseStatus applies a status transition.
func (h *Handler) ChangeLeaseStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusChangeRequest
	if !decode(w, r, &req) {
		return
	}

	l, err := h.Leases.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeLease(w, r, http.StatusOK, l.ID)
}

// AddLeaseTenant links a person to a lease.
func (h *Handler) AddLeaseTenant(w http.ResponseWriter, r *http.Request) {
	var in lease.TenantInput
	if !decode(w, r, &in) {
		return
	}

	l, err := h.Leases.AddTenant(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeLease(w, r, http.StatusCreated, l.ID)
}

// RemoveLeaseTenant unlinks a person from a lease.
func (h *Handler) RemoveLeaseTenant(w http.ResponseWriter, r *http.Request) {
	l, err := h.Leases.RemoveTenant(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "personId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeLease(w, r, http.StatusOK, l.ID)
}

// ListAdjustments returns the adjustment history of a lease.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Leases.Adjustments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdjustmentDTOs(list))
}

// AdjustRent records a rent or charges adjustment.
func (h *Handler) AdjustRent(w http.ResponseWriter, r *http.Request) {
	var in lease.AdjustmentInput
	if !decode(w, r, &in) {
		return
	}

	adj, err := h.Leases.AdjustRent(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdjustmentDTO(*adj))
}

// ListAlerts returns the due alerts of all active leases.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, _, ok := h.alerts(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ToAlertDTOs(alerts))
}

// ExportAlerts returns the due alerts as an XLSX workbook.
func (h *Handler) ExportAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, today, ok := h.alerts(w, r)
	if !ok {
		return
	}

	data, err := h.workbooks.Generate(alerts, today)
	if err != nil {
		h.writeDomainError(w, r, fmt.Errorf("generate alerts workbook: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="alerts-%s.xlsx"`, today))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) ([]lease.Alert, generic.Date, bool) {
	today, err := h.dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return nil, generic.Date{}, false
	}

	alerts, err := h.Leases.Alerts(r.Context(), today)
	if err != nil {
		h.writeDomainError(w, r, err)
		return nil, generic.Date{}, false
	}
	return alerts, today, true
}

func (h *Handler) writeLease(w http.ResponseWriter, r *http.Request, status int, id string) {
	view, err := h.Leases.View(r.Context(), id, h.Clock())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status, toLeaseDTO(*view))
}

// =============================================================================
// HELPERS
// =============================================================================

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func (h *Handler) dateParam(r *http.Request) (generic.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.Clock(), nil
	}
	return generic.ParseDate(raw)
}

// writeDomainError maps an error kind to its HTTP status. Unclassified
// errors are logged and hidden behind a 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		logging.From(r.Context(), h.Log).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

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
