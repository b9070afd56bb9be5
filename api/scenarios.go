/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Every scenario goes through the same services the API
	uses (rent ledger, lease service), so the data always satisfies the
	domain rules. Dates are relative to the handler's clock.

AVAILABLE SCENARIOS:

	empty-building:   Units and persons, no rents or leases
	residence:        Rent histories, one lease due for indexation,
	                  one lease in its notice window, one draft
	indexation-done:  Same as residence, with this year's indexation
	                  already recorded

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create housing units and persons
 3. Add rent intervals, oldest first
 4. Create leases through the lease service
 5. Optionally record adjustments

USAGE VIA API:

	POST /api/v1/scenarios/load
	{"scenario_id": "residence"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Shared handler context
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/jtbgroup/immocare-sub000/rent"
	"github.com/jtbgroup/immocare-sub000/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty-building",
		Name:        "Empty Building",
		Description: "Two buildings with units and persons, no rents or leases",
	},
	{
		ID:          "residence",
		Name:        "Residence",
		Description: "Rent histories, an indexation due soon, a lease in its notice window and a draft",
	},
	{
		ID:          "indexation-done",
		Name:        "Indexation Done",
		Description: "Residence with this year's rent indexation already recorded",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "empty-building":
		load = h.loadDirectory
	case "residence":
		load = h.loadResidenceScenario
	case "indexation-done":
		load = h.loadIndexationDoneScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

const (
	unitAstridA1 = "unit-astrid-a1"
	unitAstridA2 = "unit-astrid-a2"
	unitTilleul1 = "unit-tilleuls-1"
)

var demoUnits = []sqlite.HousingUnit{
	{ID: unitAstridA1, BuildingName: "Résidence Astrid", UnitNumber: "A1"},
	{ID: unitAstridA2, BuildingName: "Résidence Astrid", UnitNumber: "A2"},
	{ID: unitTilleul1, BuildingName: "Les Tilleuls", UnitNumber: "1"},
}

var demoPersons = []sqlite.Person{
	{ID: "person-dupont", LastName: "Dupont", FirstName: "Marie", Email: "marie.dupont@example.be"},
	{ID: "person-peeters", LastName: "Peeters", FirstName: "Jan", Email: "jan.peeters@example.be"},
	{ID: "person-janssens", LastName: "Janssens", FirstName: "Els", GSM: "+32 470 12 34 56"},
	{ID: "person-maes", LastName: "Maes", FirstName: "Luc"},
	{ID: "person-claes", LastName: "Claes", FirstName: "Sofie", Email: "sofie.claes@example.be"},
}

func (h *Handler) loadDirectory(ctx context.Context) error {
	now := time.Now().UTC()
	for _, u := range demoUnits {
		u.CreatedAt = now
		if err := h.Store.SaveHousingUnit(ctx, u); err != nil {
			return fmt.Errorf("save housing unit %s: %w", u.ID, err)
		}
	}
	for _, p := range demoPersons {
		p.CreatedAt = now
		if err := h.Store.SavePerson(ctx, p); err != nil {
			return fmt.Errorf("save person %s: %w", p.ID, err)
		}
	}
	return nil
}

// loadResidenceScenario builds, relative to today:
//   - A1: rents since three years ago, an ACTIVE 9-year lease whose
//     anniversary is 10 days away (indexation due)
//   - A2: an ACTIVE 12-month short-term lease ending in a month (end notice due)
//   - Les Tilleuls 1: a DRAFT lease starting next month
func (h *Handler) loadResidenceScenario(ctx context.Context) error {
	_, err := h.loadResidence(ctx)
	return err
}

func (h *Handler) loadIndexationDoneScenario(ctx context.Context) error {
	a1, err := h.loadResidence(ctx)
	if err != nil {
		return err
	}

	today := h.Clock()
	anniversary := a1.StartDate.InYear(today.Year())
	_, err = h.Leases.AdjustRent(ctx, a1.ID, lease.AdjustmentInput{
		Field:         lease.FieldRent,
		NewValue:      generic.MustMoney("842.50"),
		Reason:        "Indexation " + fmt.Sprint(today.Year()),
		EffectiveDate: anniversary,
	})
	return err
}

func (h *Handler) loadResidence(ctx context.Context) (*lease.Lease, error) {
	if err := h.loadDirectory(ctx); err != nil {
		return nil, err
	}

	today := h.Clock()
	year := today.Year()

	rents := []struct {
		unit   string
		amount string
		from   generic.Date
		notes  string
	}{
		{unitAstridA1, "750.00", generic.NewDate(year-3, time.January, 1), "Initial rent"},
		{unitAstridA1, "780.00", generic.NewDate(year-2, time.January, 1), "Renovated kitchen"},
		{unitAstridA1, "810.00", generic.NewDate(year-1, time.January, 1), ""},
		{unitAstridA2, "640.00", generic.NewDate(year-1, time.July, 1), ""},
		{unitTilleul1, "925.00", today.AddMonths(1), "New tenant"},
	}
	for _, r := range rents {
		if _, err := h.Rents.Add(ctx, r.unit, rent.Input{
			MonthlyRent:   generic.MustMoney(r.amount),
			EffectiveFrom: r.from,
			Notes:         r.notes,
		}); err != nil {
			return nil, fmt.Errorf("add rent for %s: %w", r.unit, err)
		}
	}

	a1Start := today.AddYears(-2).AddDays(10)
	a1, err := h.Leases.Create(ctx, lease.CreateInput{
		HousingUnitID: unitAstridA1,
		Terms: lease.Terms{
			SignatureDate:      a1Start.AddDays(-20),
			StartDate:          a1Start,
			Type:               lease.TypeMainResidence9Y,
			MonthlyRent:        generic.MustMoney("810.00"),
			MonthlyCharges:     generic.MustMoney("90.00"),
			ChargesType:        lease.ChargesProvision,
			ChargesDescription: "Heating and common areas",
			DepositAmount:      generic.MustMoney("1620.00").Ptr(),
			DepositType:        lease.DepositBlockedAccount,
		},
		Tenants: []lease.TenantInput{
			{PersonID: "person-dupont", Role: lease.RolePrimary},
			{PersonID: "person-peeters", Role: lease.RoleCoTenant},
		},
	}, true)
	if err != nil {
		return nil, fmt.Errorf("create A1 lease: %w", err)
	}

	a2Start := today.AddMonths(-11)
	if _, err := h.Leases.Create(ctx, lease.CreateInput{
		HousingUnitID: unitAstridA2,
		Terms: lease.Terms{
			SignatureDate:  a2Start.AddDays(-7),
			StartDate:      a2Start,
			Type:           lease.TypeShortTerm,
			DurationMonths: 12,
			MonthlyRent:    generic.MustMoney("640.00"),
			MonthlyCharges: generic.MustMoney("45.00"),
		},
		Tenants: []lease.TenantInput{
			{PersonID: "person-janssens", Role: lease.RolePrimary},
			{PersonID: "person-maes", Role: lease.RoleGuarantor},
		},
	}, true); err != nil {
		return nil, fmt.Errorf("create A2 lease: %w", err)
	}

	if _, err := h.Leases.Create(ctx, lease.CreateInput{
		HousingUnitID: unitTilleul1,
		Terms: lease.Terms{
			SignatureDate: today,
			StartDate:     today.AddMonths(1),
			Type:          lease.TypeMainResidence3Y,
			MonthlyRent:   generic.MustMoney("925.00"),
		},
		Tenants: []lease.TenantInput{
			{PersonID: "person-claes", Role: lease.RolePrimary},
		},
	}, false); err != nil {
		return nil, fmt.Errorf("create draft lease: %w", err)
	}

	return a1, nil
}
