/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Units and persons are created
	- Rent histories are contiguous
	- Leases have the expected status and alerts

These tests ensure scenarios work correctly and can be used as integration tests.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
)

func TestScenario_ListAndUnknown(t *testing.T) {
	s := newTestServer(t, "2025-03-15")

	list := decodeBody[[]ScenarioDTO](t, s.do(t, http.MethodGet, "/api/v1/scenarios", nil))
	assert.Len(t, list, len(scenarios))

	rec := s.do(t, http.MethodPost, "/api/v1/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenario_EmptyBuilding(t *testing.T) {
	// GIVEN: The empty-building scenario
	// WHEN: Loading it through the API
	// THEN: Units and persons exist, no rent and no lease
	s := newTestServer(t, "2025-03-15")

	rec := s.do(t, http.MethodPost, "/api/v1/scenarios/load", LoadScenarioRequest{ScenarioID: "empty-building"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	units := decodeBody[[]HousingUnitDTO](t, s.do(t, http.MethodGet, "/api/v1/housing-units", nil))
	assert.Len(t, units, len(demoUnits))
	persons := decodeBody[[]PersonDTO](t, s.do(t, http.MethodGet, "/api/v1/persons", nil))
	assert.Len(t, persons, len(demoPersons))

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodGet, "/api/v1/housing-units/"+unitAstridA1+"/rents/current", nil).Code)

	current := decodeBody[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/v1/scenarios/current", nil))
	assert.Equal(t, "empty-building", current.ID)
}

func TestScenario_Residence(t *testing.T) {
	// GIVEN: The residence scenario on 2025-03-15
	s := newTestServer(t, "2025-03-15")
	ctx := context.Background()

	// WHEN: Loading it
	require.NoError(t, s.handler.loadResidenceScenario(ctx))

	// THEN: A1 has a contiguous three-step rent history
	history, err := s.handler.Rents.History(ctx, unitAstridA1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].IsCurrent())
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].End)
		assert.True(t, history[i].End.Equal(history[i-1].Start.AddDays(-1)))
	}

	// AND: The future rent of Les Tilleuls is the current interval
	current, err := s.handler.Rents.Current(ctx, unitTilleul1)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "2025-04-15", current.Start.String())

	// AND: A1's lease is active with indexation due
	views, err := s.handler.Leases.ListByUnit(ctx, unitAstridA1, generic.MustParseDate("2025-03-15"))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, lease.StatusActive, views[0].Lease.Status)
	assert.True(t, views[0].Alerts.IndexationDue)
	assert.False(t, views[0].Alerts.EndNoticeDue)

	// AND: The Tilleuls lease is still a draft
	views, err = s.handler.Leases.ListByUnit(ctx, unitTilleul1, generic.MustParseDate("2025-03-15"))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, lease.StatusDraft, views[0].Lease.Status)
}

func TestScenario_IndexationDone(t *testing.T) {
	// GIVEN: The residence with this year's indexation recorded
	s := newTestServer(t, "2025-03-15")
	ctx := context.Background()
	require.NoError(t, s.handler.loadIndexationDoneScenario(ctx))

	// WHEN: Listing alerts
	alerts, err := s.handler.Leases.Alerts(ctx, generic.MustParseDate("2025-03-15"))
	require.NoError(t, err)

	// THEN: Only the end-of-notice reminder of A2 remains
	require.Len(t, alerts, 1)
	assert.Equal(t, lease.AlertEndNotice, alerts[0].Type)
	assert.Equal(t, unitAstridA2, alerts[0].HousingUnitID)
}

func TestScenario_ReloadResets(t *testing.T) {
	// GIVEN: A loaded scenario
	s := newTestServer(t, "2025-03-15")
	for i := 0; i < 2; i++ {
		// WHEN: Loading the same scenario twice
		rec := s.do(t, http.MethodPost, "/api/v1/scenarios/load", LoadScenarioRequest{ScenarioID: "residence"})
		// THEN: The second load does not collide with the first
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodPost, "/api/v1/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	units := decodeBody[[]HousingUnitDTO](t, s.do(t, http.MethodGet, "/api/v1/housing-units", nil))
	assert.Empty(t, units)
}

func TestScenario_ConcurrentLoadsAndReads(t *testing.T) {
	// GIVEN: A server receiving scenario loads and reads at the same time
	s := newTestServer(t, "2025-03-15")
	body, err := json.Marshal(LoadScenarioRequest{ScenarioID: "empty-building"})
	require.NoError(t, err)

	const workers = 8
	codes := make([]int, 2*workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/scenarios/load", bytes.NewReader(body)))
			codes[2*i] = rec.Code
		}(i)
		go func(i int) {
			defer wg.Done()
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scenarios/current", nil))
			codes[2*i+1] = rec.Code
		}(i)
	}
	wg.Wait()

	// THEN: Every request succeeds and the loads did not interleave
	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "request %d", i)
	}
	current := decodeBody[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/v1/scenarios/current", nil))
	assert.Equal(t, "empty-building", current.ID)
	units := decodeBody[[]HousingUnitDTO](t, s.do(t, http.MethodGet, "/api/v1/housing-units", nil))
	assert.Len(t, units, len(demoUnits))
}
