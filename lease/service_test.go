package lease_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/jtbgroup/immocare-sub000/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T, today string) (*lease.Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, u := range []sqlite.HousingUnit{
		{ID: "unit-1", BuildingName: "Résidence Astrid", UnitNumber: "A1"},
		{ID: "unit-2", BuildingName: "Résidence Astrid", UnitNumber: "B2"},
	} {
		require.NoError(t, store.SaveHousingUnit(ctx, u))
	}
	for _, p := range []sqlite.Person{
		{ID: "p-1", LastName: "Dupont", FirstName: "Marie"},
		{ID: "p-2", LastName: "Peeters", FirstName: "Jan"},
		{ID: "p-3", LastName: "Janssens", FirstName: "Luc"},
	} {
		require.NoError(t, store.SavePerson(ctx, p))
	}

	cfg := lease.DefaultConfig()
	cfg.Clock = func() generic.Date { return d(today) }
	return lease.NewService(store, cfg, nil), store
}

func createInput(unitID string, tenants ...lease.TenantInput) lease.CreateInput {
	return lease.CreateInput{
		HousingUnitID: unitID,
		Terms: lease.Terms{
			SignatureDate:  d("2024-01-15"),
			StartDate:      d("2024-02-01"),
			Type:           lease.TypeMainResidence9Y,
			DurationMonths: 108,
			MonthlyRent:    m("850.00"),
			MonthlyCharges: m("75.00"),
		},
		Tenants: tenants,
	}
}

func primary(personID string) lease.TenantInput {
	return lease.TenantInput{PersonID: personID, Role: lease.RolePrimary}
}

func mustCreate(t *testing.T, s *lease.Service, activate bool) *lease.Lease {
	t.Helper()
	l, err := s.Create(context.Background(), createInput("unit-1", primary("p-1")), activate)
	require.NoError(t, err)
	return l
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreate_DraftWithDefaults(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()

	// WHEN: a lease is created without notice period or indexation days
	l, err := svc.Create(ctx, createInput("unit-1", primary("p-1")), false)
	require.NoError(t, err)

	// THEN: it is DRAFT with derived end date and type defaults
	assert.Equal(t, lease.StatusDraft, l.Status)
	assert.Equal(t, "2033-02-01", l.EndDate.String())
	assert.Equal(t, 3, l.NoticePeriodMonths)
	assert.Equal(t, 30, l.IndexationNoticeDays)
	assert.Equal(t, lease.ChargesForfait, l.ChargesType)
	assert.Equal(t, "925.00", l.TotalRent().String())

	stored, err := svc.Get(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, stored.Tenants, 1)
	assert.Equal(t, "Dupont", stored.Tenants[0].LastName)
}

func TestCreate_Activated(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	l := mustCreate(t, svc, true)
	assert.Equal(t, lease.StatusActive, l.Status)
}

func TestCreate_RequiresPrimaryTenant(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")

	_, err := svc.Create(context.Background(),
		createInput("unit-1", lease.TenantInput{PersonID: "p-2", Role: lease.RoleGuarantor}), false)

	var ve *generic.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "tenants", ve.Field)
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")

	tests := []struct {
		name   string
		modify func(*lease.CreateInput)
	}{
		{"zero rent", func(in *lease.CreateInput) { in.MonthlyRent = generic.Money{} }},
		{"negative charges", func(in *lease.CreateInput) { in.MonthlyCharges = m("-1.00") }},
		{"missing start", func(in *lease.CreateInput) { in.StartDate = generic.Date{} }},
		{"unknown type", func(in *lease.CreateInput) { in.Type = "HOLIDAY" }},
		{"negative duration", func(in *lease.CreateInput) { in.DurationMonths = -1 }},
		{"no tenants", func(in *lease.CreateInput) { in.Tenants = nil }},
		{"duplicate person", func(in *lease.CreateInput) {
			in.Tenants = append(in.Tenants, lease.TenantInput{PersonID: "p-1", Role: lease.RoleCoTenant})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput("unit-1", primary("p-1"))
			tt.modify(&in)
			_, err := svc.Create(context.Background(), in, false)
			assert.True(t, generic.IsValidation(err), "got %v", err)
		})
	}
}

func TestCreate_UnknownReferences(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("unit-x", primary("p-1")), false)
	assert.True(t, generic.IsNotFound(err), "got %v", err)

	_, err = svc.Create(ctx, createInput("unit-1", primary("p-x")), false)
	assert.True(t, generic.IsNotFound(err), "got %v", err)

	// Nothing was written
	views, err := svc.ListByUnit(ctx, "unit-1", generic.Date{})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCreate_OverlapWithOpenLease(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()

	// GIVEN: a DRAFT lease on unit-1
	mustCreate(t, svc, false)

	// WHEN: another lease is created on the same unit
	_, err := svc.Create(ctx, createInput("unit-1", primary("p-2")), false)

	// THEN: overlap; another unit is fine
	var oe *lease.OverlapError
	assert.ErrorAs(t, err, &oe)
	assert.True(t, generic.IsConflict(err))

	_, err = svc.Create(ctx, createInput("unit-2", primary("p-2")), false)
	assert.NoError(t, err)
}

// =============================================================================
// STATUS
// =============================================================================

func TestChangeStatus_Lifecycle(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)

	got, err := svc.ChangeStatus(ctx, l.ID, "active")
	require.NoError(t, err)
	assert.Equal(t, lease.StatusActive, got.Status)

	got, err = svc.ChangeStatus(ctx, l.ID, "FINISHED")
	require.NoError(t, err)
	assert.Equal(t, lease.StatusFinished, got.Status)

	// Terminal
	_, err = svc.ChangeStatus(ctx, l.ID, "ACTIVE")
	var ite *lease.InvalidTransitionError
	require.True(t, errors.As(err, &ite), "got %v", err)
	assert.Equal(t, lease.StatusFinished, ite.From)
}

func TestChangeStatus_Transitions(t *testing.T) {
	tests := []struct {
		from   lease.Status
		to     string
		wantOK bool
	}{
		{lease.StatusDraft, "ACTIVE", true},
		{lease.StatusDraft, "CANCELLED", true},
		{lease.StatusDraft, "FINISHED", false},
		{lease.StatusDraft, "DRAFT", false},
		{lease.StatusActive, "FINISHED", true},
		{lease.StatusActive, "CANCELLED", true},
		{lease.StatusActive, "DRAFT", false},
		{lease.StatusFinished, "CANCELLED", false},
		{lease.StatusCancelled, "ACTIVE", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+tt.to, func(t *testing.T) {
			svc, store := newTestService(t, "2024-01-20")
			l := mustCreate(t, svc, false)
			l.Status = tt.from
			require.NoError(t, store.UpdateLease(context.Background(), *l))

			_, err := svc.ChangeStatus(context.Background(), l.ID, tt.to)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			var ite *lease.InvalidTransitionError
			require.True(t, errors.As(err, &ite), "got %v", err)
			assert.Equal(t, lease.Status(tt.to), ite.To)
			assert.True(t, generic.IsConflict(err))
		})
	}
}

func TestChangeStatus_UnknownTargetIsValidation(t *testing.T) {
	// GIVEN: a DRAFT lease
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)

	for _, target := range []string{"ARCHIVED", "BOGUS", ""} {
		// WHEN: asking for a status that does not exist
		_, err := svc.ChangeStatus(ctx, l.ID, target)

		// THEN: the input is rejected, not the transition
		var ite *lease.InvalidTransitionError
		assert.False(t, errors.As(err, &ite), "%q: %v", target, err)
		assert.True(t, generic.IsValidation(err), "%q: %v", target, err)
		assert.False(t, generic.IsConflict(err), "%q: %v", target, err)
	}

	got, err := svc.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusDraft, got.Status)
}

func TestChangeStatus_ActivationRequiresPrimary(t *testing.T) {
	svc, store := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)

	// GIVEN: the PRIMARY link was removed behind the service's back
	require.NoError(t, store.DeleteTenant(ctx, l.ID, "p-1"))

	_, err := svc.ChangeStatus(ctx, l.ID, "ACTIVE")
	assert.ErrorIs(t, err, lease.ErrNoPrimaryTenant)
}

func TestChangeStatus_UnknownLease(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	_, err := svc.ChangeStatus(context.Background(), "lease-x", "ACTIVE")
	assert.True(t, generic.IsNotFound(err), "got %v", err)
}

// =============================================================================
// EDITABILITY
// =============================================================================

func TestTerminalLeaseIsNotEditable(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)
	_, err := svc.ChangeStatus(ctx, l.ID, "CANCELLED")
	require.NoError(t, err)

	var ne *lease.NotEditableError

	_, err = svc.Update(ctx, l.ID, createInput("unit-1").Terms)
	assert.True(t, errors.As(err, &ne), "update: %v", err)

	_, err = svc.AddTenant(ctx, l.ID, lease.TenantInput{PersonID: "p-2", Role: lease.RoleCoTenant})
	assert.True(t, errors.As(err, &ne), "add tenant: %v", err)

	_, err = svc.RemoveTenant(ctx, l.ID, "p-1")
	assert.True(t, errors.As(err, &ne), "remove tenant: %v", err)

	_, err = svc.AdjustRent(ctx, l.ID, lease.AdjustmentInput{
		Field: lease.FieldRent, NewValue: m("900.00"), Reason: "indexation", EffectiveDate: d("2025-02-01"),
	})
	assert.True(t, errors.As(err, &ne), "adjust: %v", err)
}

func TestTerminalLease_StatusCheckedBeforeInput(t *testing.T) {
	// GIVEN: a CANCELLED lease
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)
	_, err := svc.ChangeStatus(ctx, l.ID, "CANCELLED")
	require.NoError(t, err)

	// WHEN: every mutation is sent an invalid body
	badTerms := createInput("unit-1").Terms
	badTerms.Type = "HOLIDAY"
	badTerms.MonthlyRent = m("-1")
	_, updateErr := svc.Update(ctx, l.ID, badTerms)
	_, addErr := svc.AddTenant(ctx, l.ID, lease.TenantInput{PersonID: "p-2", Role: "OWNER"})
	_, adjustErr := svc.AdjustRent(ctx, l.ID, lease.AdjustmentInput{Field: "DEPOSIT"})

	// THEN: all of them report the lease status, none the input
	for name, err := range map[string]error{"update": updateErr, "add tenant": addErr, "adjust": adjustErr} {
		var ne *lease.NotEditableError
		assert.True(t, errors.As(err, &ne), "%s: %v", name, err)
		assert.False(t, generic.IsValidation(err), "%s: %v", name, err)
	}
}

func TestEditableLease_InvalidInputStillRejected(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)

	terms := createInput("unit-1").Terms
	terms.MonthlyRent = m("0")
	_, err := svc.Update(ctx, l.ID, terms)
	assert.True(t, generic.IsValidation(err), "update: %v", err)

	_, err = svc.AddTenant(ctx, l.ID, lease.TenantInput{PersonID: "p-2", Role: "OWNER"})
	assert.True(t, generic.IsValidation(err), "add tenant: %v", err)

	got, err := svc.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "850.00", got.MonthlyRent.String())
	assert.Len(t, got.Tenants, 1)
}

func TestUpdate_RecomputesEndDate(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)

	terms := createInput("unit-1").Terms
	terms.Type = lease.TypeShortTerm
	terms.DurationMonths = 3
	terms.StartDate = d("2024-11-30")

	got, err := svc.Update(ctx, l.ID, terms)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", got.EndDate.String())
	assert.Equal(t, 1, got.NoticePeriodMonths)
	assert.Equal(t, 30, got.IndexationNoticeDays, "kept when not sent")
}

// =============================================================================
// TENANTS
// =============================================================================

func TestTenants_AddAndRemove(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, true)

	got, err := svc.AddTenant(ctx, l.ID, lease.TenantInput{PersonID: "p-2", Role: lease.RoleCoTenant})
	require.NoError(t, err)
	assert.Len(t, got.Tenants, 2)

	// Same person twice
	_, err = svc.AddTenant(ctx, l.ID, lease.TenantInput{PersonID: "p-2", Role: lease.RoleGuarantor})
	var dup *lease.DuplicateTenantError
	assert.True(t, errors.As(err, &dup), "got %v", err)

	// Unknown person
	_, err = svc.AddTenant(ctx, l.ID, lease.TenantInput{PersonID: "p-x", Role: lease.RoleGuarantor})
	assert.True(t, generic.IsNotFound(err), "got %v", err)

	// Non-PRIMARY removal is free
	got, err = svc.RemoveTenant(ctx, l.ID, "p-2")
	require.NoError(t, err)
	assert.Len(t, got.Tenants, 1)

	// Unlinked person
	_, err = svc.RemoveTenant(ctx, l.ID, "p-3")
	assert.True(t, generic.IsNotFound(err), "got %v", err)
}

func TestTenants_LastPrimaryStays(t *testing.T) {
	svc, _ := newTestService(t, "2024-01-20")
	ctx := context.Background()
	l := mustCreate(t, svc, false)

	// GIVEN: a single PRIMARY tenant
	_, err := svc.RemoveTenant(ctx, l.ID, "p-1")
	assert.ErrorIs(t, err, lease.ErrLastPrimaryTenant)

	// WHEN: a second PRIMARY is added, either can go
	_, err = svc.AddTenant(ctx, l.ID, primary("p-2"))
	require.NoError(t, err)
	got, err := svc.RemoveTenant(ctx, l.ID, "p-1")
	require.NoError(t, err)

	// THEN: exactly one PRIMARY remains
	require.Len(t, got.PrimaryTenants(), 1)
	assert.Equal(t, "p-2", got.PrimaryTenants()[0].PersonID)
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func TestAdjustRent_UpdatesLeaseAndLog(t *testing.T) {
	svc, _ := newTestService(t, "2025-01-05")
	ctx := context.Background()
	l := mustCreate(t, svc, true)

	// GIVEN: indexation is due on 2025-01-05
	view, err := svc.View(ctx, l.ID, generic.Date{})
	require.NoError(t, err)
	require.True(t, view.Alerts.IndexationDue)

	// WHEN: the rent is indexed
	adj, err := svc.AdjustRent(ctx, l.ID, lease.AdjustmentInput{
		Field: lease.FieldRent, NewValue: m("872.40"), Reason: "  indexation 2025 ", EffectiveDate: d("2025-02-01"),
	})
	require.NoError(t, err)

	// THEN: the log keeps the old value and the lease has the new one
	assert.Equal(t, "850.00", adj.OldValue.String())
	assert.Equal(t, "indexation 2025", adj.Reason)

	view, err = svc.View(ctx, l.ID, generic.Date{})
	require.NoError(t, err)
	assert.Equal(t, "872.40", view.Lease.MonthlyRent.String())
	assert.False(t, view.Alerts.IndexationDue)
	require.Len(t, view.Adjustments, 1)

	// A CHARGES adjustment never silences indexation
	_, err = svc.AdjustRent(ctx, l.ID, lease.AdjustmentInput{
		Field: lease.FieldCharges, NewValue: m("80.00"), Reason: "heating", EffectiveDate: d("2026-02-01"),
	})
	require.NoError(t, err)
	history, err := svc.Adjustments(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, lease.FieldCharges, history[0].Field)
}

func TestAdjustRent_Validation(t *testing.T) {
	svc, _ := newTestService(t, "2025-01-05")
	ctx := context.Background()
	l := mustCreate(t, svc, true)

	tests := []struct {
		name string
		in   lease.AdjustmentInput
	}{
		{"unknown field", lease.AdjustmentInput{Field: "DEPOSIT", NewValue: m("1.00"), Reason: "x", EffectiveDate: d("2025-01-01")}},
		{"zero value", lease.AdjustmentInput{Field: lease.FieldRent, NewValue: m("0"), Reason: "x", EffectiveDate: d("2025-01-01")}},
		{"blank reason", lease.AdjustmentInput{Field: lease.FieldRent, NewValue: m("1.00"), Reason: "   ", EffectiveDate: d("2025-01-01")}},
		{"missing date", lease.AdjustmentInput{Field: lease.FieldRent, NewValue: m("1.00"), Reason: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AdjustRent(ctx, l.ID, tt.in)
			assert.True(t, generic.IsValidation(err), "got %v", err)
		})
	}

	// Nothing was recorded
	history, err := svc.Adjustments(ctx, l.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

// =============================================================================
// BATCH ALERTS
// =============================================================================

func TestAlerts_ActiveLeasesByDeadline(t *testing.T) {
	svc, _ := newTestService(t, "2025-01-05")
	ctx := context.Background()

	// GIVEN: an ACTIVE one-year lease on unit-1 (end notice 2024-11-01,
	// indexation 2025-02-01) and a DRAFT lease on unit-2
	in := createInput("unit-1", primary("p-1"), lease.TenantInput{PersonID: "p-3", Role: lease.RoleGuarantor})
	in.DurationMonths = 12
	active, err := svc.Create(ctx, in, true)
	require.NoError(t, err)
	_, err = svc.Create(ctx, createInput("unit-2", primary("p-2")), false)
	require.NoError(t, err)

	// WHEN: alerts are listed
	alerts, err := svc.Alerts(ctx, generic.Date{})
	require.NoError(t, err)

	// THEN: only the ACTIVE lease, earliest deadline first
	require.Len(t, alerts, 2)
	assert.Equal(t, lease.AlertEndNotice, alerts[0].Type)
	assert.Equal(t, "2024-11-01", alerts[0].Deadline.String())
	assert.Equal(t, lease.AlertIndexation, alerts[1].Type)
	assert.Equal(t, "2025-02-01", alerts[1].Deadline.String())
	for _, a := range alerts {
		assert.Equal(t, active.ID, a.LeaseID)
		assert.Equal(t, "A1", a.HousingUnitNumber)
		assert.Equal(t, []string{"Dupont Marie"}, a.TenantNames)
	}

	// An explicit date overrides the clock
	alerts, err = svc.Alerts(ctx, d("2024-06-01"))
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestListByUnit_UnknownUnit(t *testing.T) {
	svc, _ := newTestService(t, "2025-01-05")
	_, err := svc.ListByUnit(context.Background(), "unit-x", generic.Date{})
	assert.True(t, generic.IsNotFound(err), "got %v", err)
}
