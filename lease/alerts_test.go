package lease_test

import (
	"context"
	"testing"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adjustedYears is an AdjustmentReader answering from a fixed set of
// RENT adjustment years.
type adjustedYears map[int]bool

func (a adjustedYears) AdjustmentExistsForYear(_ context.Context, _ string, field lease.Field, year int) (bool, error) {
	return field == lease.FieldRent && a[year], nil
}

func alertLease(start string, durationMonths, noticeMonths, noticeDays int) *lease.Lease {
	l := &lease.Lease{
		ID:                   "lease-1",
		HousingUnitID:        "unit-1",
		Status:               lease.StatusActive,
		StartDate:            d(start),
		DurationMonths:       durationMonths,
		NoticePeriodMonths:   noticeMonths,
		IndexationNoticeDays: noticeDays,
		Tenants: []lease.Tenant{
			{PersonID: "p-1", Role: lease.RolePrimary, LastName: "Dupont", FirstName: "Marie"},
			{PersonID: "p-2", Role: lease.RoleGuarantor, LastName: "Peeters", FirstName: "Jan"},
		},
	}
	l.RecomputeEndDate()
	return l
}

func TestEvaluate_IndexationDueBeforeAnniversary(t *testing.T) {
	// GIVEN: a lease started 2024-02-01 with 30 days indexation notice
	scheduler := lease.NewAlertScheduler(lease.NewAdjustmentLedger(), adjustedYears{})
	l := alertLease("2024-02-01", 108, 3, 30)

	// WHEN: evaluated on 2025-01-05
	ev, err := scheduler.Evaluate(context.Background(), l, d("2025-01-05"))
	require.NoError(t, err)

	// THEN: the 2025-02-01 anniversary triggered on 2025-01-02
	assert.True(t, ev.IndexationDue)
	assert.Equal(t, "2025-02-01", ev.IndexationDeadline.String())
	assert.Equal(t, "2025-01-02", ev.IndexationTrigger.String())
	assert.False(t, ev.EndNoticeDue)
}

func TestEvaluate_IndexationSilencedByAdjustment(t *testing.T) {
	// GIVEN: the rent was already adjusted in 2025
	scheduler := lease.NewAlertScheduler(lease.NewAdjustmentLedger(), adjustedYears{2025: true})
	l := alertLease("2024-02-01", 108, 3, 30)

	ev, err := scheduler.Evaluate(context.Background(), l, d("2025-01-05"))
	require.NoError(t, err)

	// THEN: no reminder
	assert.False(t, ev.IndexationDue)
	assert.Equal(t, "2025-02-01", ev.IndexationDeadline.String())
}

func TestIndexationAnniversary(t *testing.T) {
	tests := []struct {
		name  string
		start string
		today string
		days  int
		want  string
	}{
		{"upcoming this year", "2024-02-01", "2025-01-05", 30, "2025-02-01"},
		{"anniversary today", "2024-02-01", "2025-02-01", 30, "2025-02-01"},
		{"recently passed stays", "2024-02-01", "2025-02-20", 30, "2025-02-01"},
		{"exactly notice days past stays", "2024-02-01", "2025-03-03", 30, "2025-02-01"},
		{"long passed moves to next year", "2024-02-01", "2025-03-04", 30, "2026-02-01"},
		{"leap day start, common year", "2024-02-29", "2025-02-10", 30, "2025-02-28"},
		{"leap day start, leap year", "2024-02-29", "2028-02-10", 30, "2028-02-29"},
		{"leap day start, next year is common", "2024-02-29", "2026-12-01", 30, "2027-02-28"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lease.IndexationAnniversary(d(tt.start), d(tt.today), tt.days)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestEvaluate_IndexationNotYetDue(t *testing.T) {
	scheduler := lease.NewAlertScheduler(lease.NewAdjustmentLedger(), adjustedYears{})
	l := alertLease("2024-02-01", 108, 3, 30)

	// One day before the trigger
	ev, err := scheduler.Evaluate(context.Background(), l, d("2025-01-01"))
	require.NoError(t, err)
	assert.False(t, ev.IndexationDue)

	// On the trigger
	ev, err = scheduler.Evaluate(context.Background(), l, d("2025-01-02"))
	require.NoError(t, err)
	assert.True(t, ev.IndexationDue)
}

func TestEvaluate_EndNotice(t *testing.T) {
	scheduler := lease.NewAlertScheduler(lease.NewAdjustmentLedger(), adjustedYears{2024: true, 2025: true})

	// GIVEN: a one-year lease from 2024-09-01 with 3 months notice
	l := alertLease("2024-09-01", 12, 3, 30)
	require.Equal(t, "2025-09-01", l.EndDate.String())

	tests := []struct {
		today string
		due   bool
	}{
		{"2025-05-31", false},
		{"2025-06-01", true},
		{"2025-10-01", true}, // past the end date, still due
	}
	for _, tt := range tests {
		ev, err := scheduler.Evaluate(context.Background(), l, d(tt.today))
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01", ev.EndNoticeDeadline.String())
		assert.Equal(t, tt.due, ev.EndNoticeDue, tt.today)
	}
}

func TestAlerts_CarryUnitAndPrimaryTenants(t *testing.T) {
	scheduler := lease.NewAlertScheduler(lease.NewAdjustmentLedger(), adjustedYears{})
	l := alertLease("2024-02-01", 12, 3, 30)
	unit := &lease.Unit{ID: "unit-1", Number: "A1", BuildingName: "Résidence Astrid"}

	// 2025-01-05: end notice since 2024-11-01 and indexation due
	alerts, err := scheduler.Alerts(context.Background(), l, unit, d("2025-01-05"))
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, lease.AlertEndNotice, alerts[0].Type)
	assert.Equal(t, "2024-11-01", alerts[0].Deadline.String())
	assert.Equal(t, lease.AlertIndexation, alerts[1].Type)
	for _, a := range alerts {
		assert.Equal(t, "A1", a.HousingUnitNumber)
		assert.Equal(t, "Résidence Astrid", a.BuildingName)
		assert.Equal(t, []string{"Dupont Marie"}, a.TenantNames)
	}
}

var _ lease.AdjustmentReader = adjustedYears(nil)

func d(s string) generic.Date { return generic.MustParseDate(s) }

func m(s string) generic.Money { return generic.MustMoney(s) }
