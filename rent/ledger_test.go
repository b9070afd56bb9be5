package rent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/generic/store"
)

func d(s string) generic.Date { return generic.MustParseDate(s) }

func newTestLedger(t *testing.T) (*Ledger, *observer.ObservedLogs) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddSubject("unit-1")

	core, logs := observer.New(zapcore.InfoLevel)
	ledger := NewLedger(mem, Config{
		MaxFutureYears: 1,
		Clock:          func() generic.Date { return d("2025-01-15") },
	}, zap.New(core))
	return ledger, logs
}

func TestLedger_AddUpdateDelete(t *testing.T) {
	// GIVEN: A unit with an 800.00 rent since 2024-01-01
	ledger, logs := newTestLedger(t)
	ctx := context.Background()
	first, err := ledger.Add(ctx, "unit-1", Input{MonthlyRent: generic.MustMoney("800"), EffectiveFrom: d("2024-01-01")})
	require.NoError(t, err)

	// WHEN: Indexing it from 2024-07-01
	second, err := ledger.Add(ctx, "unit-1", Input{MonthlyRent: generic.MustMoney("850"), EffectiveFrom: d("2024-07-01"), Notes: "indexation"})
	require.NoError(t, err)

	// THEN: The rent on a date follows the history
	at, err := ledger.At(ctx, "unit-1", d("2024-03-15"))
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Equal(t, first.ID, at.ID)

	current, err := ledger.Current(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	// WHEN: Moving the indexation one month later
	updated, err := ledger.Update(ctx, "unit-1", string(second.ID), Input{MonthlyRent: generic.MustMoney("855"), EffectiveFrom: d("2024-08-01")})
	require.NoError(t, err)
	assert.Equal(t, "855.00", updated.Value.String())

	// THEN: The predecessor now ends on 2024-07-31
	history, err := ledger.History(ctx, "unit-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[1].End)
	assert.Equal(t, "2024-07-31", history[1].End.String())

	// WHEN: Deleting the indexation
	require.NoError(t, ledger.Delete(ctx, "unit-1", string(second.ID)))

	// THEN: The first rent is open again
	current, err = ledger.Current(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, current.ID)
	assert.Nil(t, current.End)

	// AND: Every mutation was logged with the unit
	assert.Equal(t, 2, logs.FilterMessage("rent added").Len())
	assert.Equal(t, 1, logs.FilterMessage("rent updated").Len())
	assert.Equal(t, 1, logs.FilterMessage("rent deleted").FilterField(zap.String("housing_unit_id", "unit-1")).Len())
}

func TestLedger_InputValidation(t *testing.T) {
	ledger, logs := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input Input
	}{
		{"zero rent", Input{MonthlyRent: generic.MustMoney("0"), EffectiveFrom: d("2024-01-01")}},
		{"negative rent", Input{MonthlyRent: generic.MustMoney("-10"), EffectiveFrom: d("2024-01-01")}},
		{"missing start", Input{MonthlyRent: generic.MustMoney("800")}},
		{"notes too long", Input{MonthlyRent: generic.MustMoney("800"), EffectiveFrom: d("2024-01-01"), Notes: strings.Repeat("x", 501)}},
		{"too far ahead", Input{MonthlyRent: generic.MustMoney("800"), EffectiveFrom: d("2026-02-01")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Add(ctx, "unit-1", tt.input)
			assert.True(t, generic.IsValidation(err), "got %v", err)
		})
	}

	history, err := ledger.History(ctx, "unit-1")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Zero(t, logs.Len())
}

func TestLedger_UnknownUnit(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Add(context.Background(), "unit-x", Input{MonthlyRent: generic.MustMoney("800"), EffectiveFrom: d("2024-01-01")})

	assert.True(t, generic.IsNotFound(err))
}
