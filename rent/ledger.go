/*
Package rent tracks the rent amount of a housing unit over time.

PURPOSE:
  A thin domain layer over generic.IntervalLedger. The generic ledger
  knows nothing about housing units or rents; this package adds:
  - input validation (positive amount, start date required)
  - naming of entities in errors ("housing unit", "rent")
  - logging and metrics of every change

EXAMPLE:
  ledger := rent.NewLedger(store, rent.Config{MaxFutureYears: 1}, logger)
  r, err := ledger.Add(ctx, "unit-1", rent.Input{
      MonthlyRent:   generic.MustMoney("850.00"),
      EffectiveFrom: generic.MustParseDate("2024-07-01"),
  })

SEE ALSO:
  - generic/ledger.go: Neighbour re-linking rules
  - store/sqlite/rent.go: Persistence
*/
package rent

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/metrics"
)

// Config bounds rent start dates.
type Config struct {
	MaxFutureYears int

	// Clock returns "today". Defaults to generic.Today.
	Clock func() generic.Date
}

// Input is the user-editable part of a rent record.
type Input struct {
	MonthlyRent   generic.Money `json:"monthly_rent"`
	EffectiveFrom generic.Date  `json:"effective_from"`
	Notes         string        `json:"notes"`
}

// Validate checks the input independently of stored data.
func (in *Input) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.MonthlyRent, generic.PositiveMoney),
		validation.Field(&in.EffectiveFrom, generic.DateRequired),
		validation.Field(&in.Notes, validation.Length(0, 500)),
	)
}

// Ledger is the rent history of housing units.
type Ledger struct {
	intervals *generic.IntervalLedger
	log       *zap.Logger
}

func NewLedger(store generic.IntervalTxStore, cfg Config, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		intervals: generic.NewIntervalLedger(store, generic.LedgerConfig{
			SubjectKind:    "housing unit",
			RecordKind:     "rent",
			StartField:     "effective_from",
			MaxFutureYears: cfg.MaxFutureYears,
			Clock:          cfg.Clock,
		}),
		log: log.Named("rent"),
	}
}

// Add records a new rent from in.EffectiveFrom onwards.
func (l *Ledger) Add(ctx context.Context, unitID string, in Input) (*generic.Interval, error) {
	if err := generic.FromValidation(in.Validate()); err != nil {
		return nil, err
	}
	iv, err := l.intervals.Add(ctx, generic.SubjectID(unitID), in.MonthlyRent, in.EffectiveFrom, in.Notes)
	if err != nil {
		return nil, err
	}
	l.log.Info("rent added",
		zap.String("housing_unit_id", unitID),
		zap.String("rent_id", string(iv.ID)),
		zap.Stringer("monthly_rent", iv.Value),
		zap.Stringer("effective_from", iv.Start))
	metrics.RentChanged("add")
	return iv, nil
}

// Update amends an existing rent of the unit.
func (l *Ledger) Update(ctx context.Context, unitID, rentID string, in Input) (*generic.Interval, error) {
	if err := generic.FromValidation(in.Validate()); err != nil {
		return nil, err
	}
	iv, err := l.intervals.Update(ctx, generic.SubjectID(unitID), generic.IntervalID(rentID), in.MonthlyRent, in.EffectiveFrom, in.Notes)
	if err != nil {
		return nil, err
	}
	l.log.Info("rent updated",
		zap.String("housing_unit_id", unitID),
		zap.String("rent_id", rentID),
		zap.Stringer("monthly_rent", iv.Value),
		zap.Stringer("effective_from", iv.Start))
	metrics.RentChanged("update")
	return iv, nil
}

// Delete removes a rent; the previous rent takes over its period.
func (l *Ledger) Delete(ctx context.Context, unitID, rentID string) error {
	if err := l.intervals.Delete(ctx, generic.SubjectID(unitID), generic.IntervalID(rentID)); err != nil {
		return err
	}
	l.log.Info("rent deleted", zap.String("housing_unit_id", unitID), zap.String("rent_id", rentID))
	metrics.RentChanged("delete")
	return nil
}

// Current returns the open-ended rent of the unit, or nil.
func (l *Ledger) Current(ctx context.Context, unitID string) (*generic.Interval, error) {
	return l.intervals.Current(ctx, generic.SubjectID(unitID))
}

// History returns every rent of the unit, most recent first.
func (l *Ledger) History(ctx context.Context, unitID string) ([]generic.Interval, error) {
	return l.intervals.History(ctx, generic.SubjectID(unitID))
}

// At returns the rent in force on d, or nil.
func (l *Ledger) At(ctx context.Context, unitID string, d generic.Date) (*generic.Interval, error) {
	return l.intervals.At(ctx, generic.SubjectID(unitID), d)
}
