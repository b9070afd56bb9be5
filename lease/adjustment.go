/*
adjustment.go - Append-only log of in-lease rent and charges changes

PURPOSE:
  Rent and charges live on the lease itself; the lease is the source of
  truth for the current amounts. Every change made through Record is also
  appended here with the previous amount, so the history can be shown and
  "was the rent already indexed this year?" can be answered.

INVARIANTS:
  - APPEND-ONLY: adjustments are never updated or deleted
  - Record writes the log row and the lease field in the same transaction
    (the caller's)

SEE ALSO:
  - alerts.go: Uses ExistsForYear to silence indexation reminders
  - service.go: Runs Record inside a lease transaction
*/
package lease

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/jtbgroup/immocare-sub000/generic"
)

// AdjustmentInput is a requested change of rent or charges.
type AdjustmentInput struct {
	Field         Field         `json:"field"`
	NewValue      generic.Money `json:"new_value"`
	Reason        string        `json:"reason"`
	EffectiveDate generic.Date  `json:"effective_date"`
}

func (in *AdjustmentInput) Validate() error {
	in.Reason = strings.TrimSpace(in.Reason)
	return validation.ValidateStruct(in,
		validation.Field(&in.Field, validation.Required, validation.In(FieldRent, FieldCharges)),
		validation.Field(&in.NewValue, generic.PositiveMoney),
		validation.Field(&in.Reason, validation.Required, validation.Length(1, 500)),
		validation.Field(&in.EffectiveDate, generic.DateRequired),
	)
}

// AdjustmentLedger records adjustments against a store handed in by the
// caller, so it always joins the caller's transaction.
type AdjustmentLedger struct {
	now func() time.Time
}

func NewAdjustmentLedger() *AdjustmentLedger {
	return &AdjustmentLedger{now: time.Now}
}

// Record appends an adjustment and overwrites the lease field with the new
// value. l is updated in place.
func (a *AdjustmentLedger) Record(ctx context.Context, s Store, l *Lease, in AdjustmentInput) (*Adjustment, error) {
	if !l.Status.IsEditable() {
		return nil, &NotEditableError{LeaseID: l.ID, Status: l.Status}
	}
	if err := generic.FromValidation(in.Validate()); err != nil {
		return nil, err
	}

	old, err := l.Value(in.Field)
	if err != nil {
		return nil, &generic.ValidationError{Field: "field", Message: err.Error()}
	}

	now := a.now().UTC()
	adj := Adjustment{
		ID:            uuid.NewString(),
		LeaseID:       l.ID,
		Field:         in.Field,
		OldValue:      old,
		NewValue:      in.NewValue,
		Reason:        in.Reason,
		EffectiveDate: in.EffectiveDate,
		CreatedAt:     now,
	}
	if err := s.InsertAdjustment(ctx, adj); err != nil {
		return nil, err
	}

	if err := l.SetValue(in.Field, in.NewValue); err != nil {
		return nil, err
	}
	l.UpdatedAt = now
	if err := s.UpdateLease(ctx, *l); err != nil {
		return nil, err
	}
	return &adj, nil
}

// ExistsForYear reports whether field was adjusted with an effective date
// in year.
func (a *AdjustmentLedger) ExistsForYear(ctx context.Context, r AdjustmentReader, leaseID string, field Field, year int) (bool, error) {
	return r.AdjustmentExistsForYear(ctx, leaseID, field, year)
}

// History returns the adjustments of a lease, newest effective date first.
func (a *AdjustmentLedger) History(ctx context.Context, s Store, leaseID string) ([]Adjustment, error) {
	return s.ListAdjustments(ctx, leaseID)
}
