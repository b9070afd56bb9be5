/*
ledger.go - Gap-free, non-overlapping interval sequences

PURPOSE:
  The IntervalLedger keeps, per subject, an ordered sequence of dated
  values where every interval ends the day before the next one starts and
  only the latest interval is open-ended. Callers never set end dates:
  they add, amend or remove intervals and the ledger re-links the
  neighbours.

CRITICAL INVARIANTS:
  1. NON-OVERLAPPING: intervals of a subject never share a day
  2. SINGLE CURRENT: at most one interval has a nil End, the latest one
  3. UNIQUE START: two intervals never start on the same day
  4. ATOMIC: every operation runs in one store transaction

NEIGHBOUR RULES:
  predecessor = interval with the largest Start before the given date
  successor   = interval with the smallest Start after the given date

  Add:    new.End = successor.Start - 1 (nil without successor)
          predecessor.End = new.Start - 1
  Update: the interval is detached first (its old predecessor inherits its
          old End), then attached at the new Start with the Add rule
  Delete: the predecessor inherits the deleted interval's End

  Add and Update use the same predecessor rule, so inserting in the
  middle of a sequence never leaves a stale end date behind.

WRITE ORDERING:
  Writes that give an interval a concrete End go first, the write that
  leaves an interval open goes last. A store enforcing "one open interval
  per subject" per statement therefore never sees two open rows.

EXAMPLE:
  Add(800.00, 2024-01-01)  -> [800.00 2024-01-01..open]
  Add(850.00, 2024-07-01)  -> [850.00 2024-07-01..open,
                               800.00 2024-01-01..2024-06-30]
  Delete(850.00 interval)  -> [800.00 2024-01-01..open]

SEE ALSO:
  - store.go: Low-level persistence interface
  - rent/ledger.go: Housing-unit rent wrapper
*/
package generic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxFutureYears bounds how far ahead an interval may start.
const DefaultMaxFutureYears = 1

// =============================================================================
// LEDGER CONFIGURATION
// =============================================================================

// LedgerConfig names the ledger's entities in errors and bounds start dates.
type LedgerConfig struct {
	SubjectKind    string // e.g. "housing unit"
	RecordKind     string // e.g. "rent"
	StartField     string // field name reported on start-date validation errors
	MaxFutureYears int

	// Clock returns "today". Defaults to Today.
	Clock func() Date
}

func (c LedgerConfig) withDefaults() LedgerConfig {
	if c.SubjectKind == "" {
		c.SubjectKind = "subject"
	}
	if c.RecordKind == "" {
		c.RecordKind = "interval"
	}
	if c.StartField == "" {
		c.StartField = "start"
	}
	if c.MaxFutureYears <= 0 {
		c.MaxFutureYears = DefaultMaxFutureYears
	}
	if c.Clock == nil {
		c.Clock = Today
	}
	return c
}

// =============================================================================
// INTERVAL LEDGER
// =============================================================================

// IntervalLedger maintains the interval sequences of all subjects of a store.
type IntervalLedger struct {
	Store  IntervalTxStore
	config LedgerConfig
}

func NewIntervalLedger(store IntervalTxStore, cfg LedgerConfig) *IntervalLedger {
	return &IntervalLedger{Store: store, config: cfg.withDefaults()}
}

// Add inserts a new interval starting on start and re-links its neighbours.
func (l *IntervalLedger) Add(ctx context.Context, subjectID SubjectID, value Money, start Date, note string) (*Interval, error) {
	if err := l.checkStart(start); err != nil {
		return nil, err
	}

	var created Interval
	err := l.Store.WithIntervalTx(ctx, func(s IntervalStore) error {
		before, err := l.load(ctx, s, subjectID)
		if err != nil {
			return err
		}
		if hasStart(before, start, "") {
			return &DuplicateStartError{SubjectID: subjectID, Start: start}
		}

		work := cloneIntervals(before)
		created = Interval{
			ID:        IntervalID(uuid.NewString()),
			SubjectID: subjectID,
			Value:     value,
			Start:     start,
			Note:      note,
			CreatedAt: time.Now().UTC(),
		}
		pred, succ := neighbours(work, start, "")
		created.End = dayBefore(succ)
		if pred != nil {
			pred.End = start.AddDays(-1).Ptr()
		}

		return applyWrites(ctx, s, before, work, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update amends value, start and note of an interval of subjectID.
func (l *IntervalLedger) Update(ctx context.Context, subjectID SubjectID, id IntervalID, value Money, start Date, note string) (*Interval, error) {
	if err := l.checkStart(start); err != nil {
		return nil, err
	}

	var updated Interval
	err := l.Store.WithIntervalTx(ctx, func(s IntervalStore) error {
		before, err := l.load(ctx, s, subjectID)
		if err != nil {
			return err
		}
		work := cloneIntervals(before)
		self := findInterval(work, id)
		if self == nil {
			return &NotFoundError{Kind: l.config.RecordKind, ID: string(id)}
		}
		if hasStart(before, start, id) {
			return &DuplicateStartError{SubjectID: subjectID, Start: start}
		}

		// Detach
		if oldPred, _ := neighbours(work, self.Start, id); oldPred != nil {
			oldPred.End = self.End
		}

		// Attach at the new start
		self.Value = value
		self.Start = start
		self.Note = note
		pred, succ := neighbours(work, start, id)
		self.End = dayBefore(succ)
		if pred != nil {
			pred.End = start.AddDays(-1).Ptr()
		}

		updated = *self
		return applyWrites(ctx, s, before, work, nil)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an interval; its predecessor inherits its end date.
func (l *IntervalLedger) Delete(ctx context.Context, subjectID SubjectID, id IntervalID) error {
	return l.Store.WithIntervalTx(ctx, func(s IntervalStore) error {
		before, err := l.load(ctx, s, subjectID)
		if err != nil {
			return err
		}
		work := cloneIntervals(before)
		self := findInterval(work, id)
		if self == nil {
			return &NotFoundError{Kind: l.config.RecordKind, ID: string(id)}
		}

		if err := s.DeleteInterval(ctx, id); err != nil {
			return err
		}

		pred, _ := neighbours(work, self.Start, id)
		if pred == nil {
			return nil
		}
		pred.End = self.End
		return s.UpdateInterval(ctx, *pred)
	})
}

// Current returns the open-ended interval of a subject, or nil.
func (l *IntervalLedger) Current(ctx context.Context, subjectID SubjectID) (*Interval, error) {
	list, err := l.load(ctx, l.Store, subjectID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].IsCurrent() {
			return &list[i], nil
		}
	}
	return nil, nil
}

// History returns all intervals of a subject, start date descending.
func (l *IntervalLedger) History(ctx context.Context, subjectID SubjectID) ([]Interval, error) {
	return l.load(ctx, l.Store, subjectID)
}

// At returns the interval whose period contains d, or nil.
func (l *IntervalLedger) At(ctx context.Context, subjectID SubjectID, d Date) (*Interval, error) {
	list, err := l.load(ctx, l.Store, subjectID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Period().Contains(d) {
			return &list[i], nil
		}
	}
	return nil, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (l *IntervalLedger) checkStart(start Date) error {
	if start.IsZero() {
		return &ValidationError{Field: l.config.StartField, Message: "is required"}
	}
	limit := l.config.Clock().AddYears(l.config.MaxFutureYears)
	if start.After(limit) {
		return &ValidationError{
			Field:   l.config.StartField,
			Message: fmt.Sprintf("must not be more than %d year(s) in the future", l.config.MaxFutureYears),
		}
	}
	return nil
}

func (l *IntervalLedger) load(ctx context.Context, s IntervalStore, subjectID SubjectID) ([]Interval, error) {
	exists, err := s.SubjectExists(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &NotFoundError{Kind: l.config.SubjectKind, ID: string(subjectID)}
	}
	list, err := s.ListIntervals(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Start.After(list[j].Start) })
	return list, nil
}

// neighbours returns the closest intervals strictly before and strictly
// after d, ignoring exclude.
func neighbours(work []*Interval, d Date, exclude IntervalID) (pred, succ *Interval) {
	for _, iv := range work {
		if iv.ID == exclude {
			continue
		}
		switch {
		case iv.Start.Before(d):
			if pred == nil || iv.Start.After(pred.Start) {
				pred = iv
			}
		case iv.Start.After(d):
			if succ == nil || iv.Start.Before(succ.Start) {
				succ = iv
			}
		}
	}
	return pred, succ
}

func dayBefore(next *Interval) *Date {
	if next == nil {
		return nil
	}
	return next.Start.AddDays(-1).Ptr()
}

func hasStart(list []Interval, d Date, exclude IntervalID) bool {
	for _, iv := range list {
		if iv.ID != exclude && iv.Start.Equal(d) {
			return true
		}
	}
	return false
}

func findInterval(work []*Interval, id IntervalID) *Interval {
	for _, iv := range work {
		if iv.ID == id {
			return iv
		}
	}
	return nil
}

func cloneIntervals(list []Interval) []*Interval {
	out := make([]*Interval, len(list))
	for i := range list {
		iv := list[i]
		if iv.End != nil {
			iv.End = iv.End.Ptr()
		}
		out[i] = &iv
	}
	return out
}

// applyWrites persists every interval of work that differs from before,
// plus the optional inserted one. Closed intervals are written first.
func applyWrites(ctx context.Context, s IntervalStore, before []Interval, work []*Interval, inserted *Interval) error {
	original := make(map[IntervalID]Interval, len(before))
	for _, iv := range before {
		original[iv.ID] = iv
	}

	type write struct {
		iv     Interval
		insert bool
	}
	var writes []write
	for _, iv := range work {
		if orig, ok := original[iv.ID]; ok && sameInterval(orig, *iv) {
			continue
		}
		writes = append(writes, write{iv: *iv})
	}
	if inserted != nil {
		writes = append(writes, write{iv: *inserted, insert: true})
	}
	sort.SliceStable(writes, func(i, j int) bool {
		return !writes[i].iv.IsCurrent() && writes[j].iv.IsCurrent()
	})

	for _, w := range writes {
		var err error
		if w.insert {
			err = s.InsertInterval(ctx, w.iv)
		} else {
			err = s.UpdateInterval(ctx, w.iv)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sameInterval(a, b Interval) bool {
	if !a.Value.Equal(b.Value) || !a.Start.Equal(b.Start) || a.Note != b.Note {
		return false
	}
	if a.End == nil || b.End == nil {
		return a.End == nil && b.End == nil
	}
	return a.End.Equal(*b.End)
}
