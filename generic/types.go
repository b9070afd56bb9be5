/*
Package generic provides the domain-agnostic core of the rent engine.

PURPOSE:
  This package contains the types and algorithms that do not know about
  leases or housing units: calendar dates, money, error kinds and the
  temporal interval ledger that keeps a gap-free, non-overlapping sequence
  of dated values per subject.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-point amount with two fraction digits on the wire
  - Interval: One historical value valid over an inclusive date range
  - Subject/Interval IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing subjects and intervals
  3. Day granularity: every date is a calendar day, never a timestamp

USAGE:
  rent := generic.MustMoney("850.00")
  iv, err := ledger.Add(ctx, "unit-1", rent, generic.MustParseDate("2024-07-01"), "")

SEE ALSO:
  - ledger.go: Interval ledger operations
  - store.go: Persistence interface for intervals
  - rent/ledger.go: Housing-unit rent wrapper
*/
package generic

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point monetary amount
// =============================================================================

// Money is a monetary amount. It serialises as a JSON number with exactly
// two fraction digits and is stored as its decimal string.
type Money struct {
	Value decimal.Decimal
}

// ParseMoney parses a decimal string such as "850.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{Value: d}, nil
}

// MustMoney is ParseMoney for literals in tests and fixtures.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money  { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) IsPositive() bool   { return m.Value.IsPositive() }
func (m Money) IsZero() bool       { return m.Value.IsZero() }
func (m Money) Equal(o Money) bool { return m.Value.Equal(o.Value) }

// String returns the amount rounded to two fraction digits.
func (m Money) String() string { return m.Value.StringFixed(2) }

// Ptr returns a pointer to a copy of m, for optional amounts.
func (m Money) Ptr() *Money { return &m }

// Float64 is for presentation layers (spreadsheets) only.
func (m Money) Float64() float64 {
	f, _ := m.Value.Round(2).Float64()
	return f
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both 850.5 and "850.50".
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

// SubjectID identifies the owner of an interval sequence (a housing unit).
type SubjectID string

// IntervalID identifies a single interval record.
type IntervalID string

// =============================================================================
// INTERVAL - One dated value in a subject's sequence
// =============================================================================

// Interval is one historical value valid over [Start, End]. A nil End marks
// the current interval; a subject has at most one and it has the latest Start.
type Interval struct {
	ID        IntervalID
	SubjectID SubjectID
	Value     Money
	Start     Date
	End       *Date
	Note      string
	CreatedAt time.Time
}

// Period returns the validity range of the interval.
func (iv Interval) Period() Period { return Period{Start: iv.Start, End: iv.End} }

// IsCurrent reports whether the interval is open-ended.
func (iv Interval) IsCurrent() bool { return iv.End == nil }
