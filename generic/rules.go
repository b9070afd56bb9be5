package generic

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ozzo-validation's Required does not understand Date or Money, so the
// engine ships its own rules for them.

var (
	// DateRequired fails on the zero Date.
	DateRequired = validation.By(func(value interface{}) error {
		if d, ok := value.(Date); ok && d.IsZero() {
			return errors.New("is required")
		}
		if d, ok := value.(*Date); ok && (d == nil || d.IsZero()) {
			return errors.New("is required")
		}
		return nil
	})

	// PositiveMoney fails unless the amount is strictly greater than zero.
	PositiveMoney = validation.By(func(value interface{}) error {
		switch m := value.(type) {
		case Money:
			if !m.IsPositive() {
				return errors.New("must be greater than 0")
			}
		case *Money:
			if m != nil && !m.IsPositive() {
				return errors.New("must be greater than 0")
			}
		}
		return nil
	})

	// NonNegativeMoney fails on amounts below zero.
	NonNegativeMoney = validation.By(func(value interface{}) error {
		switch m := value.(type) {
		case Money:
			if m.Value.IsNegative() {
				return errors.New("must not be negative")
			}
		case *Money:
			if m != nil && m.Value.IsNegative() {
				return errors.New("must not be negative")
			}
		}
		return nil
	})
)
