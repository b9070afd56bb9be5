package lease

import "strings"

// =============================================================================
// STATUS STATE MACHINE
// =============================================================================
//
//   DRAFT ──► ACTIVE ──► FINISHED
//     │         │
//     └────► CANCELLED ◄┘
//
// FINISHED and CANCELLED are terminal. A lease can only be edited (fields,
// tenants, adjustments) while DRAFT or ACTIVE.

// Status is the lifecycle state of a lease.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusDraft:  {StatusActive, StatusCancelled},
	StatusActive: {StatusFinished, StatusCancelled},
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusActive, StatusFinished, StatusCancelled:
		return st, true
	}
	return "", false
}

// CanTransitionTo reports whether the table allows s -> to.
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates s -> to and returns the new status.
func (s Status) Transition(to Status) (Status, error) {
	if !s.CanTransitionTo(to) {
		return s, &InvalidTransitionError{From: s, To: to}
	}
	return to, nil
}

// IsEditable is true while the lease may still be changed.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusActive
}
