package lease

import (
	"fmt"

	"github.com/jtbgroup/immocare-sub000/generic"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrLastPrimaryTenant is returned when removing the only PRIMARY tenant.
	ErrLastPrimaryTenant = fmt.Errorf("cannot remove the last PRIMARY tenant from a lease: %w", generic.ErrStateConflict)

	// ErrNoPrimaryTenant is returned when activating a lease without PRIMARY tenant.
	ErrNoPrimaryTenant = fmt.Errorf("cannot activate a lease without a PRIMARY tenant: %w", generic.ErrStateConflict)
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidTransitionError names the rejected source and target status.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return generic.ErrStateConflict }

// NotEditableError is returned for mutations of FINISHED or CANCELLED leases.
type NotEditableError struct {
	LeaseID string
	Status  Status
}

func (e *NotEditableError) Error() string {
	return fmt.Sprintf("lease %s cannot be modified in status %s", e.LeaseID, e.Status)
}

func (e *NotEditableError) Unwrap() error { return generic.ErrStateConflict }

// OverlapError is returned when a unit already has a DRAFT or ACTIVE lease.
type OverlapError struct {
	HousingUnitID string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("housing unit %s already has an active or draft lease", e.HousingUnitID)
}

func (e *OverlapError) Unwrap() error { return generic.ErrStateConflict }

// DuplicateTenantError is returned when a person is linked twice.
type DuplicateTenantError struct {
	LeaseID  string
	PersonID string
}

func (e *DuplicateTenantError) Error() string {
	return fmt.Sprintf("person %s is already a tenant on lease %s", e.PersonID, e.LeaseID)
}

func (e *DuplicateTenantError) Unwrap() error { return generic.ErrStateConflict }
