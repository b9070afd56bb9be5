package lease

import "context"

// =============================================================================
// STORE - Persistence of leases, tenant links and adjustments
// =============================================================================

// AdjustmentReader answers the single question the alert scheduler asks.
type AdjustmentReader interface {
	// AdjustmentExistsForYear reports whether the lease has an adjustment of
	// field with an effective date in the given calendar year.
	AdjustmentExistsForYear(ctx context.Context, leaseID string, field Field, year int) (bool, error)
}

// Directory resolves the collaborators a lease references.
type Directory interface {
	HousingUnitExists(ctx context.Context, unitID string) (bool, error)

	// GetUnit returns nil, nil when the unit does not exist.
	GetUnit(ctx context.Context, unitID string) (*Unit, error)

	// GetPerson returns nil, nil when the person does not exist.
	GetPerson(ctx context.Context, personID string) (*Person, error)
}

// Store handles persistence of leases. Get* methods return nil, nil when
// the record does not exist. Leases are always returned with their tenants.
type Store interface {
	Directory
	AdjustmentReader

	InsertLease(ctx context.Context, l Lease) error
	UpdateLease(ctx context.Context, l Lease) error
	GetLease(ctx context.Context, id string) (*Lease, error)
	ListLeasesByUnit(ctx context.Context, unitID string) ([]Lease, error)

	// ListLeasesByStatus is used with StatusActive for batch alerts.
	ListLeasesByStatus(ctx context.Context, status Status) ([]Lease, error)

	// HasOpenLease reports whether the unit has a DRAFT or ACTIVE lease
	// other than excludeLeaseID.
	HasOpenLease(ctx context.Context, unitID, excludeLeaseID string) (bool, error)

	InsertTenant(ctx context.Context, leaseID string, t Tenant) error
	DeleteTenant(ctx context.Context, leaseID, personID string) error

	// InsertAdjustment appends to the log. There is no update or delete.
	InsertAdjustment(ctx context.Context, a Adjustment) error

	// ListAdjustments returns newest effective date first.
	ListAdjustments(ctx context.Context, leaseID string) ([]Adjustment, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithLeaseTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithLeaseTx(ctx context.Context, fn func(Store) error) error
}
