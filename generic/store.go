/*
store.go - Persistence interface for interval sequences

PURPOSE:
  Defines the interface between the interval ledger and the database.
  The store is deliberately dumb: it reads and writes rows. Neighbour
  adjustment, ordering of writes and every invariant check live in
  ledger.go, so all implementations behave identically.

KEY INTERFACES:
  IntervalStore:   Row-level access to intervals of a subject
  IntervalTxStore: Runs a function inside one atomic transaction

CONSTRAINTS A STORE MAY ENFORCE:
  Implementations are expected to reject, at write time:
  - two intervals of one subject with the same start date
    (DuplicateStartError)
  - two open-ended intervals for one subject (ConflictError)
  The ledger orders its writes so these never fire mid-operation.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, unique indexes back the constraints
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level interface using IntervalStore
*/
package generic

import "context"

// =============================================================================
// INTERVAL STORE
// =============================================================================

// IntervalStore handles persistence of interval records.
type IntervalStore interface {
	// SubjectExists reports whether the owning entity exists.
	SubjectExists(ctx context.Context, subjectID SubjectID) (bool, error)

	// ListIntervals returns all intervals of a subject, start date descending.
	ListIntervals(ctx context.Context, subjectID SubjectID) ([]Interval, error)

	// GetInterval returns nil, nil when the id is unknown.
	GetInterval(ctx context.Context, id IntervalID) (*Interval, error)

	InsertInterval(ctx context.Context, iv Interval) error

	// UpdateInterval rewrites value, start, end and note of an existing row.
	UpdateInterval(ctx context.Context, iv Interval) error

	DeleteInterval(ctx context.Context, id IntervalID) error
}

// =============================================================================
// TRANSACTIONAL STORE - For atomic neighbour adjustment
// =============================================================================

// IntervalTxStore wraps IntervalStore with transaction support.
type IntervalTxStore interface {
	IntervalStore

	// WithIntervalTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithIntervalTx(ctx context.Context, fn func(IntervalStore) error) error
}
