/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence interface of the property core with one
  database and one connection. In production the same patterns apply to
  PostgreSQL with minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  generic.IntervalTxStore: Rent intervals of housing units
  lease.TxStore:           Leases, tenant links, rent adjustments
  lease.Directory:         Housing unit and person lookups

CONSTRAINTS BACKED BY INDEXES:
  - idx_rent_intervals_start: one interval per (unit, effective_from)
  - idx_rent_intervals_open:  one open-ended interval per unit
  - idx_leases_open_unit:     one DRAFT or ACTIVE lease per unit
  - lease_tenants primary key: a person appears once per lease
  Violations are translated to the domain errors the services return, so
  a race between two requests ends with the same error a sequential
  caller would get.

KEY TABLES:
  housing_units, persons:  Collaborator records (minimal)
  rent_intervals:          Rent history per unit
  leases, lease_tenants:   Leases and their tenants
  lease_rent_adjustments:  Append-only adjustment log

CONCURRENCY:
  The pool is limited to one connection, so transactions are serialized
  by database/sql. Inside a transaction every query goes through the
  transaction, never through the pool.

USAGE:
  store, err := sqlite.New("./data/immocare.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  rents := rent.NewLedger(store, rent.Config{MaxFutureYears: 1}, logger)
  leases := lease.NewService(store, lease.DefaultConfig(), logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go, lease/store.go: Interface definitions
  - generic/store/memory.go: In-memory interval store for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
)

var (
	_ generic.IntervalTxStore = (*Store)(nil)
	_ lease.TxStore           = (*Store)(nil)
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn carries every read and write method. Store runs them against the
// pool; WithIntervalTx and WithLeaseTx run them against a transaction.
type conn struct {
	q queryer
}

// Store implements all storage interfaces using SQLite.
type Store struct {
	conn
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database lives and dies with it, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	store := &Store{conn: conn{q: db}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS housing_units (
		id TEXT PRIMARY KEY,
		building_name TEXT NOT NULL,
		unit_number TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		last_name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		gsm TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Rent history: contiguous intervals, at most one open-ended
	CREATE TABLE IF NOT EXISTS rent_intervals (
		id TEXT PRIMARY KEY,
		housing_unit_id TEXT NOT NULL REFERENCES housing_units(id),
		monthly_rent TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_rent_intervals_start
		ON rent_intervals(housing_unit_id, effective_from);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_rent_intervals_open
		ON rent_intervals(housing_unit_id) WHERE effective_to IS NULL;

	CREATE TABLE IF NOT EXISTS leases (
		id TEXT PRIMARY KEY,
		housing_unit_id TEXT NOT NULL REFERENCES housing_units(id),
		status TEXT NOT NULL,
		lease_type TEXT NOT NULL,
		signature_date TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		duration_months INTEGER NOT NULL,
		notice_period_months INTEGER NOT NULL,
		indexation_notice_days INTEGER NOT NULL,
		monthly_rent TEXT NOT NULL,
		monthly_charges TEXT NOT NULL,
		charges_type TEXT NOT NULL,
		charges_description TEXT NOT NULL DEFAULT '',
		registration_spf TEXT NOT NULL DEFAULT '',
		registration_region TEXT NOT NULL DEFAULT '',
		deposit_amount TEXT,
		deposit_type TEXT NOT NULL DEFAULT '',
		deposit_reference TEXT NOT NULL DEFAULT '',
		tenant_insurance_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		tenant_insurance_reference TEXT NOT NULL DEFAULT '',
		tenant_insurance_expiry TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One open lease per unit
	CREATE UNIQUE INDEX IF NOT EXISTS idx_leases_open_unit
		ON leases(housing_unit_id) WHERE status IN ('DRAFT', 'ACTIVE');
	CREATE INDEX IF NOT EXISTS idx_leases_status
		ON leases(status);

	CREATE TABLE IF NOT EXISTS lease_tenants (
		lease_id TEXT NOT NULL REFERENCES leases(id),
		person_id TEXT NOT NULL REFERENCES persons(id),
		role TEXT NOT NULL,
		PRIMARY KEY (lease_id, person_id)
	);

	-- Append-only: no UPDATE or DELETE is ever issued on this table
	CREATE TABLE IF NOT EXISTS lease_rent_adjustments (
		id TEXT PRIMARY KEY,
		lease_id TEXT NOT NULL REFERENCES leases(id),
		field TEXT NOT NULL,
		old_value TEXT NOT NULL,
		new_value TEXT NOT NULL,
		reason TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_lease_field_date
		ON lease_rent_adjustments(lease_id, field, effective_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithIntervalTx executes fn within a database transaction.
func (s *Store) WithIntervalTx(ctx context.Context, fn func(generic.IntervalStore) error) error {
	return s.withTx(ctx, func(c *conn) error { return fn(c) })
}

// WithLeaseTx executes fn within a database transaction.
func (s *Store) WithLeaseTx(ctx context.Context, fn func(lease.Store) error) error {
	return s.withTx(ctx, func(c *conn) error { return fn(c) })
}

func (s *Store) withTx(ctx context.Context, fn func(*conn) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&conn{q: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(c *conn) error {
		tables := []string{
			"lease_rent_adjustments", "lease_tenants", "leases",
			"rent_intervals", "persons", "housing_units",
		}
		for _, table := range tables {
			if _, err := c.q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *generic.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return nullString(d.String())
}

func nullMoney(m *generic.Money) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return nullString(m.Value.String())
}

func parseNullDate(ns sql.NullString) (*generic.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseNullMoney(ns sql.NullString) (*generic.Money, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	m, err := generic.ParseMoney(ns.String)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// affected returns a NotFoundError when an UPDATE matched no row.
func affected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &generic.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

// isConstraintOn reports a unique violation whose column list contains col
// ("table.column").
func isConstraintOn(err error, col string) bool {
	return isUniqueConstraintError(err) && strings.Contains(err.Error(), col)
}
