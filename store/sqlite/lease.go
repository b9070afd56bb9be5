package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
)

// =============================================================================
// LEASES (lease.Store interface)
// =============================================================================

const leaseColumns = `id, housing_unit_id, status, lease_type,
	signature_date, start_date, end_date,
	duration_months, notice_period_months, indexation_notice_days,
	monthly_rent, monthly_charges, charges_type, charges_description,
	registration_spf, registration_region,
	deposit_amount, deposit_type, deposit_reference,
	tenant_insurance_confirmed, tenant_insurance_reference, tenant_insurance_expiry,
	created_at, updated_at`

// InsertLease adds a lease. Tenants are inserted separately.
func (c *conn) InsertLease(ctx context.Context, l lease.Lease) error {
	query := `
		INSERT INTO leases (` + leaseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.q.ExecContext(ctx, query,
		l.ID, l.HousingUnitID, string(l.Status), string(l.Type),
		l.SignatureDate.String(), l.StartDate.String(), l.EndDate.String(),
		l.DurationMonths, l.NoticePeriodMonths, l.IndexationNoticeDays,
		l.MonthlyRent.Value.String(), l.MonthlyCharges.Value.String(), string(l.ChargesType), l.ChargesDescription,
		l.RegistrationSPF, l.RegistrationRegion,
		nullMoney(l.DepositAmount), string(l.DepositType), l.DepositReference,
		l.TenantInsuranceConfirmed, l.TenantInsuranceReference, nullDate(l.TenantInsuranceExpiry),
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	if err != nil {
		return leaseWriteError(l, err)
	}
	return nil
}

// UpdateLease rewrites every column of a lease except id, unit and
// created_at.
func (c *conn) UpdateLease(ctx context.Context, l lease.Lease) error {
	query := `
		UPDATE leases SET
			status = ?, lease_type = ?,
			signature_date = ?, start_date = ?, end_date = ?,
			duration_months = ?, notice_period_months = ?, indexation_notice_days = ?,
			monthly_rent = ?, monthly_charges = ?, charges_type = ?, charges_description = ?,
			registration_spf = ?, registration_region = ?,
			deposit_amount = ?, deposit_type = ?, deposit_reference = ?,
			tenant_insurance_confirmed = ?, tenant_insurance_reference = ?, tenant_insurance_expiry = ?,
			updated_at = ?
		WHERE id = ?
	`
	res, err := c.q.ExecContext(ctx, query,
		string(l.Status), string(l.Type),
		l.SignatureDate.String(), l.StartDate.String(), l.EndDate.String(),
		l.DurationMonths, l.NoticePeriodMonths, l.IndexationNoticeDays,
		l.MonthlyRent.Value.String(), l.MonthlyCharges.Value.String(), string(l.ChargesType), l.ChargesDescription,
		l.RegistrationSPF, l.RegistrationRegion,
		nullMoney(l.DepositAmount), string(l.DepositType), l.DepositReference,
		l.TenantInsuranceConfirmed, l.TenantInsuranceReference, nullDate(l.TenantInsuranceExpiry),
		formatTime(l.UpdatedAt),
		l.ID,
	)
	if err != nil {
		return leaseWriteError(l, err)
	}
	return affected(res, "lease", l.ID)
}

// GetLease retrieves a lease with its tenants.
func (c *conn) GetLease(ctx context.Context, id string) (*lease.Lease, error) {
	row := c.q.QueryRowContext(ctx, "SELECT "+leaseColumns+" FROM leases WHERE id = ?", id)
	l, err := scanLease(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if l.Tenants, err = c.listTenants(ctx, l.ID); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLeasesByUnit returns the leases of a unit, most recent start first.
func (c *conn) ListLeasesByUnit(ctx context.Context, unitID string) ([]lease.Lease, error) {
	return c.queryLeases(ctx,
		"SELECT "+leaseColumns+" FROM leases WHERE housing_unit_id = ? ORDER BY start_date DESC, created_at DESC",
		unitID)
}

// ListLeasesByStatus returns the leases in a status, by start date.
func (c *conn) ListLeasesByStatus(ctx context.Context, status lease.Status) ([]lease.Lease, error) {
	return c.queryLeases(ctx,
		"SELECT "+leaseColumns+" FROM leases WHERE status = ? ORDER BY start_date, id",
		string(status))
}

// HasOpenLease reports whether the unit has a DRAFT or ACTIVE lease other
// than excludeLeaseID.
func (c *conn) HasOpenLease(ctx context.Context, unitID, excludeLeaseID string) (bool, error) {
	var exists bool
	err := c.q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM leases
			WHERE housing_unit_id = ? AND status IN ('DRAFT', 'ACTIVE') AND id <> ?
		)`,
		unitID, excludeLeaseID,
	).Scan(&exists)
	return exists, err
}

func (c *conn) queryLeases(ctx context.Context, query string, args ...any) ([]lease.Lease, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leases: %w", err)
	}

	var leases []lease.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		leases = append(leases, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// Tenants are read after the cursor is closed: the pool has a single
	// connection.
	rows.Close()

	for i := range leases {
		if leases[i].Tenants, err = c.listTenants(ctx, leases[i].ID); err != nil {
			return nil, err
		}
	}
	return leases, nil
}

func scanLease(row scanner) (lease.Lease, error) {
	var (
		l                              lease.Lease
		status, leaseType, chargesType string
		depositType                    string
		signature, start, end          string
		rent, charges                  string
		deposit, insuranceExpiry       sql.NullString
		createdAt, updatedAt           string
	)
	err := row.Scan(
		&l.ID, &l.HousingUnitID, &status, &leaseType,
		&signature, &start, &end,
		&l.DurationMonths, &l.NoticePeriodMonths, &l.IndexationNoticeDays,
		&rent, &charges, &chargesType, &l.ChargesDescription,
		&l.RegistrationSPF, &l.RegistrationRegion,
		&deposit, &depositType, &l.DepositReference,
		&l.TenantInsuranceConfirmed, &l.TenantInsuranceReference, &insuranceExpiry,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return l, err
	}

	l.Status = lease.Status(status)
	l.Type = lease.Type(leaseType)
	l.ChargesType = lease.ChargesType(chargesType)
	l.DepositType = lease.DepositType(depositType)
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return l, fmt.Errorf("lease %s: %w", l.ID, err)
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return l, fmt.Errorf("lease %s: %w", l.ID, err)
	}

	dates := []struct {
		dst *generic.Date
		src string
	}{{&l.SignatureDate, signature}, {&l.StartDate, start}, {&l.EndDate, end}}
	for _, d := range dates {
		if *d.dst, err = generic.ParseDate(d.src); err != nil {
			return l, fmt.Errorf("lease %s: %w", l.ID, err)
		}
	}
	if l.MonthlyRent, err = generic.ParseMoney(rent); err != nil {
		return l, fmt.Errorf("lease %s: %w", l.ID, err)
	}
	if l.MonthlyCharges, err = generic.ParseMoney(charges); err != nil {
		return l, fmt.Errorf("lease %s: %w", l.ID, err)
	}
	if l.DepositAmount, err = parseNullMoney(deposit); err != nil {
		return l, fmt.Errorf("lease %s: %w", l.ID, err)
	}
	if l.TenantInsuranceExpiry, err = parseNullDate(insuranceExpiry); err != nil {
		return l, fmt.Errorf("lease %s: %w", l.ID, err)
	}
	return l, nil
}

func leaseWriteError(l lease.Lease, err error) error {
	if isConstraintOn(err, "leases.housing_unit_id") {
		return &lease.OverlapError{HousingUnitID: l.HousingUnitID}
	}
	return fmt.Errorf("failed to write lease: %w", err)
}

// =============================================================================
// TENANTS
// =============================================================================

// InsertTenant links a person to a lease.
func (c *conn) InsertTenant(ctx context.Context, leaseID string, t lease.Tenant) error {
	_, err := c.q.ExecContext(ctx,
		"INSERT INTO lease_tenants (lease_id, person_id, role) VALUES (?, ?, ?)",
		leaseID, t.PersonID, string(t.Role),
	)
	if isUniqueConstraintError(err) {
		return &lease.DuplicateTenantError{LeaseID: leaseID, PersonID: t.PersonID}
	}
	return err
}

// DeleteTenant unlinks a person from a lease.
func (c *conn) DeleteTenant(ctx context.Context, leaseID, personID string) error {
	_, err := c.q.ExecContext(ctx,
		"DELETE FROM lease_tenants WHERE lease_id = ? AND person_id = ?",
		leaseID, personID,
	)
	return err
}

// listTenants returns the tenants of a lease in insertion order, with
// person names joined in.
func (c *conn) listTenants(ctx context.Context, leaseID string) ([]lease.Tenant, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT lt.person_id, lt.role, p.last_name, p.first_name, p.email, p.gsm
		FROM lease_tenants lt
		JOIN persons p ON p.id = lt.person_id
		WHERE lt.lease_id = ?
		ORDER BY lt.rowid`,
		leaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []lease.Tenant
	for rows.Next() {
		var t lease.Tenant
		var role string
		if err := rows.Scan(&t.PersonID, &role, &t.LastName, &t.FirstName, &t.Email, &t.GSM); err != nil {
			return nil, err
		}
		t.Role = lease.TenantRole(role)
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// =============================================================================
// RENT ADJUSTMENTS (append-only)
// =============================================================================

// InsertAdjustment appends an adjustment to the log.
func (c *conn) InsertAdjustment(ctx context.Context, a lease.Adjustment) error {
	query := `
		INSERT INTO lease_rent_adjustments
		(id, lease_id, field, old_value, new_value, reason, effective_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.q.ExecContext(ctx, query,
		a.ID, a.LeaseID, string(a.Field),
		a.OldValue.Value.String(), a.NewValue.Value.String(),
		a.Reason, a.EffectiveDate.String(), formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append adjustment: %w", err)
	}
	return nil
}

// ListAdjustments returns the adjustments of a lease, newest effective
// date first.
func (c *conn) ListAdjustments(ctx context.Context, leaseID string) ([]lease.Adjustment, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, lease_id, field, old_value, new_value, reason, effective_date, created_at
		FROM lease_rent_adjustments
		WHERE lease_id = ?
		ORDER BY effective_date DESC, created_at DESC`,
		leaseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []lease.Adjustment
	for rows.Next() {
		var (
			a                         lease.Adjustment
			field, oldValue, newValue string
			effective, createdAt      string
		)
		if err := rows.Scan(&a.ID, &a.LeaseID, &field, &oldValue, &newValue, &a.Reason, &effective, &createdAt); err != nil {
			return nil, err
		}
		a.Field = lease.Field(field)
		if a.OldValue, err = generic.ParseMoney(oldValue); err != nil {
			return nil, err
		}
		if a.NewValue, err = generic.ParseMoney(newValue); err != nil {
			return nil, err
		}
		if a.EffectiveDate, err = generic.ParseDate(effective); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("adjustment %s: %w", a.ID, err)
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, rows.Err()
}

// AdjustmentExistsForYear implements lease.AdjustmentReader.
func (c *conn) AdjustmentExistsForYear(ctx context.Context, leaseID string, field lease.Field, year int) (bool, error) {
	var exists bool
	err := c.q.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM lease_rent_adjustments
			WHERE lease_id = ? AND field = ? AND substr(effective_date, 1, 4) = ?
		)`,
		leaseID, string(field), fmt.Sprintf("%04d", year),
	).Scan(&exists)
	return exists, err
}
