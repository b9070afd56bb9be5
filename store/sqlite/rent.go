package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jtbgroup/immocare-sub000/generic"
)

// =============================================================================
// RENT INTERVALS (generic.IntervalStore interface)
// =============================================================================

const intervalColumns = `id, housing_unit_id, monthly_rent, effective_from, effective_to, notes, created_at`

// SubjectExists reports whether the housing unit exists.
func (c *conn) SubjectExists(ctx context.Context, subjectID generic.SubjectID) (bool, error) {
	return c.HousingUnitExists(ctx, string(subjectID))
}

// ListIntervals returns the rents of a unit, most recent start first.
func (c *conn) ListIntervals(ctx context.Context, subjectID generic.SubjectID) ([]generic.Interval, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT "+intervalColumns+" FROM rent_intervals WHERE housing_unit_id = ? ORDER BY effective_from DESC",
		string(subjectID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rent intervals: %w", err)
	}
	defer rows.Close()

	var intervals []generic.Interval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}

// GetInterval retrieves a rent interval by ID.
func (c *conn) GetInterval(ctx context.Context, id generic.IntervalID) (*generic.Interval, error) {
	row := c.q.QueryRowContext(ctx,
		"SELECT "+intervalColumns+" FROM rent_intervals WHERE id = ?",
		string(id),
	)
	iv, err := scanInterval(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// InsertInterval adds a rent interval.
func (c *conn) InsertInterval(ctx context.Context, iv generic.Interval) error {
	query := `
		INSERT INTO rent_intervals (` + intervalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.q.ExecContext(ctx, query,
		string(iv.ID),
		string(iv.SubjectID),
		iv.Value.Value.String(),
		iv.Start.String(),
		nullDate(iv.End),
		iv.Note,
		formatTime(iv.CreatedAt),
	)
	if err != nil {
		return intervalWriteError(iv, err)
	}
	return nil
}

// UpdateInterval rewrites amount, dates and notes of a rent interval.
func (c *conn) UpdateInterval(ctx context.Context, iv generic.Interval) error {
	query := `
		UPDATE rent_intervals
		SET monthly_rent = ?, effective_from = ?, effective_to = ?, notes = ?
		WHERE id = ?
	`
	res, err := c.q.ExecContext(ctx, query,
		iv.Value.Value.String(),
		iv.Start.String(),
		nullDate(iv.End),
		iv.Note,
		string(iv.ID),
	)
	if err != nil {
		return intervalWriteError(iv, err)
	}
	return affected(res, "rent", string(iv.ID))
}

// DeleteInterval removes a rent interval.
func (c *conn) DeleteInterval(ctx context.Context, id generic.IntervalID) error {
	_, err := c.q.ExecContext(ctx, "DELETE FROM rent_intervals WHERE id = ?", string(id))
	return err
}

func scanInterval(row scanner) (generic.Interval, error) {
	var (
		iv                    generic.Interval
		id, subjectID, amount string
		start, notes, created string
		end                   sql.NullString
	)
	if err := row.Scan(&id, &subjectID, &amount, &start, &end, &notes, &created); err != nil {
		return iv, err
	}

	value, err := generic.ParseMoney(amount)
	if err != nil {
		return iv, fmt.Errorf("rent interval %s: %w", id, err)
	}
	startDate, err := generic.ParseDate(start)
	if err != nil {
		return iv, fmt.Errorf("rent interval %s: %w", id, err)
	}
	endDate, err := parseNullDate(end)
	if err != nil {
		return iv, fmt.Errorf("rent interval %s: %w", id, err)
	}

	iv.ID = generic.IntervalID(id)
	iv.SubjectID = generic.SubjectID(subjectID)
	iv.Value = value
	iv.Start = startDate
	iv.End = endDate
	iv.Note = notes
	if iv.CreatedAt, err = parseTime(created); err != nil {
		return iv, fmt.Errorf("rent interval %s: %w", id, err)
	}
	return iv, nil
}

// intervalWriteError translates index violations into the errors the
// ledger documents.
func intervalWriteError(iv generic.Interval, err error) error {
	switch {
	case isConstraintOn(err, "rent_intervals.effective_from"):
		return &generic.DuplicateStartError{SubjectID: iv.SubjectID, Start: iv.Start}
	case isConstraintOn(err, "rent_intervals.housing_unit_id"):
		return &generic.ConflictError{Message: fmt.Sprintf("housing unit %s already has an open-ended rent", iv.SubjectID)}
	}
	return fmt.Errorf("failed to write rent interval: %w", err)
}
