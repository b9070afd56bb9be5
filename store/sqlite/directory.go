package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jtbgroup/immocare-sub000/lease"
)

// =============================================================================
// HOUSING UNITS
// =============================================================================

// HousingUnit is a stored housing unit.
type HousingUnit struct {
	ID           string
	BuildingName string
	UnitNumber   string
	CreatedAt    time.Time
}

// SaveHousingUnit inserts or updates a housing unit.
func (c *conn) SaveHousingUnit(ctx context.Context, u HousingUnit) error {
	query := `
		INSERT INTO housing_units (id, building_name, unit_number, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			building_name = excluded.building_name,
			unit_number = excluded.unit_number
	`
	_, err := c.q.ExecContext(ctx, query, u.ID, u.BuildingName, u.UnitNumber, formatTime(u.CreatedAt))
	return err
}

// GetHousingUnit retrieves a housing unit by ID.
func (c *conn) GetHousingUnit(ctx context.Context, id string) (*HousingUnit, error) {
	var u HousingUnit
	var createdAt string

	err := c.q.QueryRowContext(ctx,
		"SELECT id, building_name, unit_number, created_at FROM housing_units WHERE id = ?",
		id,
	).Scan(&u.ID, &u.BuildingName, &u.UnitNumber, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("housing unit %s: %w", u.ID, err)
	}
	return &u, nil
}

// ListHousingUnits returns all housing units by building and number.
func (c *conn) ListHousingUnits(ctx context.Context) ([]HousingUnit, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT id, building_name, unit_number, created_at FROM housing_units ORDER BY building_name, unit_number",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []HousingUnit
	for rows.Next() {
		var u HousingUnit
		var createdAt string
		if err := rows.Scan(&u.ID, &u.BuildingName, &u.UnitNumber, &createdAt); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("housing unit %s: %w", u.ID, err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// HousingUnitExists implements lease.Directory.
func (c *conn) HousingUnitExists(ctx context.Context, unitID string) (bool, error) {
	var exists bool
	err := c.q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM housing_units WHERE id = ?)", unitID,
	).Scan(&exists)
	return exists, err
}

// GetUnit implements lease.Directory.
func (c *conn) GetUnit(ctx context.Context, unitID string) (*lease.Unit, error) {
	u, err := c.GetHousingUnit(ctx, unitID)
	if err != nil || u == nil {
		return nil, err
	}
	return &lease.Unit{ID: u.ID, Number: u.UnitNumber, BuildingName: u.BuildingName}, nil
}

// =============================================================================
// PERSONS
// =============================================================================

// Person is a stored person.
type Person struct {
	ID        string
	LastName  string
	FirstName string
	Email     string
	GSM       string
	CreatedAt time.Time
}

// SavePerson inserts or updates a person.
func (c *conn) SavePerson(ctx context.Context, p Person) error {
	query := `
		INSERT INTO persons (id, last_name, first_name, email, gsm, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_name = excluded.last_name,
			first_name = excluded.first_name,
			email = excluded.email,
			gsm = excluded.gsm
	`
	_, err := c.q.ExecContext(ctx, query,
		p.ID, p.LastName, p.FirstName, p.Email, p.GSM, formatTime(p.CreatedAt))
	return err
}

// ListPersons returns all persons by name.
func (c *conn) ListPersons(ctx context.Context) ([]Person, error) {
	rows, err := c.q.QueryContext(ctx,
		"SELECT id, last_name, first_name, email, gsm, created_at FROM persons ORDER BY last_name, first_name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var persons []Person
	for rows.Next() {
		var p Person
		var createdAt string
		if err := rows.Scan(&p.ID, &p.LastName, &p.FirstName, &p.Email, &p.GSM, &createdAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("person %s: %w", p.ID, err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// GetPerson implements lease.Directory.
func (c *conn) GetPerson(ctx context.Context, personID string) (*lease.Person, error) {
	var p lease.Person
	err := c.q.QueryRowContext(ctx,
		"SELECT id, last_name, first_name, email, gsm FROM persons WHERE id = ?",
		personID,
	).Scan(&p.ID, &p.LastName, &p.FirstName, &p.Email, &p.GSM)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
