/*
Package lease implements the lease lifecycle of a housing unit.

PURPOSE:
  A lease binds tenants to a housing unit for a number of months, with a
  monthly rent and charges. This package owns:
  - the status state machine (status.go)
  - tenant-role invariants and the one-open-lease-per-unit rule (service.go)
  - the append-only rent/charges adjustment log (adjustment.go)
  - date-driven reminders for indexation and end of notice (alerts.go)

KEY TYPES IN THIS FILE (types.go):
  - Lease, Tenant, Adjustment: persisted records
  - Type, TenantRole, ChargesType, DepositType, Field: closed enumerations

SEE ALSO:
  - status.go: Transition table
  - service.go: Operations
  - store/sqlite/lease.go: Persistence
*/
package lease

import (
	"fmt"
	"time"

	"github.com/jtbgroup/immocare-sub000/generic"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// Type is the legal regime of a lease. It drives the default notice period.
type Type string

const (
	TypeShortTerm       Type = "SHORT_TERM"
	TypeMainResidence3Y Type = "MAIN_RESIDENCE_3Y"
	TypeMainResidence6Y Type = "MAIN_RESIDENCE_6Y"
	TypeMainResidence9Y Type = "MAIN_RESIDENCE_9Y"
	TypeStudent         Type = "STUDENT"
	TypeGliding         Type = "GLIDING"
	TypeCommercial      Type = "COMMERCIAL"
)

// Types lists every lease type, in display order.
var Types = []Type{
	TypeShortTerm, TypeMainResidence3Y, TypeMainResidence6Y, TypeMainResidence9Y,
	TypeStudent, TypeGliding, TypeCommercial,
}

// TenantRole is the role of a person on a lease.
type TenantRole string

const (
	RolePrimary   TenantRole = "PRIMARY"
	RoleCoTenant  TenantRole = "CO_TENANT"
	RoleGuarantor TenantRole = "GUARANTOR"
)

// ChargesType tells whether charges are a flat fee or an advance on actual costs.
type ChargesType string

const (
	ChargesForfait   ChargesType = "FORFAIT"
	ChargesProvision ChargesType = "PROVISION"
)

type DepositType string

const (
	DepositBlockedAccount DepositType = "BLOCKED_ACCOUNT"
	DepositBankGuarantee  DepositType = "BANK_GUARANTEE"
	DepositCPAS           DepositType = "CPAS"
	DepositInsurance      DepositType = "INSURANCE"
)

// Field is a monetary lease field that can be adjusted in place.
type Field string

const (
	FieldRent    Field = "RENT"
	FieldCharges Field = "CHARGES"
)

// =============================================================================
// LEASE
// =============================================================================

// Tenant links a person to a lease. Names are joined in for display.
type Tenant struct {
	PersonID  string
	Role      TenantRole
	LastName  string
	FirstName string
	Email     string
	GSM       string
}

// FullName returns "Last First", the order used on alert listings.
func (t Tenant) FullName() string {
	switch {
	case t.LastName == "":
		return t.FirstName
	case t.FirstName == "":
		return t.LastName
	}
	return t.LastName + " " + t.FirstName
}

// Lease is the persisted lease with its tenants.
type Lease struct {
	ID            string
	HousingUnitID string
	Status        Status
	Type          Type

	SignatureDate        generic.Date
	StartDate            generic.Date
	EndDate              generic.Date // derived: StartDate + DurationMonths
	DurationMonths       int
	NoticePeriodMonths   int
	IndexationNoticeDays int

	MonthlyRent        generic.Money
	MonthlyCharges     generic.Money
	ChargesType        ChargesType
	ChargesDescription string

	RegistrationSPF    string
	RegistrationRegion string

	DepositAmount    *generic.Money
	DepositType      DepositType
	DepositReference string

	TenantInsuranceConfirmed bool
	TenantInsuranceReference string
	TenantInsuranceExpiry    *generic.Date

	Tenants []Tenant

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecomputeEndDate restores EndDate = StartDate + DurationMonths.
func (l *Lease) RecomputeEndDate() {
	l.EndDate = l.StartDate.AddMonths(l.DurationMonths)
}

// TotalRent is rent plus charges.
func (l *Lease) TotalRent() generic.Money {
	return l.MonthlyRent.Add(l.MonthlyCharges)
}

// Value returns the current amount of an adjustable field.
func (l *Lease) Value(f Field) (generic.Money, error) {
	switch f {
	case FieldRent:
		return l.MonthlyRent, nil
	case FieldCharges:
		return l.MonthlyCharges, nil
	}
	return generic.Money{}, fmt.Errorf("unknown lease field %q", f)
}

// SetValue overwrites an adjustable field.
func (l *Lease) SetValue(f Field, v generic.Money) error {
	switch f {
	case FieldRent:
		l.MonthlyRent = v
	case FieldCharges:
		l.MonthlyCharges = v
	default:
		return fmt.Errorf("unknown lease field %q", f)
	}
	return nil
}

// Tenant returns the link of a person, or nil.
func (l *Lease) Tenant(personID string) *Tenant {
	for i := range l.Tenants {
		if l.Tenants[i].PersonID == personID {
			return &l.Tenants[i]
		}
	}
	return nil
}

// PrimaryTenants returns the PRIMARY links in stored order.
func (l *Lease) PrimaryTenants() []Tenant {
	var out []Tenant
	for _, t := range l.Tenants {
		if t.Role == RolePrimary {
			out = append(out, t)
		}
	}
	return out
}

// =============================================================================
// ADJUSTMENT
// =============================================================================

// Adjustment is one immutable change of rent or charges during a lease.
type Adjustment struct {
	ID            string
	LeaseID       string
	Field         Field
	OldValue      generic.Money
	NewValue      generic.Money
	Reason        string
	EffectiveDate generic.Date
	CreatedAt     time.Time
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Person is the subset of a person record the lease core needs.
type Person struct {
	ID        string
	LastName  string
	FirstName string
	Email     string
	GSM       string
}

// Unit is the subset of a housing unit the lease core needs.
type Unit struct {
	ID           string
	Number       string
	BuildingName string
}
