/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model (generic.Interval, lease.Lease, ...) from the external
  API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

ENCODING:
  Dates are YYYY-MM-DD strings (generic.Date implements TextMarshaler).
  Money is a JSON number with two decimals (generic.Money).

VALIDATION:
  Rent and lease bodies are domain input types (rent.Input,
  lease.CreateInput, ...) and validate themselves. Directory requests are
  validated here with ozzo-validation.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/jtbgroup/immocare-sub000/store/sqlite"
)

// =============================================================================
// DIRECTORY
// =============================================================================

// HousingUnitDTO represents a housing unit in API responses.
type HousingUnitDTO struct {
	ID           string `json:"id"`
	BuildingName string `json:"building_name"`
	UnitNumber   string `json:"unit_number"`
	CreatedAt    string `json:"created_at"`
}

// CreateHousingUnitRequest is the body of POST /housing-units.
type CreateHousingUnitRequest struct {
	ID           string `json:"id"`
	BuildingName string `json:"building_name"`
	UnitNumber   string `json:"unit_number"`
}

func (r *CreateHousingUnitRequest) Validate() error {
	r.BuildingName = strings.TrimSpace(r.BuildingName)
	r.UnitNumber = strings.TrimSpace(r.UnitNumber)
	return validation.ValidateStruct(r,
		validation.Field(&r.BuildingName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.UnitNumber, validation.Required, validation.Length(1, 20)),
	)
}

// PersonDTO represents a person in API responses.
type PersonDTO struct {
	ID        string `json:"id"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Email     string `json:"email,omitempty"`
	GSM       string `json:"gsm,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CreatePersonRequest is the body of POST /persons.
type CreatePersonRequest struct {
	ID        string `json:"id"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	GSM       string `json:"gsm"`
}

func (r *CreatePersonRequest) Validate() error {
	r.LastName = strings.TrimSpace(r.LastName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	return validation.ValidateStruct(r,
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, is.EmailFormat),
	)
}

func toHousingUnitDTO(u sqlite.HousingUnit) HousingUnitDTO {
	return HousingUnitDTO{
		ID:           u.ID,
		BuildingName: u.BuildingName,
		UnitNumber:   u.UnitNumber,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}

func toPersonDTO(p sqlite.Person) PersonDTO {
	return PersonDTO{
		ID:        p.ID,
		LastName:  p.LastName,
		FirstName: p.FirstName,
		Email:     p.Email,
		GSM:       p.GSM,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// RENT
// =============================================================================

// RentDTO is one interval of a unit's rent history.
type RentDTO struct {
	ID             string        `json:"id"`
	HousingUnitID  string        `json:"housing_unit_id"`
	MonthlyRent    generic.Money `json:"monthly_rent"`
	EffectiveFrom  generic.Date  `json:"effective_from"`
	EffectiveTo    *generic.Date `json:"effective_to"`
	Notes          string        `json:"notes,omitempty"`
	DurationMonths int           `json:"duration_months"`
	Current        bool          `json:"current"`
	CreatedAt      string        `json:"created_at"`
}

func toRentDTO(iv generic.Interval, today generic.Date) RentDTO {
	end := today
	if iv.End != nil {
		end = *iv.End
	}
	return RentDTO{
		ID:             string(iv.ID),
		HousingUnitID:  string(iv.SubjectID),
		MonthlyRent:    iv.Value,
		EffectiveFrom:  iv.Start,
		EffectiveTo:    iv.End,
		Notes:          iv.Note,
		DurationMonths: monthsBetween(iv.Start, end),
		Current:        iv.IsCurrent(),
		CreatedAt:      iv.CreatedAt.Format(time.RFC3339),
	}
}

func toRentDTOs(list []generic.Interval, today generic.Date) []RentDTO {
	dtos := make([]RentDTO, len(list))
	for i, iv := range list {
		dtos[i] = toRentDTO(iv, today)
	}
	return dtos
}

// monthsBetween counts whole months from start to end, zero when end is
// before start (a future interval).
func monthsBetween(start, end generic.Date) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// =============================================================================
// LEASES
// =============================================================================

// TenantDTO is one person linked to a lease.
type TenantDTO struct {
	PersonID  string           `json:"person_id"`
	Role      lease.TenantRole `json:"role"`
	LastName  string           `json:"last_name"`
	FirstName string           `json:"first_name"`
	Email     string           `json:"email,omitempty"`
	GSM       string           `json:"gsm,omitempty"`
}

// LeaseAlertsDTO is the alert state embedded in a lease response.
type LeaseAlertsDTO struct {
	IndexationDue      bool         `json:"indexation_alert_active"`
	IndexationDeadline generic.Date `json:"indexation_alert_date"`
	EndNoticeDue       bool         `json:"end_notice_alert_active"`
	EndNoticeDeadline  generic.Date `json:"end_notice_alert_date"`
}

// LeaseDTO represents a lease in API responses.
type LeaseDTO struct {
	ID            string       `json:"id"`
	HousingUnitID string       `json:"housing_unit_id"`
	Status        lease.Status `json:"status"`

	lease.Terms
	EndDate   generic.Date  `json:"end_date"`
	TotalRent generic.Money `json:"total_rent"`

	Tenants     []TenantDTO     `json:"tenants"`
	Alerts      LeaseAlertsDTO  `json:"alerts"`
	Adjustments []AdjustmentDTO `json:"rent_adjustments"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AdjustmentDTO is one entry of a lease's adjustment history.
type AdjustmentDTO struct {
	ID            string        `json:"id"`
	LeaseID       string        `json:"lease_id"`
	Field         lease.Field   `json:"field"`
	OldValue      generic.Money `json:"old_value"`
	NewValue      generic.Money `json:"new_value"`
	Reason        string        `json:"reason"`
	EffectiveDate generic.Date  `json:"effective_date"`
	CreatedAt     string        `json:"created_at"`
}

// AlertDTO is one entry of the batch alert listing.
type AlertDTO struct {
	LeaseID           string          `json:"lease_id"`
	HousingUnitID     string          `json:"housing_unit_id"`
	HousingUnitNumber string          `json:"housing_unit_number"`
	BuildingName      string          `json:"building_name"`
	AlertType         lease.AlertType `json:"alert_type"`
	Deadline          generic.Date    `json:"deadline"`
	TenantNames       []string        `json:"tenant_names"`
}

// StatusChangeRequest is the body of PATCH /leases/{id}/status.
type StatusChangeRequest struct {
	Status string `json:"status"`
}

func toLeaseDTO(v lease.View) LeaseDTO {
	l := v.Lease
	days := l.IndexationNoticeDays
	dto := LeaseDTO{
		ID:            l.ID,
		HousingUnitID: l.HousingUnitID,
		Status:        l.Status,
		Terms: lease.Terms{
			SignatureDate:            l.SignatureDate,
			StartDate:                l.StartDate,
			Type:                     l.Type,
			DurationMonths:           l.DurationMonths,
			NoticePeriodMonths:       l.NoticePeriodMonths,
			IndexationNoticeDays:     &days,
			MonthlyRent:              l.MonthlyRent,
			MonthlyCharges:           l.MonthlyCharges,
			ChargesType:              l.ChargesType,
			ChargesDescription:       l.ChargesDescription,
			RegistrationSPF:          l.RegistrationSPF,
			RegistrationRegion:       l.RegistrationRegion,
			DepositAmount:            l.DepositAmount,
			DepositType:              l.DepositType,
			DepositReference:         l.DepositReference,
			TenantInsuranceConfirmed: l.TenantInsuranceConfirmed,
			TenantInsuranceReference: l.TenantInsuranceReference,
			TenantInsuranceExpiry:    l.TenantInsuranceExpiry,
		},
		EndDate:   l.EndDate,
		TotalRent: l.TotalRent(),
		Tenants:   make([]TenantDTO, len(l.Tenants)),
		Alerts: LeaseAlertsDTO{
			IndexationDue:      v.Alerts.IndexationDue,
			IndexationDeadline: v.Alerts.IndexationDeadline,
			EndNoticeDue:       v.Alerts.EndNoticeDue,
			EndNoticeDeadline:  v.Alerts.EndNoticeDeadline,
		},
		Adjustments: toAdjustmentDTOs(v.Adjustments),
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   l.UpdatedAt.Format(time.RFC3339),
	}
	for i, t := range l.Tenants {
		dto.Tenants[i] = TenantDTO{
			PersonID:  t.PersonID,
			Role:      t.Role,
			LastName:  t.LastName,
			FirstName: t.FirstName,
			Email:     t.Email,
			GSM:       t.GSM,
		}
	}
	return dto
}

func toAdjustmentDTO(a lease.Adjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:            a.ID,
		LeaseID:       a.LeaseID,
		Field:         a.Field,
		OldValue:      a.OldValue,
		NewValue:      a.NewValue,
		Reason:        a.Reason,
		EffectiveDate: a.EffectiveDate,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func toAdjustmentDTOs(list []lease.Adjustment) []AdjustmentDTO {
	dtos := make([]AdjustmentDTO, len(list))
	for i, a := range list {
		dtos[i] = toAdjustmentDTO(a)
	}
	return dtos
}

func ToAlertDTOs(list []lease.Alert) []AlertDTO {
	dtos := make([]AlertDTO, len(list))
	for i, a := range list {
		dtos[i] = AlertDTO{
			LeaseID:           a.LeaseID,
			HousingUnitID:     a.HousingUnitID,
			HousingUnitNumber: a.HousingUnitNumber,
			BuildingName:      a.BuildingName,
			AlertType:         a.Type,
			Deadline:          a.Deadline,
			TenantNames:       a.TenantNames,
		}
		if dtos[i].TenantNames == nil {
			dtos[i].TenantNames = []string{}
		}
	}
	return dtos
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
