/*
service.go - Lease operations

PURPOSE:
  Every mutation runs in one store transaction: the reads that guard it
  (overlap, editability, tenant roles) and the writes it makes commit or
  roll back together.

GUARDS:
  Operations on an existing lease load it and check its status before they
  look at the input: a CANCELLED lease reports NotEditableError whatever
  the body. Create has no lease yet and validates its input first.

  Create        unit exists, no other DRAFT/ACTIVE lease on the unit,
                at least one PRIMARY tenant, every person exists
  ChangeStatus  transition allowed; activation re-checks the overlap rule
                and the PRIMARY tenant rule
  Update, AddTenant, RemoveTenant, AdjustRent
                lease is DRAFT or ACTIVE
  RemoveTenant  the last PRIMARY tenant stays

SEE ALSO:
  - status.go: Transition table
  - alerts.go: Evaluation used by View and Alerts
*/
package lease

import (
	"context"
	"sort"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/metrics"
)

// =============================================================================
// INPUTS
// =============================================================================

// Terms are the editable fields of a lease.
type Terms struct {
	SignatureDate        generic.Date `json:"signature_date"`
	StartDate            generic.Date `json:"start_date"`
	Type                 Type         `json:"lease_type"`
	DurationMonths       int          `json:"duration_months"`
	NoticePeriodMonths   int          `json:"notice_period_months"`
	IndexationNoticeDays *int         `json:"indexation_notice_days,omitempty"`

	MonthlyRent        generic.Money `json:"monthly_rent"`
	MonthlyCharges     generic.Money `json:"monthly_charges"`
	ChargesType        ChargesType   `json:"charges_type"`
	ChargesDescription string        `json:"charges_description"`

	RegistrationSPF    string `json:"registration_spf"`
	RegistrationRegion string `json:"registration_region"`

	DepositAmount    *generic.Money `json:"deposit_amount,omitempty"`
	DepositType      DepositType    `json:"deposit_type"`
	DepositReference string         `json:"deposit_reference"`

	TenantInsuranceConfirmed bool          `json:"tenant_insurance_confirmed"`
	TenantInsuranceReference string        `json:"tenant_insurance_reference"`
	TenantInsuranceExpiry    *generic.Date `json:"tenant_insurance_expiry,omitempty"`
}

func (t *Terms) Validate() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.SignatureDate, generic.DateRequired),
		validation.Field(&t.StartDate, generic.DateRequired),
		validation.Field(&t.Type, validation.Required, validation.In(typeValues()...)),
		validation.Field(&t.DurationMonths, validation.Required, validation.Min(1)),
		validation.Field(&t.NoticePeriodMonths, validation.Min(0)),
		validation.Field(&t.IndexationNoticeDays, validation.Min(0)),
		validation.Field(&t.MonthlyRent, generic.PositiveMoney),
		validation.Field(&t.MonthlyCharges, generic.NonNegativeMoney),
		validation.Field(&t.ChargesType, validation.In(ChargesForfait, ChargesProvision)),
		validation.Field(&t.ChargesDescription, validation.Length(0, 500)),
		validation.Field(&t.DepositAmount, generic.NonNegativeMoney),
		validation.Field(&t.DepositType, validation.In(DepositBlockedAccount, DepositBankGuarantee, DepositCPAS, DepositInsurance)),
		validation.Field(&t.RegistrationSPF, validation.Length(0, 50)),
		validation.Field(&t.RegistrationRegion, validation.Length(0, 50)),
	)
}

// defaults fills the zero values that have a type-dependent default.
func (t *Terms) defaults() {
	if t.DurationMonths == 0 {
		t.DurationMonths = DefaultDurationMonths(t.Type)
	}
	if t.ChargesType == "" {
		t.ChargesType = ChargesForfait
	}
}

func typeValues() []interface{} {
	out := make([]interface{}, len(Types))
	for i, t := range Types {
		out[i] = t
	}
	return out
}

// TenantInput links a person with a role.
type TenantInput struct {
	PersonID string     `json:"person_id"`
	Role     TenantRole `json:"role"`
}

func (t TenantInput) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.PersonID, validation.Required),
		validation.Field(&t.Role, validation.Required, validation.In(RolePrimary, RoleCoTenant, RoleGuarantor)),
	)
}

// CreateInput is a new lease with its initial tenants.
type CreateInput struct {
	HousingUnitID string `json:"housing_unit_id"`
	Terms
	Tenants []TenantInput `json:"tenants"`
}

func (in *CreateInput) Validate() error {
	if err := validation.ValidateStruct(in,
		validation.Field(&in.HousingUnitID, validation.Required),
		validation.Field(&in.Tenants, validation.Required),
	); err != nil {
		return err
	}
	if err := in.Terms.Validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(in.Tenants))
	primary := false
	for _, t := range in.Tenants {
		if err := t.Validate(); err != nil {
			return validation.Errors{"tenants": err}
		}
		if seen[t.PersonID] {
			return validation.Errors{"tenants": validation.NewError("validation_duplicate_person", "person "+t.PersonID+" is listed twice")}
		}
		seen[t.PersonID] = true
		primary = primary || t.Role == RolePrimary
	}
	if !primary {
		return validation.Errors{"tenants": validation.NewError("validation_primary_required", "at least one PRIMARY tenant is required")}
	}
	return nil
}

// =============================================================================
// SERVICE
// =============================================================================

// View is a lease with its current alert state and adjustment history.
type View struct {
	Lease       Lease
	Alerts      Evaluation
	Adjustments []Adjustment
}

// Service implements the lease operations.
type Service struct {
	store       TxStore
	config      Config
	adjustments *AdjustmentLedger
	alerts      *AlertScheduler
	log         *zap.Logger
}

func NewService(store TxStore, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.FallbackNoticeMonths <= 0 {
		cfg.FallbackNoticeMonths = DefaultConfig().FallbackNoticeMonths
	}
	adjustments := NewAdjustmentLedger()
	return &Service{
		store:       store,
		config:      cfg,
		adjustments: adjustments,
		alerts:      NewAlertScheduler(adjustments, store),
		log:         log.Named("lease"),
	}
}

// Create stores a new lease as DRAFT, or directly as ACTIVE when activate
// is set.
func (s *Service) Create(ctx context.Context, in CreateInput, activate bool) (*Lease, error) {
	in.Terms.defaults()
	if err := generic.FromValidation(in.Validate()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l := Lease{
		ID:            uuid.NewString(),
		HousingUnitID: in.HousingUnitID,
		Status:        StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,

		IndexationNoticeDays: s.config.DefaultIndexationNoticeDays,
	}
	if activate {
		l.Status = StatusActive
	}
	s.applyTerms(&l, in.Terms)

	err := s.store.WithLeaseTx(ctx, func(tx Store) error {
		if err := s.requireUnit(ctx, tx, in.HousingUnitID); err != nil {
			return err
		}
		open, err := tx.HasOpenLease(ctx, in.HousingUnitID, "")
		if err != nil {
			return err
		}
		if open {
			return &OverlapError{HousingUnitID: in.HousingUnitID}
		}

		tenants := make([]Tenant, 0, len(in.Tenants))
		for _, ti := range in.Tenants {
			t, err := s.resolveTenant(ctx, tx, ti)
			if err != nil {
				return err
			}
			tenants = append(tenants, t)
		}

		if err := tx.InsertLease(ctx, l); err != nil {
			return err
		}
		for _, t := range tenants {
			if err := tx.InsertTenant(ctx, l.ID, t); err != nil {
				return err
			}
		}
		l.Tenants = tenants
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lease created",
		zap.String("lease_id", l.ID),
		zap.String("housing_unit_id", l.HousingUnitID),
		zap.String("status", string(l.Status)),
		zap.Stringer("start_date", l.StartDate),
		zap.Stringer("end_date", l.EndDate))
	if activate {
		metrics.LeaseTransition(string(StatusDraft), string(StatusActive))
	}
	return &l, nil
}

// Update overwrites the terms of a DRAFT or ACTIVE lease.
func (s *Service) Update(ctx context.Context, id string, terms Terms) (*Lease, error) {
	terms.defaults()

	var l *Lease
	err := s.store.WithLeaseTx(ctx, func(tx Store) error {
		var err error
		if l, err = s.editable(ctx, tx, id); err != nil {
			return err
		}
		if err := generic.FromValidation(terms.Validate()); err != nil {
			return err
		}
		s.applyTerms(l, terms)
		l.UpdatedAt = time.Now().UTC()
		return tx.UpdateLease(ctx, *l)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lease updated", zap.String("lease_id", id), zap.Stringer("end_date", l.EndDate))
	return l, nil
}

// ChangeStatus moves a lease to target. target is the raw client value; an
// unknown status name is a validation error, a known but disallowed one an
// InvalidTransitionError.
func (s *Service) ChangeStatus(ctx context.Context, id, target string) (*Lease, error) {
	var (
		l    *Lease
		from Status
	)
	err := s.store.WithLeaseTx(ctx, func(tx Store) error {
		var err error
		if l, err = s.get(ctx, tx, id); err != nil {
			return err
		}
		from = l.Status

		to, ok := ParseStatus(target)
		if !ok {
			return &generic.ValidationError{Field: "status", Message: "unknown lease status " + strconv.Quote(target)}
		}
		next, err := l.Status.Transition(to)
		if err != nil {
			return err
		}

		if next == StatusActive {
			open, err := tx.HasOpenLease(ctx, l.HousingUnitID, l.ID)
			if err != nil {
				return err
			}
			if open {
				return &OverlapError{HousingUnitID: l.HousingUnitID}
			}
			if len(l.PrimaryTenants()) == 0 {
				return ErrNoPrimaryTenant
			}
		}

		l.Status = next
		l.UpdatedAt = time.Now().UTC()
		return tx.UpdateLease(ctx, *l)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lease status changed",
		zap.String("lease_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(l.Status)))
	metrics.LeaseTransition(string(from), string(l.Status))
	return l, nil
}

// AddTenant links a person to a DRAFT or ACTIVE lease.
func (s *Service) AddTenant(ctx context.Context, leaseID string, in TenantInput) (*Lease, error) {
	var l *Lease
	err := s.store.WithLeaseTx(ctx, func(tx Store) error {
		var err error
		if l, err = s.editable(ctx, tx, leaseID); err != nil {
			return err
		}
		if err := generic.FromValidation(in.Validate()); err != nil {
			return err
		}
		if l.Tenant(in.PersonID) != nil {
			return &DuplicateTenantError{LeaseID: leaseID, PersonID: in.PersonID}
		}
		t, err := s.resolveTenant(ctx, tx, in)
		if err != nil {
			return err
		}
		if err := tx.InsertTenant(ctx, leaseID, t); err != nil {
			return err
		}
		l.Tenants = append(l.Tenants, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant added",
		zap.String("lease_id", leaseID),
		zap.String("person_id", in.PersonID),
		zap.String("role", string(in.Role)))
	return l, nil
}

// RemoveTenant unlinks a person. The last PRIMARY tenant cannot be removed.
func (s *Service) RemoveTenant(ctx context.Context, leaseID, personID string) (*Lease, error) {
	var l *Lease
	err := s.store.WithLeaseTx(ctx, func(tx Store) error {
		var err error
		if l, err = s.editable(ctx, tx, leaseID); err != nil {
			return err
		}
		link := l.Tenant(personID)
		if link == nil {
			return &generic.NotFoundError{Kind: "tenant", ID: personID}
		}
		if link.Role == RolePrimary && len(l.PrimaryTenants()) == 1 {
			return ErrLastPrimaryTenant
		}
		if err := tx.DeleteTenant(ctx, leaseID, personID); err != nil {
			return err
		}

		kept := l.Tenants[:0]
		for _, t := range l.Tenants {
			if t.PersonID != personID {
				kept = append(kept, t)
			}
		}
		l.Tenants = kept
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant removed", zap.String("lease_id", leaseID), zap.String("person_id", personID))
	return l, nil
}

// AdjustRent changes rent or charges of a DRAFT or ACTIVE lease and logs
// the change.
func (s *Service) AdjustRent(ctx context.Context, leaseID string, in AdjustmentInput) (*Adjustment, error) {
	var adj *Adjustment
	err := s.store.WithLeaseTx(ctx, func(tx Store) error {
		l, err := s.get(ctx, tx, leaseID)
		if err != nil {
			return err
		}
		adj, err = s.adjustments.Record(ctx, tx, l, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("lease amount adjusted",
		zap.String("lease_id", leaseID),
		zap.String("field", string(adj.Field)),
		zap.Stringer("old_value", adj.OldValue),
		zap.Stringer("new_value", adj.NewValue),
		zap.Stringer("effective_date", adj.EffectiveDate))
	metrics.RentAdjusted(string(adj.Field))
	return adj, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns a lease with its tenants.
func (s *Service) Get(ctx context.Context, id string) (*Lease, error) {
	return s.get(ctx, s.store, id)
}

// View returns a lease with its alert state on today and its adjustments.
// A zero today means the configured clock.
func (s *Service) View(ctx context.Context, id string, today generic.Date) (*View, error) {
	l, err := s.get(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if today.IsZero() {
		today = s.config.today()
	}
	ev, err := s.alerts.Evaluate(ctx, l, today)
	if err != nil {
		return nil, err
	}
	adjustments, err := s.adjustments.History(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return &View{Lease: *l, Alerts: ev, Adjustments: adjustments}, nil
}

// ListByUnit returns every lease of a unit with its alert state.
func (s *Service) ListByUnit(ctx context.Context, unitID string, today generic.Date) ([]View, error) {
	if err := s.requireUnit(ctx, s.store, unitID); err != nil {
		return nil, err
	}
	leases, err := s.store.ListLeasesByUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if today.IsZero() {
		today = s.config.today()
	}

	views := make([]View, 0, len(leases))
	for i := range leases {
		ev, err := s.alerts.Evaluate(ctx, &leases[i], today)
		if err != nil {
			return nil, err
		}
		views = append(views, View{Lease: leases[i], Alerts: ev})
	}
	return views, nil
}

// Adjustments returns the adjustment history of a lease.
func (s *Service) Adjustments(ctx context.Context, leaseID string) ([]Adjustment, error) {
	if _, err := s.get(ctx, s.store, leaseID); err != nil {
		return nil, err
	}
	return s.adjustments.History(ctx, s.store, leaseID)
}

// Alerts lists the due reminders of every ACTIVE lease on today, by
// deadline. A zero today means the configured clock.
func (s *Service) Alerts(ctx context.Context, today generic.Date) ([]Alert, error) {
	if today.IsZero() {
		today = s.config.today()
	}
	leases, err := s.store.ListLeasesByStatus(ctx, StatusActive)
	if err != nil {
		return nil, err
	}

	units := make(map[string]*Unit)
	var alerts []Alert
	for i := range leases {
		l := &leases[i]
		unit, ok := units[l.HousingUnitID]
		if !ok {
			if unit, err = s.store.GetUnit(ctx, l.HousingUnitID); err != nil {
				return nil, err
			}
			units[l.HousingUnitID] = unit
		}
		due, err := s.alerts.Alerts(ctx, l, unit, today)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, due...)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if !a.Deadline.Equal(b.Deadline) {
			return a.Deadline.Before(b.Deadline)
		}
		if a.LeaseID != b.LeaseID {
			return a.LeaseID < b.LeaseID
		}
		return a.Type < b.Type
	})

	counts := map[AlertType]int{}
	for _, a := range alerts {
		counts[a.Type]++
	}
	for t, n := range counts {
		metrics.AlertsComputed(string(t), n)
	}
	return alerts, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) applyTerms(l *Lease, t Terms) {
	l.SignatureDate = t.SignatureDate
	l.StartDate = t.StartDate
	l.Type = t.Type
	l.DurationMonths = t.DurationMonths
	l.NoticePeriodMonths = t.NoticePeriodMonths
	if l.NoticePeriodMonths == 0 {
		l.NoticePeriodMonths = s.config.NoticeMonths(t.Type)
	}
	if t.IndexationNoticeDays != nil {
		l.IndexationNoticeDays = *t.IndexationNoticeDays
	}
	l.MonthlyRent = t.MonthlyRent
	l.MonthlyCharges = t.MonthlyCharges
	l.ChargesType = t.ChargesType
	l.ChargesDescription = t.ChargesDescription
	l.RegistrationSPF = t.RegistrationSPF
	l.RegistrationRegion = t.RegistrationRegion
	l.DepositAmount = t.DepositAmount
	l.DepositType = t.DepositType
	l.DepositReference = t.DepositReference
	l.TenantInsuranceConfirmed = t.TenantInsuranceConfirmed
	l.TenantInsuranceReference = t.TenantInsuranceReference
	l.TenantInsuranceExpiry = t.TenantInsuranceExpiry
	l.RecomputeEndDate()
}

func (s *Service) get(ctx context.Context, st Store, id string) (*Lease, error) {
	l, err := st.GetLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, &generic.NotFoundError{Kind: "lease", ID: id}
	}
	return l, nil
}

func (s *Service) editable(ctx context.Context, st Store, id string) (*Lease, error) {
	l, err := s.get(ctx, st, id)
	if err != nil {
		return nil, err
	}
	if !l.Status.IsEditable() {
		return nil, &NotEditableError{LeaseID: l.ID, Status: l.Status}
	}
	return l, nil
}

func (s *Service) requireUnit(ctx context.Context, st Store, unitID string) error {
	ok, err := st.HousingUnitExists(ctx, unitID)
	if err != nil {
		return err
	}
	if !ok {
		return &generic.NotFoundError{Kind: "housing unit", ID: unitID}
	}
	return nil
}

func (s *Service) resolveTenant(ctx context.Context, st Store, in TenantInput) (Tenant, error) {
	p, err := st.GetPerson(ctx, in.PersonID)
	if err != nil {
		return Tenant{}, err
	}
	if p == nil {
		return Tenant{}, &generic.NotFoundError{Kind: "person", ID: in.PersonID}
	}
	return Tenant{
		PersonID:  p.ID,
		Role:      in.Role,
		LastName:  p.LastName,
		FirstName: p.FirstName,
		Email:     p.Email,
		GSM:       p.GSM,
	}, nil
}
