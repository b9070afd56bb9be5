/*
alerts.go - Indexation and end-of-notice reminders

PURPOSE:
  One function, Evaluate, decides for a lease and a reference day whether
  a reminder is due. The single-lease view and the batch alert listing
  both go through it, so they can never disagree.

RULES:
  End of notice:
    deadline = end date - notice period months
    due      = today >= deadline
    No status check: callers choose which leases to evaluate.

  Indexation:
    anniversary = start month/day in today's year, or next year when that
                  date is more than IndexationNoticeDays in the past
    trigger     = anniversary - IndexationNoticeDays
    due         = today >= trigger and no RENT adjustment has an effective
                  date in anniversary's year

EXAMPLE:
  start 2024-02-01, notice days 30, today 2025-01-05
    anniversary 2025-02-01, trigger 2025-01-02 -> due

SEE ALSO:
  - adjustment.go: ExistsForYear
  - service.go: Alerts (batch) and View (single lease)
*/
package lease

import (
	"context"

	"github.com/jtbgroup/immocare-sub000/generic"
)

// AlertType distinguishes the two reminders.
type AlertType string

const (
	AlertIndexation AlertType = "INDEXATION"
	AlertEndNotice  AlertType = "END_NOTICE"
)

// Evaluation is the alert state of one lease on one day.
type Evaluation struct {
	EndNoticeDue       bool
	EndNoticeDeadline  generic.Date
	IndexationDue      bool
	IndexationDeadline generic.Date // the anniversary
	IndexationTrigger  generic.Date
}

// Alert is one due reminder in a batch listing.
type Alert struct {
	LeaseID           string
	HousingUnitID     string
	HousingUnitNumber string
	BuildingName      string
	Type              AlertType
	Deadline          generic.Date
	TenantNames       []string // PRIMARY tenants only
}

// AlertScheduler evaluates reminders. It asks the adjustment ledger whether
// the rent was already indexed, reading through r.
type AlertScheduler struct {
	ledger *AdjustmentLedger
	reader AdjustmentReader
}

func NewAlertScheduler(ledger *AdjustmentLedger, r AdjustmentReader) *AlertScheduler {
	return &AlertScheduler{ledger: ledger, reader: r}
}

// Evaluate computes both reminders of l on today.
func (s *AlertScheduler) Evaluate(ctx context.Context, l *Lease, today generic.Date) (Evaluation, error) {
	var ev Evaluation

	ev.EndNoticeDeadline = EndNoticeDeadline(l)
	ev.EndNoticeDue = today.AfterOrEqual(ev.EndNoticeDeadline)

	ev.IndexationDeadline = IndexationAnniversary(l.StartDate, today, l.IndexationNoticeDays)
	ev.IndexationTrigger = ev.IndexationDeadline.AddDays(-l.IndexationNoticeDays)
	if today.Before(ev.IndexationTrigger) {
		return ev, nil
	}
	done, err := s.ledger.ExistsForYear(ctx, s.reader, l.ID, FieldRent, ev.IndexationDeadline.Year())
	if err != nil {
		return ev, err
	}
	ev.IndexationDue = !done
	return ev, nil
}

// Alerts turns the due parts of an evaluation into listing entries.
func (s *AlertScheduler) Alerts(ctx context.Context, l *Lease, unit *Unit, today generic.Date) ([]Alert, error) {
	ev, err := s.Evaluate(ctx, l, today)
	if err != nil {
		return nil, err
	}

	base := Alert{LeaseID: l.ID, HousingUnitID: l.HousingUnitID}
	if unit != nil {
		base.HousingUnitNumber = unit.Number
		base.BuildingName = unit.BuildingName
	}
	for _, t := range l.PrimaryTenants() {
		base.TenantNames = append(base.TenantNames, t.FullName())
	}

	var alerts []Alert
	if ev.EndNoticeDue {
		a := base
		a.Type = AlertEndNotice
		a.Deadline = ev.EndNoticeDeadline
		alerts = append(alerts, a)
	}
	if ev.IndexationDue {
		a := base
		a.Type = AlertIndexation
		a.Deadline = ev.IndexationDeadline
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// EndNoticeDeadline is the last day to give notice before the lease ends.
func EndNoticeDeadline(l *Lease) generic.Date {
	return l.EndDate.AddMonths(-l.NoticePeriodMonths)
}

// IndexationAnniversary returns the anniversary of start that the next
// indexation reminder refers to.
func IndexationAnniversary(start, today generic.Date, noticeDays int) generic.Date {
	anniversary := start.InYear(today.Year())
	if generic.DaysBetween(anniversary, today) > noticeDays {
		anniversary = start.InYear(today.Year() + 1)
	}
	return anniversary
}
