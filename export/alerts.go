// Package export renders lease alerts as an Excel workbook.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jtbgroup/immocare-sub000/generic"
	"github.com/jtbgroup/immocare-sub000/lease"
)

const (
	summarySheet = "Summary"
	alertsSheet  = "Alerts"
	alertsHeader = 1
)

var alertColumns = []string{
	"Deadline",
	"Type",
	"Building",
	"Unit",
	"Tenants",
	"Lease ID",
}

// AlertGenerator writes alert listings to XLSX.
type AlertGenerator struct{}

func NewAlertGenerator() *AlertGenerator {
	return &AlertGenerator{}
}

// Generate returns the workbook bytes: a summary sheet with counts per
// type and one row per alert, in the given order.
func (g *AlertGenerator) Generate(alerts []lease.Alert, today generic.Date) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, alerts, today)

	if _, err := file.NewSheet(alertsSheet); err != nil {
		return nil, err
	}
	if err := g.writeAlerts(file, alerts); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *AlertGenerator) writeSummary(file *excelize.File, alerts []lease.Alert, today generic.Date) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	counts := map[lease.AlertType]int{}
	for _, a := range alerts {
		counts[a.Type]++
	}

	set("A1", "Reference date")
	set("B1", today.String())
	set("A2", "Indexation reminders")
	set("B2", counts[lease.AlertIndexation])
	set("A3", "End-of-notice reminders")
	set("B3", counts[lease.AlertEndNotice])
	set("A4", "Total")
	set("B4", len(alerts))

	_ = file.SetColWidth(summarySheet, "A", "A", 28)
	_ = file.SetColWidth(summarySheet, "B", "B", 14)
}

func (g *AlertGenerator) writeAlerts(file *excelize.File, alerts []lease.Alert) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(alertsSheet, cell, value)
	}

	for i, header := range alertColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, alertsHeader)
		if err != nil {
			return err
		}
		set(cell, header)
	}

	for i, a := range alerts {
		row := alertsHeader + 1 + i
		set(fmt.Sprintf("A%d", row), a.Deadline.String())
		set(fmt.Sprintf("B%d", row), alertLabel(a.Type))
		set(fmt.Sprintf("C%d", row), a.BuildingName)
		set(fmt.Sprintf("D%d", row), a.HousingUnitNumber)
		set(fmt.Sprintf("E%d", row), strings.Join(a.TenantNames, ", "))
		set(fmt.Sprintf("F%d", row), a.LeaseID)
	}

	_ = file.SetColWidth(alertsSheet, "A", "B", 16)
	_ = file.SetColWidth(alertsSheet, "C", "C", 28)
	_ = file.SetColWidth(alertsSheet, "D", "D", 10)
	_ = file.SetColWidth(alertsSheet, "E", "E", 40)
	_ = file.SetColWidth(alertsSheet, "F", "F", 38)
	return nil
}

func alertLabel(t lease.AlertType) string {
	switch t {
	case lease.AlertIndexation:
		return "Indexation"
	case lease.AlertEndNotice:
		return "End of notice"
	default:
		return string(t)
	}
}
