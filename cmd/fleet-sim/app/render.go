package app

import (
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/projection"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
)

// renderState prints the fleet, the alert list and the overview of s.
func renderState(w io.Writer, s store.State) {
	vehicles := uitable.New()
	vehicles.MaxColWidth = 40
	vehicles.AddRow("ID", "NAME", "STATUS", "SPEED", "BATTERY", "TEMP", "DISTANCE", "SELECTED")
	selected, _ := projection.SelectedVehicle(s)
	for _, v := range projection.FilteredSortedVehicles(s) {
		mark := ""
		if v.ID == selected.ID {
			mark = "*"
		}
		vehicles.AddRow(v.ID, v.Name, v.Status,
			fmt.Sprintf("%.0f km/h", v.Speed),
			fmt.Sprintf("%.1f%%", v.Battery),
			fmt.Sprintf("%.1f°C", v.Temperature),
			fmt.Sprintf("%.1f km", v.Distance),
			mark,
		)
	}
	fmt.Fprintln(w, vehicles)
	fmt.Fprintln(w)

	alerts := uitable.New()
	alerts.MaxColWidth = 60
	alerts.AddRow("TIME", "SEVERITY", "TYPE", "VEHICLE", "MESSAGE")
	for _, a := range s.Alerts {
		alerts.AddRow(formatTS(a.TS), a.Severity, a.Kind, a.VehicleID, a.Message)
	}
	fmt.Fprintln(w, alerts)
	fmt.Fprintln(w)

	ov := projection.Summarize(s)
	summary := uitable.New()
	summary.AddRow("Vehicles:", ov.Total)
	summary.AddRow("Average battery:", fmt.Sprintf("%.1f%%", ov.AverageBattery))
	summary.AddRow("Moving / Charging / Idle:", fmt.Sprintf("%d / %d / %d", ov.Moving, ov.Charging, ov.Idle))
	summary.AddRow("Alerts (critical):", fmt.Sprintf("%d (%d)", ov.Alerts, ov.Critical))
	fmt.Fprintln(w, summary)
}

func formatTS(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.TimeOnly)
}

// statusCounts is used for the one-line batch log of a publishing run.
func statusCounts(batch []model.Vehicle) map[model.VehicleStatus]int {
	counts := make(map[model.VehicleStatus]int, len(model.Statuses))
	for _, v := range batch {
		counts[v.Status]++
	}
	return counts
}
