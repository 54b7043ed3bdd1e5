package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/autopeer-io/evfleet/cmd/fleet-sim/app/options"
	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/simulator"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
)

func TestDryRunPrintsFleet(t *testing.T) {
	opts := options.NewSimOptions()
	opts.RunOptions.DryRun = true
	opts.RunOptions.Ticks = 3
	opts.SimulatorOptions.Vehicles = 3
	opts.SimulatorOptions.Seed = 1

	var out bytes.Buffer
	if err := dryRun(&out, simulator.NewGenerator(opts.SimulatorOptions.ToConfig()), opts); err != nil {
		t.Fatalf("dryRun: %v", err)
	}

	for _, want := range []string{"EV-01", "EV-02", "EV-03", "BATTERY", "Vehicles:", "3"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, out.String())
		}
	}
}

func TestRenderStateMarksSelection(t *testing.T) {
	s := store.New()
	s.SetVehicles([]model.Vehicle{
		{ID: "EV-01", Name: "EV - 1", Battery: 50, Status: model.StatusIdle},
		{ID: "EV-02", Name: "EV - 2", Battery: 5, Status: model.StatusCharging},
	})
	s.SelectVehicle("EV-02")
	s.PushAlert(model.Alert{ID: "a1", VehicleID: "EV-02", Kind: model.AlertBatteryLow, Severity: model.SeverityCritical, Message: "EV - 2: Battery low (5%)"})

	var out bytes.Buffer
	renderState(&out, s.Snapshot())

	var selectedLine string
	for _, line := range strings.Split(out.String(), "\n") {
		if strings.HasPrefix(line, "EV-02") {
			selectedLine = line
			break
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(selectedLine), "*") {
		t.Errorf("selected row not marked: %q", selectedLine)
	}
	if !strings.Contains(out.String(), "Battery low (5%)") {
		t.Errorf("alert missing from output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "1 (1)") {
		t.Errorf("critical alert count missing from overview:\n%s", out.String())
	}
}

func TestStatusCounts(t *testing.T) {
	got := statusCounts([]model.Vehicle{
		{Status: model.StatusMoving}, {Status: model.StatusMoving}, {Status: model.StatusIdle},
	})
	if got[model.StatusMoving] != 2 || got[model.StatusIdle] != 1 || got[model.StatusCharging] != 0 {
		t.Errorf("counts = %v", got)
	}
}
