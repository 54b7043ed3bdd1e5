package projection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
)

func fixture() []model.Vehicle {
	return []model.Vehicle{
		{ID: "EV-1", Name: "Vehicle 1", Speed: 50, Battery: 80, Status: model.StatusMoving, Distance: 1000},
		{ID: "EV-2", Name: "Vehicle 2", Speed: 0, Battery: 45, Status: model.StatusIdle, Distance: 800},
		{ID: "EV-3", Name: "Vehicle 3", Speed: 0, Battery: 15, Status: model.StatusCharging, Distance: 500},
	}
}

func state(q model.Query) store.State {
	return store.State{Vehicles: fixture(), Query: q, Online: true}
}

func ids(vs []model.Vehicle) []string {
	out := []string{}
	for _, v := range vs {
		out = append(out, v.ID)
	}
	return out
}

func TestFilteredSortedVehicles(t *testing.T) {
	tests := []struct {
		name  string
		query model.Query
		want  []string
	}{
		{"all unsorted keeps order", model.Query{FilterStatus: model.FilterAll}, []string{"EV-1", "EV-2", "EV-3"}},
		{"empty filter means all", model.Query{}, []string{"EV-1", "EV-2", "EV-3"}},
		{"charging only", model.Query{FilterStatus: "charging", SortBy: model.SortBattery}, []string{"EV-3"}},
		{"sort by battery", model.Query{FilterStatus: model.FilterAll, SortBy: model.SortBattery}, []string{"EV-1", "EV-2", "EV-3"}},
		{"sort by distance", model.Query{FilterStatus: model.FilterAll, SortBy: model.SortDistance}, []string{"EV-1", "EV-2", "EV-3"}},
		{"sort by speed is stable", model.Query{FilterStatus: model.FilterAll, SortBy: model.SortSpeed}, []string{"EV-1", "EV-2", "EV-3"}},
		{"search by name", model.Query{Search: "vehicle 2", FilterStatus: model.FilterAll}, []string{"EV-2"}},
		{"search by id lowercase", model.Query{Search: "ev-3", FilterStatus: model.FilterAll}, []string{"EV-3"}},
		{"search trims whitespace", model.Query{Search: "  VEHICLE 1 ", FilterStatus: model.FilterAll}, []string{"EV-1"}},
		{"search and filter compose", model.Query{Search: "vehicle", FilterStatus: "idle"}, []string{"EV-2"}},
		{"no match", model.Query{Search: "truck", FilterStatus: model.FilterAll}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilteredSortedVehicles(state(tt.query))
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortByBatteryValues(t *testing.T) {
	s := state(model.Query{FilterStatus: model.FilterAll, SortBy: model.SortBattery})
	s.Vehicles[0], s.Vehicles[2] = s.Vehicles[2], s.Vehicles[0]

	var got []float64
	for _, v := range FilteredSortedVehicles(s) {
		got = append(got, v.Battery)
	}
	if diff := cmp.Diff([]float64{80, 45, 15}, got); diff != "" {
		t.Errorf("battery order mismatch (-want +got):\n%s", diff)
	}
}

func TestFilteredSortedDoesNotMutate(t *testing.T) {
	s := state(model.Query{FilterStatus: model.FilterAll, SortBy: model.SortBattery})
	s.Vehicles[0], s.Vehicles[2] = s.Vehicles[2], s.Vehicles[0]
	before := ids(s.Vehicles)

	out := FilteredSortedVehicles(s)
	out[0].Name = "changed"

	if diff := cmp.Diff(before, ids(s.Vehicles)); diff != "" {
		t.Errorf("input order changed (-before +after):\n%s", diff)
	}
	if s.Vehicles[2].Name != "Vehicle 1" {
		t.Errorf("result aliases input: %q", s.Vehicles[2].Name)
	}
}

func TestSelectedVehicle(t *testing.T) {
	s := state(model.Query{})

	if _, ok := SelectedVehicle(s); ok {
		t.Error("empty selection returned a vehicle")
	}

	s.SelectedVehicleID = "EV-2"
	v, ok := SelectedVehicle(s)
	if !ok || v.ID != "EV-2" {
		t.Errorf("got %v, %v; want EV-2", v.ID, ok)
	}

	s.SelectedVehicleID = "EV-404"
	if _, ok := SelectedVehicle(s); ok {
		t.Error("dangling selection returned a vehicle")
	}
}

func TestSelectionAfterStoreBatch(t *testing.T) {
	st := store.New()
	batches := [][]model.Vehicle{fixture(), fixture()[1:], {fixture()[0]}, {}}

	for i, b := range batches {
		st.SetVehicles(b)
		v, ok := SelectedVehicle(st.Snapshot())
		if len(b) == 0 {
			if ok {
				t.Errorf("batch %d: selection %s in empty batch", i, v.ID)
			}
			continue
		}
		if !ok {
			t.Fatalf("batch %d: no selection", i)
		}
		found := false
		for _, bv := range b {
			found = found || bv.ID == v.ID
		}
		if !found {
			t.Errorf("batch %d: selected %s not in batch", i, v.ID)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := state(model.Query{})
	s.Alerts = []model.Alert{
		{ID: "a", Severity: model.SeverityCritical},
		{ID: "b", Severity: model.SeverityWarning},
	}

	want := Overview{
		Total: 3, AverageBattery: 140.0 / 3, Moving: 1, Charging: 1, Idle: 1,
		Alerts: 2, Critical: 1, Online: true,
	}
	if diff := cmp.Diff(want, Summarize(s)); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}
	if got := AlertCount(s); got != 2 {
		t.Errorf("AlertCount = %d, want 2", got)
	}
	if got := Summarize(store.State{}); got.AverageBattery != 0 {
		t.Errorf("empty fleet average = %v", got.AverageBattery)
	}
}
