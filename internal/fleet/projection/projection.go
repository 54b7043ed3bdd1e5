// Package projection derives read-only views from a store.State. None of the
// functions modify the state they are given.
package projection

import (
	"sort"
	"strings"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
)

// SelectedVehicle returns the vehicle whose id matches the selection.
// A selection that references no vehicle in the list yields false.
func SelectedVehicle(s store.State) (model.Vehicle, bool) {
	if s.SelectedVehicleID == "" {
		return model.Vehicle{}, false
	}
	for _, v := range s.Vehicles {
		if v.ID == s.SelectedVehicleID {
			return v, true
		}
	}
	return model.Vehicle{}, false
}

// FilteredSortedVehicles applies the stored query: case-insensitive search
// on name or id, then the status filter, then a stable descending sort by
// the sort key. The result is always a new slice.
func FilteredSortedVehicles(s store.State) []model.Vehicle {
	q := strings.ToLower(strings.TrimSpace(s.Query.Search))

	out := make([]model.Vehicle, 0, len(s.Vehicles))
	for _, v := range s.Vehicles {
		if q != "" && !strings.Contains(strings.ToLower(v.Name), q) && !strings.Contains(strings.ToLower(v.ID), q) {
			continue
		}
		if !s.Query.FilterStatus.Matches(v.Status) {
			continue
		}
		out = append(out, v)
	}

	if key := s.Query.SortBy; key != model.SortNone {
		sort.SliceStable(out, func(i, j int) bool {
			return key.Value(&out[i]) > key.Value(&out[j])
		})
	}
	return out
}

// AlertCount is the number of retained alerts.
func AlertCount(s store.State) int {
	return len(s.Alerts)
}

// Overview summarizes the fleet for the overview panel.
type Overview struct {
	Total          int     `json:"total"`
	AverageBattery float64 `json:"averageBattery"`
	Moving         int     `json:"moving"`
	Charging       int     `json:"charging"`
	Idle           int     `json:"idle"`
	Alerts         int     `json:"alerts"`
	Critical       int     `json:"critical"`
	Online         bool    `json:"online"`
}

// Summarize computes the overview over the whole fleet, ignoring the query.
func Summarize(s store.State) Overview {
	o := Overview{
		Total:  len(s.Vehicles),
		Alerts: len(s.Alerts),
		Online: s.Online,
	}

	var sum float64
	for _, v := range s.Vehicles {
		sum += v.Battery
		switch v.Status {
		case model.StatusMoving:
			o.Moving++
		case model.StatusCharging:
			o.Charging++
		case model.StatusIdle:
			o.Idle++
		}
	}
	if o.Total > 0 {
		o.AverageBattery = sum / float64(o.Total)
	}

	for _, a := range s.Alerts {
		if a.Severity == model.SeverityCritical {
			o.Critical++
		}
	}
	return o
}
