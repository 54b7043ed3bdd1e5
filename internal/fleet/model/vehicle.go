// Copyright 2025 The Autopeer Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

// VehicleStatus is the operating mode reported by a vehicle.
type VehicleStatus string

const (
	StatusMoving   VehicleStatus = "moving"
	StatusCharging VehicleStatus = "charging"
	StatusIdle     VehicleStatus = "idle"
)

// Statuses lists every VehicleStatus in display order.
var Statuses = []VehicleStatus{StatusMoving, StatusIdle, StatusCharging}

// Vehicle is one fleet unit as delivered in a telemetry snapshot.
// A snapshot batch always carries the full current state of every vehicle;
// the store never merges partial updates.
type Vehicle struct {
	// ID is the stable identifier assigned by the telemetry source (e.g. "EV-01").
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Speed in km/h.
	Speed float64 `json:"speed"`

	// Battery state of charge in percent.
	Battery float64 `json:"battery"`

	// Temperature of the drive unit in °C.
	Temperature float64 `json:"temperature"`

	// Tire pressures in psi.
	TireFL float64 `json:"tireFL"`
	TireFR float64 `json:"tireFR"`
	TireRL float64 `json:"tireRL"`
	TireRR float64 `json:"tireRR"`

	// MotorEfficiency in percent.
	MotorEfficiency float64 `json:"motorEfficiency"`

	// RegenActive reports whether regenerative braking is engaged.
	RegenActive bool `json:"regenActive"`

	Status VehicleStatus `json:"status"`

	// Distance is the cumulative odometer reading in km.
	Distance float64 `json:"distance"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Tires returns the four tire pressures in FL, FR, RL, RR order.
func (v *Vehicle) Tires() [4]float64 {
	return [4]float64{v.TireFL, v.TireFR, v.TireRL, v.TireRR}
}

// CloneVehicles returns a copy of the batch that shares no backing array with it.
// A nil input yields an empty, non-nil slice.
func CloneVehicles(in []Vehicle) []Vehicle {
	out := make([]Vehicle, len(in))
	copy(out, in)
	return out
}
