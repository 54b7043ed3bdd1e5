package rules

import (
	"fmt"
	"math/rand"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
)

// DefaultSampleProbability is the chance per batch of raising one sampled alert.
const DefaultSampleProbability = 0.1

// SamplingOptions controls the random demo alerts raised alongside the
// threshold rules. They exist to exercise alert kinds no real event source
// produces yet.
type SamplingOptions struct {
	Enabled     bool    `json:"enabled" mapstructure:"enabled"`
	Probability float64 `json:"probability" mapstructure:"probability"`
}

type sampledKind struct {
	kind     model.AlertKind
	severity model.Severity
	text     string
}

var sampledKinds = []sampledKind{
	{model.AlertGeofence, model.SeverityWarning, "Geofence exit detected"},
	{model.AlertHarshBraking, model.SeverityWarning, "Harsh braking detected"},
	{model.AlertChargingComplete, model.SeverityInfo, "Charging complete"},
}

// Sampler raises at most one random alert per non-empty batch.
// Every source of randomness is a field so tests can pin the outcome.
type Sampler struct {
	Options SamplingOptions

	// Roll returns a value in [0,1); the batch is sampled when it is below
	// Options.Probability.
	Roll func() float64

	// PickVehicle and PickKind return an index in [0,n).
	PickVehicle func(n int) int
	PickKind    func(n int) int
}

// NewSampler wires every picker to rnd.
func NewSampler(opts SamplingOptions, rnd *rand.Rand) *Sampler {
	return &Sampler{
		Options:     opts,
		Roll:        rnd.Float64,
		PickVehicle: rnd.Intn,
		PickKind:    rnd.Intn,
	}
}

// Sample returns zero or one alert for batch, stamped with ts.
func (s *Sampler) Sample(batch []model.Vehicle, ts int64) []model.Alert {
	if s == nil || !s.Options.Enabled || len(batch) == 0 {
		return nil
	}
	if s.Roll() >= s.Options.Probability {
		return nil
	}

	v := batch[s.PickVehicle(len(batch))]
	k := sampledKinds[s.PickKind(len(sampledKinds))]

	return []model.Alert{{
		ID:        AlertID(ts, v.ID, string(k.kind)),
		VehicleID: v.ID,
		Kind:      k.kind,
		Severity:  k.severity,
		Message:   fmt.Sprintf("%s: %s", v.Name, k.text),
		TS:        ts,
	}}
}
