package options

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/evfleet/internal/fleet/rules"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
)

var _ IOptions = (*AlertOptions)(nil)

// AlertOptions configures alert retention and the sampled demo alerts.
type AlertOptions struct {
	// Max is how many alerts the store keeps, newest first.
	Max int `json:"max" mapstructure:"max"`

	Sample            bool    `json:"sample" mapstructure:"sample"`
	SampleProbability float64 `json:"sample-probability" mapstructure:"sample-probability"`
}

func NewAlertOptions() *AlertOptions {
	return &AlertOptions{
		Max:               store.DefaultMaxAlerts,
		Sample:            true,
		SampleProbability: rules.DefaultSampleProbability,
	}
}

func (o *AlertOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Max < 1 {
		errors = append(errors, fmt.Errorf("--alerts.max must be at least 1, got %d", o.Max))
	}
	if o.SampleProbability < 0 || o.SampleProbability > 1 {
		errors = append(errors, fmt.Errorf("--alerts.sample-probability must be within [0,1], got %g", o.SampleProbability))
	}

	return errors
}

func (o *AlertOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.Max, "alerts.max", o.Max, "Number of alerts retained, newest first.")
	fs.BoolVar(&o.Sample, "alerts.sample", o.Sample, "Raise random demo alerts (geofence, harsh braking, charging complete).")
	fs.Float64Var(&o.SampleProbability, "alerts.sample-probability", o.SampleProbability, "Chance per batch of one sampled demo alert.")
}

func (o *AlertOptions) ToSamplingOptions() rules.SamplingOptions {
	return rules.SamplingOptions{
		Enabled:     o.Sample,
		Probability: o.SampleProbability,
	}
}
