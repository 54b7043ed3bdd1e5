package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	TelemetrySourceSimulator = "simulator"
	TelemetrySourceMQTT      = "mqtt"
)

var _ IOptions = (*TelemetryOptions)(nil)

// TelemetryOptions selects where fleet batches come from.
type TelemetryOptions struct {
	Source string `json:"source" mapstructure:"source"`
}

func NewTelemetryOptions() *TelemetryOptions {
	return &TelemetryOptions{Source: TelemetrySourceSimulator}
}

func (o *TelemetryOptions) Validate() []error {
	if o == nil {
		return nil
	}

	switch o.Source {
	case TelemetrySourceSimulator, TelemetrySourceMQTT:
		return nil
	default:
		return []error{fmt.Errorf("--telemetry.source must be %q or %q, got %q",
			TelemetrySourceSimulator, TelemetrySourceMQTT, o.Source)}
	}
}

func (o *TelemetryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Source, "telemetry.source", o.Source, "Where fleet batches come from: simulator or mqtt.")
}
