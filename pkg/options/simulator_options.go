package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/autopeer-io/evfleet/internal/fleet/simulator"
)

var _ IOptions = (*SimulatorOptions)(nil)

// SimulatorOptions configures the mock telemetry generator.
type SimulatorOptions struct {
	Vehicles    int           `json:"vehicles" mapstructure:"vehicles"`
	MinInterval time.Duration `json:"min-interval" mapstructure:"min-interval"`
	MaxInterval time.Duration `json:"max-interval" mapstructure:"max-interval"`

	// Seed makes a run reproducible. Zero picks a seed from the clock.
	Seed int64 `json:"seed" mapstructure:"seed"`
}

func NewSimulatorOptions() *SimulatorOptions {
	return &SimulatorOptions{
		Vehicles:    simulator.DefaultVehicles,
		MinInterval: simulator.DefaultMinInterval,
		MaxInterval: simulator.DefaultMaxInterval,
	}
}

func (o *SimulatorOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Vehicles < 1 || o.Vehicles > 99 {
		errors = append(errors, fmt.Errorf("--sim.vehicles must be between 1 and 99, got %d", o.Vehicles))
	}
	if o.MinInterval <= 0 {
		errors = append(errors, fmt.Errorf("--sim.min-interval must be positive"))
	}
	if o.MaxInterval < o.MinInterval {
		errors = append(errors, fmt.Errorf("--sim.max-interval (%s) must not be below --sim.min-interval (%s)", o.MaxInterval, o.MinInterval))
	}

	return errors
}

func (o *SimulatorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.Vehicles, "sim.vehicles", o.Vehicles, "Number of simulated vehicles.")
	fs.DurationVar(&o.MinInterval, "sim.min-interval", o.MinInterval, "Shortest delay between two simulated batches.")
	fs.DurationVar(&o.MaxInterval, "sim.max-interval", o.MaxInterval, "Longest delay between two simulated batches.")
	fs.Int64Var(&o.Seed, "sim.seed", o.Seed, "Random seed for a reproducible fleet. 0 seeds from the clock.")
}

func (o *SimulatorOptions) ToConfig() simulator.Config {
	return simulator.Config{
		Vehicles:    o.Vehicles,
		MinInterval: o.MinInterval,
		MaxInterval: o.MaxInterval,
		Seed:        o.Seed,
	}
}
