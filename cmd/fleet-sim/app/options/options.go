package options

import (
	"fmt"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/evfleet/pkg/app"
	"github.com/autopeer-io/evfleet/pkg/log"
	"github.com/autopeer-io/evfleet/pkg/options"
)

// RunOptions control a single fleet-sim invocation.
type RunOptions struct {
	// DryRun feeds the local fleet core instead of publishing to a broker.
	DryRun bool `json:"dry-run" mapstructure:"dry-run"`

	// Ticks is the number of batches of a dry run.
	Ticks int `json:"ticks" mapstructure:"ticks"`
}

func (o *RunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.DryRun, "run.dry-run", o.DryRun, "Run the fleet core locally and print the resulting tables instead of publishing.")
	fs.IntVar(&o.Ticks, "run.ticks", o.Ticks, "Number of batches generated by a dry run.")
}

func (o *RunOptions) Validate() []error {
	if o.DryRun && o.Ticks < 1 {
		return []error{fmt.Errorf("--run.ticks must be at least 1, got %d", o.Ticks)}
	}
	return nil
}

type SimOptions struct {
	RunOptions       *RunOptions               `json:"run" mapstructure:"run"`
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	SimulatorOptions *options.SimulatorOptions `json:"sim" mapstructure:"sim"`
	AlertOptions     *options.AlertOptions     `json:"alerts" mapstructure:"alerts"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*SimOptions)(nil)

func NewSimOptions() *SimOptions {
	return &SimOptions{
		RunOptions:       &RunOptions{Ticks: 10},
		MqttOptions:      options.NewMqttOptions(),
		SimulatorOptions: options.NewSimulatorOptions(),
		AlertOptions:     options.NewAlertOptions(),
		Log:              log.NewOptions(),
	}
}

func (o *SimOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.RunOptions.AddFlags(fss.FlagSet("run"))
	o.SimulatorOptions.AddFlags(fss.FlagSet("simulator"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.AlertOptions.AddFlags(fss.FlagSet("alerts"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *SimOptions) Complete() error {
	return nil
}

func (o *SimOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.RunOptions.Validate()...)
	errs = append(errs, o.SimulatorOptions.Validate()...)
	if o.RunOptions.DryRun {
		errs = append(errs, o.AlertOptions.Validate()...)
	} else {
		errs = append(errs, o.MqttOptions.Validate()...)
	}
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}
