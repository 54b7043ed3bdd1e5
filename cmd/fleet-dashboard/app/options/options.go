package options

import (
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/evfleet/internal/dashboard"
	"github.com/autopeer-io/evfleet/pkg/app"
	"github.com/autopeer-io/evfleet/pkg/log"
	"github.com/autopeer-io/evfleet/pkg/options"
)

type DashboardOptions struct {
	HttpOptions      *options.HttpOptions      `json:"http" mapstructure:"http"`
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	TelemetryOptions *options.TelemetryOptions `json:"telemetry" mapstructure:"telemetry"`
	SimulatorOptions *options.SimulatorOptions `json:"sim" mapstructure:"sim"`
	AlertOptions     *options.AlertOptions     `json:"alerts" mapstructure:"alerts"`
	PrefsOptions     *options.PrefsOptions     `json:"prefs" mapstructure:"prefs"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*DashboardOptions)(nil)

func NewDashboardOptions() *DashboardOptions {
	o := &DashboardOptions{
		HttpOptions:      options.NewHttpOptions(),
		MqttOptions:      options.NewMqttOptions(),
		TelemetryOptions: options.NewTelemetryOptions(),
		SimulatorOptions: options.NewSimulatorOptions(),
		AlertOptions:     options.NewAlertOptions(),
		PrefsOptions:     options.NewPrefsOptions(),
		Log:              log.NewOptions(),
	}

	return o
}

func (o *DashboardOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.TelemetryOptions.AddFlags(fss.FlagSet("telemetry"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.SimulatorOptions.AddFlags(fss.FlagSet("simulator"))
	o.AlertOptions.AddFlags(fss.FlagSet("alerts"))
	o.PrefsOptions.AddFlags(fss.FlagSet("preferences"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *DashboardOptions) Complete() error {
	return nil
}

func (o *DashboardOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.TelemetryOptions.Validate()...)
	// The broker settings only matter when something connects to it.
	if o.TelemetryOptions.Source == options.TelemetrySourceMQTT || o.MqttOptions.PublishAlerts {
		errs = append(errs, o.MqttOptions.Validate()...)
	}
	errs = append(errs, o.SimulatorOptions.Validate()...)
	errs = append(errs, o.AlertOptions.Validate()...)
	errs = append(errs, o.PrefsOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *DashboardOptions) Config() (*dashboard.Config, error) {
	return &dashboard.Config{
		HttpOptions:      o.HttpOptions,
		MqttOptions:      o.MqttOptions,
		TelemetryOptions: o.TelemetryOptions,
		SimulatorOptions: o.SimulatorOptions,
		AlertOptions:     o.AlertOptions,
		PrefsOptions:     o.PrefsOptions,
	}, nil
}
