package server

import "github.com/autopeer-io/evfleet/pkg/options"

type Config struct {
	HttpOptions      *options.HttpOptions
	MqttOptions      *options.MqttOptions
	TelemetryOptions *options.TelemetryOptions
	SimulatorOptions *options.SimulatorOptions
	PrefsOptions     *options.PrefsOptions
}

// usesMQTT reports whether any server needs a broker connection.
func (c *Config) usesMQTT() bool {
	return c.TelemetryOptions.Source == options.TelemetrySourceMQTT || c.MqttOptions.PublishAlerts
}
