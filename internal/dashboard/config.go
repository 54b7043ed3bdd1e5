package dashboard

import (
	"fmt"

	"github.com/autopeer-io/evfleet/internal/fleet/service"
	"github.com/autopeer-io/evfleet/internal/server"
	"github.com/autopeer-io/evfleet/pkg/options"
)

type Config struct {
	HttpOptions      *options.HttpOptions
	MqttOptions      *options.MqttOptions
	TelemetryOptions *options.TelemetryOptions
	SimulatorOptions *options.SimulatorOptions
	AlertOptions     *options.AlertOptions
	PrefsOptions     *options.PrefsOptions
}

// NewDashboard builds the fleet core and every server around it.
func (cfg *Config) NewDashboard() (*Dashboard, error) {
	// 1. Core domain service
	svc := service.New(service.Config{
		MaxAlerts: cfg.AlertOptions.Max,
		Sampling:  cfg.AlertOptions.ToSamplingOptions(),
		PrefsPath: cfg.PrefsOptions.Path,
		// A broker link starts down and reports itself once connected.
		NetworkUp: cfg.TelemetryOptions.Source != options.TelemetrySourceMQTT,
		Seed:      cfg.SimulatorOptions.Seed,
	})

	// 2. Servers (primary adapters)
	serverConfig := &server.Config{
		HttpOptions:      cfg.HttpOptions,
		MqttOptions:      cfg.MqttOptions,
		TelemetryOptions: cfg.TelemetryOptions,
		SimulatorOptions: cfg.SimulatorOptions,
		PrefsOptions:     cfg.PrefsOptions,
	}
	srvManager, err := server.NewManager(serverConfig, svc)
	if err != nil {
		return nil, fmt.Errorf("failed to init server manager: %w", err)
	}

	return &Dashboard{
		service:       svc,
		serverManager: srvManager,
	}, nil
}
