package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/evfleet/cmd/fleet-dashboard/app/options"
	"github.com/autopeer-io/evfleet/pkg/app"
	"github.com/autopeer-io/evfleet/pkg/log"
)

const (
	commandName = "fleet-dashboard"
	commandDesc = `The fleet dashboard keeps the live state of an EV fleet in memory.
It ingests telemetry batches from the built-in simulator or an MQTT broker,
raises threshold alerts and serves the fleet view over HTTP and WebSocket.`
)

func NewApp() *app.App {
	opts := options.NewDashboardOptions()
	application := app.NewApp(
		commandName,
		"Launch the EV fleet dashboard",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.DashboardOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dashboard, err := cfg.NewDashboard()
		if err != nil {
			return fmt.Errorf("failed to create dashboard: %w", err)
		}

		return dashboard.Run(ctx)
	}
}
