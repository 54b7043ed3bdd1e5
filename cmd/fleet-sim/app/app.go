package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/evfleet/cmd/fleet-sim/app/options"
	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/service"
	"github.com/autopeer-io/evfleet/internal/fleet/simulator"
	"github.com/autopeer-io/evfleet/pkg/app"
	"github.com/autopeer-io/evfleet/pkg/log"
	"github.com/autopeer-io/evfleet/pkg/mqtt"
	"github.com/autopeer-io/evfleet/pkg/mqtt/topic"
)

const (
	commandName = "fleet-sim"
	commandDesc = `fleet-sim generates mock EV fleet telemetry. By default every batch is
published as a JSON array to {topic-root}/telemetry/fleet, where a
fleet-dashboard started with --telemetry.source=mqtt picks it up.
With --run.dry-run the batches are fed through the fleet core locally and
the resulting vehicles, alerts and overview are printed.`
)

func NewApp() *app.App {
	opts := options.NewSimOptions()
	application := app.NewApp(
		commandName,
		"Generate mock EV fleet telemetry",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.SimOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		gen := simulator.NewGenerator(opts.SimulatorOptions.ToConfig(), simulator.WithLogger(log.WithName("simulator")))

		if opts.RunOptions.DryRun {
			return dryRun(os.Stdout, gen, opts)
		}
		return publish(genericapiserver.SetupSignalContext(), gen, opts)
	}
}

// dryRun feeds a fixed number of batches through a local fleet core and
// prints the final state.
func dryRun(w io.Writer, gen *simulator.Generator, opts *options.SimOptions) error {
	svc := service.New(service.Config{
		MaxAlerts: opts.AlertOptions.Max,
		Sampling:  opts.AlertOptions.ToSamplingOptions(),
		NetworkUp: true,
		Seed:      opts.SimulatorOptions.Seed,
	})

	for range opts.RunOptions.Ticks {
		svc.Ingest().Consume(gen.Tick())
	}

	renderState(w, svc.Store().Snapshot())
	return nil
}

// publish sends every generated batch to the broker until ctx is done.
func publish(ctx context.Context, gen *simulator.Generator, opts *options.SimOptions) error {
	cfg := opts.MqttOptions.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = "evfleet-sim-" + uuid.NewString()
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create mqtt client: %w", err)
	}
	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(shutdownCtx)
	}()

	if err := client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.BrokerURL, err)
	}

	fleetTopic := topic.NewTopicBuilder(opts.MqttOptions.TopicRoot).TelemetryFleet()
	log.Info("Publishing fleet telemetry", "broker", cfg.BrokerURL, "topic", fleetTopic, "clientID", cfg.ClientID)

	return gen.Run(ctx, func(batch []model.Vehicle) {
		payload, err := json.Marshal(batch)
		if err != nil {
			log.Error(err, "Failed to encode fleet batch")
			return
		}
		if err := client.Publish(ctx, fleetTopic, 1, false, payload); err != nil {
			log.Error(err, "Failed to publish fleet batch", "topic", fleetTopic)
			return
		}

		counts := statusCounts(batch)
		log.Debug("Published fleet batch", "vehicles", len(batch),
			"moving", counts[model.StatusMoving],
			"charging", counts[model.StatusCharging],
			"idle", counts[model.StatusIdle])
	})
}
