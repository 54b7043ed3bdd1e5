package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/evfleet/internal/fleet/service"
	"github.com/autopeer-io/evfleet/internal/fleet/simulator"
	httpserver "github.com/autopeer-io/evfleet/internal/server/http"
	mqttserver "github.com/autopeer-io/evfleet/internal/server/mqtt"
	"github.com/autopeer-io/evfleet/pkg/log"
	"github.com/autopeer-io/evfleet/pkg/mqtt"
	"github.com/autopeer-io/evfleet/pkg/mqtt/topic"
	"github.com/autopeer-io/evfleet/pkg/options"
)

// Server defines the common interface for every long-running part
// (http, mqtt, simulator, watchers).
type Server interface {
	Start(ctx context.Context) error
}

// ServerFunc adapts a blocking function to Server.
type ServerFunc func(ctx context.Context) error

func (f ServerFunc) Start(ctx context.Context) error { return f(ctx) }

// Manager manages the lifecycle of all servers.
type Manager struct {
	servers []Server
}

// NewManager creates a new server manager and initializes all sub-servers.
func NewManager(cfg *Config, svc *service.Service) (*Manager, error) {
	var servers []Server

	var (
		client mqtt.Client
		topics *topic.TopicBuilder
	)
	if cfg.usesMQTT() {
		var err error
		client, err = newMQTTClient(cfg, svc)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		topics = topic.NewTopicBuilder(cfg.MqttOptions.TopicRoot)
	}

	// 1. Telemetry source
	switch cfg.TelemetryOptions.Source {
	case options.TelemetrySourceMQTT:
		src := mqttserver.NewTelemetrySource(client, topics)
		servers = append(servers, src, ServerFunc(func(ctx context.Context) error {
			return svc.Ingest().Run(ctx, src.Batches())
		}))
	default:
		gen := simulator.NewGenerator(cfg.SimulatorOptions.ToConfig(), simulator.WithLogger(log.WithName("simulator")))
		servers = append(servers, ServerFunc(func(ctx context.Context) error {
			return gen.Run(ctx, svc.Ingest().Consume)
		}))
		if client != nil {
			// Nothing else starts the client when telemetry is simulated.
			servers = append(servers, ServerFunc(func(ctx context.Context) error {
				return runClient(ctx, client)
			}))
		}
	}

	// 2. Alert notifier
	if cfg.MqttOptions.PublishAlerts {
		servers = append(servers, mqttserver.NewAlertNotifier(client, topics, svc.Store()))
	}

	// 3. Preferences watcher
	if cfg.PrefsOptions.Path != "" && cfg.PrefsOptions.Watch {
		servers = append(servers, ServerFunc(svc.Prefs().Watch))
	}

	// 4. HTTP server (API, stream, health & metrics)
	api := httpserver.NewAPI(svc.Store(), svc.Connectivity(), svc.Prefs(),
		httpserver.WithReadiness(svc.Ready),
		httpserver.WithRequestTimeout(cfg.HttpOptions.Timeout),
		httpserver.WithCheckOrigin(checkOrigin(cfg.HttpOptions.AllowedOrigins)),
	)
	srv := httpserver.NewServer(cfg.HttpOptions, api.Router())
	srv.RegisterOnShutdown(api.CloseStreams)
	servers = append(servers, srv)

	return &Manager{
		servers: servers,
	}, nil
}

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}

// newMQTTClient builds the broker client. When telemetry arrives over MQTT
// its connection state is the network signal of the connectivity coordinator.
func newMQTTClient(cfg *Config, svc *service.Service) (mqtt.Client, error) {
	clientCfg := cfg.MqttOptions.ToClientConfig()

	if clientCfg.ClientID == "" {
		hostname, _ := os.Hostname()
		clientCfg.ClientID = fmt.Sprintf("evfleet-dashboard-%s-%s", hostname, uuid.NewString()[:8])
	}
	if cfg.TelemetryOptions.Source == options.TelemetrySourceMQTT {
		clientCfg.OnConnectionChange = func(connected bool) {
			svc.Connectivity().SetNetwork(context.Background(), connected)
		}
	}

	return mqtt.NewClient(clientCfg)
}

func runClient(ctx context.Context, client mqtt.Client) error {
	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt client: %w", err)
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client.Disconnect(shutdownCtx)
	return nil
}

// checkOrigin returns nil, the same-origin default, when nothing is allowed
// explicitly.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}
