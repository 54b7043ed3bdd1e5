package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autopeer-io/evfleet/internal/fleet/service"
	"github.com/autopeer-io/evfleet/pkg/options"
)

func TestManagerStopsEveryServer(t *testing.T) {
	started := make(chan struct{}, 2)
	stopped := make(chan struct{}, 2)
	block := ServerFunc(func(ctx context.Context) error {
		started <- struct{}{}
		<-ctx.Done()
		stopped <- struct{}{}
		return nil
	})

	m := &Manager{servers: []Server{block, block}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	for range 2 {
		<-started
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}
	if len(stopped) != 2 {
		t.Errorf("%d servers stopped, want 2", len(stopped))
	}
}

func TestManagerFailureCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	m := &Manager{servers: []Server{
		ServerFunc(func(ctx context.Context) error { <-ctx.Done(); return nil }),
		ServerFunc(func(ctx context.Context) error { return boom }),
	}}

	done := make(chan error, 1)
	go func() { done <- m.Start(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("Start = %v, want %v", err, boom)
		}
	case <-time.After(time.Second):
		t.Fatal("failure did not stop the manager")
	}
}

func TestNewManagerWithSimulator(t *testing.T) {
	cfg := &Config{
		HttpOptions:      options.NewHttpOptions(),
		MqttOptions:      options.NewMqttOptions(),
		TelemetryOptions: options.NewTelemetryOptions(),
		SimulatorOptions: options.NewSimulatorOptions(),
		PrefsOptions:     &options.PrefsOptions{},
	}
	cfg.HttpOptions.Addr = "127.0.0.1:0"
	cfg.SimulatorOptions.Vehicles = 3
	cfg.SimulatorOptions.Seed = 7

	svc := service.New(service.Config{MaxAlerts: 10, NetworkUp: true})
	m, err := NewManager(cfg, svc)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	// simulator + http
	if len(m.servers) != 2 {
		t.Fatalf("servers = %d, want 2", len(m.servers))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !svc.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("simulator never delivered a batch")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := len(svc.Store().Snapshot().Vehicles); got != 3 {
		t.Errorf("vehicles = %d, want 3", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start = %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("manager did not stop")
	}
}

func TestNewManagerWithMQTT(t *testing.T) {
	cfg := &Config{
		HttpOptions:      options.NewHttpOptions(),
		MqttOptions:      options.NewMqttOptions(),
		TelemetryOptions: &options.TelemetryOptions{Source: options.TelemetrySourceMQTT},
		SimulatorOptions: options.NewSimulatorOptions(),
		PrefsOptions:     &options.PrefsOptions{Path: "prefs.yaml", Watch: true},
	}
	cfg.MqttOptions.PublishAlerts = true

	m, err := NewManager(cfg, service.New(service.Config{}))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	// source, ingest loop, notifier, prefs watcher, http
	if len(m.servers) != 5 {
		t.Errorf("servers = %d, want 5", len(m.servers))
	}
}

func TestCheckOrigin(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/stream", nil)
		r.Header.Set("Origin", origin)
		return r
	}

	if checkOrigin(nil) != nil {
		t.Error("no allowed origins should keep the default check")
	}
	if !checkOrigin([]string{"*"})(req("http://anywhere")) {
		t.Error("wildcard rejected an origin")
	}

	check := checkOrigin([]string{"http://dash.local"})
	if !check(req("http://dash.local")) {
		t.Error("listed origin rejected")
	}
	if check(req("http://evil.local")) {
		t.Error("unlisted origin accepted")
	}
}
