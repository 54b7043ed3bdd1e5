package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/pkg/metrics"
	"github.com/autopeer-io/evfleet/pkg/log"
	pkgmqtt "github.com/autopeer-io/evfleet/pkg/mqtt"
	"github.com/autopeer-io/evfleet/pkg/mqtt/topic"
)

const (
	DefaultQoS         = 1
	defaultBatchBuffer = 16
)

var errNotArray = errors.New("fleet payload is not a JSON array")

// DecodeFleet parses one fleet snapshot. Anything but a JSON array of
// vehicles, including null, is rejected.
func DecodeFleet(payload []byte) ([]model.Vehicle, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}

	batch := []model.Vehicle{}
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, fmt.Errorf("decode fleet payload: %w", err)
	}
	return batch, nil
}

// TelemetrySource is the MQTT ingress: it owns the client lifecycle,
// subscribes to the fleet snapshot topic and emits decoded batches in
// arrival order.
type TelemetrySource struct {
	client  pkgmqtt.Client
	topics  *topic.TopicBuilder
	qos     int
	batches chan []model.Vehicle
}

// NewTelemetrySource creates a source; the client is started by Start.
func NewTelemetrySource(client pkgmqtt.Client, topics *topic.TopicBuilder) *TelemetrySource {
	return &TelemetrySource{
		client:  client,
		topics:  topics,
		qos:     DefaultQoS,
		batches: make(chan []model.Vehicle, defaultBatchBuffer),
	}
}

// Batches is never closed; consumers stop with their own context.
func (s *TelemetrySource) Batches() <-chan []model.Vehicle {
	return s.batches
}

// Start connects to the broker, subscribes and blocks until ctx is done.
// The subscription is replayed by the client after every reconnect.
func (s *TelemetrySource) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt client: %w", err)
	}

	// Ensure MQTT disconnects when Start exits
	defer func() {
		log.Info("Disconnecting MQTT client...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	fleetTopic := s.topics.TelemetryFleet()
	if err := s.client.Subscribe(ctx, fleetTopic, s.qos, s.handle); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %s, err: %w", fleetTopic, err)
	}
	log.Info("Telemetry source ready", "topic", fleetTopic)

	<-ctx.Done()
	return nil
}

func (s *TelemetrySource) handle(ctx context.Context, t string, payload []byte) {
	batch, err := DecodeFleet(payload)
	if err != nil {
		metrics.MQTTMessages.WithLabelValues("malformed").Inc()
		log.Warn("Dropping malformed telemetry", "topic", t, "bytes", len(payload), "err", err)
		return
	}
	metrics.MQTTMessages.WithLabelValues("ok").Inc()

	select {
	case s.batches <- batch:
	case <-ctx.Done():
	}
}
