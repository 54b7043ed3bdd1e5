package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every evfleet metric. It is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// Online reports the effective connectivity of the dashboard core.
	// 1 = online, 0 = offline (network down or offline simulated).
	Online = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "evfleet_online",
			Help: "Effective online state of the fleet core (1=online, 0=offline).",
		},
	)

	// ConnectivityTransitions counts online/offline flips.
	ConnectivityTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evfleet_connectivity_transitions_total",
			Help: "Total number of connectivity state transitions.",
		},
		[]string{"to"}, // to: online/offline
	)

	// BatchesIngested counts telemetry batches handed to the store.
	BatchesIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evfleet_batches_ingested_total",
			Help: "Total number of telemetry batches ingested.",
		},
		[]string{"result"}, // result: applied/frozen
	)

	// FleetSize is the vehicle count of the last applied batch.
	FleetSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "evfleet_fleet_size",
			Help: "Number of vehicles in the last applied batch.",
		},
	)

	// AlertsRaised counts alert candidates produced by the rule engine.
	AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evfleet_alerts_raised_total",
			Help: "Total number of alert candidates raised.",
		},
		[]string{"type", "severity"},
	)

	// AlertsAccepted counts alert candidates the store kept.
	AlertsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evfleet_alerts_accepted_total",
			Help: "Total number of alerts accepted into the alert list.",
		},
	)

	// MQTTMessages counts telemetry messages received over MQTT.
	MQTTMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evfleet_mqtt_messages_total",
			Help: "Total number of MQTT telemetry messages received.",
		},
		[]string{"result"}, // result: ok/malformed
	)

	// HTTPRequestDuration records API latency.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evfleet_http_request_duration_seconds",
			Help:    "Latency of HTTP API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Online,
		ConnectivityTransitions,
		BatchesIngested,
		FleetSize,
		AlertsRaised,
		AlertsAccepted,
		MQTTMessages,
		HTTPRequestDuration,
	)
}
