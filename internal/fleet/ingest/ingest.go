// Package ingest is the single entry point for telemetry batches. Every
// transport hands its batches to an Adapter, which updates the store and
// raises alerts.
package ingest

import (
	"context"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/pkg/metrics"
	"github.com/autopeer-io/evfleet/pkg/log"
)

// Sink is the part of the store the adapter writes to.
type Sink interface {
	SetVehicles(batch []model.Vehicle) bool
	PushAlert(a model.Alert) bool
}

// Evaluator turns a batch into alert candidates.
type Evaluator interface {
	Evaluate(batch []model.Vehicle) []model.Alert
}

type Adapter struct {
	sink   Sink
	eval   Evaluator
	logger log.Logger
}

type Option func(*Adapter)

func WithLogger(l log.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func New(sink Sink, eval Evaluator, opts ...Option) *Adapter {
	a := &Adapter{
		sink:   sink,
		eval:   eval,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Consume applies one batch: vehicles first, then every alert candidate in
// evaluation order. Candidates are evaluated even when the store is offline;
// the store discards them.
func (a *Adapter) Consume(batch []model.Vehicle) {
	if a.sink.SetVehicles(batch) {
		metrics.BatchesIngested.WithLabelValues("applied").Inc()
		metrics.FleetSize.Set(float64(len(batch)))
	} else {
		metrics.BatchesIngested.WithLabelValues("frozen").Inc()
	}

	if a.eval == nil {
		return
	}

	accepted := 0
	for _, alert := range a.eval.Evaluate(batch) {
		metrics.AlertsRaised.WithLabelValues(string(alert.Kind), string(alert.Severity)).Inc()
		if a.sink.PushAlert(alert) {
			accepted++
		}
	}
	if accepted > 0 {
		metrics.AlertsAccepted.Add(float64(accepted))
		a.logger.Debug("Alerts accepted", "count", accepted, "vehicles", len(batch))
	}
}

// Run consumes batches from ch one at a time until ctx is done or ch is
// closed.
func (a *Adapter) Run(ctx context.Context, ch <-chan []model.Vehicle) error {
	a.logger.Info("Starting telemetry ingestion")
	defer a.logger.Info("Telemetry ingestion stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-ch:
			if !ok {
				return nil
			}
			a.Consume(batch)
		}
	}
}
