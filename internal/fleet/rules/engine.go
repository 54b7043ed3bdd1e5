package rules

import (
	"k8s.io/utils/clock"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
)

// Engine turns snapshot batches into alert candidates. It keeps no memory of
// previous batches: a condition that persists raises a fresh alert, with a
// fresh id, on every batch.
type Engine struct {
	rules   []Rule
	clock   clock.PassiveClock
	sampler *Sampler
}

type Option func(*Engine)

// WithRules replaces DefaultRules.
func WithRules(rules []Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

// WithClock sets the clock used to stamp alerts.
func WithClock(c clock.PassiveClock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSampler enables random demo alerts.
func WithSampler(s *Sampler) Option {
	return func(e *Engine) { e.sampler = s }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules: DefaultRules,
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate applies every rule to every vehicle, in batch order then rule
// order, and appends the sampled alert (if any) last. All alerts of one
// batch share the same timestamp.
func (e *Engine) Evaluate(batch []model.Vehicle) []model.Alert {
	ts := e.clock.Now().UnixMilli()

	var alerts []model.Alert
	for i := range batch {
		v := &batch[i]
		for _, r := range e.rules {
			sev, msg, fired := r.Check(v)
			if !fired {
				continue
			}
			alerts = append(alerts, model.Alert{
				ID:        AlertID(ts, v.ID, r.Tag),
				VehicleID: v.ID,
				Kind:      r.Kind,
				Severity:  sev,
				Message:   msg,
				TS:        ts,
			})
		}
	}

	return append(alerts, e.sampler.Sample(batch, ts)...)
}
