// Package simulator generates a mock EV fleet and advances it on a randomized
// timer. It stands in for real telemetry during demos and local development.
package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/pkg/log"
)

// Fleet area center (Cologne).
const (
	CenterLat = 50.9375
	CenterLng = 6.9603
)

const (
	DefaultVehicles    = 10
	DefaultMinInterval = time.Second
	DefaultMaxInterval = 5 * time.Second

	statusFlipProbability = 0.05
	regenProbability      = 0.3
)

// Config describes the generated fleet and its tick cadence.
type Config struct {
	Vehicles    int
	MinInterval time.Duration
	MaxInterval time.Duration

	// Seed makes a run reproducible. Zero seeds from the clock.
	Seed int64
}

// Generator owns the mock fleet. Each tick mutates the fleet in place and
// hands the consumer a deep copy.
type Generator struct {
	cfg    Config
	clock  clock.Clock
	logger log.Logger

	mu    sync.Mutex
	rnd   *rand.Rand
	fleet []model.Vehicle
}

type Option func(*Generator)

func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

func WithLogger(l log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

func NewGenerator(cfg Config, opts ...Option) *Generator {
	if cfg.Vehicles <= 0 {
		cfg.Vehicles = DefaultVehicles
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval
	}

	g := &Generator{
		cfg:    cfg,
		clock:  clock.RealClock{},
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = g.clock.Now().UnixNano()
	}
	g.rnd = rand.New(rand.NewSource(seed))

	g.fleet = g.createFleet(cfg.Vehicles)
	return g
}

func (g *Generator) uniform(min, max float64) float64 {
	return g.rnd.Float64()*(max-min) + min
}

func (g *Generator) pickStatus() model.VehicleStatus {
	return model.Statuses[g.rnd.Intn(len(model.Statuses))]
}

func (g *Generator) createFleet(n int) []model.Vehicle {
	fleet := make([]model.Vehicle, n)
	for i := range fleet {
		fleet[i] = model.Vehicle{
			ID:              fmt.Sprintf("EV-%02d", i+1),
			Name:            fmt.Sprintf("EV - %d", i+1),
			Battery:         math.Round(g.uniform(40, 95)),
			Temperature:     math.Round(g.uniform(20, 38)),
			TireFL:          math.Round(g.uniform(32, 36)),
			TireFR:          math.Round(g.uniform(32, 36)),
			TireRL:          math.Round(g.uniform(32, 36)),
			TireRR:          math.Round(g.uniform(32, 36)),
			MotorEfficiency: math.Round(g.uniform(80, 98)),
			Status:          g.pickStatus(),
			Distance:        math.Round(g.uniform(1000, 25000)) / 10,
			Lat:             CenterLat + g.uniform(-0.2, 0.2),
			Lng:             CenterLng + g.uniform(-0.2, 0.2),
		}
	}
	return fleet
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (g *Generator) step(v *model.Vehicle) {
	if g.rnd.Float64() < statusFlipProbability {
		v.Status = g.pickStatus()
	}

	switch v.Status {
	case model.StatusMoving:
		v.Speed = clamp(v.Speed+g.uniform(-10, 15), 0, 120)
		v.Distance += v.Speed / 3600 * g.uniform(1, 5)
		v.Lat += g.uniform(-0.0008, 0.0008)
		v.Lng += g.uniform(-0.0008, 0.0008)
		v.Battery = math.Max(0, v.Battery-g.uniform(0.02, 0.15))
		v.Temperature = clamp(v.Temperature+g.uniform(-0.3, 0.6), 15, 65)
		v.RegenActive = g.rnd.Float64() < regenProbability && v.Speed > 10
	case model.StatusCharging:
		v.Speed = 0
		v.Battery = math.Min(100, v.Battery+g.uniform(0.2, 0.7))
		v.Temperature = clamp(v.Temperature+g.uniform(-0.2, 0.2), 15, 55)
		v.RegenActive = false
	default:
		v.Speed = 0
		v.Temperature = clamp(v.Temperature+g.uniform(-0.2, 0.2), 15, 45)
		v.RegenActive = false
	}

	v.TireFL = clamp(v.TireFL+g.uniform(-0.05, 0.05), 28, 40)
	v.TireFR = clamp(v.TireFR+g.uniform(-0.05, 0.05), 28, 40)
	v.TireRL = clamp(v.TireRL+g.uniform(-0.05, 0.05), 28, 40)
	v.TireRR = clamp(v.TireRR+g.uniform(-0.05, 0.05), 28, 40)
	v.MotorEfficiency = clamp(v.MotorEfficiency+g.uniform(-0.5, 0.5), 70, 99)
}

// Tick advances every vehicle once and returns a copy of the fleet.
func (g *Generator) Tick() []model.Vehicle {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.fleet {
		g.step(&g.fleet[i])
	}
	return model.CloneVehicles(g.fleet)
}

// Fleet returns a copy of the current fleet without advancing it.
func (g *Generator) Fleet() []model.Vehicle {
	g.mu.Lock()
	defer g.mu.Unlock()
	return model.CloneVehicles(g.fleet)
}

// NextDelay draws the wait before the next tick from [MinInterval, MaxInterval).
func (g *Generator) NextDelay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	span := g.cfg.MaxInterval - g.cfg.MinInterval
	if span <= 0 {
		return g.cfg.MinInterval
	}
	return g.cfg.MinInterval + time.Duration(g.rnd.Int63n(int64(span)))
}

// Run ticks once immediately and then after every random delay, passing each
// batch to consume, until ctx is cancelled. The pending timer is stopped on
// return.
func (g *Generator) Run(ctx context.Context, consume func([]model.Vehicle)) error {
	g.logger.Info("Starting telemetry simulator", "vehicles", g.cfg.Vehicles,
		"minInterval", g.cfg.MinInterval, "maxInterval", g.cfg.MaxInterval)

	consume(g.Tick())

	timer := g.clock.NewTimer(g.NextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			g.logger.Info("Telemetry simulator stopped")
			return nil
		case <-timer.C():
			consume(g.Tick())
			timer.Reset(g.NextDelay())
		}
	}
}
