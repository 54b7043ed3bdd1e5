package service

import (
	"math/rand"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/evfleet/internal/fleet/connectivity"
	"github.com/autopeer-io/evfleet/internal/fleet/ingest"
	"github.com/autopeer-io/evfleet/internal/fleet/prefs"
	"github.com/autopeer-io/evfleet/internal/fleet/rules"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
	"github.com/autopeer-io/evfleet/pkg/log"
)

// Config selects how the core components are built.
type Config struct {
	MaxAlerts int
	Sampling  rules.SamplingOptions

	// PrefsPath is the preferences file; empty keeps them in memory.
	PrefsPath string

	// NetworkUp is the transport state at startup.
	NetworkUp bool

	// Seed drives the alert sampler. Zero seeds from the clock.
	Seed int64

	Clock clock.Clock
}

// Service wires the fleet core: one store shared by the connectivity
// coordinator, the ingestion adapter and the preference store.
type Service struct {
	store  *store.Store
	conn   *connectivity.Coordinator
	engine *rules.Engine
	ingest *ingest.Adapter
	prefs  *prefs.Store
}

// New creates the core service. Dependency injection happens here.
func New(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.RealClock{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = cfg.Clock.Now().UnixNano()
	}

	st := store.New(
		store.WithMaxAlerts(cfg.MaxAlerts),
		store.WithLogger(log.WithName("store")),
	)
	conn := connectivity.New(st, cfg.NetworkUp, connectivity.WithLogger(log.WithName("connectivity")))

	engine := rules.NewEngine(
		rules.WithClock(cfg.Clock),
		rules.WithSampler(rules.NewSampler(cfg.Sampling, rand.New(rand.NewSource(seed)))),
	)

	return &Service{
		store:  st,
		conn:   conn,
		engine: engine,
		ingest: ingest.New(st, engine, ingest.WithLogger(log.WithName("ingest"))),
		prefs:  prefs.Open(cfg.PrefsPath, prefs.WithLogger(log.WithName("prefs"))),
	}
}

func (s *Service) Store() *store.Store                     { return s.store }
func (s *Service) Connectivity() *connectivity.Coordinator { return s.conn }
func (s *Service) Ingest() *ingest.Adapter                 { return s.ingest }
func (s *Service) Prefs() *prefs.Store                     { return s.prefs }

// Ready reports whether the first telemetry batch has arrived.
func (s *Service) Ready() bool {
	return s.store.Seeded()
}
