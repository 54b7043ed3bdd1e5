// Package connectivity combines the network signal with the operator's
// "simulate offline" override into the single online flag the store honours.
package connectivity

import (
	"context"
	"sync"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/evfleet/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/evfleet/internal/pkg/util/fsm"
	"github.com/autopeer-io/evfleet/pkg/log"
)

const (
	StateOnline  = "online"
	StateOffline = "offline"

	// EventConnect moves the core online.
	EventConnect = "connect"
	// EventDisconnect moves the core offline.
	EventDisconnect = "disconnect"
)

// Publisher receives the effective online flag. *store.Store satisfies it.
type Publisher interface {
	SetOnline(online bool)
}

// Coordinator tracks both inputs and publishes online = network && !override
// whenever either of them changes.
type Coordinator struct {
	mu              sync.Mutex
	network         bool
	simulateOffline bool

	fsm    *fsm.FSM
	pub    Publisher
	logger log.Logger
}

type Option func(*Coordinator)

func WithLogger(l log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New publishes the initial state before returning. The override starts off.
func New(pub Publisher, network bool, opts ...Option) *Coordinator {
	c := &Coordinator{
		network: network,
		pub:     pub,
		logger:  log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	initial := StateOffline
	if network {
		initial = StateOnline
	}

	events := fsm.Events{
		{Name: EventConnect, Src: []string{StateOffline}, Dst: StateOnline},
		{Name: EventDisconnect, Src: []string{StateOnline}, Dst: StateOffline},
	}
	callbacks := fsm.Callbacks{
		"enter_state": fsmutil.WrapEvent(c.actionEnterState),
	}
	c.fsm = fsm.NewFSM(initial, events, callbacks)

	c.publish(network)
	return c
}

func (c *Coordinator) actionEnterState(ctx context.Context, e *fsm.Event) error {
	online := e.Dst == StateOnline
	c.logger.Info("Connectivity changed", "from", e.Src, "to", e.Dst,
		"network", c.network, "simulateOffline", c.simulateOffline)
	metrics.ConnectivityTransitions.WithLabelValues(e.Dst).Inc()
	c.publish(online)
	return nil
}

func (c *Coordinator) publish(online bool) {
	if online {
		metrics.Online.Set(1)
	} else {
		metrics.Online.Set(0)
	}
	if c.pub != nil {
		c.pub.SetOnline(online)
	}
}

// SetNetwork records the transport's reachability signal.
func (c *Coordinator) SetNetwork(ctx context.Context, up bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.network = up
	c.reconcile(ctx)
}

// SetSimulateOffline forces the core offline while enabled.
func (c *Coordinator) SetSimulateOffline(ctx context.Context, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.simulateOffline = enabled
	c.reconcile(ctx)
}

// ToggleSimulateOffline flips the override and returns its new value.
func (c *Coordinator) ToggleSimulateOffline(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.simulateOffline = !c.simulateOffline
	c.reconcile(ctx)
	return c.simulateOffline
}

// reconcile must be called with c.mu held.
func (c *Coordinator) reconcile(ctx context.Context) {
	target, event := StateOffline, EventDisconnect
	if c.network && !c.simulateOffline {
		target, event = StateOnline, EventConnect
	}
	if c.fsm.Current() == target {
		return
	}

	if err := c.fsm.Event(ctx, event); fsmutil.IsRealError(err) {
		c.logger.Error(err, "Failed to apply connectivity transition", "event", event)
	}
}

// Online is the effective flag last published.
func (c *Coordinator) Online() bool {
	return c.fsm.Current() == StateOnline
}

// Status is the JSON view served by the API.
type Status struct {
	Online          bool `json:"online"`
	Network         bool `json:"network"`
	SimulateOffline bool `json:"simulateOffline"`
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Online:          c.fsm.Current() == StateOnline,
		Network:         c.network,
		SimulateOffline: c.simulateOffline,
	}
}
