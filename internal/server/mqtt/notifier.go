package mqtt

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/autopeer-io/evfleet/internal/fleet/model"
	"github.com/autopeer-io/evfleet/internal/fleet/store"
	"github.com/autopeer-io/evfleet/pkg/log"
	pkgmqtt "github.com/autopeer-io/evfleet/pkg/mqtt"
	"github.com/autopeer-io/evfleet/pkg/mqtt/topic"
)

const defaultNotifyBuffer = 128

// StateSource is the part of the store the notifier observes.
type StateSource interface {
	Snapshot() store.State
	Subscribe(fn store.Listener) (unsubscribe func())
}

// AlertNotifier publishes every newly accepted alert to
// {root}/alerts/{vehicleId}. Publishing happens on its own goroutine so store
// listeners never wait on the broker.
type AlertNotifier struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	source StateSource
	queue  chan model.Alert

	mu sync.Mutex
	// known holds the alert ids of the last observed state.
	known map[string]struct{}
}

func NewAlertNotifier(client pkgmqtt.Client, topics *topic.TopicBuilder, source StateSource) *AlertNotifier {
	return &AlertNotifier{
		client: client,
		topics: topics,
		source: source,
		queue:  make(chan model.Alert, defaultNotifyBuffer),
		known:  map[string]struct{}{},
	}
}

// Start observes the store until ctx is done. Alerts present before Start
// are not published.
func (n *AlertNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	for _, a := range n.source.Snapshot().Alerts {
		n.known[a.ID] = struct{}{}
	}
	n.mu.Unlock()
	unsubscribe := n.source.Subscribe(n.observe)
	defer unsubscribe()

	log.Info("Alert notifier started", "topic", n.topics.AlertWildcard())
	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-n.queue:
			if err := n.publish(ctx, a); err != nil {
				log.Error(err, "Failed to publish alert", "alertID", a.ID, "vehicleID", a.VehicleID)
			}
		}
	}
}

func (n *AlertNotifier) observe(s store.State) {
	n.mu.Lock()
	defer n.mu.Unlock()

	next := make(map[string]struct{}, len(s.Alerts))
	for _, a := range s.Alerts {
		next[a.ID] = struct{}{}
		if _, seen := n.known[a.ID]; seen {
			continue
		}
		select {
		case n.queue <- a:
		default:
			log.Warn("Alert notification queue full, dropping", "alertID", a.ID)
		}
	}
	n.known = next
}

func (n *AlertNotifier) publish(ctx context.Context, a model.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.topics.Alert(a.VehicleID), DefaultQoS, false, payload)
}
