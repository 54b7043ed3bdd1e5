package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/autopeer-io/evfleet/pkg/log"
	"github.com/autopeer-io/evfleet/pkg/mqtt/topic"
)

var errNotStarted = errors.New("mqtt client not started")

var _ Client = (*pahoClient)(nil)

type pahoClient struct {
	cfg    *ClientConfig
	logger log.Logger

	cm *autopaho.ConnectionManager
	// ctx is the Start context, handed to message handlers.
	ctx       context.Context
	connected atomic.Bool

	mu   sync.RWMutex
	subs map[string]subscription
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// NewClient validates cfg, fills in defaults and returns a client that is not
// yet connected.
func NewClient(cfg *ClientConfig) (Client, error) {
	if cfg == nil {
		return nil, errors.New("mqtt config is required")
	}
	setDefaultConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mqtt config: %w", err)
	}

	return &pahoClient{
		cfg:    cfg,
		logger: log.WithName("mqtt").WithValues("clientID", cfg.ClientID),
		ctx:    context.Background(),
		subs:   make(map[string]subscription),
	}, nil
}

func (c *pahoClient) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(c.cfg.BrokerURL)
	if err != nil {
		return err
	}

	c.logger.Info("Starting MQTT Client", "broker", c.cfg.BrokerURL)

	c.ctx = ctx
	cm, err := autopaho.NewConnection(ctx, c.pahoConfig(brokerURL))
	if err != nil {
		return fmt.Errorf("failed to start connection manager: %w", err)
	}
	c.cm = cm
	return nil
}

func (c *pahoClient) pahoConfig(broker *url.URL) autopaho.ClientConfig {
	cfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{broker},
		KeepAlive:                     c.cfg.KeepAlive,
		CleanStartOnInitialConnection: c.cfg.CleanStart,
		SessionExpiryInterval:         c.cfg.SessionExpiry,
		ReconnectBackoff:              autopaho.NewConstantBackoff(c.cfg.ReconnectBackoff),
		ConnectTimeout:                c.cfg.ConnectTimeout,
		ConnectUsername:               c.cfg.Username,
		ConnectPassword:               []byte(c.cfg.Password),
		OnConnectionUp:                c.onConnectionUp,
		OnConnectError:                c.onConnectError,
		ClientConfig: paho.ClientConfig{
			ClientID:           c.cfg.ClientID,
			OnClientError:      c.onClientError,
			OnServerDisconnect: c.onServerDisconnect,
			OnPublishReceived:  []func(paho.PublishReceived) (bool, error){c.dispatch},
		},
	}
	if c.cfg.InsecureSkipVerify {
		cfg.TlsCfg = &tls.Config{InsecureSkipVerify: true}
	}
	if c.cfg.WillTopic != "" {
		cfg.WillMessage = &paho.WillMessage{
			Topic:   c.cfg.WillTopic,
			Payload: c.cfg.WillPayload,
			QoS:     c.cfg.WillQoS,
			Retain:  c.cfg.WillRetain,
		}
	}
	return cfg
}

func (c *pahoClient) Disconnect(ctx context.Context) {
	if c.cm == nil {
		return
	}
	if err := c.cm.Disconnect(ctx); err != nil {
		c.logger.Warn("MQTT disconnect was not clean", "err", err)
	}
	c.setConnected(false)
	c.logger.Info("MQTT Client disconnected")
}

func (c *pahoClient) Publish(ctx context.Context, t string, qos int, retain bool, payload []byte) error {
	if c.cm == nil {
		return errNotStarted
	}
	if topic.HasWildcard(t) {
		return fmt.Errorf("cannot publish to filter %q", t)
	}

	_, err := c.cm.Publish(ctx, &paho.Publish{
		Topic:   t,
		QoS:     byte(qos),
		Retain:  retain,
		Payload: payload,
	})
	return err
}

// Subscribe records the handler first, so a subscription made while offline
// is sent by onConnectionUp once the broker is reachable.
func (c *pahoClient) Subscribe(ctx context.Context, filter string, qos int, handler MessageHandler) error {
	if c.cm == nil {
		return errNotStarted
	}

	c.mu.Lock()
	c.subs[filter] = subscription{qos: byte(qos), handler: handler}
	c.mu.Unlock()

	if !c.IsConnected() {
		c.logger.Info("Subscription deferred until connected", "topic", filter)
		return nil
	}

	if _, err := c.cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: filter, QoS: byte(qos)}},
	}); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
	}

	c.logger.Info("Subscribed to topic", "topic", filter)
	return nil
}

func (c *pahoClient) Unsubscribe(ctx context.Context, filter string) error {
	if c.cm == nil {
		return errNotStarted
	}

	c.mu.Lock()
	delete(c.subs, filter)
	c.mu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	_, err := c.cm.Unsubscribe(ctx, &paho.Unsubscribe{Topics: []string{filter}})
	return err
}

func (c *pahoClient) AwaitConnection(ctx context.Context) error {
	if c.cm == nil {
		return errNotStarted
	}
	return c.cm.AwaitConnection(ctx)
}

func (c *pahoClient) IsConnected() bool {
	return c.connected.Load()
}

// setConnected notifies OnConnectionChange on transitions only.
func (c *pahoClient) setConnected(up bool) {
	if c.connected.Swap(up) == up {
		return
	}
	if c.cfg.OnConnectionChange != nil {
		c.cfg.OnConnectionChange(up)
	}
}

// subscriptionOptions returns the registered filters in a stable order.
func (c *pahoClient) subscriptionOptions() []paho.SubscribeOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()

	opts := make([]paho.SubscribeOptions, 0, len(c.subs))
	for filter, s := range c.subs {
		opts = append(opts, paho.SubscribeOptions{Topic: filter, QoS: s.qos})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Topic < opts[j].Topic })
	return opts
}

// handlersFor returns the handlers whose filter matches t.
func (c *pahoClient) handlersFor(t string) []MessageHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var handlers []MessageHandler
	for filter, s := range c.subs {
		if topic.Match(filter, t) {
			handlers = append(handlers, s.handler)
		}
	}
	return handlers
}

func (c *pahoClient) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	c.logger.Info("MQTT Connection established")
	c.setConnected(true)

	opts := c.subscriptionOptions()
	if len(opts) == 0 {
		return
	}
	if _, err := cm.Subscribe(c.ctx, &paho.Subscribe{Subscriptions: opts}); err != nil {
		c.logger.Error(err, "Failed to restore subscriptions", "count", len(opts))
		return
	}
	c.logger.Info("Subscriptions restored", "count", len(opts))
}

func (c *pahoClient) onConnectError(err error) {
	c.logger.Error(err, "MQTT Connection failed, retrying", "backoff", c.cfg.ReconnectBackoff)
	c.setConnected(false)
}

func (c *pahoClient) onClientError(err error) {
	c.logger.Error(err, "MQTT Client internal error")
	c.setConnected(false)
}

func (c *pahoClient) onServerDisconnect(d *paho.Disconnect) {
	reason := ""
	if d.Properties != nil {
		reason = d.Properties.ReasonString
	}
	c.logger.Warn("MQTT Server requested disconnect", "reason", reason, "code", d.ReasonCode)
	c.setConnected(false)
}

// dispatch hands an incoming message to every matching handler. Handlers run
// inline so messages on one topic keep their order.
func (c *pahoClient) dispatch(p paho.PublishReceived) (bool, error) {
	handlers := c.handlersFor(p.Packet.Topic)
	if len(handlers) == 0 {
		c.logger.Debug("Received message on unhandled topic", "topic", p.Packet.Topic)
		return true, nil
	}
	for _, h := range handlers {
		h(c.ctx, p.Packet.Topic, p.Packet.Payload)
	}
	return true, nil
}
