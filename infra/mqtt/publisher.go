// Package mqtt publishes engine lifecycle events to an MQTT broker so
// dashboard clients can react live instead of polling the HTTP API.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/parcelops/dispatchd/core/events"
	"github.com/parcelops/dispatchd/infra/logger"
	"github.com/parcelops/dispatchd/internal/eventbus"
)

// Config defines the connection parameters for the Paho MQTT publisher.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatchd"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "dispatchd"
	}
}

// Publisher bridges the internal event bus onto MQTT topics.
type Publisher struct {
	cli    paho.Client
	cfg    Config
	bus    eventbus.EventBus
	log    logger.Logger
	cancel context.CancelFunc
}

// NewPublisher connects to the broker and starts forwarding bus events.
func NewPublisher(cfg Config, bus eventbus.EventBus) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("mqtt: nil event bus")
	}
	cfg.SetDefaults()
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	cli := paho.NewClient(opts)
	tok := cli.Connect()
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %v", tok.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Publisher{cli: cli, cfg: cfg, bus: bus, log: logger.New("mqtt-publisher"), cancel: cancel}
	go p.forward(ctx)
	return p, nil
}

// forward consumes the bus subscription until the context is cancelled.
func (p *Publisher) forward(ctx context.Context) {
	sub := p.bus.Subscribe()
	defer p.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if topic, payload, ok := p.encode(ev); ok {
				p.publish(topic, payload)
			}
		}
	}
}

// encode maps an event to its topic suffix and JSON payload. Unknown event
// types are skipped.
func (p *Publisher) encode(ev eventbus.Event) (string, []byte, bool) {
	var suffix string
	switch ev.(type) {
	case events.PackStartedEvent:
		suffix = "pack/started"
	case events.PackStatusEvent:
		suffix = "pack/status"
	case events.PackCompletedEvent:
		suffix = "pack/completed"
	case events.BatchDetectedEvent:
		suffix = "batch/detected"
	case events.MetricsEvent:
		suffix = "metrics/updated"
	case events.QueueRecomputedEvent:
		suffix = "queue/recomputed"
	default:
		return "", nil, false
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("event marshal: %v", err)
		return "", nil, false
	}
	return p.cfg.TopicPrefix + "/" + suffix, payload, true
}

func (p *Publisher) publish(topic string, payload []byte) {
	tok := p.cli.Publish(topic, p.cfg.QoS, false, payload)
	if !tok.WaitTimeout(2 * time.Second) {
		p.log.Warnf("publish timeout on %s", topic)
		return
	}
	if err := tok.Error(); err != nil {
		p.log.Errorf("publish %s: %v", topic, err)
	}
}

// Close stops forwarding and disconnects from the broker.
func (p *Publisher) Close() {
	p.cancel()
	p.cli.Disconnect(250)
}
