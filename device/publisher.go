// Package device delivers the daily spray signal to the field device over
// MQTT.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Signal holds one spray decision per tray station in station order, 1 to
// spray and 0 otherwise
type Signal []int

// signalMessage is the payload the device expects
type signalMessage struct {
	Signal Signal `json:"signal"`
}

// Payload returns the JSON message for the signal
func (s Signal) Payload() ([]byte, error) {

	if s == nil {
		s = Signal{}
	}

	return json.Marshal(signalMessage{Signal: s})
}

// Config holds the broker settings
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
	Retain   bool
	// Timeout bounds connect and publish when the context has no deadline
	Timeout time.Duration
}

// Publisher sends signals to the device topic
type Publisher struct {
	cfg    Config
	client mqtt.Client
	log    *slog.Logger
	mu     sync.Mutex
}

// NewPublisher returns a publisher for the broker.  The connection is made on
// the first Send
func NewPublisher(cfg Config, log *slog.Logger) (*Publisher, error) {

	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker is required")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	return newPublisher(cfg, mqtt.NewClient(opts), log)
}

func newPublisher(cfg Config, client mqtt.Client, log *slog.Logger) (*Publisher, error) {

	if cfg.Topic == "" {
		return nil, fmt.Errorf("mqtt topic is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if log == nil {
		log = slog.Default()
	}

	return &Publisher{
		cfg:    cfg,
		client: client,
		log:    log,
	}, nil
}

// wait blocks until the token completes or the context ends
func wait(ctx context.Context, token mqtt.Token) error {

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) connect(ctx context.Context) error {

	if p.client.IsConnected() {
		return nil
	}

	if err := wait(ctx, p.client.Connect()); err != nil {
		return fmt.Errorf("error connecting to %s: %w", p.cfg.Broker, err)
	}

	p.log.Debug("connected to mqtt broker", "broker", p.cfg.Broker)

	return nil
}

// Send publishes the signal, connecting first if needed
func (p *Publisher) Send(ctx context.Context, s Signal) error {

	payload, err := s.Payload()

	if err != nil {
		return fmt.Errorf("error encoding signal: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(ctx); err != nil {
		return err
	}

	token := p.client.Publish(p.cfg.Topic, p.cfg.QoS, p.cfg.Retain, payload)

	if err := wait(ctx, token); err != nil {
		return fmt.Errorf("error publishing to %s: %w", p.cfg.Topic, err)
	}

	p.log.Info("signal sent", "topic", p.cfg.Topic, "signal", []int(s))

	return nil
}

// Close disconnects from the broker
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
