// Package mqttprobe provides a broker-side diagnostic for station sensor
// topics: it connects straight to the MQTT broker and waits for one
// message on a topic, independently of the backend's ingest pipeline.
// When a device looks silent this tells apart "device not publishing"
// from "backend not ingesting".
package mqttprobe

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/slopewatch/slopewatch-go/internal/errors"
	"github.com/slopewatch/slopewatch-go/internal/logging"
)

var probeLogger *slog.Logger

func init() {
	probeLogger = logging.ForService("mqtt-probe")
}

// Config holds the broker connection parameters.
type Config struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// Message is one observed MQTT message.
type Message struct {
	Topic    string
	Payload  []byte
	Received time.Time
}

// Prober waits for messages on sensor topics.
type Prober interface {
	// WaitForMessage subscribes to topic and blocks until one message
	// arrives or ctx expires.
	WaitForMessage(ctx context.Context, topic string) (*Message, error)

	// Disconnect closes the broker connection.
	Disconnect()
}

type prober struct {
	config Config

	mu             sync.Mutex
	internalClient mqtt.Client
}

// New creates a Prober. The broker is not contacted until the first
// WaitForMessage call.
func New(config Config) (Prober, error) {
	if config.Broker == "" {
		return nil, errors.ValidationError("mqtt broker address is required")
	}
	if _, err := url.Parse(config.Broker); err != nil {
		return nil, errors.Newf("invalid broker URL %q: %w", config.Broker, err).
			Category(errors.CategoryValidation).
			Build()
	}
	if config.ClientID == "" {
		config.ClientID = "slopewatch-probe"
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 30 * time.Second
	}
	return &prober{config: config}, nil
}

func (p *prober) connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.internalClient != nil && p.internalClient.IsConnected() {
		return nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.config.Broker)
	opts.SetClientID(p.config.ClientID)
	opts.SetUsername(p.config.Username)
	opts.SetPassword(p.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(p.config.ConnectTimeout)

	p.internalClient = mqtt.NewClient(opts)

	token := p.internalClient.Connect()
	if !token.WaitTimeout(p.config.ConnectTimeout) {
		return errors.Newf("timeout connecting to broker %s", p.config.Broker).
			Category(errors.CategoryMQTTConnection).
			Context("broker", p.config.Broker).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(err).
			Category(errors.CategoryMQTTConnection).
			Context("broker", p.config.Broker).
			Build()
	}

	probeLogger.Info("connected to broker", "broker", p.config.Broker, "client_id", p.config.ClientID)
	return nil
}

// WaitForMessage subscribes to topic and returns the first message seen.
// The subscription is removed before returning, success or not.
func (p *prober) WaitForMessage(ctx context.Context, topic string) (*Message, error) {
	if topic == "" {
		return nil, errors.ValidationError("topic is required")
	}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}

	msgChan := make(chan *Message, 1)
	handler := func(_ mqtt.Client, m mqtt.Message) {
		select {
		case msgChan <- &Message{
			Topic:    m.Topic(),
			Payload:  m.Payload(),
			Received: time.Now(),
		}:
		default:
		}
	}

	p.mu.Lock()
	client := p.internalClient
	p.mu.Unlock()

	token := client.Subscribe(topic, 0, handler)
	if !token.WaitTimeout(p.config.ConnectTimeout) {
		return nil, errors.Newf("timeout subscribing to %s", topic).
			Category(errors.CategoryMQTTConnection).
			Context("topic", topic).
			Build()
	}
	if err := token.Error(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryMQTTConnection).
			Context("topic", topic).
			Build()
	}
	defer func() {
		unsub := client.Unsubscribe(topic)
		if !unsub.WaitTimeout(5*time.Second) || unsub.Error() != nil {
			probeLogger.Warn("failed to unsubscribe", "topic", topic, "error", unsub.Error())
		}
	}()

	probeLogger.Info("waiting for message", "topic", topic)
	select {
	case msg := <-msgChan:
		probeLogger.Info("message received", "topic", msg.Topic, "bytes", len(msg.Payload))
		return msg, nil
	case <-ctx.Done():
		return nil, errors.Newf("no message on %s: %w", topic, ctx.Err()).
			Category(errors.CategoryTimeout).
			Context("topic", topic).
			Build()
	}
}

// Disconnect closes the broker connection if one is open.
func (p *prober) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.internalClient != nil && p.internalClient.IsConnected() {
		p.internalClient.Disconnect(250)
		probeLogger.Info("disconnected from broker", "broker", p.config.Broker)
	}
	p.internalClient = nil
}
