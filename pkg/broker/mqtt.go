package broker

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	ClientID       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

// mqttBroker implements Broker on the paho MQTT client. Publishes are QoS 0,
// fire-and-forget, with a per-call timeout so a stalled connection cannot
// starve the publisher's schedule.
type mqttBroker struct {
	cfg    MQTTConfig
	logger *log.Logger
	client mqtt.Client

	// onConnectionLost fires from paho's network goroutine when an
	// established connection drops.
	onConnectionLost func(err error)
}

// NewMQTT creates an MQTT-backed Broker. The client id gets a random suffix
// so two instances never collide on the broker.
func NewMQTT(cfg MQTTConfig, logger *log.Logger, onConnectionLost func(err error)) Broker {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	cfg.ClientID = fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8])
	return &mqttBroker{cfg: cfg, logger: logger, onConnectionLost: onConnectionLost}
}

func (b *mqttBroker) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", b.cfg.Host, b.cfg.Port)).
		SetClientID(b.cfg.ClientID).
		SetUsername(b.cfg.Username).
		SetPassword(b.cfg.Password).
		SetConnectTimeout(b.cfg.ConnectTimeout).
		SetAutoReconnect(false). // reconnection policy lives in ConnectionManager
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			if b.logger != nil {
				b.logger.Printf("broker connection lost: %v", err)
			}
			if b.onConnectionLost != nil {
				b.onConnectionLost(err)
			}
		})

	b.client = mqtt.NewClient(opts)

	token := b.client.Connect()
	if !token.WaitTimeout(b.cfg.ConnectTimeout) {
		return fmt.Errorf("connect to %s:%d timed out after %s", b.cfg.Host, b.cfg.Port, b.cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s:%d: %w", b.cfg.Host, b.cfg.Port, err)
	}
	return nil
}

func (b *mqttBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	if b.client == nil || !b.client.IsConnected() {
		return fmt.Errorf("not connected to broker")
	}

	timeout := b.cfg.PublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	token := b.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to %s timed out after %s", topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (b *mqttBroker) IsConnected() bool {
	return b.client != nil && b.client.IsConnected()
}

func (b *mqttBroker) Close() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
	}
}
