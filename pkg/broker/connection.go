package broker

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"tracking-counter/pkg/telemetry"
)

// State is the connection lifecycle position.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned by Publish while the manager is not in the
// connected state. Callers treat it as a dropped tick, not a fault.
var ErrNotConnected = errors.New("broker not connected")

// BackoffConfig bounds the reconnect schedule.
type BackoffConfig struct {
	Initial time.Duration
	Max     time.Duration
	Jitter  float64
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{Initial: time.Second, Max: 30 * time.Second, Jitter: 0.2}
}

// ConnectionManager owns the broker connection lifecycle:
// DISCONNECTED -> CONNECTING -> CONNECTED -> (on failure) DISCONNECTED,
// reconnecting with bounded exponential backoff. Publish fast-fails while
// disconnected so scheduled telemetry ticks never stack up behind a dead
// connection.
type ConnectionManager struct {
	broker  Broker
	backoff BackoffConfig
	logger  *log.Logger
	emit    func(event telemetry.TelemetryEvent)

	state atomic.Int32

	// checkInterval is how often an established connection is re-verified.
	checkInterval time.Duration
}

func NewConnectionManager(b Broker, backoff BackoffConfig, logger *log.Logger, emit func(telemetry.TelemetryEvent)) *ConnectionManager {
	if backoff.Initial <= 0 {
		backoff.Initial = DefaultBackoff().Initial
	}
	if backoff.Max < backoff.Initial {
		backoff.Max = DefaultBackoff().Max
	}
	return &ConnectionManager{
		broker:        b,
		backoff:       backoff,
		logger:        logger,
		emit:          emit,
		checkInterval: time.Second,
	}
}

func (m *ConnectionManager) State() State {
	return State(m.state.Load())
}

func (m *ConnectionManager) setState(s State) {
	m.state.Store(int32(s))
}

// Publish sends one payload if connected, otherwise fails fast.
func (m *ConnectionManager) Publish(ctx context.Context, topic string, payload []byte) error {
	if m.State() != StateConnected {
		return ErrNotConnected
	}
	return m.broker.Publish(ctx, topic, payload)
}

// Run maintains the connection until ctx is canceled. Every loss is followed
// by reconnect attempts spaced with doubling, jittered, capped backoff.
func (m *ConnectionManager) Run(ctx context.Context) {
	delay := m.backoff.Initial

	for {
		if ctx.Err() != nil {
			return
		}

		if !m.broker.IsConnected() {
			if m.State() == StateConnected {
				m.setState(StateDisconnected)
				m.emitConn(false)
				m.logf("broker connection lost")
			}

			m.setState(StateConnecting)
			if err := m.broker.Connect(ctx); err != nil {
				m.setState(StateDisconnected)
				m.emitErr(err)
				m.logf("broker connect failed, retrying in %s: %v", delay, err)
				if !m.sleep(ctx, m.jittered(delay)) {
					return
				}
				delay *= 2
				if delay > m.backoff.Max {
					delay = m.backoff.Max
				}
				continue
			}

			m.setState(StateConnected)
			m.emitConn(true)
			m.logf("connected to broker")
			delay = m.backoff.Initial
		}

		if !m.sleep(ctx, m.checkInterval) {
			return
		}
	}
}

// Close tears the connection down and marks the manager disconnected.
func (m *ConnectionManager) Close() {
	m.broker.Close()
	if m.State() == StateConnected {
		m.emitConn(false)
	}
	m.setState(StateDisconnected)
}

func (m *ConnectionManager) jittered(d time.Duration) time.Duration {
	if m.backoff.Jitter <= 0 {
		return d
	}
	return d + time.Duration(rand.Float64()*m.backoff.Jitter*float64(d))
}

func (m *ConnectionManager) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (m *ConnectionManager) emitConn(connected bool) {
	if m.emit != nil {
		m.emit(telemetry.NewConnectionStatusChanged(connected))
	}
}

func (m *ConnectionManager) emitErr(err error) {
	if m.emit != nil {
		m.emit(telemetry.NewCounterError(err, "broker_connect", telemetry.ErrorSeverityWarning))
	}
}

func (m *ConnectionManager) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
