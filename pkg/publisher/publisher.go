// Package publisher serializes counter state into broker messages on fixed
// cadences. It only ever reads snapshots: the event path never waits on it,
// and a tick always reflects the latest state rather than a queued backlog.
package publisher

import (
	"context"
	"errors"
	"log"
	"time"

	"tracking-counter/pkg/broker"
	"tracking-counter/pkg/counter"
	"tracking-counter/pkg/health"
	"tracking-counter/pkg/message"
	"tracking-counter/pkg/telemetry"
)

// Sink is where encoded messages go. *broker.ConnectionManager implements it.
type Sink interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// SnapshotSource provides consistent count views. *counter.Counter implements it.
type SnapshotSource interface {
	SnapshotAll() map[string]counter.Snapshot
}

// StreamRoute maps one stream to its broker topic plus optional camera
// metadata echoed in count updates.
type StreamRoute struct {
	StreamID   string
	Topic      string
	CameraName string
	Location   string
}

// Config holds topics and cadences.
type Config struct {
	Streams        []StreamRoute
	HealthTopic    string
	AnalyticsTopic string

	CountInterval     time.Duration
	HealthInterval    time.Duration
	AnalyticsInterval time.Duration

	// PublishTimeout bounds each publish call so a stalled connection cannot
	// starve the schedule.
	PublishTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		HealthTopic:       "deepstream/health",
		AnalyticsTopic:    "deepstream/analytics",
		CountInterval:     time.Second,
		HealthInterval:    5 * time.Second,
		AnalyticsInterval: 10 * time.Second,
		PublishTimeout:    5 * time.Second,
	}
}

// Publisher runs the three periodic publishing tasks.
type Publisher struct {
	cfg     Config
	sink    Sink
	source  SnapshotSource
	sampler *health.Sampler
	clock   telemetry.Clock
	logger  *log.Logger
	emit    func(event telemetry.TelemetryEvent)

	// newTicker is swapped in tests to drive ticks deterministically.
	newTicker func(d time.Duration) (<-chan time.Time, func())
}

func New(cfg Config, sink Sink, source SnapshotSource, sampler *health.Sampler, logger *log.Logger, emit func(telemetry.TelemetryEvent)) *Publisher {
	def := DefaultConfig()
	if cfg.CountInterval <= 0 {
		cfg.CountInterval = def.CountInterval
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = def.HealthInterval
	}
	if cfg.AnalyticsInterval <= 0 {
		cfg.AnalyticsInterval = def.AnalyticsInterval
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = def.PublishTimeout
	}
	return &Publisher{
		cfg:     cfg,
		sink:    sink,
		source:  source,
		sampler: sampler,
		clock:   telemetry.RealClock{},
		logger:  logger,
		emit:    emit,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Run fires the three schedules until ctx is canceled. Each tick reads the
// latest snapshot; a failed publish drops that tick's message and the next
// tick starts from fresh state.
func (p *Publisher) Run(ctx context.Context) {
	countC, stopCount := p.newTicker(p.cfg.CountInterval)
	defer stopCount()
	healthC, stopHealth := p.newTicker(p.cfg.HealthInterval)
	defer stopHealth()
	analyticsC, stopAnalytics := p.newTicker(p.cfg.AnalyticsInterval)
	defer stopAnalytics()

	for {
		select {
		case <-ctx.Done():
			return
		case <-countC:
			p.PublishCounts(ctx)
		case <-healthC:
			p.PublishHealth(ctx)
		case <-analyticsC:
			p.PublishAnalytics(ctx)
		}
	}
}

// PublishCounts sends one CountUpdate per configured stream.
func (p *Publisher) PublishCounts(ctx context.Context) {
	now := p.clock.Now()
	counts := p.source.SnapshotAll()

	for _, route := range p.cfg.Streams {
		snap, ok := counts[route.StreamID]
		if !ok {
			// Not-yet-initialized stream: report zeros rather than skipping
			// the tick, so consumers see the stream exists.
			snap = counter.Snapshot{StreamID: route.StreamID, LiveIDs: []int64{}}
		}

		m := message.NewCountUpdate(now, route.StreamID)
		m.CameraName = route.CameraName
		m.Location = route.Location
		m.UniqueObjectsTracked = snap.LiveCount
		m.SessionNewObjects = snap.SessionCount
		m.TotalObjectsDetected = snap.TotalCount
		m.TrackedObjectIDs = snap.LiveIDs

		p.publish(ctx, route.Topic, m)
	}
}

// PublishHealth sends one HealthStatus.
func (p *Publisher) PublishHealth(ctx context.Context) {
	m := p.sampler.Sample(ctx, p.clock.Now(), p.source.SnapshotAll())
	p.publish(ctx, p.cfg.HealthTopic, m)
}

// PublishAnalytics sends one AnalyticsSummary.
func (p *Publisher) PublishAnalytics(ctx context.Context) {
	m := p.sampler.Summarize(p.clock.Now(), p.source.SnapshotAll())
	p.publish(ctx, p.cfg.AnalyticsTopic, m)
}

func (p *Publisher) publish(ctx context.Context, topic string, m message.Message) {
	payload, err := m.Encode()
	if err != nil {
		p.emitEvent(telemetry.NewCounterError(err, "message_encode", telemetry.ErrorSeverityError))
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.cfg.PublishTimeout)
	defer cancel()

	if err := p.sink.Publish(pubCtx, topic, payload); err != nil {
		// Best-effort delivery: the message for this tick is dropped either
		// way, but a fast-fail during an outage is expected and stays quiet.
		if errors.Is(err, broker.ErrNotConnected) {
			p.emitEvent(telemetry.NewCounterError(err, "broker_publish", telemetry.ErrorSeverityInfo))
			return
		}
		if p.logger != nil {
			p.logger.Printf("publish to %s failed: %v", topic, err)
		}
		p.emitEvent(telemetry.NewCounterError(err, "broker_publish", telemetry.ErrorSeverityWarning))
		return
	}

	p.emitEvent(telemetry.NewMessagePublished(topic, m.Type()))
}

func (p *Publisher) emitEvent(ev telemetry.TelemetryEvent) {
	if p.emit != nil {
		p.emit(ev)
	}
}
