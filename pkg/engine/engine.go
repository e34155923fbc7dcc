// Package engine assembles the counting pipeline: detection intake,
// deduplication, durable count persistence, broker connection management, and
// the periodic telemetry publisher. It owns the service lifecycle.
package engine

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"tracking-counter/pkg/broker"
	"tracking-counter/pkg/config"
	"tracking-counter/pkg/counter"
	"tracking-counter/pkg/health"
	"tracking-counter/pkg/persist"
	"tracking-counter/pkg/publisher"
	"tracking-counter/pkg/telemetry"
)

// State is the engine lifecycle position.
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "initializing"
	}
}

// Engine wires the pipeline components and runs them as one unit. Detections
// enter through Observe; everything downstream of the counter reads snapshots
// on its own schedule.
type Engine struct {
	cfg    *config.Config
	logger *log.Logger
	tel    telemetry.TelemetryPublisher

	counter *counter.Counter
	store   *persist.Store
	connMgr *broker.ConnectionManager
	pub     *publisher.Publisher

	state atomic.Int32

	evictionInterval time.Duration
	shutdownFlush    time.Duration
}

// New builds an engine over an injected broker and host metrics source. Pass
// nil metrics to sample the live host.
func New(cfg *config.Config, b broker.Broker, metrics health.SystemMetrics, logger *log.Logger, tel telemetry.TelemetryPublisher) *Engine {
	e := &Engine{
		cfg:              cfg,
		logger:           logger,
		tel:              tel,
		evictionInterval: time.Duration(cfg.Counting.EvictionIntervalSeconds) * time.Second,
		shutdownFlush:    time.Duration(cfg.Timeouts.ShutdownFlushSeconds) * time.Second,
	}
	if e.evictionInterval <= 0 {
		e.evictionInterval = 5 * time.Second
	}
	if e.shutdownFlush <= 0 {
		e.shutdownFlush = 5 * time.Second
	}

	thresholds := make(map[string]float64)
	for _, s := range cfg.Streams {
		if s.ConfidenceThreshold > 0 {
			thresholds[s.ID] = s.ConfidenceThreshold
		}
	}
	e.counter = counter.New(counter.Config{
		ConfidenceThreshold: cfg.Counting.ConfidenceThreshold,
		StreamThresholds:    thresholds,
		EvictionWindow:      time.Duration(cfg.Counting.EvictionWindowSeconds) * time.Second,
	}, logger)

	e.store = persist.NewStore(persist.Config{
		Path:                   cfg.Persistence.Path,
		SaveInterval:           time.Duration(cfg.Persistence.SaveIntervalSeconds) * time.Second,
		MaxConsecutiveFailures: cfg.Persistence.MaxFailures,
	}, logger)

	// Every counted object makes the on-disk snapshot stale.
	e.counter.SetOnNew(func(counter.DetectionEvent) { e.store.MarkDirty() })
	e.store.SetOnSave(func(streams int, err error) {
		if err != nil {
			e.emit(telemetry.NewCounterError(err, "persist_save", telemetry.ErrorSeverityWarning))
			return
		}
		e.emit(telemetry.NewSnapshotSaved(streams))
	})

	e.connMgr = broker.NewConnectionManager(b, broker.BackoffConfig{
		Initial: time.Duration(cfg.Network.InitialBackoffSeconds) * time.Second,
		Max:     time.Duration(cfg.Network.MaxBackoffSeconds) * time.Second,
		Jitter:  cfg.Network.BackoffJitter,
	}, logger, e.emit)

	routes := make([]publisher.StreamRoute, 0, len(cfg.Streams))
	for _, s := range cfg.Streams {
		routes = append(routes, publisher.StreamRoute{
			StreamID:   s.ID,
			Topic:      s.Topic,
			CameraName: s.CameraName,
			Location:   s.Location,
		})
	}
	sampler := health.NewSampler(metrics, logger, time.Now())
	e.pub = publisher.New(publisher.Config{
		Streams:           routes,
		HealthTopic:       cfg.Publish.HealthTopic,
		AnalyticsTopic:    cfg.Publish.AnalyticsTopic,
		CountInterval:     time.Duration(cfg.Publish.CountIntervalSeconds) * time.Second,
		HealthInterval:    time.Duration(cfg.Publish.HealthIntervalSeconds) * time.Second,
		AnalyticsInterval: time.Duration(cfg.Publish.AnalyticsIntervalSeconds) * time.Second,
		PublishTimeout:    time.Duration(cfg.Timeouts.PublishSeconds) * time.Second,
	}, e.connMgr, e.counter, sampler, logger, e.emit)

	return e
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
}

// Observe feeds one detection into the counter. Events arriving outside the
// running state are dropped.
func (e *Engine) Observe(ev counter.DetectionEvent) counter.Outcome {
	if e.State() != StateRunning {
		return counter.OutcomeRejected
	}
	outcome := e.counter.Observe(ev)
	e.emit(telemetry.NewDetectionObserved(ev.StreamID, outcome.String()))
	if outcome == counter.OutcomeNew {
		e.emit(telemetry.NewObjectCounted(ev.StreamID, ev.TrackerID, ev.ClassID))
	}
	return outcome
}

// Counts returns the current per-stream snapshots, for status display.
func (e *Engine) Counts() map[string]counter.Snapshot {
	return e.counter.SnapshotAll()
}

// Run starts the pipeline and blocks until ctx is canceled or persistence
// fails fatally. Shutdown always attempts a final flush of unsaved counts
// before the broker connection is torn down.
func (e *Engine) Run(ctx context.Context) error {
	records := e.store.Load()
	for id, rec := range records {
		e.counter.Seed(id, rec.TotalCount, rec.LastUpdated)
	}
	if e.logger != nil {
		e.logger.Printf("engine starting: %d streams configured, %d restored from snapshot",
			len(e.cfg.Streams), len(records))
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.connMgr.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		e.pub.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		e.evictionLoop(runCtx)
	}()

	fatalCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := e.store.Run(runCtx, e.snapshotRecords); err != nil {
			fatalCh <- err
		}
	}()

	e.setState(StateRunning)

	var fatal error
	select {
	case <-ctx.Done():
	case fatal = <-fatalCh:
		e.emit(telemetry.NewCounterError(fatal, "persist_save", telemetry.ErrorSeverityCritical))
		if e.logger != nil {
			e.logger.Printf("fatal: %v", fatal)
		}
	}

	e.setState(StateShuttingDown)
	cancel()
	wg.Wait()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), e.shutdownFlush)
	flushErr := e.store.Flush(flushCtx, e.snapshotRecords)
	flushCancel()
	if flushErr != nil && e.logger != nil {
		e.logger.Printf("final snapshot flush failed: %v", flushErr)
	}

	e.connMgr.Close()
	e.setState(StateTerminated)

	if fatal != nil {
		return fatal
	}
	return flushErr
}

func (e *Engine) evictionLoop(ctx context.Context) {
	ticker := time.NewTicker(e.evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := e.counter.Evict(now); n > 0 {
				e.emit(telemetry.NewObjectsEvicted(n))
				if e.logger != nil {
					e.logger.Printf("evicted %d stale tracker ids", n)
				}
			}
		}
	}
}

func (e *Engine) snapshotRecords() map[string]persist.StreamRecord {
	snaps := e.counter.SnapshotAll()
	records := make(map[string]persist.StreamRecord, len(snaps))
	for id, s := range snaps {
		records[id] = persist.StreamRecord{
			TotalCount:   s.TotalCount,
			SessionCount: s.SessionCount,
			LastUpdated:  s.LastUpdated,
		}
	}
	return records
}

func (e *Engine) emit(event telemetry.TelemetryEvent) {
	if e.tel != nil {
		e.tel.Publish(event)
	}
}
