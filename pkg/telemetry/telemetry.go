package telemetry

import (
	"context"
	"sync"
	"time"
)

// Clock interface allows for deterministic testing
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Config for telemetry settings
type Config struct {
	BufferSize        int
	MaxRecentErrors   int
	RateWindowSeconds int
}

func DefaultConfig() Config {
	return Config{
		BufferSize:        1000,
		MaxRecentErrors:   50,
		RateWindowSeconds: 10,
	}
}

// Aggregator is the stateful component that folds operational events into
// counters the CLI status view reads. It is decoupled from the broker-facing
// telemetry publisher; this is in-process observability only.
type Aggregator struct {
	mu    sync.RWMutex
	clock Clock
	cfg   Config

	// Core counters
	detectionsObserved uint64
	objectsCounted     uint64
	objectsEvicted     uint64
	snapshotsSaved     uint64
	messagesPublished  uint64
	errorsTotal        uint64

	// Breakdowns
	countedByClass     map[int]uint64
	countedByStream    map[string]uint64
	publishedByKind    map[string]uint64
	outcomesByName     map[string]uint64
	errorsByType       map[string]uint64
	errorsBySeverity   map[ErrorSeverity]uint64

	// Rate calculation ring
	detectionTimes []time.Time

	// Current state
	brokerConnected bool

	// Recent errors (ring buffer)
	recentErrors []string
	errorIndex   int

	// Control channels
	eventCh chan TelemetryEvent
	done    chan struct{}
	wg      sync.WaitGroup

	startTime time.Time
}

// NewAggregator creates a new telemetry aggregator
func NewAggregator(clock Clock, cfg Config) *Aggregator {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.MaxRecentErrors <= 0 {
		cfg.MaxRecentErrors = DefaultConfig().MaxRecentErrors
	}
	if cfg.RateWindowSeconds <= 0 {
		cfg.RateWindowSeconds = DefaultConfig().RateWindowSeconds
	}

	return &Aggregator{
		clock:            clock,
		cfg:              cfg,
		countedByClass:   make(map[int]uint64),
		countedByStream:  make(map[string]uint64),
		publishedByKind:  make(map[string]uint64),
		outcomesByName:   make(map[string]uint64),
		errorsByType:     make(map[string]uint64),
		errorsBySeverity: make(map[ErrorSeverity]uint64),
		detectionTimes:   make([]time.Time, 0, cfg.RateWindowSeconds*10),
		recentErrors:     make([]string, cfg.MaxRecentErrors),
		eventCh:          make(chan TelemetryEvent, cfg.BufferSize),
		done:             make(chan struct{}),
		startTime:        clock.Now(),
	}
}

// Start begins processing telemetry events
func (a *Aggregator) Start(ctx context.Context) {
	a.wg.Add(1)
	go a.processEvents(ctx)
}

// Stop gracefully shuts down the aggregator
func (a *Aggregator) Stop() {
	close(a.done)
	a.wg.Wait()
}

// Publish implements TelemetryPublisher. It never blocks the hot path: when
// the channel is full the event is dropped.
func (a *Aggregator) Publish(event TelemetryEvent) {
	select {
	case a.eventCh <- event:
	default:
	}
}

// Snapshot implements TelemetryReader.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	now := a.clock.Now()

	classCopy := make(map[int]uint64, len(a.countedByClass))
	for k, v := range a.countedByClass {
		classCopy[k] = v
	}
	streamCopy := make(map[string]uint64, len(a.countedByStream))
	for k, v := range a.countedByStream {
		streamCopy[k] = v
	}
	kindCopy := make(map[string]uint64, len(a.publishedByKind))
	for k, v := range a.publishedByKind {
		kindCopy[k] = v
	}
	outcomeCopy := make(map[string]uint64, len(a.outcomesByName))
	for k, v := range a.outcomesByName {
		outcomeCopy[k] = v
	}
	errorsByTypeCopy := make(map[string]uint64, len(a.errorsByType))
	for k, v := range a.errorsByType {
		errorsByTypeCopy[k] = v
	}
	errorsBySeverityCopy := make(map[ErrorSeverity]uint64, len(a.errorsBySeverity))
	for k, v := range a.errorsBySeverity {
		errorsBySeverityCopy[k] = v
	}

	recentErrors := make([]string, 0)
	for i := 0; i < a.cfg.MaxRecentErrors; i++ {
		idx := (a.errorIndex - i - 1 + len(a.recentErrors)) % len(a.recentErrors)
		if a.recentErrors[idx] != "" {
			recentErrors = append(recentErrors, a.recentErrors[idx])
		}
	}

	return Snapshot{
		DetectionsObserved:  a.detectionsObserved,
		ObjectsCounted:      a.objectsCounted,
		ObjectsEvicted:      a.objectsEvicted,
		SnapshotsSaved:      a.snapshotsSaved,
		MessagesPublished:   a.messagesPublished,
		ErrorsTotal:         a.errorsTotal,
		CountedByClass:      classCopy,
		CountedByStream:     streamCopy,
		PublishedByKind:     kindCopy,
		OutcomesByName:      outcomeCopy,
		BrokerConnected:     a.brokerConnected,
		DetectionsPerSecond: a.calculateRate(a.detectionTimes, now),
		UptimeSeconds:       now.Sub(a.startTime).Seconds(),
		ChannelUtilization:  float64(len(a.eventCh)) / float64(cap(a.eventCh)) * 100,
		ErrorsByType:        errorsByTypeCopy,
		ErrorsBySeverity:    errorsBySeverityCopy,
		RecentErrors:        recentErrors,
	}
}

func (a *Aggregator) processEvents(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case event := <-a.eventCh:
			a.handleEvent(event)
		}
	}
}

func (a *Aggregator) handleEvent(event TelemetryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()

	switch e := event.(type) {
	case DetectionObserved:
		a.detectionsObserved++
		a.outcomesByName[e.Outcome]++
		a.addDetectionTime(now)

	case ObjectCounted:
		a.objectsCounted++
		a.countedByClass[e.ClassID]++
		a.countedByStream[e.StreamID]++

	case ObjectsEvicted:
		a.objectsEvicted += uint64(e.Count)

	case SnapshotSaved:
		a.snapshotsSaved++

	case MessagePublished:
		a.messagesPublished++
		a.publishedByKind[e.Kind]++

	case ConnectionStatusChanged:
		a.brokerConnected = e.Connected

	case CounterError:
		a.errorsTotal++
		a.errorsByType[e.Context]++
		a.errorsBySeverity[e.Severity]++
		a.addRecentError(e.Err.Error())
	}
}

func (a *Aggregator) addDetectionTime(t time.Time) {
	cutoff := t.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)
	for len(a.detectionTimes) > 0 && a.detectionTimes[0].Before(cutoff) {
		a.detectionTimes = a.detectionTimes[1:]
	}
	a.detectionTimes = append(a.detectionTimes, t)
}

func (a *Aggregator) addRecentError(err string) {
	a.recentErrors[a.errorIndex] = err
	a.errorIndex = (a.errorIndex + 1) % len(a.recentErrors)
}

func (a *Aggregator) calculateRate(times []time.Time, now time.Time) float64 {
	if len(times) == 0 {
		return 0.0
	}
	cutoff := now.Add(-time.Duration(a.cfg.RateWindowSeconds) * time.Second)
	count := 0
	for _, t := range times {
		if t.After(cutoff) {
			count++
		}
	}
	return float64(count) / float64(a.cfg.RateWindowSeconds)
}
