package counter

import (
	"log"
	"sort"
	"sync"
	"time"
)

// Outcome classifies what Observe did with a detection event.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeNew
	OutcomeRefreshed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNew:
		return "new"
	case OutcomeRefreshed:
		return "refreshed"
	default:
		return "rejected"
	}
}

// DetectionEvent is one "this tracker id was seen" report from the vision
// pipeline. Events are ephemeral and never persisted.
type DetectionEvent struct {
	StreamID   string
	TrackerID  int64
	ClassID    int
	Confidence float64
	Timestamp  time.Time
}

// Snapshot is a consistent point-in-time view of one stream's counts.
type Snapshot struct {
	StreamID     string
	LiveIDs      []int64
	LiveCount    int
	SessionCount int64
	TotalCount   int64
	LastUpdated  time.Time
}

// Config controls deduplication behavior.
type Config struct {
	// ConfidenceThreshold is the default minimum confidence; events below it
	// are rejected without touching state.
	ConfidenceThreshold float64
	// StreamThresholds overrides the default threshold per stream id.
	StreamThresholds map[string]float64
	// EvictionWindow is the maximum idle time before a tracker id is dropped
	// from the live set.
	EvictionWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.5,
		EvictionWindow:      30 * time.Second,
	}
}

type liveObject struct {
	firstSeen time.Time
	lastSeen  time.Time
}

type streamState struct {
	live         map[int64]*liveObject
	sessionCount int64
	totalCount   int64
	lastUpdated  time.Time
}

// Counter deduplicates tracker ids into unique-object counts per stream.
// All mutation happens under one mutex so eviction passes and snapshot reads
// interleave safely with event processing. Observe never performs I/O.
type Counter struct {
	mu      sync.Mutex
	cfg     Config
	streams map[string]*streamState
	logger  *log.Logger

	// onNew, when set, fires after every New outcome. The engine uses it to
	// mark the persistence store dirty without coupling this package to it.
	onNew func(ev DetectionEvent)
}

func New(cfg Config, logger *log.Logger) *Counter {
	if cfg.EvictionWindow <= 0 {
		cfg.EvictionWindow = DefaultConfig().EvictionWindow
	}
	return &Counter{
		cfg:     cfg,
		streams: make(map[string]*streamState),
		logger:  logger,
	}
}

// SetOnNew registers the new-object callback. Must be called before events
// start flowing.
func (c *Counter) SetOnNew(fn func(ev DetectionEvent)) {
	c.onNew = fn
}

// Seed initializes a stream from a persisted total. Session count always
// starts at zero for a new process.
func (c *Counter) Seed(streamID string, totalCount int64, lastUpdated time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streams[streamID] = &streamState{
		live:        make(map[int64]*liveObject),
		totalCount:  totalCount,
		lastUpdated: lastUpdated,
	}
}

func (c *Counter) threshold(streamID string) float64 {
	if t, ok := c.cfg.StreamThresholds[streamID]; ok {
		return t
	}
	return c.cfg.ConfidenceThreshold
}

// Observe processes one detection event. A tracker id not currently live
// counts as a new unique object; a live one only refreshes its last-seen
// time, which makes repeated delivery of the same id idempotent.
func (c *Counter) Observe(ev DetectionEvent) Outcome {
	if ev.Confidence < c.threshold(ev.StreamID) {
		return OutcomeRejected
	}

	c.mu.Lock()
	st, ok := c.streams[ev.StreamID]
	if !ok {
		st = &streamState{live: make(map[int64]*liveObject)}
		c.streams[ev.StreamID] = st
	}

	if obj, seen := st.live[ev.TrackerID]; seen {
		obj.lastSeen = ev.Timestamp
		st.lastUpdated = ev.Timestamp
		c.mu.Unlock()
		return OutcomeRefreshed
	}

	st.live[ev.TrackerID] = &liveObject{firstSeen: ev.Timestamp, lastSeen: ev.Timestamp}
	st.sessionCount++
	st.totalCount++
	st.lastUpdated = ev.Timestamp
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Printf("new object tracked: stream %s, id %d, class %d (session: %d, total: %d)",
			ev.StreamID, ev.TrackerID, ev.ClassID, st.sessionCount, st.totalCount)
	}
	if c.onNew != nil {
		c.onNew(ev)
	}
	return OutcomeNew
}

// Evict drops live tracker ids whose last sighting is older than the eviction
// window. Counts are never decremented: if the upstream tracker reuses an
// evicted id for a different object, that object counts as new. Returns the
// number of ids removed.
func (c *Counter) Evict(now time.Time) int {
	cutoff := now.Add(-c.cfg.EvictionWindow)

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for _, st := range c.streams {
		for id, obj := range st.live {
			if obj.lastSeen.Before(cutoff) {
				delete(st.live, id)
				evicted++
			}
		}
	}
	return evicted
}

// Snapshot returns a consistent view of one stream. An unknown stream id
// yields an empty snapshot rather than an error so telemetry for a
// not-yet-initialized stream degrades gracefully.
func (c *Counter) Snapshot(streamID string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.streams[streamID]
	if !ok {
		return Snapshot{StreamID: streamID, LiveIDs: []int64{}}
	}
	return snapshotLocked(streamID, st)
}

// SnapshotAll returns consistent views of every known stream, for aggregation.
func (c *Counter) SnapshotAll() map[string]Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Snapshot, len(c.streams))
	for id, st := range c.streams {
		out[id] = snapshotLocked(id, st)
	}
	return out
}

func snapshotLocked(streamID string, st *streamState) Snapshot {
	ids := make([]int64, 0, len(st.live))
	for id := range st.live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return Snapshot{
		StreamID:     streamID,
		LiveIDs:      ids,
		LiveCount:    len(ids),
		SessionCount: st.sessionCount,
		TotalCount:   st.totalCount,
		LastUpdated:  st.lastUpdated,
	}
}
