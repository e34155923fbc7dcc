// Package sim generates synthetic detection events so the full pipeline can
// run without a video tracker attached.
package sim

import (
	"context"
	"log"
	"math/rand"
	"time"

	"tracking-counter/pkg/counter"
)

// Observer is where generated detections go. *engine.Engine implements it.
type Observer interface {
	Observe(ev counter.DetectionEvent) counter.Outcome
}

// Config shapes the synthetic traffic.
type Config struct {
	// StreamIDs to generate detections for.
	StreamIDs []string
	// Interval between generation passes.
	Interval time.Duration
	// NewObjectChance is the probability per pass per stream of introducing a
	// previously unseen tracker id.
	NewObjectChance float64
	// MaxLivePerStream caps how many ids a pass re-reports, approximating a
	// bounded field of view.
	MaxLivePerStream int
}

func DefaultConfig(streamIDs []string) Config {
	return Config{
		StreamIDs:        streamIDs,
		Interval:         500 * time.Millisecond,
		NewObjectChance:  0.4,
		MaxLivePerStream: 5,
	}
}

// Generator emits randomized tracker-id detections. Each stream keeps a small
// set of recently introduced ids that get re-reported on subsequent passes,
// mimicking a tracker following objects across frames.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	logger *log.Logger

	nextID int64
	live   map[string][]int64
}

func NewGenerator(cfg Config, logger *log.Logger) *Generator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig(nil).Interval
	}
	if cfg.NewObjectChance <= 0 {
		cfg.NewObjectChance = DefaultConfig(nil).NewObjectChance
	}
	if cfg.MaxLivePerStream <= 0 {
		cfg.MaxLivePerStream = DefaultConfig(nil).MaxLivePerStream
	}
	return &Generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
		nextID: 1000,
		live:   make(map[string][]int64),
	}
}

// Run generates detections until ctx is canceled.
func (g *Generator) Run(ctx context.Context, obs Observer) {
	if g.logger != nil {
		g.logger.Printf("simulation mode: generating detections for %d streams", len(g.cfg.StreamIDs))
	}

	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, streamID := range g.cfg.StreamIDs {
				g.pass(obs, streamID, now)
			}
		}
	}
}

func (g *Generator) pass(obs Observer, streamID string, now time.Time) {
	if g.rng.Float64() < g.cfg.NewObjectChance {
		id := g.nextID
		g.nextID++
		ids := append(g.live[streamID], id)
		if len(ids) > g.cfg.MaxLivePerStream {
			ids = ids[1:]
		}
		g.live[streamID] = ids
	}

	// Re-report every live id, as a tracker would on each frame.
	for _, id := range g.live[streamID] {
		obs.Observe(counter.DetectionEvent{
			StreamID:   streamID,
			TrackerID:  id,
			ClassID:    g.rng.Intn(4),
			Confidence: 0.7 + g.rng.Float64()*0.25,
			Timestamp:  now,
		})
	}
}
