package main

import (
	"context"
	"log"
	"sort"
	"time"

	"tracking-counter/pkg/config"
	"tracking-counter/pkg/engine"
	"tracking-counter/pkg/telemetry"
	"tracking-counter/pkg/utils"
)

// CLI prints periodic status summaries from the telemetry aggregator and the
// live counter snapshots.
type CLI struct {
	telemetry telemetry.TelemetryReader
	engine    *engine.Engine
	config    *config.Config
	logger    *log.Logger

	// State
	lastSnapshot telemetry.Snapshot
	done         chan struct{}
}

// NewCLI creates a new command-line interface runner
func NewCLI(telemetryReader telemetry.TelemetryReader, eng *engine.Engine, cfg *config.Config, logger *log.Logger) *CLI {
	return &CLI{
		telemetry: telemetryReader,
		engine:    eng,
		config:    cfg,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run starts the CLI runner and blocks until shutdown
func (c *CLI) Run(ctx context.Context) error {
	c.logger.Printf("Broker: %s:%d", c.config.Broker.Host, c.config.Broker.Port)
	c.logger.Printf("Streams: %d configured", len(c.config.Streams))
	c.logger.Printf("Persistence: %s", c.config.Persistence.Path)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Printf("Shutting down...")
			return nil
		case <-ticker.C:
			c.printStatus()
		case <-c.done:
			return nil
		}
	}
}

// Stop stops the CLI runner
func (c *CLI) Stop() {
	close(c.done)
}

// printStatus prints current telemetry status
func (c *CLI) printStatus() {
	snapshot := c.telemetry.Snapshot()

	if c.shouldPrintStatus(snapshot) {
		c.logger.Printf("Status - detections=%s, counted=%s, rate=%.1f/s, published=%s, errors=%d",
			utils.FormatNumber(snapshot.DetectionsObserved),
			utils.FormatNumber(snapshot.ObjectsCounted),
			snapshot.DetectionsPerSecond,
			utils.FormatNumber(snapshot.MessagesPublished),
			snapshot.ErrorsTotal)

		c.logger.Printf("Broker connected: %t", snapshot.BrokerConnected)

		c.printCounts()
		c.printClassBreakdown(snapshot)
	}

	c.lastSnapshot = snapshot
}

func (c *CLI) printCounts() {
	counts := c.engine.Counts()

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		snap := counts[id]
		c.logger.Printf("Stream %s: live=%d, session=%s, total=%s",
			id, snap.LiveCount,
			utils.FormatNumber(uint64(snap.SessionCount)),
			utils.FormatNumber(uint64(snap.TotalCount)))
	}
}

func (c *CLI) printClassBreakdown(snapshot telemetry.Snapshot) {
	if len(snapshot.CountedByClass) == 0 {
		return
	}
	for _, cc := range utils.SortClassesByCount(snapshot.CountedByClass) {
		c.logger.Printf("  %s: %s", utils.GetClassName(cc.ClassID), utils.FormatNumber(cc.Count))
	}
}

// shouldPrintStatus determines if we should print a status update
func (c *CLI) shouldPrintStatus(snapshot telemetry.Snapshot) bool {
	// Always print first status
	if c.lastSnapshot.DetectionsObserved == 0 && c.lastSnapshot.MessagesPublished == 0 {
		return true
	}

	// Print if activity happened since last tick
	if snapshot.DetectionsObserved != c.lastSnapshot.DetectionsObserved ||
		snapshot.MessagesPublished != c.lastSnapshot.MessagesPublished {
		return true
	}

	// Print if there are new errors
	if snapshot.ErrorsTotal > c.lastSnapshot.ErrorsTotal {
		return true
	}

	// Print if connection status changed
	if snapshot.BrokerConnected != c.lastSnapshot.BrokerConnected {
		return true
	}

	return false
}
