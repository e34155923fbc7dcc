// Package health samples process and host resource metrics and folds them
// together with counter snapshots into HealthStatus and AnalyticsSummary
// payloads. It holds no durable state of its own.
package health

import (
	"context"
	"log"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"tracking-counter/pkg/counter"
	"tracking-counter/pkg/message"
)

// SystemMetrics abstracts the host metric source so tests can fake it.
type SystemMetrics interface {
	CPUPercent(ctx context.Context) (float64, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskPercent(ctx context.Context) (float64, error)
}

// GopsutilMetrics reads live host metrics.
type GopsutilMetrics struct{}

func (GopsutilMetrics) CPUPercent(ctx context.Context) (float64, error) {
	// Interval zero compares against the previous call instead of blocking.
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil || len(percents) == 0 {
		return 0, err
	}
	return percents[0], nil
}

func (GopsutilMetrics) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

func (GopsutilMetrics) DiskPercent(ctx context.Context) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return 0, err
	}
	return usage.UsedPercent, nil
}

// Thresholds above which the system reports "warning" instead of "healthy".
const (
	cpuWarnPercent    = 80.0
	memoryWarnPercent = 85.0
)

// Sampler builds health and analytics payloads from current state.
type Sampler struct {
	metrics   SystemMetrics
	logger    *log.Logger
	startTime time.Time
}

func NewSampler(metrics SystemMetrics, logger *log.Logger, startTime time.Time) *Sampler {
	if metrics == nil {
		metrics = GopsutilMetrics{}
	}
	return &Sampler{metrics: metrics, logger: logger, startTime: startTime}
}

// Sample collects resource metrics and combines them with the given counter
// snapshots. Metric source failures degrade to zero values with a logged
// warning; a health report is always produced.
func (s *Sampler) Sample(ctx context.Context, at time.Time, counts map[string]counter.Snapshot) message.HealthStatus {
	h := message.NewHealthStatus(at)

	h.CPUUsage = s.sampleOne(ctx, "cpu", s.metrics.CPUPercent)
	h.MemoryUsage = s.sampleOne(ctx, "memory", s.metrics.MemoryPercent)
	h.DiskUsage = s.sampleOne(ctx, "disk", s.metrics.DiskPercent)

	if h.CPUUsage >= cpuWarnPercent || h.MemoryUsage >= memoryWarnPercent {
		h.SystemStatus = message.StatusWarning
	}

	h.ActiveStreams = len(counts)
	for _, snap := range counts {
		h.TotalObjectsDetected += snap.TotalCount
	}
	h.UptimeSeconds = at.Sub(s.startTime).Seconds()
	return h
}

// Summarize builds the cross-stream analytics breakdown.
func (s *Sampler) Summarize(at time.Time, counts map[string]counter.Snapshot) message.AnalyticsSummary {
	a := message.NewAnalyticsSummary(at)
	for id, snap := range counts {
		a.TotalUniqueObjectsTracked += snap.LiveCount
		a.TotalSessionNewObjects += snap.SessionCount
		a.TotalPersistentCount += snap.TotalCount
		a.PerStreamBreakdown[id] = message.StreamBreakdown{
			Unique:  snap.LiveCount,
			Session: snap.SessionCount,
			Total:   snap.TotalCount,
		}
	}
	return a
}

func (s *Sampler) sampleOne(ctx context.Context, name string, fn func(context.Context) (float64, error)) float64 {
	v, err := fn(ctx)
	if err != nil && s.logger != nil {
		s.logger.Printf("warning: could not sample %s usage: %v", name, err)
	}
	return v
}
