package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"tracking-counter/pkg/counter"
	"tracking-counter/pkg/message"
)

type fakeMetrics struct {
	cpu, mem, disk float64
	err            error
}

func (f fakeMetrics) CPUPercent(ctx context.Context) (float64, error)    { return f.cpu, f.err }
func (f fakeMetrics) MemoryPercent(ctx context.Context) (float64, error) { return f.mem, f.err }
func (f fakeMetrics) DiskPercent(ctx context.Context) (float64, error)   { return f.disk, f.err }

var start = time.Unix(1640995200, 0)

func counts() map[string]counter.Snapshot {
	return map[string]counter.Snapshot{
		"0": {StreamID: "0", LiveCount: 3, SessionCount: 3, TotalCount: 103},
		"1": {StreamID: "1", LiveCount: 1, SessionCount: 1, TotalCount: 7},
	}
}

func TestSample_Healthy(t *testing.T) {
	s := NewSampler(fakeMetrics{cpu: 40, mem: 50, disk: 70}, nil, start)

	h := s.Sample(context.Background(), start.Add(time.Hour), counts())

	if h.SystemStatus != message.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.SystemStatus)
	}
	if h.CPUUsage != 40 || h.MemoryUsage != 50 || h.DiskUsage != 70 {
		t.Errorf("unexpected metrics: %+v", h)
	}
	if h.ActiveStreams != 2 {
		t.Errorf("expected 2 active streams, got %d", h.ActiveStreams)
	}
	if h.TotalObjectsDetected != 110 {
		t.Errorf("expected total 110 across streams, got %d", h.TotalObjectsDetected)
	}
	if h.UptimeSeconds != 3600 {
		t.Errorf("expected uptime 3600, got %v", h.UptimeSeconds)
	}
}

func TestSample_WarningOnHighCPU(t *testing.T) {
	s := NewSampler(fakeMetrics{cpu: 85, mem: 50}, nil, start)
	if h := s.Sample(context.Background(), start, nil); h.SystemStatus != message.StatusWarning {
		t.Errorf("expected warning at 85%% cpu, got %s", h.SystemStatus)
	}
}

func TestSample_WarningOnHighMemory(t *testing.T) {
	s := NewSampler(fakeMetrics{cpu: 10, mem: 90}, nil, start)
	if h := s.Sample(context.Background(), start, nil); h.SystemStatus != message.StatusWarning {
		t.Errorf("expected warning at 90%% memory, got %s", h.SystemStatus)
	}
}

func TestSample_MetricFailureDegradesToZero(t *testing.T) {
	s := NewSampler(fakeMetrics{err: errors.New("no procfs")}, nil, start)
	h := s.Sample(context.Background(), start, counts())
	if h.CPUUsage != 0 || h.MemoryUsage != 0 || h.DiskUsage != 0 {
		t.Errorf("expected zero metrics on failure, got %+v", h)
	}
	// Counts still flow through even when the host metrics source is down.
	if h.TotalObjectsDetected != 110 {
		t.Errorf("expected counts despite metric failure, got %d", h.TotalObjectsDetected)
	}
}

func TestSummarize_Breakdown(t *testing.T) {
	s := NewSampler(fakeMetrics{}, nil, start)

	a := s.Summarize(start, counts())

	if a.TotalUniqueObjectsTracked != 4 {
		t.Errorf("expected 4 unique, got %d", a.TotalUniqueObjectsTracked)
	}
	if a.TotalSessionNewObjects != 4 {
		t.Errorf("expected 4 session, got %d", a.TotalSessionNewObjects)
	}
	if a.TotalPersistentCount != 110 {
		t.Errorf("expected 110 persistent, got %d", a.TotalPersistentCount)
	}
	b0 := a.PerStreamBreakdown["0"]
	if b0.Unique != 3 || b0.Session != 3 || b0.Total != 103 {
		t.Errorf("stream 0 breakdown = %+v", b0)
	}
}

func TestSummarize_EmptyState(t *testing.T) {
	s := NewSampler(fakeMetrics{}, nil, start)
	a := s.Summarize(start, nil)
	if a.TotalPersistentCount != 0 || len(a.PerStreamBreakdown) != 0 {
		t.Errorf("expected empty summary, got %+v", a)
	}
	if a.PerStreamBreakdown == nil {
		t.Error("breakdown map must be non-nil for serialization")
	}
}
