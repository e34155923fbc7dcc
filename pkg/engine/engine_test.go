package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tracking-counter/pkg/config"
	"tracking-counter/pkg/counter"
	"tracking-counter/pkg/testutil"
)

type fakeMetrics struct{}

func (fakeMetrics) CPUPercent(ctx context.Context) (float64, error)    { return 10, nil }
func (fakeMetrics) MemoryPercent(ctx context.Context) (float64, error) { return 20, nil }
func (fakeMetrics) DiskPercent(ctx context.Context) (float64, error)   { return 30, nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Broker: config.BrokerConfig{Host: "localhost", Port: 1883},
		Streams: []config.StreamConfig{
			{ID: "0", Topic: "camera1/tracking"},
			{ID: "1", Topic: "camera2/tracking"},
		},
		Counting: config.CountingConfig{
			ConfidenceThreshold:     0.5,
			EvictionWindowSeconds:   30,
			EvictionIntervalSeconds: 5,
		},
		Persistence: config.PersistenceConfig{
			Path:                filepath.Join(t.TempDir(), "counts.json"),
			SaveIntervalSeconds: 1,
			MaxFailures:         3,
		},
		Publish: config.PublishConfig{
			CountIntervalSeconds:     1,
			HealthIntervalSeconds:    5,
			AnalyticsIntervalSeconds: 10,
			HealthTopic:              "deepstream/health",
			AnalyticsTopic:           "deepstream/analytics",
		},
		Network:  config.NetworkConfig{InitialBackoffSeconds: 1, MaxBackoffSeconds: 2, BackoffJitter: 0.1},
		Timeouts: config.TimeoutConfig{ConnectSeconds: 1, PublishSeconds: 1, ShutdownFlushSeconds: 2},
	}
}

func detection(streamID string, trackerID int64, conf float64) counter.DetectionEvent {
	return counter.DetectionEvent{
		StreamID:   streamID,
		TrackerID:  trackerID,
		ClassID:    0,
		Confidence: conf,
		Timestamp:  time.Now(),
	}
}

func waitForState(t *testing.T, e *Engine, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("engine never reached state %s (currently %s)", want, e.State())
}

func startEngine(t *testing.T, e *Engine) (cancel func(), done chan error) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done = make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	waitForState(t, e, StateRunning)
	return cancelCtx, done
}

func TestEngine_Lifecycle(t *testing.T) {
	cfg := testConfig(t)
	mock := testutil.NewMockBroker()
	cap := testutil.NewCapturingPublisher()
	e := New(cfg, mock, fakeMetrics{}, nil, cap)

	// Detections before Run starts are dropped
	if got := e.Observe(detection("0", 1, 0.9)); got != counter.OutcomeRejected {
		t.Errorf("expected rejection before start, got %s", got)
	}

	cancel, done := startEngine(t, e)

	if got := e.Observe(detection("0", 101, 0.9)); got != counter.OutcomeNew {
		t.Errorf("expected new, got %s", got)
	}
	if got := e.Observe(detection("0", 101, 0.9)); got != counter.OutcomeRefreshed {
		t.Errorf("expected refreshed, got %s", got)
	}
	if got := e.Observe(detection("1", 7, 0.9)); got != counter.OutcomeNew {
		t.Errorf("expected new on second stream, got %s", got)
	}

	counts := e.Counts()
	if counts["0"].TotalCount != 1 || counts["0"].SessionCount != 1 {
		t.Errorf("stream 0 counts = %+v", counts["0"])
	}
	if counts["1"].TotalCount != 1 {
		t.Errorf("stream 1 counts = %+v", counts["1"])
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("clean shutdown should not error, got %v", err)
	}
	if e.State() != StateTerminated {
		t.Errorf("expected terminated, got %s", e.State())
	}
	if !mock.CloseCalled {
		t.Error("broker should be closed on shutdown")
	}

	// Detections after shutdown are dropped
	if got := e.Observe(detection("0", 2, 0.9)); got != counter.OutcomeRejected {
		t.Errorf("expected rejection after shutdown, got %s", got)
	}

	// The final flush must have landed on disk
	if _, err := os.Stat(cfg.Persistence.Path); err != nil {
		t.Fatalf("snapshot file missing after shutdown: %v", err)
	}

	if got := len(cap.ByType("object_counted")); got != 2 {
		t.Errorf("expected 2 object_counted events, got %d", got)
	}
	if got := len(cap.ByType("detection_observed")); got != 3 {
		t.Errorf("expected 3 detection_observed events, got %d", got)
	}
}

func TestEngine_RestartRestoresTotals(t *testing.T) {
	cfg := testConfig(t)
	mock := testutil.NewMockBroker()

	e1 := New(cfg, mock, fakeMetrics{}, nil, nil)
	cancel, done := startEngine(t, e1)
	e1.Observe(detection("0", 101, 0.9))
	e1.Observe(detection("0", 102, 0.9))
	e1.Observe(detection("0", 103, 0.9))
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// A fresh process sees the persisted total but a zero session count
	e2 := New(cfg, testutil.NewMockBroker(), fakeMetrics{}, nil, nil)
	cancel2, done2 := startEngine(t, e2)
	defer func() { cancel2(); <-done2 }()

	snap := e2.Counts()["0"]
	if snap.TotalCount != 3 {
		t.Errorf("expected restored total 3, got %d", snap.TotalCount)
	}
	if snap.SessionCount != 0 {
		t.Errorf("expected session reset to 0, got %d", snap.SessionCount)
	}

	// Counting continues from the restored total
	e2.Observe(detection("0", 201, 0.9))
	snap = e2.Counts()["0"]
	if snap.TotalCount != 4 || snap.SessionCount != 1 {
		t.Errorf("counts after restart = %+v", snap)
	}
}

func TestEngine_ShutdownFlushFailureSurfaces(t *testing.T) {
	cfg := testConfig(t)

	// A regular file where the snapshot directory should be makes every save fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Persistence.Path = filepath.Join(blocker, "counts.json")

	e := New(cfg, testutil.NewMockBroker(), fakeMetrics{}, nil, nil)
	cancel, done := startEngine(t, e)

	e.Observe(detection("0", 1, 0.9))

	cancel()
	if err := <-done; err == nil {
		t.Fatal("expected error when the final flush cannot write")
	}
}

func TestEngine_EvictionEmitsTelemetry(t *testing.T) {
	cfg := testConfig(t)
	cfg.Counting.EvictionWindowSeconds = 1
	cfg.Counting.EvictionIntervalSeconds = 1

	cap := testutil.NewCapturingPublisher()
	e := New(cfg, testutil.NewMockBroker(), fakeMetrics{}, nil, cap)
	cancel, done := startEngine(t, e)
	defer func() { cancel(); <-done }()

	// Already stale relative to the 1s window, so the first pass evicts it.
	ev := detection("0", 500, 0.9)
	ev.Timestamp = time.Now().Add(-5 * time.Second)
	e.Observe(ev)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(cap.ByType("objects_evicted")) > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(cap.ByType("objects_evicted")) == 0 {
		t.Fatal("expected an eviction event")
	}

	// Eviction only clears the live set; totals are untouched.
	snap := e.Counts()["0"]
	if snap.LiveCount != 0 || snap.TotalCount != 1 {
		t.Errorf("post-eviction snapshot = %+v", snap)
	}
}
