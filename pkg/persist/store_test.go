package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracking_counts.json")
	return NewStore(DefaultConfig(path), nil)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := testStore(t)

	want := map[string]StreamRecord{
		"0": {TotalCount: 103, SessionCount: 3, LastUpdated: time.Unix(1640995200, 0).UTC()},
		"1": {TotalCount: 7, SessionCount: 7, LastUpdated: time.Unix(1640995260, 0).UTC()},
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := s.Load()
	if len(got) != len(want) {
		t.Fatalf("expected %d streams, got %d", len(want), len(got))
	}
	for id, w := range want {
		g, ok := got[id]
		if !ok {
			t.Fatalf("missing stream %s", id)
		}
		if g.TotalCount != w.TotalCount || g.SessionCount != w.SessionCount {
			t.Errorf("stream %s: got %+v, want %+v", id, g, w)
		}
		if !g.LastUpdated.Equal(w.LastUpdated) {
			t.Errorf("stream %s: last_updated %v != %v", id, g.LastUpdated, w.LastUpdated)
		}
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s := NewStore(DefaultConfig(filepath.Join(t.TempDir(), "nope", "missing.json")), nil)
	got := s.Load()
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty map for missing file, got %v", got)
	}
}

func TestLoad_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking_counts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(DefaultConfig(path), nil)
	got := s.Load()
	if len(got) != 0 {
		t.Errorf("expected empty map for corrupt file, got %v", got)
	}
}

func TestSave_AtomicReplacePreservesCommitted(t *testing.T) {
	s := testStore(t)

	first := map[string]StreamRecord{"0": {TotalCount: 1}}
	if err := s.Save(first); err != nil {
		t.Fatal(err)
	}
	second := map[string]StreamRecord{"0": {TotalCount: 2}}
	if err := s.Save(second); err != nil {
		t.Fatal(err)
	}

	got := s.Load()
	if got["0"].TotalCount != 2 {
		t.Errorf("expected latest snapshot, got total %d", got["0"].TotalCount)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(s.cfg.Path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the snapshot file, found %d entries", len(entries))
	}
}

func TestFlush_OnlyWhenDirty(t *testing.T) {
	s := testStore(t)

	saves := 0
	snapshot := func() map[string]StreamRecord {
		saves++
		return map[string]StreamRecord{"0": {TotalCount: 5}}
	}

	// Clean store: flush is a no-op.
	if err := s.Flush(context.Background(), snapshot); err != nil {
		t.Fatal(err)
	}
	if saves != 0 {
		t.Errorf("flush on clean store wrote %d times", saves)
	}

	s.MarkDirty()
	if err := s.Flush(context.Background(), snapshot); err != nil {
		t.Fatal(err)
	}
	if saves != 1 {
		t.Errorf("expected exactly one save, got %d", saves)
	}
	if got := s.Load(); got["0"].TotalCount != 5 {
		t.Errorf("flush did not persist latest state: %v", got)
	}
}

func TestRun_CoalescesAndStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking_counts.json")
	s := NewStore(Config{Path: path, SaveInterval: 10 * time.Millisecond, MaxConsecutiveFailures: 3}, nil)

	saves := 0
	snapshot := func() map[string]StreamRecord {
		saves++
		return map[string]StreamRecord{"0": {TotalCount: int64(saves)}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, snapshot) }()

	// Many marks within one interval coalesce into at most a couple of saves.
	for i := 0; i < 100; i++ {
		s.MarkDirty()
	}
	time.Sleep(50 * time.Millisecond)
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if saves == 0 {
		t.Error("expected at least one save")
	}
	if saves > 10 {
		t.Errorf("expected coalesced saves, got %d", saves)
	}
}

func TestRun_FailureBudgetIsFatal(t *testing.T) {
	// A directory path that cannot be created because a file sits in the way.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(blocker, "sub", "tracking_counts.json")
	s := NewStore(Config{Path: path, SaveInterval: 5 * time.Millisecond, MaxConsecutiveFailures: 3}, nil)

	snapshot := func() map[string]StreamRecord {
		return map[string]StreamRecord{"0": {TotalCount: 1}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.MarkDirty()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, snapshot) }()

	// Each failed save re-marks the store dirty, so the loop keeps retrying
	// until the budget is exhausted.
	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected fatal error after exhausting retry budget")
		}
	case <-ctx.Done():
		t.Fatal("run did not fail within deadline")
	}
}
