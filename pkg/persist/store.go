package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// StreamRecord is the durable per-stream entry in the snapshot file.
type StreamRecord struct {
	TotalCount   int64     `json:"total_count"`
	SessionCount int64     `json:"session_count"`
	LastUpdated  time.Time `json:"last_updated"`
}

// SnapshotFunc produces the latest authoritative counts. The store never
// reaches into counter state directly; the engine wires this at startup.
type SnapshotFunc func() map[string]StreamRecord

// Config controls the store's flush behavior.
type Config struct {
	// Path of the JSON snapshot file.
	Path string
	// SaveInterval is how often the background loop checks the dirty flag.
	SaveInterval time.Duration
	// MaxConsecutiveFailures is the retry budget: this many save failures in
	// a row is treated as unrecoverable and Run returns an error.
	MaxConsecutiveFailures int
}

func DefaultConfig(path string) Config {
	return Config{
		Path:                   path,
		SaveInterval:           2 * time.Second,
		MaxConsecutiveFailures: 10,
	}
}

// Store owns the on-disk snapshot file. Saves are atomic (temp file plus
// rename) and serialized, so a crash mid-write never corrupts the previously
// committed file. Rapid successive changes coalesce into one write per save
// interval; Flush forces a synchronous write for the shutdown path.
type Store struct {
	mu     sync.Mutex
	cfg    Config
	logger *log.Logger
	dirty  atomic.Bool

	// onSave, when set, is called after each save attempt with the outcome.
	onSave func(streams int, err error)
}

func NewStore(cfg Config, logger *log.Logger) *Store {
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = DefaultConfig(cfg.Path).SaveInterval
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = DefaultConfig(cfg.Path).MaxConsecutiveFailures
	}
	return &Store{cfg: cfg, logger: logger}
}

// SetOnSave registers a save-outcome callback, used for ops telemetry.
func (s *Store) SetOnSave(fn func(streams int, err error)) {
	s.onSave = fn
}

// Load reads the snapshot file. It fails soft: a missing or malformed file
// yields an empty map with a logged warning, never an error. The system
// prefers starting with zero counts over refusing to start.
func (s *Store) Load() map[string]StreamRecord {
	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logf("warning: could not read snapshot %s: %v", s.cfg.Path, err)
		}
		return map[string]StreamRecord{}
	}

	var records map[string]StreamRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logf("warning: malformed snapshot %s, starting from zero: %v", s.cfg.Path, err)
		return map[string]StreamRecord{}
	}
	if records == nil {
		records = map[string]StreamRecord{}
	}
	for id, rec := range records {
		s.logf("loaded stream %s: %d total objects", id, rec.TotalCount)
	}
	return records
}

// Save writes the full snapshot atomically. Concurrent calls are serialized;
// the last writer's state is what lands on disk.
func (s *Store) Save(records map[string]StreamRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeAtomic(records)
	if s.onSave != nil {
		s.onSave(len(records), err)
	}
	return err
}

func (s *Store) writeAtomic(records map[string]StreamRecord) error {
	dir := filepath.Dir(s.cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.cfg.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.cfg.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// MarkDirty flags that counts changed since the last save. Safe to call from
// the event path; it never blocks.
func (s *Store) MarkDirty() {
	s.dirty.Store(true)
}

// Flush saves immediately when there are unsaved changes. Used on shutdown
// with a bounded deadline on ctx.
func (s *Store) Flush(ctx context.Context, snapshot SnapshotFunc) error {
	if !s.dirty.Swap(false) {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- s.Save(snapshot()) }()
	select {
	case err := <-done:
		if err != nil {
			s.dirty.Store(true)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the coalescing flush loop until ctx is canceled. It returns a
// non-nil error only when the consecutive-failure budget is exhausted, which
// the engine treats as fatal.
func (s *Store) Run(ctx context.Context, snapshot SnapshotFunc) error {
	ticker := time.NewTicker(s.cfg.SaveInterval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !s.dirty.Swap(false) {
				continue
			}
			if err := s.Save(snapshot()); err != nil {
				s.dirty.Store(true)
				failures++
				s.logf("snapshot save failed (%d/%d): %v", failures, s.cfg.MaxConsecutiveFailures, err)
				if failures >= s.cfg.MaxConsecutiveFailures {
					return fmt.Errorf("persistence failed %d times in a row: %w", failures, err)
				}
				continue
			}
			failures = 0
		}
	}
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
