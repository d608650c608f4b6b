// Package maintenance implements the periodic retention/ANALYZE/VACUUM
// scheduler (C9): a single-flight background task that hard-deletes
// soft-deleted rows past the retention window, refreshes the query
// planner's statistics, and reclaims disk space when enough rows were
// removed this cycle.
package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amanmcp/codeindex/internal/errcodes"
	"github.com/amanmcp/codeindex/internal/hybridindex"
	"github.com/amanmcp/codeindex/internal/store"
)

// Config tunes the scheduler per §4.9.
type Config struct {
	Interval        time.Duration
	RetentionDays   int
	VacuumThreshold int
}

// WithDefaults fills unset fields with the spec's defaults: every 24h,
// vacuum after 1000 hard-deleted rows. A negative RetentionDays becomes
// 30; 0 is kept and means rows soft-deleted before the cycle starts
// are hard-deleted.
func (c Config) WithDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	if c.RetentionDays < 0 {
		c.RetentionDays = 30
	}
	if c.VacuumThreshold <= 0 {
		c.VacuumThreshold = 1000
	}
	return c
}

// Result summarizes one maintenance cycle.
type Result struct {
	HardDeleted     int64
	Analyzed        bool
	Vacuumed        bool
	Skipped         bool // true if a cycle was already running
	Duration        time.Duration
	HybridCompacted bool
}

// Scheduler runs periodic maintenance against a Store and, optionally,
// the in-memory hybrid index (compacted alongside the retention pass
// so its tombstone ratio tracks the persistent store's).
type Scheduler struct {
	cfg    Config
	store  *store.Store
	hybrid *hybridindex.Index

	running atomic.Bool
	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New constructs a Scheduler. hybrid may be nil if no in-memory index
// is resident (e.g. a maintenance-only CLI invocation).
func New(cfg Config, st *store.Store, hybrid *hybridindex.Index) *Scheduler {
	return &Scheduler{cfg: cfg.WithDefaults(), store: st, hybrid: hybrid}
}

// RunOnce executes a single maintenance cycle immediately. If a cycle
// is already in progress (from Start's background loop or a
// concurrent RunOnce), it returns a skipped result without waiting,
// per §4.9's single-flight requirement.
func (s *Scheduler) RunOnce(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return &Result{Skipped: true}, nil
	}
	defer s.running.Store(false)

	start := time.Now()
	result := &Result{}

	cutoff := time.Now().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
	n, err := s.store.HardDeleteFilesOlderThan(ctx, cutoff)
	if err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	result.HardDeleted = n

	if err := s.store.Analyze(ctx); err != nil {
		return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
	}
	result.Analyzed = true

	if n >= int64(s.cfg.VacuumThreshold) {
		if err := s.store.Vacuum(ctx); err != nil {
			return nil, errcodes.Wrap(errcodes.ErrCodeDatabase, err)
		}
		result.Vacuumed = true
	}

	if s.hybrid != nil && s.hybrid.TombstoneRatio() > 0 {
		s.hybrid.Compact()
		result.HybridCompacted = true
	}

	result.Duration = time.Since(start)
	slog.Info("maintenance_cycle_complete",
		slog.Int64("hard_deleted", result.HardDeleted),
		slog.Bool("vacuumed", result.Vacuumed),
		slog.Bool("hybrid_compacted", result.HybridCompacted),
		slog.Int64("duration_ms", result.Duration.Milliseconds()))

	return result, nil
}

// Start runs RunOnce on cfg.Interval until ctx is cancelled or Stop
// is called. Non-blocking; call Stop for graceful
// shutdown.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh != nil {
		s.mu.Unlock()
		return // already started
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.doneCh)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				if _, err := s.RunOnce(ctx); err != nil {
					slog.Warn("maintenance cycle failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Stop signals the background loop to exit and waits for it to finish.
// A no-op if Start was never called.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}
