package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

// DefaultSyncInterval is used when a scheduler is created without an interval.
const DefaultSyncInterval = time.Minute

// Syncer runs one reconciliation pass. QuoteService implements it.
type Syncer interface {
	Sync(ctx context.Context) (SyncResult, error)
}

// SyncSchedulerConfig configures a SyncScheduler.
type SyncSchedulerConfig struct {
	Interval time.Duration

	// RunOnStart triggers a sync immediately instead of waiting one interval.
	RunOnStart bool

	Logger *slog.Logger
}

// SyncScheduler calls Sync on a fixed interval. Network failures are
// expected between ticks and are logged, never returned.
type SyncScheduler struct {
	syncer     Syncer
	interval   time.Duration
	runOnStart bool
	logger     *slog.Logger
}

// NewSyncScheduler creates a scheduler for syncer.
func NewSyncScheduler(syncer Syncer, cfg SyncSchedulerConfig) *SyncScheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	return &SyncScheduler{
		syncer:     syncer,
		interval:   interval,
		runOnStart: cfg.RunOnStart,
		logger:     logger.With(slog.String("component", "app.SyncScheduler")),
	}
}

// Run ticks until ctx is cancelled. It always returns nil so it can sit
// in an errgroup next to the HTTP server without tearing it down.
func (s *SyncScheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sync scheduler started", slog.Duration("interval", s.interval))

	if s.runOnStart {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Start runs the scheduler in the background. The returned stop handle
// cancels it and waits for an in-flight tick to finish.
func (s *SyncScheduler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup

	wg.Go(func() {
		_ = s.Run(ctx)
	})

	var once sync.Once

	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

func (s *SyncScheduler) tick(ctx context.Context) {
	s.logger.DebugContext(ctx, "sync tick")

	result, err := s.syncer.Sync(ctx)

	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case domain.IsNetwork(err):
		s.logger.WarnContext(ctx, "remote source unreachable, retrying next tick",
			slog.Any("error", err),
			slog.Int("failed_sources", result.Failed),
		)
	default:
		s.logger.ErrorContext(ctx, "scheduled sync failed", slog.Any("error", err))
	}
}
