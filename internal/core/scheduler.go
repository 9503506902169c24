package core

// scheduler.go runs history retention in the background.
//
// The purger deletes history entries older than the retention window. It
// runs once at start and then every Interval until its context is
// cancelled. Failed runs are logged and retried on the next tick; they never
// stop the application.

import (
	"context"
	"log/slog"
	"time"
)

// PurgeConfig holds configuration for the history purger.
type PurgeConfig struct {
	Retention time.Duration // Age after which entries are deleted (default: 30 days)
	Interval  time.Duration // How often to run (default: 1h)
}

const (
	defaultRetention     = 30 * 24 * time.Hour
	defaultPurgeInterval = time.Hour
)

// StartHistoryPurger blocks, purging old history until ctx is cancelled.
// Run it in its own goroutine.
func (s *Service) StartHistoryPurger(ctx context.Context, cfg PurgeConfig) {
	if s.history == nil {
		return
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPurgeInterval
	}

	slog.Info("history purger started",
		"retention", cfg.Retention.String(),
		"interval", cfg.Interval.String(),
	)

	s.runPurge(ctx, cfg.Retention)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history purger stopped")
			return
		case <-ticker.C:
			s.runPurge(ctx, cfg.Retention)
		}
	}
}

// runPurge performs one purge cycle.
func (s *Service) runPurge(ctx context.Context, retention time.Duration) {
	start := time.Now()
	cutoff := s.now().Add(-retention)

	purged, err := s.history.Purge(ctx, cutoff)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return
	}

	slog.Info("purged history entries",
		"entries_purged", purged,
		"cutoff", cutoff,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
