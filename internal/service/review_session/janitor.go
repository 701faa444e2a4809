package review_session

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically removes stale terminal sessions from a Manager.
type Janitor struct {
	manager   *Manager
	interval  time.Duration
	retention int
	logger    *slog.Logger
}

// NewJanitor creates a Janitor that every interval removes sessions which
// ended more than retentionHours ago.
func NewJanitor(manager *Manager, interval time.Duration, retentionHours int, logger *slog.Logger) *Janitor {
	if manager == nil {
		panic("manager cannot be nil")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		manager:   manager,
		interval:  interval,
		retention: retentionHours,
		logger:    logger.With(slog.String("component", "session_janitor")),
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval. It always
// returns nil so it can run under an errgroup without failing its peers.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("session janitor started",
		slog.Duration("interval", j.interval),
		slog.Int("retention_hours", j.retention))

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session janitor stopped")
			return nil
		case <-ticker.C:
			j.manager.CleanupCompletedSessions(ctx, j.retention)
		}
	}
}
