package service

import (
	"context"
	"log/slog"
	"time"

	"creator-marketplace-service/internal/observability"
	"creator-marketplace-service/internal/repository"
)

// SessionSweeper periodically marks expired-but-unrevoked sessions as
// inactive. The sweep is idempotent, so overlapping runs (timer plus the
// login-time housekeeping sweep) are harmless.
type SessionSweeper struct {
	sessions repository.SessionRepository
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionSweeper(sessions repository.SessionRepository, interval time.Duration, logger *slog.Logger) *SessionSweeper {
	return &SessionSweeper{sessions: sessions, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *SessionSweeper) SweepOnce(ctx context.Context) {
	n, err := s.sessions.SweepExpired(time.Now().UTC())
	if err != nil {
		s.logger.WarnContext(ctx, "session sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "session sweep", "marked_inactive", n)
	}
	observability.RecordSessionsSwept(ctx, n)
}
