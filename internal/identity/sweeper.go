package identity

import (
	"context"
	"time"

	"rootify-backend/internal/logging"
)

// SweepSessions purges expired and revoked sessions every interval until ctx
// is done.
func (s *Service) SweepSessions(ctx context.Context, interval time.Duration, log logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.PurgeSessions(ctx)
			if err != nil {
				log.Error(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info(ctx, "expired sessions purged", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
