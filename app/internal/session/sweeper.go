package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunSweeper deletes expired sessions every interval until ctx is done.
func (sm *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sm.PurgeExpired()
			if err != nil {
				log.Error().Err(err).Msg("session sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("removed", n).Msg("expired sessions swept")
			}
		}
	}
}
