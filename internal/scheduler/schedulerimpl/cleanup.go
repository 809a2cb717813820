package schedulerimpl

import (
	"context"
	"time"

	"github.com/orgball2608/fedi-albums/internal/mediacache"
)

const cleanupTimeout = 5 * time.Minute

// cleanup removes photos no album references any more, then lets the
// media cache evict old files.
func (s *SchedulerImpl) cleanup(ctx context.Context) {
	if ctx.Err() != nil {
		s.logger.Info("Context cancelled, skipping database cleanup job")
		return
	}

	s.logger.Info("Starting scheduled database cleanup job")

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	var removed int64
	err := s.transactor.WithinTx(cleanupCtx, func(ctx context.Context) error {
		n, err := s.photoRepo.RemoveUnreferenced(ctx)
		removed = n
		return err
	})
	if err != nil {
		s.logger.Error("Failed to remove unreferenced photos", "error", err)
		return
	}

	evicted, err := s.media.Evict(cleanupCtx, mediacache.EvictionPolicy{MaxAge: s.cfg.MediaMaxAge})
	if err != nil {
		s.logger.Error("Failed to evict cached media", "error", err)
	}

	s.logger.Info("Database cleanup completed successfully", "rows_deleted", removed, "media_evicted", evicted)
}
