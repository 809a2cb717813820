package schedulerimpl

import (
	"context"
	"time"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/repositories/album"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
)

// Tick refreshes every due album, one at a time with InterAlbumDelay
// between them. One album's failure never stops the others; a cancelled
// ctx stops the tick before the next album.
func (s *SchedulerImpl) Tick(ctx context.Context) {
	s.runs.Add(1)
	s.lastRunAt.Store(s.clock.Now().UnixNano())

	albums, _, err := s.albumRepo.List(ctx, album.ListOptions{Enabled: domain.Ptr(true)})
	if err != nil {
		s.failures.Add(1)
		s.logger.Error("Failed to list albums", "error", err)
		return
	}

	started := 0
	for _, a := range albums {
		if ctx.Err() != nil {
			s.logger.Info("Context cancelled, stopping tick", "refreshed", started)
			return
		}
		roll := s.rand()
		if !s.dueAt(a, s.clock.Now(), roll) {
			s.skipped.Add(1)
			continue
		}

		if started > 0 && !s.sleep(ctx, s.cfg.InterAlbumDelay) {
			s.logger.Info("Context cancelled, stopping tick", "refreshed", started)
			return
		}
		started++

		outcome, ran, err := s.refreshIfDue(ctx, a.ID, roll)
		switch {
		case err != nil:
			s.logger.Error("Album refresh failed", "album_id", a.ID, "error", err)
		case !ran:
			s.skipped.Add(1)
		default:
			s.logOutcome(outcome)
		}
	}
}

// refreshIfDue reloads the album under its lock so a concurrent forced
// refresh is seen, then refreshes it if it is still due. roll is the
// jitter drawn for this album in the current tick.
func (s *SchedulerImpl) refreshIfDue(ctx context.Context, albumID string, roll float64) (scheduler.Outcome, bool, error) {
	unlock := s.locks.lock(albumID)
	defer unlock()

	ctx, cancel := s.albumContext(ctx)
	defer cancel()

	a, err := s.albumRepo.Get(ctx, albumID)
	if err != nil {
		s.failures.Add(1)
		return scheduler.Outcome{}, false, err
	}
	if !s.dueAt(a, s.clock.Now(), roll) {
		return scheduler.Outcome{}, false, nil
	}

	outcome, err := s.refresh(ctx, a)
	return outcome, true, err
}

// due is true when the album is enabled, past its backoff and past its
// jittered interval. Jitter is re-rolled on every evaluation.
func (s *SchedulerImpl) due(a domain.Album, now time.Time) bool {
	return s.dueAt(a, now, s.rand())
}

// dueAt is due with the jitter fixed to roll, a value in [0,1).
func (s *SchedulerImpl) dueAt(a domain.Album, now time.Time, roll float64) bool {
	if !a.Enabled {
		return false
	}
	if a.Refresh.BackoffUntil != nil && now.Before(*a.Refresh.BackoffUntil) {
		return false
	}
	if a.Refresh.LastCheckedAt == nil {
		return true
	}

	interval := a.Refresh.Interval
	if interval <= 0 {
		interval = s.cfg.DefaultInterval
	}
	next := a.Refresh.LastCheckedAt.Add(jitter(interval, s.cfg.IntervalJitter, func() float64 { return roll }))
	return !now.Before(next)
}

// sleep waits d on the scheduler clock. It returns false when ctx ends first.
func (s *SchedulerImpl) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}

// albumContext detaches from ctx so stopping never aborts an album midway,
// and bounds the album with AlbumTimeout.
func (s *SchedulerImpl) albumContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.cfg.AlbumTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.AlbumTimeout)
}

func (s *SchedulerImpl) logOutcome(o scheduler.Outcome) {
	switch o.Kind {
	case scheduler.OutcomeSuccess:
		s.logger.Info("Album refreshed",
			"album_id", o.AlbumID, "candidates", o.Candidates, "matched", o.Matched,
			"linked", o.Linked, "failed_targets", len(o.TargetErrors))
	case scheduler.OutcomeRateLimited:
		s.logger.Warn("Album rate limited", "album_id", o.AlbumID, "backoff_until", o.BackoffUntil, "error", o.Err)
	case scheduler.OutcomeFailed:
		s.logger.Warn("Album refresh failed", "album_id", o.AlbumID, "error", o.Err)
	}
}
