package schedulerimpl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

// ForceRefresh refreshes one album synchronously, disabled or not.
func (s *SchedulerImpl) ForceRefresh(ctx context.Context, albumID string) (scheduler.Outcome, error) {
	unlock := s.locks.lock(albumID)
	defer unlock()

	ctx, cancel := s.albumContext(ctx)
	defer cancel()

	a, err := s.albumRepo.Get(ctx, albumID)
	if err != nil {
		return scheduler.Outcome{}, err
	}

	outcome, err := s.refresh(ctx, a)
	if err != nil {
		return outcome, err
	}
	s.logOutcome(outcome)
	return outcome, nil
}

// refresh resolves the album query and persists the resulting transition.
// The returned error is set only when the transition could not be stored.
func (s *SchedulerImpl) refresh(ctx context.Context, a domain.Album) (scheduler.Outcome, error) {
	res, err := s.resolver.Resolve(ctx, a.Query, resolver.Options{Limit: a.Limit, SinceID: a.Refresh.SinceID})
	if err != nil {
		if errors.IsRateLimited(err) {
			return s.rateLimitedTransition(ctx, a, err)
		}
		return s.failedTransition(ctx, a, err)
	}
	return s.successTransition(ctx, a, res)
}

// successTransition upserts, links and patches the refresh state in one
// transaction. With target errors the watermark stays put, and a rate
// limited target backs the album off.
func (s *SchedulerImpl) successTransition(ctx context.Context, a domain.Album, res resolver.Result) (scheduler.Outcome, error) {
	now := s.clock.Now().UTC()
	outcome := scheduler.Outcome{
		AlbumID:      a.ID,
		Kind:         scheduler.OutcomeSuccess,
		Candidates:   res.Candidates,
		Matched:      len(res.Photos),
		TargetErrors: res.Errors,
	}

	patch := successPatch(a.Refresh, res, now)
	if limited, ok := res.RateLimited(); ok {
		patch = s.rateLimitedPatch(a.Refresh, limited.Err, now)
		patch.MaxID = oldestWatermark(a.Refresh.MaxID, res.Photos)
		outcome.Kind = scheduler.OutcomeRateLimited
		outcome.BackoffUntil = patch.BackoffUntil
		outcome.Err = limited
	}

	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		ids, err := s.photoRepo.Upsert(ctx, res.Photos)
		if err != nil {
			return err
		}
		linked, err := s.photoRepo.LinkAlbum(ctx, a.ID, ids, now)
		if err != nil {
			return err
		}
		if _, err := s.albumRepo.Update(ctx, a.ID, domain.AlbumPatch{Refresh: &patch}); err != nil {
			return err
		}
		outcome.Upserted, outcome.Linked = len(ids), linked
		return nil
	})
	if err != nil {
		s.failures.Add(1)
		return outcome, fmt.Errorf("persist refresh of album %s: %w", a.ID, err)
	}

	s.refreshed.Add(1)
	if outcome.Kind == scheduler.OutcomeRateLimited {
		s.rateLimited.Add(1)
	}
	if outcome.Linked > 0 {
		s.afterCommit(ctx, a, newerThan(res.Photos, a.Refresh.SinceID, outcome.Linked))
	}
	return outcome, nil
}

func (s *SchedulerImpl) rateLimitedTransition(ctx context.Context, a domain.Album, cause error) (scheduler.Outcome, error) {
	patch := s.rateLimitedPatch(a.Refresh, cause, s.clock.Now().UTC())
	if err := s.updateRefresh(ctx, a.ID, patch); err != nil {
		return scheduler.Outcome{AlbumID: a.ID, Kind: scheduler.OutcomeRateLimited, Err: cause}, err
	}

	s.rateLimited.Add(1)
	return scheduler.Outcome{
		AlbumID:      a.ID,
		Kind:         scheduler.OutcomeRateLimited,
		BackoffUntil: patch.BackoffUntil,
		Err:          cause,
	}, nil
}

// failedTransition records the error without backing off.
func (s *SchedulerImpl) failedTransition(ctx context.Context, a domain.Album, cause error) (scheduler.Outcome, error) {
	now := s.clock.Now().UTC()
	patch := domain.RefreshPatch{
		LastCheckedAt: &now,
		LastError:     domain.Ptr(cause.Error()),
	}
	s.failures.Add(1)

	outcome := scheduler.Outcome{AlbumID: a.ID, Kind: scheduler.OutcomeFailed, Err: cause}
	if err := s.updateRefresh(ctx, a.ID, patch); err != nil {
		return outcome, err
	}

	if err := s.telegram.NotifyRefreshFailed(ctx, a, cause); err != nil {
		s.logger.Warn("Failed to send failure notification", "album_id", a.ID, "error", err)
	}
	return outcome, nil
}

func (s *SchedulerImpl) updateRefresh(ctx context.Context, albumID string, patch domain.RefreshPatch) error {
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.albumRepo.Update(ctx, albumID, domain.AlbumPatch{Refresh: &patch})
		return err
	})
	if err != nil {
		s.failures.Add(1)
		return fmt.Errorf("persist refresh state of album %s: %w", albumID, err)
	}
	return nil
}

// afterCommit runs the notifier and media cache hooks. Their failures are
// only logged.
func (s *SchedulerImpl) afterCommit(ctx context.Context, a domain.Album, added []domain.Photo) {
	for _, p := range added {
		if err := s.media.EnsureCached(ctx, p); err != nil {
			s.logger.Warn("Failed to cache media", "album_id", a.ID, "status_id", p.StatusID, "error", err)
		}
	}
	if err := s.telegram.NotifyNewPhotos(ctx, a, added); err != nil {
		s.logger.Warn("Failed to send new photos notification", "album_id", a.ID, "error", err)
	}
}

// successPatch clears backoff and advances the watermarks. sinceId only
// moves when every target answered.
func successPatch(state domain.RefreshState, res resolver.Result, now time.Time) domain.RefreshPatch {
	patch := domain.RefreshPatch{
		LastCheckedAt: &now,
		ClearBackoff:  true,
		RetryCount:    domain.Ptr(0),
		LastError:     domain.Ptr(""),
		MaxID:         oldestWatermark(state.MaxID, res.Photos),
	}

	if len(res.Errors) > 0 {
		patch.LastError = domain.Ptr(describeTargetErrors(res.Errors))
		return patch
	}
	if newest := newestID(res.Photos); newest != "" && domain.CompareStatusIDs(newest, state.SinceID) > 0 {
		patch.SinceID = &newest
	}
	return patch
}

// rateLimitedPatch backs off for base*2^retryCount, capped and jittered,
// or for the remote's retry hint when that is longer.
func (s *SchedulerImpl) rateLimitedPatch(state domain.RefreshState, cause error, now time.Time) domain.RefreshPatch {
	delay := backoffDelay(s.cfg.BaseBackoff, s.cfg.MaxBackoff, s.cfg.BackoffJitter, state.RetryCount)
	if retryAfter, ok := errors.RetryAfterOf(cause); ok && retryAfter > delay {
		delay = retryAfter
	}
	until := now.Add(delay)

	return domain.RefreshPatch{
		LastCheckedAt: &now,
		BackoffUntil:  &until,
		RetryCount:    domain.Ptr(state.RetryCount + 1),
		LastError:     domain.Ptr(cause.Error()),
	}
}

func newestID(photos []domain.Photo) string {
	newest := ""
	for _, p := range photos {
		if newest == "" || domain.CompareStatusIDs(p.StatusID, newest) > 0 {
			newest = p.StatusID
		}
	}
	return newest
}

// oldestWatermark returns the new maxId when photos reach further back
// than current, nil otherwise.
func oldestWatermark(current string, photos []domain.Photo) *string {
	oldest := ""
	for _, p := range photos {
		if p.StatusID == "" {
			continue
		}
		if oldest == "" || domain.CompareStatusIDs(p.StatusID, oldest) < 0 {
			oldest = p.StatusID
		}
	}
	if oldest == "" || (current != "" && domain.CompareStatusIDs(oldest, current) >= 0) {
		return nil
	}
	return &oldest
}

// newerThan returns up to n photos above the sinceID watermark, in result order.
func newerThan(photos []domain.Photo, sinceID string, n int) []domain.Photo {
	out := make([]domain.Photo, 0, n)
	for _, p := range photos {
		if len(out) == n {
			break
		}
		if sinceID == "" || domain.CompareStatusIDs(p.StatusID, sinceID) > 0 {
			out = append(out, p)
		}
	}
	return out
}

func describeTargetErrors(errs []resolver.TargetError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return "partial refresh: " + strings.Join(parts, "; ")
}
