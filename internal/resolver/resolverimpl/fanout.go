package resolverimpl

import (
	"context"
	"fmt"
	"sync"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	"github.com/orgball2608/fedi-albums/internal/timeline"
	"github.com/orgball2608/fedi-albums/pkg/errors"
	"github.com/panjf2000/ants/v2"
)

type target struct {
	kind  resolver.TargetKind
	name  string
	fetch func(ctx context.Context) ([]domain.Photo, error)
}

type outcome struct {
	photos []domain.Photo
	err    error
}

// run fetches all targets and unions their photos in target order. With a
// single target its error is returned as is; with several, failures become
// TargetErrors unless every target failed.
func (r *Impl) run(ctx context.Context, targets []target) ([]domain.Photo, []resolver.TargetError, error) {
	outcomes, err := r.fanOut(ctx, targets)
	if err != nil {
		return nil, nil, err
	}

	if len(targets) == 1 {
		if outcomes[0].err != nil {
			return nil, nil, outcomes[0].err
		}
		return union(outcomes[0].photos), nil, nil
	}

	var targetErrs []resolver.TargetError
	lists := make([][]domain.Photo, 0, len(outcomes))
	for i, o := range outcomes {
		if o.err != nil {
			r.logger.Warn("Sub-fetch failed", "kind", targets[i].kind, "target", targets[i].name, "error", o.err)
			targetErrs = append(targetErrs, resolver.TargetError{Kind: targets[i].kind, Target: targets[i].name, Err: o.err})
		}
		lists = append(lists, o.photos)
	}

	if len(targetErrs) == len(targets) {
		return nil, nil, allFailed(targetErrs)
	}
	return union(lists...), targetErrs, nil
}

// fanOut runs each target on an ants pool sized to the target count.
func (r *Impl) fanOut(ctx context.Context, targets []target) ([]outcome, error) {
	outcomes := make([]outcome, len(targets))
	if len(targets) == 1 {
		outcomes[0].photos, outcomes[0].err = targets[0].fetch(ctx)
		return outcomes, nil
	}

	pool, err := ants.NewPool(min(len(targets), r.maxWorkers))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			outcomes[i].photos, outcomes[i].err = t.fetch(ctx)
		})
		if err != nil {
			wg.Done()
			outcomes[i].err = fmt.Errorf("submit %s %s: %w", t.kind, t.name, err)
		}
	}
	wg.Wait()

	return outcomes, nil
}

// allFailed prefers a rate limit error so the scheduler backs off.
func allFailed(targetErrs []resolver.TargetError) error {
	chosen := targetErrs[0]
	for _, e := range targetErrs {
		if errors.IsRateLimited(e.Err) {
			chosen = e
			break
		}
	}
	return fmt.Errorf("all %d targets failed, %s: %w", len(targetErrs), chosen.Target, chosen.Err)
}

// collect pages backwards through one timeline until want photos are
// gathered or the timeline ends. Photos gathered before a failing page are
// returned along with the error.
func (r *Impl) collect(ctx context.Context, want int, sinceID string, fetch func(context.Context, timeline.PageOptions) (timeline.Page, error)) ([]domain.Photo, error) {
	var photos []domain.Photo
	maxID := ""
	maxPages := want/timeline.MaxPageSize + 3

	for pages := 0; len(photos) < want && pages < maxPages; pages++ {
		if err := ctx.Err(); err != nil {
			return photos, errors.Upstream(err, "resolve cancelled")
		}
		page, err := fetch(ctx, timeline.PageOptions{
			Limit:   min(want, timeline.MaxPageSize),
			SinceID: sinceID,
			MaxID:   maxID,
		})
		if err != nil {
			return photos, err
		}
		photos = append(photos, page.Photos...)

		if page.Statuses == 0 || page.NextMaxID == "" || page.NextMaxID == maxID {
			break
		}
		maxID = page.NextMaxID
	}

	if len(photos) > want {
		photos = photos[:want]
	}
	return photos, nil
}
