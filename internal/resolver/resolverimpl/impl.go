package resolverimpl

import (
	"context"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	"github.com/orgball2608/fedi-albums/internal/timeline"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/errors"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/orgball2608/fedi-albums/pkg/normalize"
	"go.uber.org/fx"
)

const (
	tagHeadroomFactor      = 5
	tagHeadroomMax         = 200
	compoundHeadroomFactor = 3
	compoundHeadroomMax    = 120
)

type Opts struct {
	fx.In

	Config   *config.Config
	Logger   logger.Logger
	Timeline timeline.Client
}

type Impl struct {
	timeline   timeline.Client
	maxWorkers int
	logger     logger.Logger
}

var _ resolver.Client = (*Impl)(nil)

func New(opts Opts) *Impl {
	workers := opts.Config.Mastodon.MaxWorkers
	if workers < 1 {
		workers = 1
	}
	return &Impl{
		timeline:   opts.Timeline,
		maxWorkers: workers,
		logger:     opts.Logger.WithComponent("Resolver"),
	}
}

// Resolve dispatches on the query variant. The limit is clamped to
// [1,40] before any fetching starts.
func (r *Impl) Resolve(ctx context.Context, query domain.Query, opts resolver.Options) (resolver.Result, error) {
	limit := domain.ClampLimit(opts.Limit)

	switch q := query.(type) {
	case domain.TagQuery:
		return r.resolveTags(ctx, normalize.Tags(q.Tags), q.Mode, limit, opts.SinceID)
	case domain.UserQuery:
		return r.resolveUsers(ctx, normalize.Handles(q.Users), limit, opts.SinceID)
	case domain.CompoundQuery:
		tags, users := normalize.Tags(q.Tags), normalize.Handles(q.Users)
		switch {
		case len(tags) == 0 && len(users) == 0:
			return resolver.Result{}, errors.Validation("compound query requires tags or users")
		case len(users) == 0:
			return r.resolveTags(ctx, tags, q.Mode, limit, opts.SinceID)
		case len(tags) == 0:
			return r.resolveUsers(ctx, users, limit, opts.SinceID)
		}
		return r.resolveCompound(ctx, tags, users, q.Mode, limit, opts.SinceID)
	}
	return resolver.Result{}, errors.Validation("unsupported query %T", query)
}

// resolveTags fetches every tag timeline with headroom, then filters locally:
// remote servers cannot be trusted to apply AND across tags.
func (r *Impl) resolveTags(ctx context.Context, tags []string, mode domain.TagMode, limit int, sinceID string) (resolver.Result, error) {
	if len(tags) == 0 {
		return resolver.Result{}, errors.Validation("tag query requires at least one tag")
	}
	want := min(limit*tagHeadroomFactor, tagHeadroomMax)

	targets := make([]target, 0, len(tags))
	for _, tag := range tags {
		targets = append(targets, target{
			kind: resolver.TargetTag,
			name: tag,
			fetch: func(ctx context.Context) ([]domain.Photo, error) {
				return r.collect(ctx, want, sinceID, func(ctx context.Context, opts timeline.PageOptions) (timeline.Page, error) {
					return r.timeline.FetchTagPage(ctx, tag, opts)
				})
			},
		})
	}

	candidates, targetErrs, err := r.run(ctx, targets)
	if err != nil {
		return resolver.Result{}, err
	}
	photos := finalize(candidates, tags, mode, limit)

	r.logger.Debug("Resolved tag query",
		"tags", tags, "mode", mode, "candidates", len(candidates), "matched", len(photos), "failed_targets", len(targetErrs))
	return resolver.Result{Photos: photos, Errors: targetErrs, Candidates: len(candidates)}, nil
}

func (r *Impl) resolveUsers(ctx context.Context, users []string, limit int, sinceID string) (resolver.Result, error) {
	if len(users) == 0 {
		return resolver.Result{}, errors.Validation("user query requires at least one user")
	}

	candidates, targetErrs, err := r.run(ctx, r.userTargets(users, limit, sinceID))
	if err != nil {
		return resolver.Result{}, err
	}
	photos := finalize(candidates, nil, domain.TagModeAny, limit)

	r.logger.Debug("Resolved user query",
		"users", users, "candidates", len(candidates), "matched", len(photos), "failed_targets", len(targetErrs))
	return resolver.Result{Photos: photos, Errors: targetErrs, Candidates: len(candidates)}, nil
}

// resolveCompound pulls the users' statuses with headroom and keeps the
// ones carrying the tags.
func (r *Impl) resolveCompound(ctx context.Context, tags, users []string, mode domain.TagMode, limit int, sinceID string) (resolver.Result, error) {
	want := min(limit*compoundHeadroomFactor, compoundHeadroomMax)

	candidates, targetErrs, err := r.run(ctx, r.userTargets(users, want, sinceID))
	if err != nil {
		return resolver.Result{}, err
	}
	photos := finalize(candidates, tags, mode, limit)

	r.logger.Debug("Resolved compound query",
		"tags", tags, "users", users, "mode", mode, "candidates", len(candidates), "matched", len(photos), "failed_targets", len(targetErrs))
	return resolver.Result{Photos: photos, Errors: targetErrs, Candidates: len(candidates)}, nil
}

func (r *Impl) userTargets(users []string, want int, sinceID string) []target {
	targets := make([]target, 0, len(users))
	for _, user := range users {
		targets = append(targets, target{
			kind: resolver.TargetUser,
			name: user,
			fetch: func(ctx context.Context) ([]domain.Photo, error) {
				accountID, err := r.timeline.LookupAccount(ctx, user)
				if err != nil {
					return nil, err
				}
				return r.collect(ctx, want, sinceID, func(ctx context.Context, opts timeline.PageOptions) (timeline.Page, error) {
					return r.timeline.FetchUserPage(ctx, accountID, opts)
				})
			},
		})
	}
	return targets
}
