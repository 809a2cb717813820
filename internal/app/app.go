package app

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/orgball2608/fedi-albums/internal/api"
	"github.com/orgball2608/fedi-albums/internal/auth"
	"github.com/orgball2608/fedi-albums/internal/database"
	"github.com/orgball2608/fedi-albums/internal/mediacache"
	"github.com/orgball2608/fedi-albums/internal/pagecache"
	repositories "github.com/orgball2608/fedi-albums/internal/repositories/fx"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	"github.com/orgball2608/fedi-albums/internal/resolver/resolverimpl"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
	"github.com/orgball2608/fedi-albums/internal/scheduler/schedulerimpl"
	"github.com/orgball2608/fedi-albums/internal/telegram/telegramimpl"
	"github.com/orgball2608/fedi-albums/internal/timeline"
	"github.com/orgball2608/fedi-albums/internal/timeline/timelineimpl"
	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		database.New,
		pagecache.New,
		mediacache.NewNoop,
		telegramimpl.New,
	),
	fx.Provide(
		fx.Annotate(
			auth.NewStaticProvider,
			fx.As(new(auth.TokenProvider)),
		),
		fx.Annotate(
			timelineimpl.New,
			fx.As(new(timeline.Client)),
		),
		fx.Annotate(
			resolverimpl.New,
			fx.As(new(resolver.Client)),
		),
		fx.Annotate(
			schedulerimpl.New,
			fx.As(new(scheduler.Client)),
		),
	),
	repositories.Module,
	api.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

// migrate applies pending migrations once the database is reachable.
func migrate(lc fx.Lifecycle, db *sqlx.DB, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return database.Migrate(ctx, db, log)
		},
	})
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, sched scheduler.Client) {
	if !cfg.Scheduler.Enabled {
		log.Info("Scheduler disabled, albums refresh only on demand")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sched.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return sched.Stop(ctx)
		},
	})
}
