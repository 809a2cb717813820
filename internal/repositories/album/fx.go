package album

import (
	"go.uber.org/fx"
)

var Module = fx.Module("album_repository",
	fx.Provide(
		NewSQL,
		fx.Annotate(
			func(repo *SQL) Repository {
				return repo
			},
			fx.As(new(Repository)),
		),
	),
)
