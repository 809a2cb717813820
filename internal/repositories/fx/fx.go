package fx

import (
	"github.com/orgball2608/fedi-albums/internal/repositories"
	"github.com/orgball2608/fedi-albums/internal/repositories/album"
	"github.com/orgball2608/fedi-albums/internal/repositories/photo"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(repositories.NewTransactor),
	album.Module,
	photo.Module,
)
