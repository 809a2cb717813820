package photo

import (
	"context"
	"fmt"
	"time"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

var ErrNotFound = fmt.Errorf("photo %w", errors.ErrNotFound)

type Page struct {
	Offset int
	Limit  int
}

//go:generate go run go.uber.org/mock/mockgen -source=photo.go -destination=mocks/mock.go
type Repository interface {
	// Upsert inserts or replaces photos by status id and returns the stored ids
	Upsert(ctx context.Context, photos []domain.Photo) ([]string, error)

	// LinkAlbum adds membership edges and returns how many were new
	LinkAlbum(ctx context.Context, albumID string, statusIDs []string, addedAt time.Time) (int, error)

	// ListByAlbum returns album photos newest-added first, plus the total
	ListByAlbum(ctx context.Context, albumID string, page Page) ([]domain.Photo, int, error)

	// Get returns one photo by status id
	Get(ctx context.Context, statusID string) (domain.Photo, error)

	// RemoveUnreferenced deletes photos that belong to no album
	RemoveUnreferenced(ctx context.Context) (int64, error)
}
