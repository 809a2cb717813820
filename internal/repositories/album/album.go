package album

import (
	"context"
	"fmt"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

var (
	ErrAlreadyExists = fmt.Errorf("album already exists: %w", errors.ErrConflict)
	ErrNotFound      = fmt.Errorf("album %w", errors.ErrNotFound)
)

// ListOptions pages through albums. Limit 0 returns every album.
type ListOptions struct {
	Offset  int
	Limit   int
	Enabled *bool
}

//go:generate go run go.uber.org/mock/mockgen -source=album.go -destination=mocks/mock.go
type Repository interface {
	// Create stores a new album and returns it with timestamps filled in
	Create(ctx context.Context, album domain.Album) (domain.Album, error)

	// Get returns one album by id
	Get(ctx context.Context, id string) (domain.Album, error)

	// List returns a page of albums plus the total matching the filter
	List(ctx context.Context, opts ListOptions) ([]domain.Album, int, error)

	// Update merges patch onto the stored album
	Update(ctx context.Context, id string, patch domain.AlbumPatch) (domain.Album, error)

	// Delete removes the album and its membership rows
	Delete(ctx context.Context, id string) error
}
