package telegram

import (
	"context"

	"github.com/orgball2608/fedi-albums/internal/domain"
)

// Client announces refresh results to a chat. Failures are reported to the
// caller, who only logs them.
type Client interface {
	NotifyNewPhotos(ctx context.Context, album domain.Album, photos []domain.Photo) error
	NotifyRefreshFailed(ctx context.Context, album domain.Album, cause error) error
}

// Noop is used when no bot token is configured.
type Noop struct{}

var _ Client = Noop{}

func (Noop) NotifyNewPhotos(context.Context, domain.Album, []domain.Photo) error { return nil }

func (Noop) NotifyRefreshFailed(context.Context, domain.Album, error) error { return nil }
