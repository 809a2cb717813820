package timeline

import (
	"context"

	"github.com/orgball2608/fedi-albums/internal/domain"
)

// MaxPageSize is the largest page the remote API serves.
const MaxPageSize = 40

type PageOptions struct {
	Limit   int
	SinceID string
	MaxID   string
}

// Page is one remote page after normalization.
type Page struct {
	Photos    []domain.Photo
	Statuses  int    // raw statuses returned before image filtering
	NextMaxID string // cursor for the next older page, "" at the end
}

//go:generate go run go.uber.org/mock/mockgen -source=timeline.go -destination=mocks/mock.go
type Client interface {
	// FetchTagPage returns one page of a hashtag timeline
	FetchTagPage(ctx context.Context, tag string, opts PageOptions) (Page, error)

	// FetchUserPage returns one page of an account's statuses
	FetchUserPage(ctx context.Context, accountID string, opts PageOptions) (Page, error)

	// LookupAccount resolves a handle to the remote account id
	LookupAccount(ctx context.Context, handle string) (string, error)
}
