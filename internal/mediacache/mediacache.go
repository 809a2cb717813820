// Package mediacache is the contract for a local copy of image files.
// Only a no-op implementation ships; albums work from remote URLs.
package mediacache

import (
	"context"
	"time"

	"github.com/orgball2608/fedi-albums/internal/domain"
)

// EvictionPolicy bounds what Evict may keep.
type EvictionPolicy struct {
	MaxAge   time.Duration
	MaxBytes int64
}

type Cache interface {
	EnsureCached(ctx context.Context, photo domain.Photo) error
	Evict(ctx context.Context, policy EvictionPolicy) (int, error)
}

type Noop struct{}

var _ Cache = Noop{}

func NewNoop() Cache { return Noop{} }

func (Noop) EnsureCached(context.Context, domain.Photo) error { return nil }

func (Noop) Evict(context.Context, EvictionPolicy) (int, error) { return 0, nil }
