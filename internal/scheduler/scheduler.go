package scheduler

import (
	"context"
	"time"

	"github.com/orgball2608/fedi-albums/internal/resolver"
)

type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeRateLimited OutcomeKind = "rate_limited"
	OutcomeFailed      OutcomeKind = "failed"
)

// Outcome describes one album refresh after its state was persisted.
type Outcome struct {
	AlbumID      string
	Kind         OutcomeKind
	Candidates   int
	Matched      int
	Upserted     int
	Linked       int
	TargetErrors []resolver.TargetError
	BackoffUntil *time.Time
	Err          error
}

// Partial reports whether some targets of a multi-target query failed.
func (o Outcome) Partial() bool {
	return len(o.TargetErrors) > 0
}

type Status struct {
	Running     bool
	Runs        int64
	Refreshed   int64
	Skipped     int64
	Errors      int64
	RateLimited int64
	LastRunAt   *time.Time
}

//go:generate go run go.uber.org/mock/mockgen -source=scheduler.go -destination=mocks/mock.go
type Client interface {
	// Start schedules the recurring tick. Calling it twice is a no-op
	Start(ctx context.Context) error

	// Stop stops starting new albums and waits for the running one
	Stop(ctx context.Context) error

	Status() Status

	// Tick refreshes every due album once, sequentially
	Tick(ctx context.Context)

	// ForceRefresh refreshes one album now, ignoring the due check
	ForceRefresh(ctx context.Context, albumID string) (Outcome, error)
}
