package resolver

import (
	"context"
	"fmt"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

type Options struct {
	Limit   int
	SinceID string
}

type TargetKind string

const (
	TargetTag  TargetKind = "tag"
	TargetUser TargetKind = "user"
)

// TargetError records one failed sub-fetch of a multi-target resolve.
type TargetError struct {
	Kind   TargetKind
	Target string
	Err    error
}

func (e TargetError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Target, e.Err)
}

func (e TargetError) Unwrap() error {
	return e.Err
}

// Code is the taxonomy code of the underlying failure.
func (e TargetError) Code() errors.Code {
	return errors.CodeOf(e.Err)
}

type Result struct {
	Photos     []domain.Photo
	Errors     []TargetError
	Candidates int // unique candidates seen before filtering
}

// RateLimited returns the first rate-limited target error, if any.
func (r Result) RateLimited() (TargetError, bool) {
	for _, e := range r.Errors {
		if errors.IsRateLimited(e.Err) {
			return e, true
		}
	}
	return TargetError{}, false
}

//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock.go
type Client interface {
	// Resolve runs query against the remote timelines and returns at most
	// opts.Limit photos, newest first
	Resolve(ctx context.Context, query domain.Query, opts Options) (Result, error)
}
