package domain

import (
	"time"

	"github.com/orgball2608/fedi-albums/pkg/errors"
)

type Album struct {
	ID        string
	Title     string
	Query     Query
	Limit     int
	Enabled   bool
	Refresh   RefreshState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshState carries everything the scheduler needs between cycles.
type RefreshState struct {
	Interval      time.Duration
	LastCheckedAt *time.Time
	BackoffUntil  *time.Time
	SinceID       string // newest-seen watermark, "" when none
	MaxID         string // oldest-seen watermark, reserved for backfill
	RetryCount    int
	LastError     string
}

// Validate checks the album invariants. Compound albums need both tags and users.
func (a Album) Validate() error {
	if a.Query == nil {
		return errors.Validation("album query is required")
	}
	switch q := a.Query.(type) {
	case TagQuery:
		if len(q.Tags) == 0 {
			return errors.Validation("tag album requires at least one tag")
		}
	case UserQuery:
		if len(q.Users) == 0 {
			return errors.Validation("user album requires at least one user")
		}
	case CompoundQuery:
		if len(q.Tags) == 0 || len(q.Users) == 0 {
			return errors.Validation("compound album requires both tags and users")
		}
	}
	if a.Refresh.Interval < 0 {
		return errors.Validation("refresh interval must not be negative")
	}
	return nil
}

// AlbumPatch is a partial update. Nil fields are left untouched.
type AlbumPatch struct {
	Title   *string
	Query   Query
	Limit   *int
	Enabled *bool
	Refresh *RefreshPatch
}

// RefreshPatch is merged field by field onto the stored RefreshState.
type RefreshPatch struct {
	Interval      *time.Duration
	LastCheckedAt *time.Time
	BackoffUntil  *time.Time
	ClearBackoff  bool
	SinceID       *string
	MaxID         *string
	RetryCount    *int
	LastError     *string
}

// Apply returns s with every set field of p merged in.
func (s RefreshState) Apply(p RefreshPatch) RefreshState {
	if p.Interval != nil {
		s.Interval = *p.Interval
	}
	if p.LastCheckedAt != nil {
		t := *p.LastCheckedAt
		s.LastCheckedAt = &t
	}
	if p.ClearBackoff {
		s.BackoffUntil = nil
	}
	if p.BackoffUntil != nil {
		t := *p.BackoffUntil
		s.BackoffUntil = &t
	}
	if p.SinceID != nil {
		s.SinceID = *p.SinceID
	}
	if p.MaxID != nil {
		s.MaxID = *p.MaxID
	}
	if p.RetryCount != nil {
		s.RetryCount = *p.RetryCount
	}
	if p.LastError != nil {
		s.LastError = *p.LastError
	}
	return s
}

// Apply returns a with the patch merged in. Limit is clamped.
func (a Album) Apply(p AlbumPatch) Album {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Query != nil {
		a.Query = p.Query
	}
	if p.Limit != nil {
		a.Limit = ClampLimit(*p.Limit)
	}
	if p.Enabled != nil {
		a.Enabled = *p.Enabled
	}
	if p.Refresh != nil {
		a.Refresh = a.Refresh.Apply(*p.Refresh)
	}
	return a
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
