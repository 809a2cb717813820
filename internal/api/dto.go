package api

import (
	"time"

	"github.com/orgball2608/fedi-albums/internal/domain"
	"github.com/orgball2608/fedi-albums/internal/resolver"
	"github.com/orgball2608/fedi-albums/internal/scheduler"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

type queryRequest struct {
	Type    string   `json:"type" validate:"required,oneof=tag user compound"`
	Tags    []string `json:"tags" validate:"max=20,dive,max=100"`
	Users   []string `json:"users" validate:"max=20,dive,max=200"`
	TagMode string   `json:"tagMode" validate:"omitempty,oneof=any all"`
}

func (q queryRequest) toDomain() (domain.Query, error) {
	return domain.NewQuery(domain.QueryType(q.Type), q.Tags, q.Users, q.TagMode)
}

type createAlbumRequest struct {
	ID              string        `json:"id" validate:"max=64"`
	Title           string        `json:"title" validate:"max=200"`
	Query           *queryRequest `json:"query" validate:"required"`
	Limit           int           `json:"limit"`
	Enabled         *bool         `json:"enabled"`
	IntervalSeconds int           `json:"intervalSeconds" validate:"min=0"`
}

type updateAlbumRequest struct {
	Title           *string       `json:"title" validate:"omitempty,max=200"`
	Query           *queryRequest `json:"query"`
	Limit           *int          `json:"limit"`
	Enabled         *bool         `json:"enabled"`
	IntervalSeconds *int          `json:"intervalSeconds" validate:"omitempty,min=0"`
}

type photoQueryRequest struct {
	queryRequest
	Limit   int    `json:"limit"`
	SinceID string `json:"sinceId" validate:"max=64"`
}

type queryResponse struct {
	Type    domain.QueryType `json:"type"`
	Tags    []string         `json:"tags"`
	Users   []string         `json:"users"`
	TagMode domain.TagMode   `json:"tagMode,omitempty"`
}

type refreshResponse struct {
	IntervalSeconds int64      `json:"intervalSeconds"`
	LastCheckedAt   *time.Time `json:"lastCheckedAt"`
	BackoffUntil    *time.Time `json:"backoffUntil"`
	SinceID         string     `json:"sinceId,omitempty"`
	MaxID           string     `json:"maxId,omitempty"`
	RetryCount      int        `json:"retryCount"`
	LastError       string     `json:"lastError,omitempty"`
}

type albumResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Query     queryResponse   `json:"query"`
	Limit     int             `json:"limit"`
	Enabled   bool            `json:"enabled"`
	Refresh   refreshResponse `json:"refresh"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newAlbumResponse(a domain.Album) albumResponse {
	tags, users, mode := domain.QueryParts(a.Query)
	if tags == nil {
		tags = []string{}
	}
	if users == nil {
		users = []string{}
	}
	return albumResponse{
		ID:    a.ID,
		Title: a.Title,
		Query: queryResponse{
			Type:    a.Query.Type(),
			Tags:    tags,
			Users:   users,
			TagMode: mode,
		},
		Limit:   a.Limit,
		Enabled: a.Enabled,
		Refresh: refreshResponse{
			IntervalSeconds: int64(a.Refresh.Interval / time.Second),
			LastCheckedAt:   a.Refresh.LastCheckedAt,
			BackoffUntil:    a.Refresh.BackoffUntil,
			SinceID:         a.Refresh.SinceID,
			MaxID:           a.Refresh.MaxID,
			RetryCount:      a.Refresh.RetryCount,
			LastError:       a.Refresh.LastError,
		},
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type listResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type targetErrorResponse struct {
	Kind    resolver.TargetKind `json:"kind"`
	Target  string              `json:"target"`
	Code    errors.Code         `json:"code"`
	Message string              `json:"message"`
}

func newTargetErrors(errs []resolver.TargetError) []targetErrorResponse {
	out := make([]targetErrorResponse, 0, len(errs))
	for _, e := range errs {
		out = append(out, targetErrorResponse{
			Kind:    e.Kind,
			Target:  e.Target,
			Code:    e.Code(),
			Message: errors.GetMessage(e.Err),
		})
	}
	return out
}

type photoQueryResponse struct {
	Photos     []domain.Photo        `json:"photos"`
	Candidates int                   `json:"candidates"`
	Errors     []targetErrorResponse `json:"errors"`
}

type outcomeResponse struct {
	AlbumID      string                `json:"albumId"`
	Outcome      scheduler.OutcomeKind `json:"outcome"`
	Candidates   int                   `json:"candidates"`
	Matched      int                   `json:"matched"`
	Upserted     int                   `json:"upserted"`
	Linked       int                   `json:"linked"`
	BackoffUntil *time.Time            `json:"backoffUntil,omitempty"`
	Errors       []targetErrorResponse `json:"errors"`
	Error        *errorBody            `json:"error,omitempty"`
}

func newOutcomeResponse(o scheduler.Outcome) outcomeResponse {
	resp := outcomeResponse{
		AlbumID:      o.AlbumID,
		Outcome:      o.Kind,
		Candidates:   o.Candidates,
		Matched:      o.Matched,
		Upserted:     o.Upserted,
		Linked:       o.Linked,
		BackoffUntil: o.BackoffUntil,
		Errors:       newTargetErrors(o.TargetErrors),
	}
	if o.Err != nil {
		resp.Error = &errorBody{Code: errors.CodeOf(o.Err), Message: errors.GetMessage(o.Err)}
	}
	return resp
}

type statusResponse struct {
	Running     bool       `json:"running"`
	Runs        int64      `json:"runs"`
	Refreshed   int64      `json:"refreshed"`
	Skipped     int64      `json:"skipped"`
	Errors      int64      `json:"errors"`
	RateLimited int64      `json:"rateLimited"`
	LastRunAt   *time.Time `json:"lastRunAt"`
}

func newStatusResponse(st scheduler.Status) statusResponse {
	return statusResponse(st)
}
