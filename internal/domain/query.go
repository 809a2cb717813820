package domain

import (
	"github.com/orgball2608/fedi-albums/pkg/errors"
	"github.com/orgball2608/fedi-albums/pkg/normalize"
)

type QueryType string

const (
	QueryTypeTag      QueryType = "tag"
	QueryTypeUser     QueryType = "user"
	QueryTypeCompound QueryType = "compound"
)

type TagMode string

const (
	TagModeAny TagMode = "any"
	TagModeAll TagMode = "all"
)

const (
	MinLimit     = 1
	MaxLimit     = 40
	DefaultLimit = 20
)

// ClampLimit forces a requested page size into [MinLimit, MaxLimit].
// Zero and negative values fall back to DefaultLimit.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// Query is one of TagQuery, UserQuery or CompoundQuery.
type Query interface {
	Type() QueryType
	isQuery()
}

// TagQuery matches posts from hashtag timelines.
type TagQuery struct {
	Tags []string
	Mode TagMode
}

// UserQuery matches posts authored by any of the listed accounts.
type UserQuery struct {
	Users []string
}

// CompoundQuery matches posts by the listed accounts that also carry the tags.
type CompoundQuery struct {
	Tags  []string
	Users []string
	Mode  TagMode
}

func (TagQuery) Type() QueryType      { return QueryTypeTag }
func (UserQuery) Type() QueryType     { return QueryTypeUser }
func (CompoundQuery) Type() QueryType { return QueryTypeCompound }

func (TagQuery) isQuery()      {}
func (UserQuery) isQuery()     {}
func (CompoundQuery) isQuery() {}

// QueryParts flattens a query for storage and transport.
func QueryParts(q Query) (tags, users []string, mode TagMode) {
	switch q := q.(type) {
	case TagQuery:
		return q.Tags, nil, q.Mode
	case UserQuery:
		return nil, q.Users, ""
	case CompoundQuery:
		return q.Tags, q.Users, q.Mode
	}
	return nil, nil, ""
}

// ParseTagMode accepts "", "any" and "all" case-sensitively. Empty means any.
func ParseTagMode(s string) (TagMode, error) {
	switch TagMode(s) {
	case "", TagModeAny:
		return TagModeAny, nil
	case TagModeAll:
		return TagModeAll, nil
	}
	return "", errors.Validation("unknown tagmode %q", s)
}

// NewQuery normalizes tags and users and builds the matching variant.
// A compound query needs at least one of tags or users; it degrades to
// the single criterion at resolve time. Album.Validate is stricter.
func NewQuery(typ QueryType, tags, users []string, mode string) (Query, error) {
	m, err := ParseTagMode(mode)
	if err != nil {
		return nil, err
	}
	tags = normalize.Tags(tags)
	users = normalize.Handles(users)

	switch typ {
	case QueryTypeTag:
		if len(tags) == 0 {
			return nil, errors.Validation("tag query requires at least one tag")
		}
		return TagQuery{Tags: tags, Mode: m}, nil
	case QueryTypeUser:
		if len(users) == 0 {
			return nil, errors.Validation("user query requires at least one user")
		}
		return UserQuery{Users: users}, nil
	case QueryTypeCompound:
		if len(tags) == 0 && len(users) == 0 {
			return nil, errors.Validation("compound query requires tags or users")
		}
		return CompoundQuery{Tags: tags, Users: users, Mode: m}, nil
	}
	return nil, errors.Validation("unknown query type %q", typ)
}
