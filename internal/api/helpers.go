package api

import (
	"net/http"
	"strconv"

	"github.com/orgball2608/fedi-albums/pkg/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type pagination struct {
	Offset int
	Limit  int
}

// parsePagination reads offset and limit, defaulting the limit and capping it.
func parsePagination(r *http.Request) (pagination, error) {
	p := pagination{Limit: defaultPageSize}

	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, errors.Validation("offset must be a non-negative integer")
		}
		p.Offset = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, errors.Validation("limit must be a positive integer")
		}
		p.Limit = min(n, maxPageSize)
	}
	return p, nil
}

// parseOptionalBool returns nil when the parameter is absent.
func parseOptionalBool(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errors.Validation("%s must be a boolean", name)
	}
	return &b, nil
}
