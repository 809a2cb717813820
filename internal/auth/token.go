// Package auth supplies bearer tokens for the remote API.
package auth

import (
	"context"

	"github.com/orgball2608/fedi-albums/pkg/config"
	"github.com/orgball2608/fedi-albums/pkg/errors"
)

// TokenProvider returns a valid bearer token or errors.ErrUnauthorized.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticProvider serves a token configured at startup.
type StaticProvider struct {
	token string
}

var _ TokenProvider = (*StaticProvider)(nil)

func NewStaticProvider(cfg *config.Config) *StaticProvider {
	return &StaticProvider{token: cfg.Mastodon.AccessToken}
}

func (p *StaticProvider) AccessToken(context.Context) (string, error) {
	if p.token == "" {
		return "", errors.ErrUnauthorized
	}
	return p.token, nil
}
