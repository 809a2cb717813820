// Package pagecache keeps short-lived copies of remote timeline pages.
package pagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

const keyPrefix = "fedi-albums:page:"

type Cache interface {
	// Get reports false on a miss
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key hashes the request identity into a bounded cache key.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Noop never stores anything.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
