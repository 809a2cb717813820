package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowBurstPerKey(t *testing.T) {
	l := NewInMemoryLimiter(0.001, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// other keys have their own bucket
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestUnlimited(t *testing.T) {
	l := NewInMemoryLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k"))
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := NewInMemoryLimiter(0.001, 1)
	assert.NoError(t, l.Wait(context.Background(), "host"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "host"))
}
