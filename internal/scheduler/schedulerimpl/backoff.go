package schedulerimpl

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// backoffDelay replays an exponential backoff retryCount+1 steps: base
// doubling per retry, capped at max, randomized by ±randomization.
// A zero max leaves the delay uncapped.
func backoffDelay(base, max time.Duration, randomization float64, retryCount int) time.Duration {
	if base <= 0 {
		return 0
	}
	if max <= 0 {
		max = time.Duration(math.MaxInt64)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.MaxInterval = max
	bo.Multiplier = 2
	bo.RandomizationFactor = randomization
	bo.MaxElapsedTime = 0
	bo.Reset()

	d := bo.NextBackOff()
	for i := 0; i < retryCount; i++ {
		d = bo.NextBackOff()
	}
	return d
}

// jitter spreads d uniformly over d*(1±pct). rnd returns values in [0,1).
func jitter(d time.Duration, pct float64, rnd func() float64) time.Duration {
	if pct <= 0 || d <= 0 {
		return d
	}
	offset := (rnd()*2 - 1) * pct * float64(d)
	return d + time.Duration(offset)
}
