package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/orgball2608/fedi-albums/pkg/logger"
	"github.com/stretchr/testify/assert"
)

var errBusy = errors.New("database is locked")

func fastConfig() Config {
	return Config{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 1.5}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.Nop(), "op", func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	}, fastConfig())

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.Nop(), "op", func() error {
		calls++
		return errBusy
	}, fastConfig())

	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 4, calls)
}

func TestDoIfStopsOnPermanentError(t *testing.T) {
	other := errors.New("constraint failed")
	calls := 0
	err := DoIf(context.Background(), logger.Nop(), "op", func() error {
		calls++
		return other
	}, func(err error) bool { return errors.Is(err, errBusy) }, fastConfig())

	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, calls)
}
