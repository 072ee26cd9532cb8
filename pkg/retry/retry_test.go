package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

type hintedErr struct{ wait time.Duration }

func (h hintedErr) Error() string              { return "slow down" }
func (h hintedErr) RetryAfter() time.Duration { return h.wait }

func recordingPolicy(attempts int, slept *[]time.Duration) Policy {
	return Policy{
		Attempts:  attempts,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Second,
		Retryable: func(err error) bool { return errors.Is(err, errTransient) || errors.As(err, new(hintedErr)) },
		Sleep: func(_ context.Context, d time.Duration) error {
			*slept = append(*slept, d)
			return nil
		},
	}
}

func TestDoSucceedsWithinAttempts(t *testing.T) {
	var slept []time.Duration
	calls := 0

	err := Do(context.Background(), recordingPolicy(3, &slept), func(context.Context, int) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, slept)
}

func TestDoStopsAtAttemptLimit(t *testing.T) {
	var slept []time.Duration
	calls := 0

	err := Do(context.Background(), recordingPolicy(3, &slept), func(context.Context, int) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
	assert.Len(t, slept, 2)
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	var slept []time.Duration
	permanent := errors.New("bad request")
	calls := 0

	err := Do(context.Background(), recordingPolicy(5, &slept), func(context.Context, int) error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestDelayCapsAndHonoursHints(t *testing.T) {
	p := Policy{BaseDelay: 300 * time.Millisecond, MaxDelay: time.Second}

	assert.Equal(t, 300*time.Millisecond, p.Delay(1, errTransient))
	assert.Equal(t, 600*time.Millisecond, p.Delay(2, errTransient))
	assert.Equal(t, time.Second, p.Delay(3, errTransient))
	assert.Equal(t, 750*time.Millisecond, p.Delay(1, hintedErr{wait: 750 * time.Millisecond}))
	assert.Equal(t, 300*time.Millisecond, p.Delay(1, hintedErr{wait: time.Minute}), "hints beyond the cap are ignored")
}

func TestDelayNeverOverflows(t *testing.T) {
	uncapped := Policy{BaseDelay: time.Second}
	assert.Equal(t, 8*time.Second, uncapped.Delay(4, errTransient))
	for _, attempt := range []int{40, 64, 65, 200} {
		assert.Equal(t, time.Duration(math.MaxInt64), uncapped.Delay(attempt, errTransient), "attempt %d", attempt)
	}

	capped := Policy{BaseDelay: time.Second, MaxDelay: time.Minute}
	assert.Equal(t, time.Minute, capped.Delay(200, errTransient))
	assert.Zero(t, Policy{}.Delay(100, errTransient))
}

func TestDoAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	p := Policy{
		Attempts:  5,
		BaseDelay: time.Hour,
		Retryable: func(error) bool { return true },
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, p, func(context.Context, int) error {
		calls++
		return errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}
