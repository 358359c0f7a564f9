package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryDelay(t *testing.T) {
	p := DefaultRetryPolicy()
	p.Rand = func() float64 { return 0.5 }
	for attempt, want := range []time.Duration{3 * time.Second, 6 * time.Second, 9 * time.Second, 12 * time.Second} {
		assert.Equal(t, want, p.Delay(attempt), "attempt %d", attempt)
	}
	p.Rand = func() float64 { return 0 }
	assert.Equal(t, 2500*time.Millisecond, p.Delay(0))
}

func TestRetryBound(t *testing.T) {
	var slept []time.Duration
	p := DefaultRetryPolicy()
	p.Rand = func() float64 { return 0 }
	p.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	calls := 0
	_, err := p.Do(context.Background(), "test", func(context.Context, int) (Outcome, error) {
		calls++
		return Outcome{}, ErrRateLimited
	})
	assert.Equal(t, p.MaxRetries+1, calls)
	assert.Len(t, slept, calls)

	var ex *RetriesExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, 4, ex.Attempts)
	assert.Equal(t, "Rate limited after retries.", ResultFromErr(err).Message)
}

func TestRetryStopsOnSuccessAndPermanentErrors(t *testing.T) {
	p := noSleep()

	calls := 0
	out, err := p.Do(context.Background(), "test", func(_ context.Context, attempt int) (Outcome, error) {
		calls++
		if attempt < 2 {
			return Outcome{}, &TransportError{Op: "x", Status: 502}
		}
		return SingleOutcome(Available(10, "")), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, out.AnyAvailable())

	calls = 0
	_, err = p.Do(context.Background(), "test", func(context.Context, int) (Outcome, error) {
		calls++
		return Outcome{}, &NoMatchError{Msg: "none"}
	})
	assert.Equal(t, 1, calls)
	var nm *NoMatchError
	assert.ErrorAs(t, err, &nm)
}

func TestRetryCancelledDuringWait(t *testing.T) {
	p := DefaultRetryPolicy()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := p.Do(ctx, "test", func(context.Context, int) (Outcome, error) {
		calls++
		return Outcome{}, nil
	})
	assert.Zero(t, calls)
	assert.True(t, errors.Is(err, context.Canceled))
}
