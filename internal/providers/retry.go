package providers

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryPolicy re-runs a whole fetch pipeline, session warm-up included, with a
// growing jittered delay before every attempt.
type RetryPolicy struct {
	// MaxRetries is the number of attempts after the first.
	MaxRetries int
	Base       time.Duration
	Increment  time.Duration
	JitterMin  time.Duration
	JitterMax  time.Duration
	// Sleep waits for d or until ctx is done. Nil means a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Rand returns a float in [0,1). Nil means math/rand.
	Rand func() float64
	// Retryable decides whether an error is worth another attempt. Nil means
	// everything except precondition and no-match failures.
	Retryable func(error) bool
}

// DefaultRetryPolicy waits 2s + attempt*3s + U[0.5s, 1.5s) before each of up
// to four attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Base:       2 * time.Second,
		Increment:  3 * time.Second,
		JitterMin:  500 * time.Millisecond,
		JitterMax:  1500 * time.Millisecond,
	}
}

// Delay is the wait before the given zero-based attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Base + time.Duration(attempt)*p.Increment
	if span := p.JitterMax - p.JitterMin; span > 0 {
		d += p.JitterMin + time.Duration(p.rand()*float64(span))
	} else {
		d += p.JitterMin
	}
	return d
}

// Pause sleeps for min plus a random share of spread, used between dependent
// requests of one attempt.
func (p RetryPolicy) Pause(ctx context.Context, min, spread time.Duration) error {
	return p.sleep(ctx, min+time.Duration(p.rand()*float64(spread)))
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. Exhaustion is reported as *RetriesExhaustedError.
func (p RetryPolicy) Do(ctx context.Context, name string, fn func(ctx context.Context, attempt int) (Outcome, error)) (Outcome, error) {
	var last error
	total := p.MaxRetries + 1
	for attempt := 0; attempt < total; attempt++ {
		if err := p.sleep(ctx, p.Delay(attempt)); err != nil {
			if last == nil {
				last = err
			}
			return Outcome{}, &RetriesExhaustedError{Attempts: attempt, Last: last}
		}
		out, err := fn(ctx, attempt)
		if err == nil {
			return out, nil
		}
		last = err
		if !p.retryable(err) {
			return Outcome{}, err
		}
		slog.Warn("venue attempt failed",
			slog.String("venue", name),
			slog.Int("attempt", attempt+1),
			slog.Int("of", total),
			slog.Any("err", err),
		)
	}
	return Outcome{}, &RetriesExhaustedError{Attempts: total, Last: last}
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	var (
		pre *PreconditionError
		nm  *NoMatchError
	)
	if errors.As(err, &pre) || errors.As(err, &nm) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (p RetryPolicy) rand() float64 {
	if p.Rand != nil {
		return p.Rand()
	}
	return rand.Float64()
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
