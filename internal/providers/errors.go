package providers

import (
	"errors"
	"fmt"
)

// ErrRateLimited means the venue explicitly signalled throttling.
var ErrRateLimited = errors.New("rate limited by venue")

// ErrUnknownCampground is returned by the registry for ids it does not serve.
var ErrUnknownCampground = errors.New("unknown campground")

// PreconditionError rejects a query before any request is made, e.g. a stay
// that starts before the venue opens for the season.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

// TransportError covers connection failures, timeouts and non-200 statuses.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means the venue answered but the payload did not have the expected shape.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.What, e.Err)
	}
	return e.What
}

func (e *ParseError) Unwrap() error { return e.Err }

// NoMatchError means the inventory was well formed but nothing fit the party
// or category constraints.
type NoMatchError struct {
	Msg string
}

func (e *NoMatchError) Error() string { return e.Msg }

// RetriesExhaustedError wraps the last failure once a retry policy gives up.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// PanicError is an adapter defect recovered by the registry.
type PanicError struct {
	Campground string
	Value      any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("adapter %s panicked: %v", e.Campground, e.Value)
}

// ResultFromErr maps any failure to the unavailable result shown to users.
func ResultFromErr(err error) Result {
	if err == nil {
		return Unavailable("")
	}
	var (
		pre   *PreconditionError
		nm    *NoMatchError
		tr    *TransportError
		pe    *ParseError
		retry *RetriesExhaustedError
	)
	switch {
	case errors.As(err, &retry):
		switch {
		case errors.Is(retry.Last, ErrRateLimited):
			return Unavailable("Rate limited after retries.")
		case errors.As(retry.Last, &tr) && tr.Status != 0:
			return Unavailable(fmt.Sprintf("Error: Status code %d", tr.Status))
		default:
			return Unavailable("Error after retries: " + retry.Last.Error())
		}
	case errors.As(err, &pre):
		return Unavailable(pre.Msg)
	case errors.As(err, &nm):
		return Unavailable(nm.Msg)
	case errors.Is(err, ErrRateLimited):
		return Unavailable("Rate limited by venue.")
	case errors.As(err, &tr):
		return Unavailable(tr.Error())
	case errors.As(err, &pe):
		return Unavailable(pe.Error())
	default:
		return Unavailable("Error: " + err.Error())
	}
}

// failure maps err onto every declared class.
func failure(classes []Class, err error) Outcome {
	return Uniform(classes, ResultFromErr(err))
}

func clipBody(b []byte) string {
	const max = 2048
	if len(b) == 0 {
		return ""
	}
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
