package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableRejectsBadPrices(t *testing.T) {
	for _, p := range []float64{-1, math.NaN(), math.Inf(1)} {
		r := Available(p, "x")
		assert.False(t, r.Available)
		assert.Nil(t, r.Price)
	}
	r := Available(0, "")
	require.True(t, r.Available)
	assert.Equal(t, 0.0, *r.Price)
	assert.Equal(t, "$0.00 per night", r.Message)
}

func TestOutcomeJSON(t *testing.T) {
	single := SingleOutcome(Available(35, ""))
	b, err := json.Marshal(single)
	require.NoError(t, err)
	assert.JSONEq(t, `{"available":true,"price":35,"message":"$35.00 per night"}`, string(b))

	multi := MultiOutcome(Multi{
		ClassRV:   Available(40, "$40.00 per night - 30 amp"),
		ClassTent: Unavailable("No tent sites available."),
	})
	b, err = json.Marshal(multi)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"rv":{"available":true,"price":40,"message":"$40.00 per night - 30 amp"},
		"tent":{"available":false,"price":null,"message":"No tent sites available."}
	}`, string(b))

	var back Outcome
	require.NoError(t, json.Unmarshal(b, &back))
	if diff := cmp.Diff(multi.Results(), back.Results()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, json.Unmarshal([]byte(`{"available":false,"price":null,"message":"x"}`), &back))
	assert.False(t, back.IsMulti())
}

func TestOutcomeBest(t *testing.T) {
	out := MultiOutcome(Multi{
		ClassRV:      Available(55, ""),
		ClassTent:    Available(30, ""),
		ClassLodging: Unavailable("No lodging available."),
	})
	class, r := out.Best()
	assert.Equal(t, ClassTent, class)
	assert.Equal(t, 30.0, *r.Price)
	assert.True(t, out.AnyAvailable())

	none := Uniform([]Class{ClassRV, ClassTent}, Unavailable("closed"))
	class, r = none.Best()
	assert.Equal(t, ClassRV, class)
	assert.Equal(t, "closed", r.Message)
	assert.False(t, none.AnyAvailable())
}

func TestResultFromErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"precondition", &PreconditionError{Msg: "Not available before May 1, 2025"}, "Not available before May 1, 2025"},
		{"no match", &NoMatchError{Msg: "No suitable campsites found for your group size"}, "No suitable campsites found for your group size"},
		{"rate limited", ErrRateLimited, "Rate limited by venue."},
		{"status", &TransportError{Op: "Failed to retrieve data", Status: 503}, "Failed to retrieve data: status 503"},
		{"exhausted rate limit", &RetriesExhaustedError{Attempts: 4, Last: ErrRateLimited}, "Rate limited after retries."},
		{"exhausted status", &RetriesExhaustedError{Attempts: 4, Last: &TransportError{Op: "x", Status: 429}}, "Error: Status code 429"},
		{"exhausted parse", &RetriesExhaustedError{Attempts: 4, Last: &ParseError{What: "Token not found in HTML"}}, "Error after retries: Token not found in HTML"},
		{"wrapped", fmt.Errorf("venue: %w", &NoMatchError{Msg: "nope"}), "nope"},
		{"other", errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ResultFromErr(tt.err)
			assert.False(t, r.Available)
			assert.Nil(t, r.Price)
			assert.Equal(t, tt.want, r.Message)
		})
	}
}

func TestFailureKeepsDeclaredClasses(t *testing.T) {
	out := failure([]Class{ClassRV, ClassTent, ClassLodging}, ErrRateLimited)
	require.True(t, out.IsMulti())
	assert.Len(t, out.Classes, 3)
	assertResultInvariant(t, out)

	out = failure(nil, ErrRateLimited)
	require.NotNil(t, out.Single)
}
