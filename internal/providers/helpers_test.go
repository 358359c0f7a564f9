package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brensch/campcheck/internal/httpx"
)

// rewriteTransport rewrites outgoing requests to hit a test server instead of the real host.
type rewriteTransport struct{ target *url.URL }

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone to avoid mutating caller's request
	r2 := req.Clone(req.Context())
	r2.URL.Scheme = rt.target.Scheme
	r2.URL.Host = rt.target.Host
	r2.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r2)
}

// venueServer starts a fake venue and returns a session factory whose every
// request lands on it, plus a counter of requests served.
func venueServer(t *testing.T, h http.HandlerFunc) (*httpx.Factory, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	target, _ := url.Parse(srv.URL)
	return &httpx.Factory{Transport: &rewriteTransport{target: target}, Timeout: 5 * time.Second}, &hits
}

// noSleep is a retry policy with the production shape and no waiting.
func noSleep() RetryPolicy {
	p := DefaultRetryPolicy()
	p.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	p.Rand = func() float64 { return 0.5 }
	return p
}

func mustQuery(t *testing.T, start, end string, adults, kids int) Query {
	t.Helper()
	q, err := ParseQuery(start, end, adults, kids)
	if err != nil {
		t.Fatalf("ParseQuery(%q, %q): %v", start, end, err)
	}
	return q
}

// assertResultInvariant checks price is present exactly when available and never negative.
func assertResultInvariant(t *testing.T, out Outcome) {
	t.Helper()
	for class, r := range out.Results() {
		if r.Available && (r.Price == nil || *r.Price < 0) {
			t.Errorf("class %q: available result with price %v", class, r.Price)
		}
		if !r.Available && r.Price != nil {
			t.Errorf("class %q: unavailable result with price %v", class, *r.Price)
		}
		if r.Message == "" {
			t.Errorf("class %q: empty message", class)
		}
	}
}

// assertClasses checks every declared class is present.
func assertClasses(t *testing.T, p Provider, out Outcome) {
	t.Helper()
	declared := p.Classes()
	if len(declared) == 0 {
		if out.Single == nil {
			t.Fatalf("%s declares no classes but returned %v", p.Name(), out.Classes)
		}
		return
	}
	for _, c := range declared {
		if _, ok := out.Classes[c]; !ok {
			t.Errorf("%s: class %q missing from %v", p.Name(), c, out.Classes)
		}
	}
}
