package providers

import (
	"os"
	"testing"
	"time"
)

// TestLiveVenues hits every real venue once. It is opt-in because it depends
// on the venues being up and on dates inside their seasons.
func TestLiveVenues(t *testing.T) {
	if testing.Short() || os.Getenv("CAMPCHECK_LIVE") == "" {
		t.Skip("set CAMPCHECK_LIVE=1 to query the real venues")
	}
	start := time.Now().AddDate(0, 0, 30)
	q, err := NewQuery(start, start.AddDate(0, 0, 2), 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	reg := NewDefaultRegistry(nil)
	for _, id := range reg.IDs() {
		t.Run(id, func(t *testing.T) {
			out, err := reg.Fetch(t.Context(), id, q)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			p, _ := reg.Get(id)
			assertClasses(t, p, out)
			assertResultInvariant(t, out)
			for class, r := range out.Results() {
				t.Logf("%s %s: available=%v %s", id, class, r.Available, r.Message)
			}
		})
	}
}
