package manager

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/db"
	"github.com/brensch/campcheck/internal/providers"
)

// fakeProv answers from a function and counts calls.
type fakeProv struct {
	classes []providers.Class
	calls   atomic.Int32
	answer  func(q providers.Query) providers.Outcome
}

func (f *fakeProv) Name() string               { return "fake" }
func (f *fakeProv) Classes() []providers.Class { return f.classes }
func (f *fakeProv) BookingURL() string         { return "https://example.test/book" }
func (f *fakeProv) FetchAvailability(_ context.Context, q providers.Query) providers.Outcome {
	f.calls.Add(1)
	return f.answer(q)
}

type panicProv struct{ fakeProv }

func (p *panicProv) FetchAvailability(context.Context, providers.Query) providers.Outcome {
	panic("boom")
}

type recordingNotifier struct {
	mu     sync.Mutex
	embeds []*discordgo.MessageEmbed
}

func (r *recordingNotifier) Notify(_ context.Context, _ string, e *discordgo.MessageEmbed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeds = append(r.embeds, e)
	return nil
}

// flakyNotifier fails until its failure budget is spent.
type flakyNotifier struct {
	recordingNotifier
	failures atomic.Int32
}

func (f *flakyNotifier) Notify(ctx context.Context, channelID string, e *discordgo.MessageEmbed) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("discord unavailable")
	}
	return f.recordingNotifier.Notify(ctx, channelID, e)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.embeds)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	s, err := db.Open(filepath.Join(t.TempDir(), "manager.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustQuery(t *testing.T, start, end string, adults, kids int) providers.Query {
	t.Helper()
	q, err := providers.ParseQuery(start, end, adults, kids)
	require.NoError(t, err)
	return q
}

func TestCheckServesRepeatsFromCache(t *testing.T) {
	p := &fakeProv{answer: func(providers.Query) providers.Outcome {
		return providers.SingleOutcome(providers.Available(40, ""))
	}}
	reg := providers.NewRegistry()
	reg.Register("tourist-park", p)
	store := newTestStore(t)
	m := NewManager(reg, Options{Store: store, Logger: quietLogger()})

	q := mustQuery(t, "07/01/30", "07/03/30", 2, 0)
	first, err := m.Check(context.Background(), "tourist-park", q)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, first.Outcome.AnyAvailable())

	second, err := m.Check(context.Background(), "tourist-park", q)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(1), p.calls.Load())

	// a different party is a different question
	_, err = m.Check(context.Background(), "tourist-park", mustQuery(t, "07/01/30", "07/03/30", 2, 1))
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())

	n, err := store.CountLookupsLast24h(context.Background(), "tourist-park")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestForgetRefetches(t *testing.T) {
	p := &fakeProv{answer: func(providers.Query) providers.Outcome {
		return providers.SingleOutcome(providers.Unavailable(""))
	}}
	reg := providers.NewRegistry()
	reg.Register("tourist-park", p)
	m := NewManager(reg, Options{Logger: quietLogger()})
	q := mustQuery(t, "07/01/30", "07/03/30", 2, 0)

	_, err := m.Check(context.Background(), "tourist-park", q)
	require.NoError(t, err)
	assert.Equal(t, 1, m.CachedQueries())

	m.Forget("tourist-park", q)
	assert.Zero(t, m.CachedQueries())
	c, err := m.Check(context.Background(), "tourist-park", q)
	require.NoError(t, err)
	assert.False(t, c.Cached)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestCheckUnknownCampground(t *testing.T) {
	m := NewManager(providers.NewRegistry(), Options{Logger: quietLogger()})
	_, err := m.Check(context.Background(), "nope", mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	assert.ErrorIs(t, err, providers.ErrUnknownCampground)
}

func TestCheckPanicIsNotCached(t *testing.T) {
	p := &panicProv{}
	reg := providers.NewRegistry()
	reg.Register("anchor-inn", p)
	m := NewManager(reg, Options{Logger: quietLogger()})

	_, err := m.Check(context.Background(), "anchor-inn", mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	var pe *providers.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "anchor-inn", pe.Campground)
}

func TestPlanAvailability(t *testing.T) {
	reg := providers.NewRegistry()
	var seen sync.Map
	for _, id := range catalog.CampgroundIDs() {
		reg.Register(id, &fakeProv{answer: func(q providers.Query) providers.Outcome {
			seen.Store(id+"|"+q.Key(), true)
			return providers.SingleOutcome(providers.Available(30, ""))
		}})
	}
	// one campground is missing from the registry and must not sink the plan
	reg2 := providers.NewRegistry()
	for _, id := range reg.IDs() {
		if id == "anchor-inn" {
			continue
		}
		p, _ := reg.Get(id)
		reg2.Register(id, p)
	}
	m := NewManager(reg2, Options{Logger: quietLogger(), FanOut: 3})

	plan, err := catalog.Expand("northern-michigan", 3, time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC), "07/01/30")
	require.NoError(t, err)

	stops, err := m.PlanAvailability(context.Background(), plan, 2, 1)
	require.NoError(t, err)
	require.Len(t, stops, 2)

	assert.Equal(t, "traverse-city", stops[0].City)
	assert.Len(t, stops[0].Availability, len(catalog.Campgrounds("traverse-city")))
	assert.False(t, stops[0].Availability["anchor-inn"].AnyAvailable())
	assert.Equal(t, "Error checking availability", stops[0].Availability["anchor-inn"].Single.Message)
	assert.True(t, stops[0].Availability["leelanau-pines"].AnyAvailable())

	assert.Equal(t, "mackinac-city", stops[1].City)
	assert.Len(t, stops[1].Availability, len(catalog.Campgrounds("mackinac-city")))

	q := mustQuery(t, "7/3/30", "7/4/30", 2, 1)
	_, ok := seen.Load("straits-state-park|" + q.Key())
	assert.True(t, ok, "second stop should be checked with its own dates")
}

func TestPlanAvailabilityCancelled(t *testing.T) {
	reg := providers.NewRegistry()
	for _, id := range catalog.CampgroundIDs() {
		reg.Register(id, &fakeProv{answer: func(providers.Query) providers.Outcome {
			return providers.SingleOutcome(providers.Unavailable(""))
		}})
	}
	m := NewManager(reg, Options{Logger: quietLogger()})
	plan, err := catalog.Expand("northern-michigan", 2, time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC), "07/01/30")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.PlanAvailability(ctx, plan, 2, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckWatchesNotifiesOnTransition(t *testing.T) {
	var open atomic.Bool
	p := &fakeProv{
		classes: []providers.Class{providers.ClassRV, providers.ClassTent},
		answer: func(providers.Query) providers.Outcome {
			if open.Load() {
				return providers.MultiOutcome(providers.Multi{
					providers.ClassRV:   providers.Available(45, ""),
					providers.ClassTent: providers.Unavailable("No tent sites available."),
				})
			}
			return providers.Uniform([]providers.Class{providers.ClassRV, providers.ClassTent}, providers.Unavailable(""))
		},
	}
	reg := providers.NewRegistry()
	reg.Register("straits-state-park", p)
	store := newTestStore(t)
	notifier := &recordingNotifier{}
	m := NewManager(reg, Options{Store: store, Notifier: notifier, ChannelID: "chan", Logger: quietLogger()})
	m.now = func() time.Time { return time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	id, err := m.AddWatch(ctx, "straits-state-park", mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	require.NoError(t, err)

	run, err := m.CheckWatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Checked)
	assert.Equal(t, 0, run.Notified)
	assert.Zero(t, notifier.count())

	// a new manager has an empty cache, so the next pass sees the fresh answer
	open.Store(true)
	m2 := NewManager(reg, Options{Store: store, Notifier: notifier, ChannelID: "chan", Logger: quietLogger()})
	m2.now = m.now

	run, err = m2.CheckWatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Notified)
	require.Equal(t, 1, notifier.count())

	embed := notifier.embeds[0]
	assert.Contains(t, embed.Title, "Straits State Park")
	assert.Equal(t, "https://example.test/book", embed.URL)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "rv", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "✅")
	assert.Contains(t, embed.Fields[1].Value, "❌")

	st, ok, err := store.GetWatchState(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, st.Available)
	require.NotNil(t, st.Price)
	assert.Equal(t, 45.0, *st.Price)

	// still available: no second alert
	run, err = m2.CheckWatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, run.Notified)
	assert.Equal(t, 1, notifier.count())
}

func TestCheckWatchesRetriesFailedAlert(t *testing.T) {
	p := &fakeProv{answer: func(providers.Query) providers.Outcome {
		return providers.SingleOutcome(providers.Available(40, ""))
	}}
	reg := providers.NewRegistry()
	reg.Register("tourist-park", p)
	store := newTestStore(t)
	notifier := &flakyNotifier{}
	notifier.failures.Store(1)
	m := NewManager(reg, Options{Store: store, Notifier: notifier, ChannelID: "chan", Logger: quietLogger()})
	m.now = func() time.Time { return time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	id, err := m.AddWatch(ctx, "tourist-park", mustQuery(t, "07/01/30", "07/03/30", 2, 0))
	require.NoError(t, err)

	run, err := m.CheckWatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)
	assert.Zero(t, notifier.count())
	_, seen, err := store.GetWatchState(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen, "state must not be saved when the alert failed")

	run, err = m.CheckWatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Notified)
	assert.Equal(t, 1, notifier.count())

	st, seen, err := store.GetWatchState(ctx, id)
	require.NoError(t, err)
	require.True(t, seen)
	assert.True(t, st.Available)

	run, err = m.CheckWatches(ctx)
	require.NoError(t, err)
	assert.Zero(t, run.Notified)
	assert.Equal(t, 1, notifier.count())
}

func TestWatchesWithoutStore(t *testing.T) {
	m := NewManager(providers.NewRegistry(), Options{Logger: quietLogger()})
	_, err := m.ListWatches(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = m.CheckWatches(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestRunWatchesRejectsBadSchedule(t *testing.T) {
	m := NewManager(providers.NewRegistry(), Options{Logger: quietLogger()})
	err := m.RunWatches(context.Background(), "not a schedule")
	assert.Error(t, err)
}

func TestBuildAvailabilityEmbedSingle(t *testing.T) {
	w := db.Watch{ID: 7, StartDate: time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2030, 7, 3, 0, 0, 0, 0, time.UTC), Adults: 2, Kids: 1}
	e := buildAvailabilityEmbed(w, "Tourist Park Campground", "https://book", providers.SingleOutcome(providers.Available(40, "")))
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "Stay", e.Fields[0].Name)
	assert.Equal(t, "✅ $40.00 per night", e.Fields[0].Value)
	assert.Equal(t, "watch #7", e.Footer.Text)
	assert.Contains(t, e.Description, "2 adults, 1 kids")
}
