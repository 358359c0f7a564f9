package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/campcheck/internal/cache"
	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/db"
	"github.com/brensch/campcheck/internal/providers"
)

// dbWriteRequest represents a database write operation to be serialized
type dbWriteRequest struct {
	operation func() error
	result    chan error
}

// Manager answers availability questions through the cache and the registry,
// logs every answer and drives scheduled watches.
type Manager struct {
	store       *db.Store
	reg         *providers.Registry
	cache       cache.Store[providers.Outcome]
	notifier    Notifier
	channelID   string
	fanOut      int
	logger      *slog.Logger
	dbWriteChan chan dbWriteRequest
	now         func() time.Time
}

type Options struct {
	// Store may be nil, in which case lookups are not logged and watches are unavailable.
	Store     *db.Store
	Cache     cache.Store[providers.Outcome]
	Notifier  Notifier
	ChannelID string
	FanOut    int
	Logger    *slog.Logger
}

func NewManager(reg *providers.Registry, opts Options) *Manager {
	m := &Manager{
		store:       opts.Store,
		reg:         reg,
		cache:       opts.Cache,
		notifier:    opts.Notifier,
		channelID:   opts.ChannelID,
		fanOut:      opts.FanOut,
		logger:      opts.Logger,
		dbWriteChan: make(chan dbWriteRequest, 100),
		now:         time.Now,
	}
	if m.cache == nil {
		m.cache = cache.New[providers.Outcome](cache.DefaultSize, cache.DefaultTTL)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.notifier == nil {
		m.notifier = LogNotifier{Logger: m.logger}
	}
	if m.fanOut < 1 {
		m.fanOut = 4
	}
	go m.dbWriter()
	return m
}

// dbWriter processes database write operations sequentially to avoid lock contention
func (m *Manager) dbWriter() {
	for req := range m.dbWriteChan {
		req.result <- req.operation()
		close(req.result)
	}
}

// executeDBOperation queues a database operation for sequential execution
func (m *Manager) executeDBOperation(operation func() error) error {
	result := make(chan error, 1)
	m.dbWriteChan <- dbWriteRequest{operation: operation, result: result}
	return <-result
}

// Registry exposes the adapter registry for listing venues.
func (m *Manager) Registry() *providers.Registry { return m.reg }

// Checked is an availability answer with its provenance.
type Checked struct {
	Outcome   providers.Outcome
	Cached    bool
	CheckedAt time.Time
}

// Check answers one query, serving identical queries from the cache. Unknown
// campgrounds fail with providers.ErrUnknownCampground before any lookup.
func (m *Manager) Check(ctx context.Context, campgroundID string, q providers.Query) (Checked, error) {
	if _, ok := m.reg.Get(campgroundID); !ok {
		return Checked{}, fmt.Errorf("%w: %s", providers.ErrUnknownCampground, campgroundID)
	}
	if err := ctx.Err(); err != nil {
		return Checked{}, err
	}
	start := m.now()
	out, hit, err := m.cache.GetOrFetch(ctx, cacheKey(campgroundID, q), func(ctx context.Context) (providers.Outcome, error) {
		return m.reg.Fetch(ctx, campgroundID, q)
	})
	if err != nil {
		return Checked{}, err
	}
	checked := Checked{Outcome: out, Cached: hit, CheckedAt: m.now()}
	m.recordLookup(ctx, campgroundID, q, checked, m.now().Sub(start))
	return checked, nil
}

func cacheKey(campgroundID string, q providers.Query) string {
	return cache.Key(campgroundID, q.Start.Format(providers.DateLayout), q.End.Format(providers.DateLayout), q.Adults, q.Kids)
}

// Forget drops the cached answer for a query so the next Check asks the venue.
func (m *Manager) Forget(campgroundID string, q providers.Query) {
	m.cache.Invalidate(cacheKey(campgroundID, q))
}

// CachedQueries reports how many answers are currently cached.
func (m *Manager) CachedQueries() int { return m.cache.Len() }

func (m *Manager) recordLookup(ctx context.Context, campgroundID string, q providers.Query, c Checked, took time.Duration) {
	if m.store == nil {
		return
	}
	_, best := c.Outcome.Best()
	entry := db.LookupLog{
		CampgroundID: campgroundID,
		StartDate:    q.Start,
		EndDate:      q.End,
		Adults:       q.Adults,
		Kids:         q.Kids,
		CheckedAt:    c.CheckedAt,
		Available:    c.Outcome.AnyAvailable(),
		Cached:       c.Cached,
		Message:      best.Message,
		Duration:     took,
	}
	// the answer is already computed; a cancelled caller must not lose the log row
	ctx = context.WithoutCancel(ctx)
	err := m.executeDBOperation(func() error { return m.store.RecordLookup(ctx, entry) })
	if err != nil {
		m.logger.Warn("record lookup failed", slog.String("campground", campgroundID), slog.Any("err", err))
	}
}

// StopAvailability is an itinerary stop with an answer per campground.
type StopAvailability struct {
	catalog.Stop
	Availability map[string]providers.Outcome `json:"availability"`
}

// PlanAvailability checks every campground of every stop concurrently, at most
// fanOut venues at a time. A failing campground gets an unavailable answer and
// does not fail the plan.
func (m *Manager) PlanAvailability(ctx context.Context, plan catalog.TripPlan, adults, kids int) ([]StopAvailability, error) {
	out := make([]StopAvailability, len(plan.Stops))
	type job struct {
		stop int
		id   string
		q    providers.Query
	}
	var jobs []job
	for i, stop := range plan.Stops {
		out[i] = StopAvailability{Stop: stop, Availability: map[string]providers.Outcome{}}
		q, err := providers.ParseQuery(stop.StartDate, stop.EndDate, adults, kids)
		if err != nil {
			return nil, fmt.Errorf("stop %s: %w", stop.City, err)
		}
		for _, cg := range stop.Campgrounds {
			jobs = append(jobs, job{stop: i, id: cg.ID, q: q})
		}
	}

	results := make([]providers.Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.fanOut)
	for i, j := range jobs {
		g.Go(func() error {
			c, err := m.Check(gctx, j.id, j.q)
			switch {
			case err == nil:
				results[i] = c.Outcome
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				m.logger.Warn("plan campground check failed", slog.String("campground", j.id), slog.Any("err", err))
				results[i] = providers.SingleOutcome(providers.Unavailable("Error checking availability"))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, j := range jobs {
		out[j.stop].Availability[j.id] = results[i]
	}
	return out, nil
}
