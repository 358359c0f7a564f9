package db_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brensch/campcheck/internal/db"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.duckdb")
	s, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(); _ = os.Remove(path) })
	return s
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestWatchesCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, err := s.AddWatch(ctx, db.Watch{CampgroundID: "au-train-lake", StartDate: day(2030, 7, 1), EndDate: day(2030, 7, 3), Adults: 2})
	require.NoError(t, err)
	require.NotZero(t, id)

	watches, err := s.ListActiveWatches(ctx)
	require.NoError(t, err)
	require.Len(t, watches, 1)
	assert.Equal(t, id, watches[0].ID)
	assert.True(t, watches[0].Active)
	assert.Equal(t, "au-train-lake", watches[0].CampgroundID)
	assert.Equal(t, 2, watches[0].Adults)

	require.NoError(t, s.DeactivateWatch(ctx, id))
	watches, err = s.ListActiveWatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, watches)

	err = s.DeactivateWatch(ctx, id)
	assert.True(t, errors.Is(err, db.ErrNotFound), "second deactivate should be not found, got %v", err)
}

func TestDeactivateExpiredWatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	today := day(2030, 6, 15)

	_, err := s.AddWatch(ctx, db.Watch{CampgroundID: "past", StartDate: day(2030, 6, 1), EndDate: day(2030, 6, 3), Adults: 2})
	require.NoError(t, err)
	_, err = s.AddWatch(ctx, db.Watch{CampgroundID: "today", StartDate: today, EndDate: day(2030, 6, 16), Adults: 2})
	require.NoError(t, err)
	_, err = s.AddWatch(ctx, db.Watch{CampgroundID: "future", StartDate: day(2030, 7, 1), EndDate: day(2030, 7, 2), Adults: 2})
	require.NoError(t, err)

	n, err := s.DeactivateExpiredWatches(ctx, today.Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	watches, err := s.ListActiveWatches(ctx)
	require.NoError(t, err)
	var ids []string
	for _, w := range watches {
		ids = append(ids, w.CampgroundID)
	}
	assert.ElementsMatch(t, []string{"today", "future"}, ids)
}

func TestWatchState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetWatchState(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpsertWatchState(ctx, db.WatchState{WatchID: 42, Available: false, Message: "Not available for selected dates", CheckedAt: now}))
	st, ok, err := s.GetWatchState(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, st.Available)
	assert.Nil(t, st.Price)

	price := 35.0
	require.NoError(t, s.UpsertWatchState(ctx, db.WatchState{WatchID: 42, Available: true, Price: &price, Message: "$35.00 per night", CheckedAt: now.Add(time.Minute)}))
	st, ok, err = s.GetWatchState(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, st.Available)
	require.NotNil(t, st.Price)
	assert.Equal(t, 35.0, *st.Price)
	assert.Equal(t, "$35.00 per night", st.Message)
}

func TestLookupLogAndSummary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	logs := []db.LookupLog{
		{CampgroundID: "tourist-park", StartDate: day(2030, 6, 1), EndDate: day(2030, 6, 3), Adults: 2, CheckedAt: now, Available: true, Message: "$40.00 per night", Duration: 1200 * time.Millisecond},
		{CampgroundID: "tourist-park", StartDate: day(2030, 6, 1), EndDate: day(2030, 6, 3), Adults: 2, CheckedAt: now, Available: true, Cached: true, Message: "$40.00 per night"},
		{CampgroundID: "anchor-inn", StartDate: day(2030, 6, 1), EndDate: day(2030, 6, 3), Adults: 2, CheckedAt: now, Message: "Not available for selected dates"},
		{CampgroundID: "tourist-park", StartDate: day(2030, 5, 1), EndDate: day(2030, 5, 3), Adults: 2, CheckedAt: now.Add(-48 * time.Hour), Available: true, Message: "$38.00 per night"},
	}
	for _, l := range logs {
		require.NoError(t, s.RecordLookup(ctx, l))
	}
	require.NoError(t, s.RecordNotification(ctx, db.Notification{WatchID: 1, CampgroundID: "tourist-park", Message: "$40.00 per night", SentAt: now}))

	n, err := s.CountLookupsLast24h(ctx, "tourist-park")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recent, err := s.RecentLookups(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 4)

	sum, err := s.GetSummaryData(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Lookups24h)
	assert.Equal(t, int64(2), sum.Available24h)
	assert.Equal(t, int64(1), sum.CacheHits24h)
	assert.Equal(t, int64(1), sum.Notifications24h)
	require.NotEmpty(t, sum.BusiestCampgrounds)
	assert.Equal(t, "tourist-park (2)", sum.BusiestCampgrounds[0])

	embed := db.MakeSummaryEmbed(sum)
	assert.Contains(t, embed.Title, "Roundup")
	assert.Len(t, embed.Fields, 6)
}
