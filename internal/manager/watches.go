package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/db"
	"github.com/brensch/campcheck/internal/providers"
)

// ErrNoStore is returned by watch operations when the manager has no database.
var ErrNoStore = errors.New("watches need a database")

// AddWatch stores a stay to re-check on the watch schedule.
func (m *Manager) AddWatch(ctx context.Context, campgroundID string, q providers.Query) (int64, error) {
	if m.store == nil {
		return 0, ErrNoStore
	}
	if _, ok := m.reg.Get(campgroundID); !ok {
		return 0, fmt.Errorf("%w: %s", providers.ErrUnknownCampground, campgroundID)
	}
	var id int64
	err := m.executeDBOperation(func() error {
		var err error
		id, err = m.store.AddWatch(ctx, db.Watch{
			CampgroundID: campgroundID,
			StartDate:    q.Start,
			EndDate:      q.End,
			Adults:       q.Adults,
			Kids:         q.Kids,
		})
		return err
	})
	return id, err
}

func (m *Manager) ListWatches(ctx context.Context) ([]db.Watch, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	return m.store.ListActiveWatches(ctx)
}

func (m *Manager) RemoveWatch(ctx context.Context, id int64) error {
	if m.store == nil {
		return ErrNoStore
	}
	return m.executeDBOperation(func() error { return m.store.DeactivateWatch(ctx, id) })
}

// WatchRun summarises one pass over the active watches.
type WatchRun struct {
	Checked  int
	Notified int
	Expired  int64
	Failed   int
}

// CheckWatches re-checks every active watch once and notifies on each watch
// whose answer went from unavailable (or never seen) to available.
func (m *Manager) CheckWatches(ctx context.Context) (WatchRun, error) {
	var run WatchRun
	if m.store == nil {
		return run, ErrNoStore
	}

	expired, err := m.store.DeactivateExpiredWatches(ctx, m.now())
	if err != nil {
		m.logger.Warn("failed to deactivate expired watches", slog.Any("err", err))
	} else if expired > 0 {
		m.logger.Info("deactivated expired watches", slog.Int64("count", expired))
	}
	run.Expired = expired

	watches, err := m.store.ListActiveWatches(ctx)
	if err != nil {
		return run, fmt.Errorf("list watches: %w", err)
	}

	for _, w := range watches {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		notified, err := m.checkWatch(ctx, w)
		if err != nil {
			run.Failed++
			m.logger.Warn("watch check failed", slog.Int64("watch", w.ID), slog.String("campground", w.CampgroundID), slog.Any("err", err))
			continue
		}
		run.Checked++
		if notified {
			run.Notified++
		}
	}
	m.logger.Info("watch run finished",
		slog.Int("checked", run.Checked),
		slog.Int("notified", run.Notified),
		slog.Int("failed", run.Failed),
	)
	return run, nil
}

func (m *Manager) checkWatch(ctx context.Context, w db.Watch) (bool, error) {
	q, err := providers.NewQuery(w.StartDate, w.EndDate, w.Adults, w.Kids)
	if err != nil {
		return false, err
	}
	// watches always ask the venue
	m.Forget(w.CampgroundID, q)
	c, err := m.Check(ctx, w.CampgroundID, q)
	if err != nil {
		return false, err
	}

	prev, seen, err := m.store.GetWatchState(ctx, w.ID)
	if err != nil {
		return false, fmt.Errorf("get watch state: %w", err)
	}
	_, best := c.Outcome.Best()
	next := db.WatchState{
		WatchID:   w.ID,
		Available: c.Outcome.AnyAvailable(),
		Price:     best.Price,
		Message:   best.Message,
		CheckedAt: c.CheckedAt,
	}
	saveState := func() error {
		if err := m.executeDBOperation(func() error { return m.store.UpsertWatchState(ctx, next) }); err != nil {
			return fmt.Errorf("save watch state: %w", err)
		}
		return nil
	}

	if !next.Available || (seen && prev.Available) {
		return false, saveState()
	}

	name, bookingURL := w.CampgroundID, ""
	if cg, _, ok := catalog.CampgroundByID(w.CampgroundID); ok {
		name = cg.Name
	}
	if p, ok := m.reg.Get(w.CampgroundID); ok {
		bookingURL = p.BookingURL()
	}
	// available is saved only after the alert is sent
	embed := buildAvailabilityEmbed(w, name, bookingURL, c.Outcome)
	if err := m.notifier.Notify(ctx, m.channelID, embed); err != nil {
		return false, fmt.Errorf("notify: %w", err)
	}
	if err := saveState(); err != nil {
		m.logger.Warn("alert sent but state not saved", slog.Int64("watch", w.ID), slog.Any("err", err))
	}
	err = m.executeDBOperation(func() error {
		return m.store.RecordNotification(ctx, db.Notification{
			WatchID:      w.ID,
			CampgroundID: w.CampgroundID,
			Price:        best.Price,
			Message:      best.Message,
			SentAt:       m.now(),
		})
	})
	if err != nil {
		m.logger.Warn("record notification failed", slog.Int64("watch", w.ID), slog.Any("err", err))
	}
	return true, nil
}

// RunWatches checks watches on the cron schedule until ctx is done.
func (m *Manager) RunWatches(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := m.CheckWatches(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Error("watch run failed", slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}
	m.logger.Info("starting watch runner", slog.String("schedule", schedule))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunDailySummary posts the 24h roundup at 10 PM Michigan time every night.
func (m *Manager) RunDailySummary(ctx context.Context) error {
	if m.store == nil {
		return ErrNoStore
	}
	loc, err := time.LoadLocation("America/Detroit")
	if err != nil {
		m.logger.Warn("failed to load Detroit timezone, using UTC", slog.Any("err", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc("0 22 * * *", func() {
		summary, err := m.Summary(ctx)
		if err != nil {
			m.logger.Error("failed to get summary data", slog.Any("err", err))
			return
		}
		m.logger.Info("daily summary generated", slog.Any("summary", summary))
		if err := m.notifier.Notify(ctx, m.channelID, db.MakeSummaryEmbed(summary)); err != nil {
			m.logger.Warn("failed to send daily summary", slog.Any("err", err))
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Summary returns the last 24h of activity.
func (m *Manager) Summary(ctx context.Context) (db.SummaryData, error) {
	if m.store == nil {
		return db.SummaryData{}, ErrNoStore
	}
	return m.store.GetSummaryData(ctx)
}
