package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when a watch id does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	DB *sql.DB
}

func Open(path string) (*Store, error) {
	return OpenWithMode(path, "READ_WRITE")
}

// OpenReadOnly opens the database in READ_ONLY mode (no write lock)
func OpenReadOnly(path string) (*Store, error) { return OpenWithMode(path, "READ_ONLY") }

// OpenWithMode allows specifying DuckDB access_mode (READ_WRITE or READ_ONLY).
// An empty path opens an in-memory database.
func OpenWithMode(path, mode string) (*Store, error) {
	if mode == "" {
		mode = "READ_WRITE"
	}
	dsn := fmt.Sprintf("%s?access_mode=%s", path, mode)
	slog.Debug("connecting to duckdb", slog.String("dsn", dsn))
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if strings.EqualFold(mode, "READ_WRITE") {
		if err := migrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

func migrate(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(schemaBytes))
	return err
}

// Models

// LookupLog records one availability answer served to a caller.
type LookupLog struct {
	CampgroundID string
	StartDate    time.Time
	EndDate      time.Time
	Adults       int
	Kids         int
	CheckedAt    time.Time
	Available    bool
	Cached       bool
	Message      string
	Duration     time.Duration
}

// Watch is a stored stay that is re-checked on a schedule.
// StartDate is the arrival date (inclusive), EndDate the departure (exclusive).
type Watch struct {
	ID           int64
	CampgroundID string
	StartDate    time.Time
	EndDate      time.Time
	Adults       int
	Kids         int
	CreatedAt    time.Time
	Active       bool
}

// WatchState is the last observed answer for a watch.
type WatchState struct {
	WatchID   int64
	Available bool
	Price     *float64
	Message   string
	CheckedAt time.Time
}

type Notification struct {
	WatchID      int64
	CampgroundID string
	Price        *float64
	Message      string
	SentAt       time.Time
}

// Lookups

func (s *Store) RecordLookup(ctx context.Context, l LookupLog) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO lookup_log(campground_id, start_date, end_date, adults, kids, checked_at, available, cached, message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.CampgroundID, l.StartDate, l.EndDate, l.Adults, l.Kids, l.CheckedAt, l.Available, l.Cached, l.Message, l.Duration.Milliseconds())
	return err
}

func (s *Store) CountLookupsLast24h(ctx context.Context, campgroundID string) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM lookup_log
		WHERE campground_id = ? AND checked_at >= CAST(now() AS TIMESTAMP) - INTERVAL '1 day'
	`, campgroundID).Scan(&n)
	return n, err
}

// RecentLookups returns the newest lookups first.
func (s *Store) RecentLookups(ctx context.Context, limit int) ([]LookupLog, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT campground_id, start_date, end_date, adults, kids, checked_at, available, cached, coalesce(message, ''), coalesce(duration_ms, 0)
		FROM lookup_log ORDER BY checked_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LookupLog
	for rows.Next() {
		var (
			l  LookupLog
			ms int64
		)
		if err := rows.Scan(&l.CampgroundID, &l.StartDate, &l.EndDate, &l.Adults, &l.Kids, &l.CheckedAt, &l.Available, &l.Cached, &l.Message, &ms); err != nil {
			return nil, err
		}
		l.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, l)
	}
	return out, rows.Err()
}

// Watches

func (s *Store) AddWatch(ctx context.Context, w Watch) (int64, error) {
	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO watches(campground_id, start_date, end_date, adults, kids, created_at, active)
		VALUES (?, ?, ?, ?, ?, now(), true)
		RETURNING id
	`, w.CampgroundID, w.StartDate, w.EndDate, w.Adults, w.Kids)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) ListActiveWatches(ctx context.Context) ([]Watch, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, campground_id, start_date, end_date, adults, kids, created_at, active
		FROM watches WHERE active = true ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Watch
	for rows.Next() {
		var w Watch
		if err := rows.Scan(&w.ID, &w.CampgroundID, &w.StartDate, &w.EndDate, &w.Adults, &w.Kids, &w.CreatedAt, &w.Active); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) DeactivateWatch(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE watches SET active = false WHERE id = ? AND active = true`, id)
	if err != nil {
		return err
	}
	a, _ := res.RowsAffected()
	if a == 0 {
		return fmt.Errorf("watch %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeactivateExpiredWatches turns off watches whose stay has already started.
func (s *Store) DeactivateExpiredWatches(ctx context.Context, today time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE watches SET active = false
		WHERE active = true AND start_date < ?
	`, normalizeDay(today))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Watch state

// GetWatchState returns the last observed state, or false if the watch was
// never checked.
func (s *Store) GetWatchState(ctx context.Context, watchID int64) (WatchState, bool, error) {
	var (
		st    WatchState
		price sql.NullFloat64
		msg   sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT watch_id, available, price, message, checked_at FROM watch_state WHERE watch_id = ?
	`, watchID).Scan(&st.WatchID, &st.Available, &price, &msg, &st.CheckedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return WatchState{}, false, nil
	}
	if err != nil {
		return WatchState{}, false, err
	}
	if price.Valid {
		p := price.Float64
		st.Price = &p
	}
	st.Message = msg.String
	return st, true, nil
}

func (s *Store) UpsertWatchState(ctx context.Context, st WatchState) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO watch_state(watch_id, available, price, message, checked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (watch_id) DO UPDATE SET
			available = excluded.available,
			price = excluded.price,
			message = excluded.message,
			checked_at = excluded.checked_at
	`, st.WatchID, st.Available, nullable(st.Price), st.Message, st.CheckedAt)
	return err
}

// Notifications

func (s *Store) RecordNotification(ctx context.Context, n Notification) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO notifications(watch_id, campground_id, price, message, sent_at)
		VALUES (?, ?, ?, ?, ?)
	`, n.WatchID, n.CampgroundID, nullable(n.Price), n.Message, n.SentAt)
	return err
}

func (s *Store) CountNotificationsLast24h(ctx context.Context, watchID int64) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM notifications WHERE watch_id = ? AND sent_at >= CAST(now() AS TIMESTAMP) - INTERVAL '1 day'
	`, watchID).Scan(&n)
	return n, err
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func normalizeDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
