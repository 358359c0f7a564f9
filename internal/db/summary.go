package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

type SummaryData struct {
	Lookups24h       int64
	Available24h     int64
	CacheHits24h     int64
	Notifications24h int64
	ActiveWatches    int64
	// BusiestCampgrounds lists "id (n)" for the most looked-up campgrounds.
	BusiestCampgrounds []string
}

// GetSummaryData returns the last 24h of activity for the daily roundup.
func (s *Store) GetSummaryData(ctx context.Context) (SummaryData, error) {
	var d SummaryData
	err := s.DB.QueryRowContext(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE available),
		       count(*) FILTER (WHERE cached)
		FROM lookup_log WHERE checked_at >= CAST(now() AS TIMESTAMP) - INTERVAL '1 day'
	`).Scan(&d.Lookups24h, &d.Available24h, &d.CacheHits24h)
	if err != nil {
		return SummaryData{}, fmt.Errorf("failed to count lookups: %w", err)
	}
	err = s.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM notifications WHERE sent_at >= CAST(now() AS TIMESTAMP) - INTERVAL '1 day'
	`).Scan(&d.Notifications24h)
	if err != nil {
		return SummaryData{}, fmt.Errorf("failed to count notifications: %w", err)
	}
	err = s.DB.QueryRowContext(ctx, `SELECT count(*) FROM watches WHERE active = true`).Scan(&d.ActiveWatches)
	if err != nil {
		return SummaryData{}, fmt.Errorf("failed to count watches: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT campground_id, count(*) AS n FROM lookup_log
		WHERE checked_at >= CAST(now() AS TIMESTAMP) - INTERVAL '1 day'
		GROUP BY campground_id ORDER BY n DESC, campground_id LIMIT 10
	`)
	if err != nil {
		return SummaryData{}, fmt.Errorf("failed to rank campgrounds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id string
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return SummaryData{}, err
		}
		d.BusiestCampgrounds = append(d.BusiestCampgrounds, fmt.Sprintf("%s (%d)", id, n))
	}
	return d, rows.Err()
}

func MakeSummaryEmbed(d SummaryData) *discordgo.MessageEmbed {
	busiest := "*None*"
	if len(d.BusiestCampgrounds) > 0 {
		busiest = strings.Join(d.BusiestCampgrounds, "\n")
	}
	return &discordgo.MessageEmbed{
		Title:     "🏕️ 24h Campcheck Roundup",
		Color:     0x5865F2, // Discord Blurple
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🔍 Checks Made", Value: fmt.Sprintf("%d", d.Lookups24h), Inline: true},
			{Name: "🎯 Available Answers", Value: fmt.Sprintf("%d", d.Available24h), Inline: true},
			{Name: "⚡ Served From Cache", Value: fmt.Sprintf("%d", d.CacheHits24h), Inline: true},
			{Name: "📣 Watch Alerts Sent", Value: fmt.Sprintf("%d", d.Notifications24h), Inline: true},
			{Name: "👀 Active Watches", Value: fmt.Sprintf("%d", d.ActiveWatches), Inline: true},
			{Name: "🏞️ Busiest Campgrounds", Value: busiest, Inline: false},
		},
	}
}
