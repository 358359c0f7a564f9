package manager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/brensch/campcheck/internal/db"
	"github.com/brensch/campcheck/internal/providers"
)

// Notifier delivers an embed to a channel.
type Notifier interface {
	Notify(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}

// DiscordNotifier posts embeds through a bot session.
type DiscordNotifier struct {
	Session *discordgo.Session
}

// NewDiscordNotifier creates a bot session for token. The session is REST only;
// no gateway connection is opened.
func NewDiscordNotifier(token string) (*DiscordNotifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &DiscordNotifier{Session: s}, nil
}

func (d *DiscordNotifier) Notify(_ context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := d.Session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// LogNotifier only logs, for deployments without a bot token.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(_ context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification",
		slog.String("channel", channelID),
		slog.String("title", embed.Title),
		slog.String("description", embed.Description),
	)
	return nil
}

// buildAvailabilityEmbed describes a watch that just became bookable.
func buildAvailabilityEmbed(w db.Watch, name, bookingURL string, out providers.Outcome) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏕️ %s has availability", name),
		URL:         bookingURL,
		Description: fmt.Sprintf("%s → %s, %d adults, %d kids", w.StartDate.Format("Mon Jan 2"), w.EndDate.Format("Mon Jan 2 2006"), w.Adults, w.Kids),
		Color:       0x57F287, // Discord green
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	embed.Fields = OutcomeFields(out)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("watch #%d", w.ID)}
	return embed
}

// OutcomeFields renders one inline field per class, or a single "Stay" field.
func OutcomeFields(out providers.Outcome) []*discordgo.MessageEmbedField {
	var fields []*discordgo.MessageEmbedField
	for _, class := range classOrder(out) {
		r := out.Results()[class]
		label := "Stay"
		if class != "" {
			label = string(class)
		}
		mark := "❌ "
		if r.Available {
			mark = "✅ "
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: label, Value: mark + r.Message, Inline: true})
	}
	return fields
}

func classOrder(out providers.Outcome) []providers.Class {
	if !out.IsMulti() {
		return []providers.Class{""}
	}
	return out.SortedClasses()
}
