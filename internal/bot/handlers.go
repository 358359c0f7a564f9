package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/brensch/campcheck/internal/db"
	"github.com/brensch/campcheck/internal/manager"
	"github.com/brensch/campcheck/internal/providers"
)

func (b *Bot) handleCheck(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	id, q, err := stayFromOptions(sub.Options)
	if err != nil {
		respond(s, i, err.Error())
		return
	}
	// venue checks can outlast the 3s interaction deadline
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn("defer respond failed", slog.Any("err", err))
		return
	}

	edit := &discordgo.WebhookEdit{}
	c, err := b.mgr.Check(b.ctx, id, q)
	if err != nil {
		msg := "Error checking availability"
		if errors.Is(err, providers.ErrUnknownCampground) {
			msg = "That campground is not supported yet"
		}
		b.logger.Warn("bot check failed", slog.String("campground", id), slog.Any("err", err))
		edit.Content = &msg
	} else {
		bookingURL := ""
		if p, ok := b.mgr.Registry().Get(id); ok {
			bookingURL = p.BookingURL()
		}
		embeds := []*discordgo.MessageEmbed{checkEmbed(id, bookingURL, q, c)}
		edit.Embeds = &embeds
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.logger.Warn("edit response failed", slog.Any("err", err))
	}
}

func checkEmbed(id, bookingURL string, q providers.Query, c manager.Checked) *discordgo.MessageEmbed {
	color := 0xED4245 // Discord red
	if c.Outcome.AnyAvailable() {
		color = 0x57F287
	}
	footer := "checked " + c.CheckedAt.Format("Jan 2 15:04 MST")
	if c.Cached {
		footer += " (cached)"
	}
	return &discordgo.MessageEmbed{
		Title:       campgroundName(id),
		URL:         bookingURL,
		Description: describeStay(q),
		Color:       color,
		Fields:      manager.OutcomeFields(c.Outcome),
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
}

func (b *Bot) handleWatch(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	id, q, err := stayFromOptions(sub.Options)
	if err != nil {
		respond(s, i, err.Error())
		return
	}
	watchID, err := b.mgr.AddWatch(b.ctx, id, q)
	if err != nil {
		respond(s, i, "error: "+err.Error())
		return
	}
	respond(s, i, fmt.Sprintf("Watching %s %s as watch #%d", campgroundName(id), describeStay(q), watchID))
}

func (b *Bot) handleWatches(s *discordgo.Session, i *discordgo.InteractionCreate) {
	watches, err := b.mgr.ListWatches(b.ctx)
	if err != nil {
		respond(s, i, "error: "+err.Error())
		return
	}
	respond(s, i, watchList(watches))
}

func watchList(watches []db.Watch) string {
	if len(watches) == 0 {
		return "no active watches"
	}
	var sb strings.Builder
	for _, w := range watches {
		fmt.Fprintf(&sb, "#%d %s\n", w.ID, describeWatch(w))
	}
	return sb.String()
}

func (b *Bot) handleUnwatch(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opt, ok := optMap(sub.Options)["id"]
	if !ok || opt == nil {
		respond(s, i, "id is required")
		return
	}
	id := opt.IntValue()
	switch err := b.mgr.RemoveWatch(b.ctx, id); {
	case errors.Is(err, db.ErrNotFound):
		respond(s, i, fmt.Sprintf("no watch #%d", id))
	case err != nil:
		respond(s, i, "error: "+err.Error())
	default:
		respond(s, i, fmt.Sprintf("stopped watch #%d", id))
	}
}

func (b *Bot) handleSummary(s *discordgo.Session, i *discordgo.InteractionCreate) {
	summary, err := b.mgr.Summary(b.ctx)
	if err != nil {
		respond(s, i, "Failed to get summary: "+err.Error())
		return
	}
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{db.MakeSummaryEmbed(summary)}},
	})
	if err != nil {
		b.logger.Warn("summary respond failed", slog.Any("err", err))
	}
}
