// Package bot serves the campcheck slash commands on Discord.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/brensch/campcheck/internal/manager"
)

const commandName = "camp"

type Bot struct {
	session *discordgo.Session
	mgr     *manager.Manager
	guildID string
	logger  *slog.Logger
	ctx     context.Context
}

// New builds a bot on an existing session. An empty guildID registers the
// commands globally.
func New(session *discordgo.Session, mgr *manager.Manager, guildID string, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		session: session,
		mgr:     mgr,
		guildID: guildID,
		logger:  logger,
		ctx:     context.Background(),
	}
}

// Run opens the gateway and serves interactions until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteraction)
	b.session.Identify.Intents = discordgo.IntentsGuilds
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer b.session.Close()
	<-ctx.Done()
	b.logger.Info("bot stopped")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("bot ready", slog.String("user", r.User.Username))
	b.registerCommands(r.Application.ID)
}

func stayOptions(campgroundHelp string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{Name: "campground", Type: discordgo.ApplicationCommandOptionString, Required: true, Description: campgroundHelp, Autocomplete: true},
		{Name: "start", Type: discordgo.ApplicationCommandOptionString, Required: true, Description: "Check-in (MM/DD/YY or YYYY-MM-DD)"},
		{Name: "end", Type: discordgo.ApplicationCommandOptionString, Required: true, Description: "Check-out (MM/DD/YY or YYYY-MM-DD)"},
		{Name: "adults", Type: discordgo.ApplicationCommandOptionInteger, Description: "Adults (default 2)"},
		{Name: "kids", Type: discordgo.ApplicationCommandOptionInteger, Description: "Kids (default 0)"},
	}
}

// Commands is the command tree registered on ready.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        commandName,
			Description: "Check and watch campground availability",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "check", Type: discordgo.ApplicationCommandOptionSubCommand, Description: "Check a campground now", Options: stayOptions("Campground to check")},
				{Name: "watch", Type: discordgo.ApplicationCommandOptionSubCommand, Description: "Get an alert when a stay opens up", Options: stayOptions("Campground to watch")},
				{Name: "watches", Type: discordgo.ApplicationCommandOptionSubCommand, Description: "List active watches"},
				{Name: "unwatch", Type: discordgo.ApplicationCommandOptionSubCommand, Description: "Stop a watch", Options: []*discordgo.ApplicationCommandOption{
					{Name: "id", Type: discordgo.ApplicationCommandOptionInteger, Required: true, Description: "Watch to stop", Autocomplete: true},
				}},
				{Name: "summary", Type: discordgo.ApplicationCommandOptionSubCommand, Description: "Activity over the last 24 hours"},
			},
		},
	}
}

func (b *Bot) registerCommands(appID string) {
	if b.guildID != "" {
		b.logger.Info("registering commands for guild", slog.String("guild", b.guildID))
	} else {
		b.logger.Info("registering commands globally")
	}
	for _, c := range Commands() {
		if _, err := b.session.ApplicationCommandCreate(appID, b.guildID, c); err != nil {
			b.logger.Warn("command registration failed", slog.String("command", c.Name), slog.Any("err", err))
		}
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, i)
	case discordgo.InteractionApplicationCommand:
		b.handleApplicationCommand(s, i)
	}
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != commandName || len(data.Options) == 0 {
		return
	}
	focused := findFocusedOption(data.Options[0].Options)
	if focused == nil {
		return
	}
	var choices []*discordgo.ApplicationCommandOptionChoice
	switch focused.Name {
	case "campground":
		choices = campgroundChoices(focused.StringValue())
	case "id":
		watches, err := b.mgr.ListWatches(b.ctx)
		if err != nil {
			b.logger.Warn("list watches failed", slog.Any("err", err))
			return
		}
		choices = watchChoices(watches)
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.logger.Warn("autocomplete respond failed", slog.Any("err", err))
	}
}

func (b *Bot) handleApplicationCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != commandName || len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]
	b.logger.Info("command", slog.String("sub", sub.Name), slog.String("user", userID(i)))
	switch sub.Name {
	case "check":
		b.handleCheck(s, i, sub)
	case "watch":
		b.handleWatch(s, i, sub)
	case "watches":
		b.handleWatches(s, i)
	case "unwatch":
		b.handleUnwatch(s, i, sub)
	case "summary":
		b.handleSummary(s, i)
	}
}
