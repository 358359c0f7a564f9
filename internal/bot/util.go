package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/db"
	"github.com/brensch/campcheck/internal/providers"
)

func optMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// findFocusedOption returns the option being typed, if any.
func findFocusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range opts {
		if o.Focused {
			return o
		}
	}
	return nil
}

// parseDay accepts the API's M/D/YY dates and ISO dates.
func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return providers.ParseDate(s)
}

// stayFromOptions reads the campground and stay options shared by check and watch.
func stayFromOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) (string, providers.Query, error) {
	m := optMap(opts)
	for _, name := range []string{"campground", "start", "end"} {
		if o, ok := m[name]; !ok || o == nil || strings.TrimSpace(o.StringValue()) == "" {
			return "", providers.Query{}, fmt.Errorf("%s is required", name)
		}
	}
	id := strings.TrimSpace(m["campground"].StringValue())
	if _, _, ok := catalog.CampgroundByID(id); !ok {
		return "", providers.Query{}, fmt.Errorf("unknown campground %q, pick one from the list", id)
	}
	start, err := parseDay(m["start"].StringValue())
	if err != nil {
		return "", providers.Query{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDay(m["end"].StringValue())
	if err != nil {
		return "", providers.Query{}, fmt.Errorf("invalid end date: %w", err)
	}
	adults, kids := 2, 0
	if o, ok := m["adults"]; ok && o != nil {
		adults = int(o.IntValue())
	}
	if o, ok := m["kids"]; ok && o != nil {
		kids = int(o.IntValue())
	}
	q, err := providers.NewQuery(start, end, adults, kids)
	if err != nil {
		return "", providers.Query{}, friendlyQueryErr(err)
	}
	return id, q, nil
}

func friendlyQueryErr(err error) error {
	switch {
	case errors.Is(err, providers.ErrInvalidRange):
		return errors.New("check-out must be after check-in")
	case errors.Is(err, providers.ErrInvalidParty):
		return errors.New("adults and kids cannot be negative")
	default:
		return err
	}
}

func campgroundName(id string) string {
	if cg, _, ok := catalog.CampgroundByID(id); ok {
		return cg.Name
	}
	return id
}

func describeStay(q providers.Query) string {
	return fmt.Sprintf("%s → %s (%d nights, %d adults, %d kids)",
		q.Start.Format(time.DateOnly), q.End.Format(time.DateOnly), q.Nights(), q.Adults, q.Kids)
}

func describeWatch(w db.Watch) string {
	nights := int(w.EndDate.Sub(w.StartDate).Hours() / 24)
	return fmt.Sprintf("%s %s → %s (%d nights, party of %d)",
		campgroundName(w.CampgroundID), w.StartDate.Format(time.DateOnly), w.EndDate.Format(time.DateOnly), nights, w.Adults+w.Kids)
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	})
}

// userID returns the caller for both guild and DM interactions.
func userID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
