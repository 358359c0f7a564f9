package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/db"
)

// Discord rejects more choices than this.
const maxChoices = 25

// campgroundChoices matches query against campground names, ids and cities.
func campgroundChoices(query string) []*discordgo.ApplicationCommandOptionChoice {
	q := strings.ToLower(strings.TrimSpace(query))
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxChoices)
	for _, city := range catalog.Cities() {
		for _, cg := range catalog.Campgrounds(city.ID) {
			hay := strings.ToLower(cg.Name + " " + cg.ID + " " + city.Name)
			if q != "" && !strings.Contains(hay, q) {
				continue
			}
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  truncate(cg.Name+" • "+city.Name, 100),
				Value: cg.ID,
			})
			if len(choices) == maxChoices {
				return choices
			}
		}
	}
	return choices
}

func watchChoices(watches []db.Watch) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxChoices)
	for _, w := range watches {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("#%d %s", w.ID, describeWatch(w)), 100),
			Value: strconv.FormatInt(w.ID, 10),
		})
		if len(choices) == maxChoices {
			break
		}
	}
	return choices
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
