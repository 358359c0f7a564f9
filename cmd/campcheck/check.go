package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/providers"
)

// minSimilarity is the Jaro-Winkler score a guessed campground must reach.
const minSimilarity = 0.8

type stayFlags struct {
	start, end   string
	adults, kids int
}

func (f *stayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first night, MM/DD/YY")
	cmd.Flags().StringVar(&f.end, "end", "", "checkout day, MM/DD/YY")
	cmd.Flags().IntVar(&f.adults, "adults", 2, "number of adults")
	cmd.Flags().IntVar(&f.kids, "kids", 0, "number of kids")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *stayFlags) query() (providers.Query, error) {
	return providers.ParseQuery(f.start, f.end, f.adults, f.kids)
}

var checkFlags stayFlags

func init() {
	checkFlags.register(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <campground>",
	Short: "Checks one campground for a stay.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := checkFlags.query()
		if err != nil {
			return err
		}
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()

		id, err := resolveCampground(args[0], a.mgr.Registry().IDs())
		if err != nil {
			return err
		}
		if id != args[0] {
			fmt.Fprintf(os.Stderr, "using %s\n", id)
		}

		c, err := a.mgr.Check(cmd.Context(), id, q)
		if err != nil {
			return err
		}
		t := newTable()
		t.SetTitle(fmt.Sprintf("%s %s → %s", id, providers.FormatShort(q.Start), providers.FormatShort(q.End)))
		t.AppendHeader(table.Row{"Class", "Available", "Price", "Message"})
		appendOutcome(t, c.Outcome)
		t.Render()
		return nil
	},
}

func appendOutcome(t table.Writer, out providers.Outcome) {
	classes := []providers.Class{""}
	if out.IsMulti() {
		classes = out.SortedClasses()
	}
	results := out.Results()
	for _, class := range classes {
		r := results[class]
		price := "-"
		if r.Price != nil {
			price = fmt.Sprintf("$%.2f", *r.Price)
		}
		label := string(class)
		if label == "" {
			label = "stay"
		}
		t.AppendRow(table.Row{label, r.Available, price, r.Message})
	}
}

// resolveCampground returns the registered id closest to input, comparing
// against both ids and campground names.
func resolveCampground(input string, ids []string) (string, error) {
	needle := strings.ToLower(strings.TrimSpace(input))
	var (
		best      string
		bestScore float64
	)
	for _, id := range ids {
		if id == needle {
			return id, nil
		}
		candidates := []string{id}
		if cg, _, ok := catalog.CampgroundByID(id); ok {
			candidates = append(candidates, strings.ToLower(cg.Name))
		}
		for _, c := range candidates {
			if score := matchr.JaroWinkler(needle, c, false); score > bestScore {
				best, bestScore = id, score
			}
		}
	}
	if bestScore < minSimilarity {
		return "", fmt.Errorf("no campground matches %q", input)
	}
	return best, nil
}
