package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brensch/campcheck/internal/catalog"
	"github.com/brensch/campcheck/internal/providers"
)

var (
	planStart  string
	planCheck  bool
	planAdults int
	planKids   int
)

func init() {
	planCmd.Flags().StringVar(&planStart, "start", "", "first night, MM/DD/YY")
	planCmd.Flags().BoolVar(&planCheck, "check", false, "also check every campground of every stop")
	planCmd.Flags().IntVar(&planAdults, "adults", 2, "number of adults")
	planCmd.Flags().IntVar(&planKids, "kids", 0, "number of kids")
	_ = planCmd.MarkFlagRequired("start")
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <destination> <nights>",
	Short: "Expands a trip itinerary, optionally checking availability.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		nights, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid nights value: %s", args[1])
		}
		start, err := providers.ParseDate(planStart)
		if err != nil {
			return err
		}
		plan, err := catalog.Expand(args[0], nights, start, planStart)
		if err != nil {
			return fmt.Errorf("%w (lengths: %v)", err, catalog.TripLengths(args[0]))
		}

		t := newTable()
		t.SetTitle(fmt.Sprintf("%s, %d nights from %s", plan.DestinationID, plan.TotalNights, plan.StartDate))
		if !planCheck {
			t.AppendHeader(table.Row{"City", "From", "To", "Nights", "Campgrounds"})
			for _, s := range plan.Stops {
				t.AppendRow(table.Row{s.City, s.StartDate, s.EndDate, s.Nights, len(s.Campgrounds)})
			}
			t.Render()
			return nil
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.close()
		stops, err := a.mgr.PlanAvailability(cmd.Context(), plan, planAdults, planKids)
		if err != nil {
			return err
		}
		t.AppendHeader(table.Row{"City", "Dates", "Campground", "Available", "Best"})
		for _, s := range stops {
			for _, cg := range s.Campgrounds {
				out := s.Availability[cg.ID]
				class, best := out.Best()
				msg := best.Message
				if class != "" {
					msg = string(class) + ": " + msg
				}
				t.AppendRow(table.Row{s.City, s.StartDate + " → " + s.EndDate, cg.Name, out.AnyAvailable(), msg})
			}
			t.AppendSeparator()
		}
		t.Render()
		return nil
	},
}
