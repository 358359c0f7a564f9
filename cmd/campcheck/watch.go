package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brensch/campcheck/internal/providers"
)

var watchFlags stayFlags

func init() {
	watchFlags.register(watchAddCmd)
	watchCmd.AddCommand(watchAddCmd, watchListCmd, watchRemoveCmd, watchRunCmd)
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manages stays that are re-checked on a schedule.",
}

var watchAddCmd = &cobra.Command{
	Use:   "add <campground>",
	Short: "Adds a watch.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := watchFlags.query()
		if err != nil {
			return err
		}
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		id, err := resolveCampground(args[0], a.mgr.Registry().IDs())
		if err != nil {
			return err
		}
		watchID, err := a.mgr.AddWatch(cmd.Context(), id, q)
		if err != nil {
			return err
		}
		fmt.Printf("watch #%d: %s %s → %s\n", watchID, id, providers.FormatShort(q.Start), providers.FormatShort(q.End))
		return nil
	},
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists active watches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		watches, err := a.mgr.ListWatches(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable()
		t.AppendHeader(table.Row{"ID", "Campground", "From", "To", "Adults", "Kids", "Created"})
		for _, w := range watches {
			t.AppendRow(table.Row{w.ID, w.CampgroundID, providers.FormatShort(w.StartDate), providers.FormatShort(w.EndDate), w.Adults, w.Kids, w.CreatedAt.Format("2006-01-02 15:04")})
		}
		t.Render()
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Deactivates a watch.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid watch id %q", args[0])
		}
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()
		return a.mgr.RemoveWatch(cmd.Context(), id)
	},
}

var watchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Checks every active watch once.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()
		run, err := a.mgr.CheckWatches(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("checked %d, notified %d, failed %d, expired %d\n", run.Checked, run.Notified, run.Failed, run.Expired)
		return nil
	},
}
