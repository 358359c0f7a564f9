package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/campcheck/internal/bot"
	"github.com/brensch/campcheck/internal/web"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API, the watch runner, the daily summary and the Discord bot.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return web.NewServer(a.mgr, a.cfg.Addr, a.cfg.FrontendURL, a.logger).Run(ctx)
		})
		g.Go(func() error {
			return a.mgr.RunWatches(ctx, a.cfg.WatchSchedule)
		})
		if a.discord != nil {
			g.Go(func() error { return a.mgr.RunDailySummary(ctx) })
			if a.cfg.Discord.Commands {
				g.Go(func() error {
					return bot.New(a.discord, a.mgr, a.cfg.Discord.GuildID, a.logger).Run(ctx)
				})
			}
		} else {
			a.logger.Info("no discord token, watch alerts go to the log only")
		}
		err = g.Wait()
		a.logger.Info("campcheck stopped", slog.Any("err", err))
		return err
	},
}
