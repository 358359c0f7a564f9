package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/brensch/campcheck/internal/cache"
	"github.com/brensch/campcheck/internal/config"
	"github.com/brensch/campcheck/internal/db"
	"github.com/brensch/campcheck/internal/httpx"
	"github.com/brensch/campcheck/internal/manager"
	"github.com/brensch/campcheck/internal/providers"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "campcheck",
	Short:         "campcheck checks Northern Michigan campground availability.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "campcheck.json5", "path to the json5 config file")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is everything a command needs, built from the config.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *db.Store
	mgr     *manager.Manager
	discord *discordgo.Session // nil without a bot token
}

// newApp loads the config and wires the manager. withStore opens the database.
func newApp(withStore bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}
	if withStore {
		a.store, err = db.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
	}

	factory := &httpx.Factory{
		Timeout: httpx.DefaultTimeout,
		Rate:    rate.Limit(cfg.RequestsPerSecond),
		Burst:   cfg.Burst,
		Logger:  logger,
	}
	opts := manager.Options{
		Store:     a.store,
		Cache:     cache.New[providers.Outcome](cfg.CacheSize, cfg.CacheTTL.Duration),
		ChannelID: cfg.Discord.ChannelID,
		FanOut:    cfg.FanOut,
		Logger:    logger,
	}
	if cfg.Discord.Token != "" {
		n, err := manager.NewDiscordNotifier(cfg.Discord.Token)
		if err != nil {
			a.close()
			return nil, err
		}
		a.discord = n.Session
		opts.Notifier = n
	}
	a.mgr = manager.NewManager(providers.NewDefaultRegistry(factory), opts)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
