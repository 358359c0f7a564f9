package main

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brensch/campcheck/internal/bot"
	"github.com/brensch/campcheck/internal/config"
)

var clearAll bool

func init() {
	commandsClearCmd.Flags().BoolVar(&clearAll, "all", false, "also delete commands this build does not define")
	commandsCmd.AddCommand(commandsListCmd, commandsClearCmd)
	rootCmd.AddCommand(commandsCmd)
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "Inspects the Discord slash commands registered for the bot.",
}

// discordApp opens a REST session and resolves the bot's application id.
func discordApp() (*discordgo.Session, string, string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", "", err
	}
	if cfg.Discord.Token == "" {
		return nil, "", "", fmt.Errorf("discord token is required (DISCORD_TOKEN)")
	}
	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, "", "", err
	}
	app, err := s.Application("@me")
	if err != nil {
		return nil, "", "", fmt.Errorf("get application: %w", err)
	}
	return s, app.ID, cfg.Discord.GuildID, nil
}

var commandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists registered commands and their options.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, appID, guildID, err := discordApp()
		if err != nil {
			return err
		}
		cmds, err := s.ApplicationCommands(appID, guildID)
		if err != nil {
			return fmt.Errorf("fetch commands: %w", err)
		}
		t := newTable()
		t.AppendHeader(table.Row{"ID", "Command", "Option", "Autocomplete"})
		for _, c := range cmds {
			t.AppendRow(table.Row{c.ID, c.Name, "", ""})
			for _, o := range c.Options {
				t.AppendRow(table.Row{"", "", o.Name, o.Autocomplete})
			}
		}
		t.Render()
		return nil
	},
}

var commandsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes stale commands so the bot re-registers a clean set on start.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, appID, guildID, err := discordApp()
		if err != nil {
			return err
		}
		cmds, err := s.ApplicationCommands(appID, guildID)
		if err != nil {
			return fmt.Errorf("fetch commands: %w", err)
		}
		ours := map[string]bool{}
		for _, c := range bot.Commands() {
			ours[c.Name] = true
		}
		for _, c := range cmds {
			if ours[c.Name] && !clearAll {
				continue
			}
			if err := s.ApplicationCommandDelete(appID, guildID, c.ID); err != nil {
				fmt.Printf("failed to delete %s: %v\n", c.Name, err)
				continue
			}
			fmt.Printf("deleted %s (%s)\n", c.Name, c.ID)
		}
		return nil
	},
}
