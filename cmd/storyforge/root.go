package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/logging"
	"github.com/storyforge/storyforge/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the StoryForge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storyforge",
		Short: "StoryForge - plugin tooling for the writer's workbench",
		Long: `StoryForge manages novel project workspaces and their plugin
integrations: the backend plugin catalog, direct plugin calls, and
applying the instructions plugins return to project state.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	// Add subcommands
	cmd.AddCommand(NewProjectCmd())
	cmd.AddCommand(NewPluginsCmd())
	cmd.AddCommand(NewInvokeCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig resolves the effective configuration for a subcommand and
// installs the default logger. Without --config, the XDG config file is
// picked up when it exists.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := configFile
	if path == "" {
		if candidate := xdg.DefaultConfigFile(); fileExists(candidate) {
			path = candidate
		}
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	logging.SetDefault("storyforge", version, cfg.LogFormat)
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
