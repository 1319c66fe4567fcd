package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/config"
	"github.com/storyforge/storyforge/internal/plugin"
	"github.com/storyforge/storyforge/internal/story"
)

// NewPluginsCmd creates the plugins subcommand tree.
func NewPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Manage the backend plugin catalog",
	}

	cmd.AddCommand(newPluginsListCmd())
	cmd.AddCommand(newPluginsConnectCmd())
	cmd.AddCommand(newPluginsToggleCmd("enable", "Enable a plugin"))
	cmd.AddCommand(newPluginsToggleCmd("disable", "Disable a plugin"))
	cmd.AddCommand(newPluginsPingCmd())
	cmd.AddCommand(newPluginsRemoveCmd())
	cmd.AddCommand(newPluginsSyncCmd())

	return cmd
}

func newRegistry(cfg config.Config) *plugin.Registry {
	return plugin.NewRegistry(cfg.BackendURL)
}

func newPluginsListCmd() *cobra.Command {
	var page, pageSize int
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plugins in the backend catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var matcher glob.Glob
			if filter != "" {
				matcher, err = glob.Compile(strings.ToLower(filter))
				if err != nil {
					return fmt.Errorf("bad filter %q: %w", filter, err)
				}
			}

			plugins, total, err := newRegistry(cfg).ListPlugins(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}
			shown := 0
			for _, p := range plugins {
				if matcher != nil && !matcher.Match(strings.ToLower(p.Name)) {
					continue
				}
				cmd.Println(formatPlugin(p))
				shown++
			}
			cmd.Printf("%d of %d plugins (page %d)\n", shown, total, page)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "catalog page")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "plugins per page")
	cmd.Flags().StringVar(&filter, "filter", "", "glob pattern over plugin names")
	return cmd
}

func newPluginsConnectCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "connect <endpoint>",
		Short: "Probe a plugin endpoint and register it with the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			endpoint := args[0]

			client := plugin.NewClient(plugin.WithManifestTimeout(cfg.ManifestTimeout))
			probe := client.Probe(cmd.Context(), endpoint)
			if probe == nil {
				return fmt.Errorf("no manifest at %s", endpoint)
			}
			m := probe.Manifest
			if err := m.Validate(); err != nil {
				return err
			}

			registry := newRegistry(cfg)
			created, err := registry.Create(cmd.Context(), plugin.CreatePluginRequest{
				Name:        m.Name,
				Version:     m.Version,
				Author:      m.Author,
				Description: m.Description,
				Endpoint:    endpoint,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Connected %s as plugin %s (manifest in %s)\n", m.Name, created.ID, probe.Latency.Round(time.Millisecond))

			if wait > 0 {
				online, err := registry.AwaitOnline(cmd.Context(), created.ID, wait)
				if err != nil {
					return err
				}
				cmd.Printf("Plugin %s is %s\n", online.ID, online.Status)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "wait up to this long for the plugin to come online")
	return cmd
}

func newPluginsToggleCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry := newRegistry(cfg)
			if verb == "enable" {
				err = registry.Enable(cmd.Context(), args[0])
			} else {
				err = registry.Disable(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			cmd.Printf("Plugin %s %sd\n", args[0], verb)
			return nil
		},
	}
}

func newPluginsPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping <id>",
		Short: "Ask the backend to health-probe a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := newRegistry(cfg).Ping(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Pinged plugin %s\n", args[0])
			return nil
		},
	}
}

func newPluginsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a plugin from the backend catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := newRegistry(cfg).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Removed plugin %s\n", args[0])
			return nil
		},
	}
}

func newPluginsSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the workspace plugin list with the backend catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.ProjectFile == "" {
				return errors.New("project-file is required")
			}

			p, err := story.LoadProject(cfg.ProjectFile)
			if err != nil {
				return err
			}
			plugins, _, err := newRegistry(cfg).ListPlugins(cmd.Context(), 1, 200)
			if err != nil {
				return err
			}

			store := story.NewStore()
			store.CreateProject(p)
			store.SelectProject(p.ID)
			store.SetPlugins(plugins)
			synced, _ := store.ActiveProject()

			if err := story.SaveProject(cfg.ProjectFile, synced); err != nil {
				return err
			}
			cmd.Printf("Synced %d plugins into %s\n", len(plugins), cfg.ProjectFile)
			return nil
		},
	}
}

func formatPlugin(p story.Plugin) string {
	state := "disabled"
	if p.Enabled {
		state = "enabled"
	}
	status := string(p.Status)
	if status == "" {
		status = "unknown"
	}
	line := fmt.Sprintf("%s  %s v%s by %s  [%s, %s]", p.ID, p.Name, p.Version, p.Author, state, status)
	if p.Latency > 0 {
		line += fmt.Sprintf("  %s", p.Latency.Round(time.Millisecond))
	}
	return line
}
