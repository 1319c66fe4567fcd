package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/observability"
	"github.com/storyforge/storyforge/internal/plugin"
	"github.com/storyforge/storyforge/internal/story"
)

// NewInvokeCmd creates the invoke subcommand.
func NewInvokeCmd() *cobra.Command {
	var (
		payloadJSON string
		documentID  string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "invoke <plugin-id> <action-id>",
		Short: "Invoke a plugin action against the project workspace",
		Long: `Invoke calls the plugin's action endpoint with the project context and
applies the instructions it returns to the workspace file. Each
instruction is applied independently; a failing instruction is reported
and the rest still apply.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.ProjectFile == "" {
				return errors.New("project-file is required")
			}
			pluginID, actionID := args[0], args[1]

			var payload any
			if payloadJSON != "" {
				raw := json.RawMessage(payloadJSON)
				if !json.Valid(raw) {
					return fmt.Errorf("payload is not valid JSON")
				}
				payload = raw
			}

			// Start observability server if configured
			if cfg.MetricsAddr != "" {
				obs := observability.NewServer(cfg.MetricsAddr, func() bool { return true })
				if _, err := obs.Start(); err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = obs.Stop(ctx)
				}()
			}

			proj, err := story.LoadProject(cfg.ProjectFile)
			if err != nil {
				return err
			}
			pl, ok := proj.Plugin(pluginID)
			if !ok {
				return fmt.Errorf("plugin %s is not in the workspace; run 'storyforge plugins sync'", pluginID)
			}
			actionID, err = resolveCapability(*pl, actionID)
			if err != nil {
				return err
			}

			store := story.NewStore()
			store.CreateProject(proj)
			store.SelectProject(proj.ID)
			if documentID != "" {
				store.SetActiveDocument(documentID)
			}

			var activeDoc *story.Document
			if id := store.ActiveDocumentID(); id != "" {
				activeDoc, _ = proj.Document(id)
			}

			client := plugin.NewClient(
				plugin.WithManifestTimeout(cfg.ManifestTimeout),
				plugin.WithActionTimeout(cfg.ActionTimeout),
			)
			actx := plugin.NewActionContext(proj, activeDoc)
			result := client.Invoke(cmd.Context(), *pl, actionID, actx, payload)
			if !result.Success {
				return fmt.Errorf("plugin %s: %s", pl.Name, result.Error)
			}
			cmd.Printf("Plugin %s answered in %s with %d instruction(s)\n",
				pl.Name, result.Latency.Round(time.Millisecond), len(result.Instructions))

			console := plugin.NewConsole(slog.Default())
			executor := plugin.NewExecutor(plugin.Hooks{
				UpdateDocument:   store.UpdateDocument,
				UpdateEntity:     store.UpdateEntity,
				ActiveDocumentID: store.ActiveDocumentID,
				Message: func(text string, severity plugin.Severity) {
					console.Append(severity, text)
				},
				Log: console.Append,
			}, slog.Default())

			res := executor.Execute(result.Instructions)
			for _, entry := range console.Entries() {
				cmd.Printf("[%s] %s\n", entry.Severity, entry.Message)
			}
			cmd.Printf("applied=%d skipped=%d failed=%d\n", res.Applied, res.Skipped, res.Failed)

			if dryRun {
				cmd.Println("dry run: workspace not saved")
				return nil
			}
			updated, ok := store.ActiveProject()
			if !ok {
				return errors.New("no active project after execution")
			}
			return story.SaveProject(cfg.ProjectFile, updated)
		},
	}

	cmd.Flags().StringVar(&payloadJSON, "payload", "", "JSON payload forwarded to the action")
	cmd.Flags().StringVar(&documentID, "document", "", "document id to treat as active (default: first document)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "apply instructions in memory but do not save")
	return cmd
}

// resolveCapability resolves the action argument against the plugin's
// known capabilities. An exact id wins; otherwise the argument is a glob
// pattern that must match exactly one capability. Plugins synced without
// capability data pass the argument through untouched.
func resolveCapability(pl story.Plugin, actionID string) (string, error) {
	if len(pl.Capabilities) == 0 {
		return actionID, nil
	}
	for _, c := range pl.Capabilities {
		if c.ID == actionID {
			return actionID, nil
		}
	}

	matcher, err := glob.Compile(strings.ToLower(actionID))
	if err != nil {
		return "", fmt.Errorf("bad action pattern %q: %w", actionID, err)
	}
	var matches []string
	for _, c := range pl.Capabilities {
		if matcher.Match(strings.ToLower(c.ID)) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("plugin %s has no capability matching %q", pl.Name, actionID)
	default:
		return "", fmt.Errorf("pattern %q matches %s; name one capability", actionID, strings.Join(matches, ", "))
	}
}
