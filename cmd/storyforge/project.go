package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/story"
	"github.com/storyforge/storyforge/internal/xdg"
)

// NewProjectCmd creates the project subcommand tree.
func NewProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage the project workspace file",
	}

	cmd.AddCommand(newProjectInitCmd())
	cmd.AddCommand(newProjectInfoCmd())
	cmd.AddCommand(newProjectEntitiesCmd())
	cmd.AddCommand(newProjectDocsCmd())

	return cmd
}

func newProjectInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <title>",
		Short: "Create a new project workspace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.ProjectFile == "" {
				return errors.New("project-file is required")
			}

			if err := xdg.EnsureDir(filepath.Dir(cfg.ProjectFile)); err != nil {
				return err
			}
			p := story.NewProject(args[0])
			if err := story.SaveProject(cfg.ProjectFile, p); err != nil {
				return err
			}
			cmd.Printf("Created project %s (%s) at %s\n", p.Title, p.ID, cfg.ProjectFile)
			return nil
		},
	}
}

func newProjectInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show a summary of the project workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}

			cmd.Printf("Project:   %s (%s)\n", p.Title, p.ID)
			if p.Genre != "" {
				cmd.Printf("Genre:     %s\n", p.Genre)
			}
			cmd.Printf("Volumes:   %d\n", len(p.Volumes))
			cmd.Printf("Documents: %d\n", len(p.Documents))
			cmd.Printf("Entities:  %d\n", len(p.Entities))
			cmd.Printf("Templates: %d\n", len(p.Templates))
			cmd.Printf("Plugins:   %d\n", len(p.Plugins))
			for _, pl := range p.Plugins {
				state := "disabled"
				if pl.Enabled {
					state = "enabled"
				}
				cmd.Printf("  %s  %s v%s (%s)\n", pl.ID, pl.Name, pl.Version, state)
			}
			return nil
		},
	}
}

func newProjectEntitiesCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List story entities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			entities, err := story.MatchEntities(p, match)
			if err != nil {
				return err
			}
			for _, e := range entities {
				line := fmt.Sprintf("%s  [%s/%s]  %s", e.ID, e.Type, e.Importance, e.Title)
				if len(e.Tags) > 0 {
					line += "  (" + strings.Join(e.Tags, ", ") + ")"
				}
				cmd.Println(line)
			}
			cmd.Printf("%d entities\n", len(entities))
			return nil
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "glob pattern over titles and tags")
	return cmd
}

func newProjectDocsCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List documents in reading order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadWorkspace(cmd)
			if err != nil {
				return err
			}
			docs, err := story.MatchDocuments(p, match)
			if err != nil {
				return err
			}
			for _, d := range docs {
				cmd.Printf("%s  [%s]  %s\n", d.ID, d.Status, d.Title)
			}
			cmd.Printf("%d documents\n", len(docs))
			return nil
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "glob pattern over document titles")
	return cmd
}

// loadWorkspace loads the project file named by the effective config.
func loadWorkspace(cmd *cobra.Command) (story.Project, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return story.Project{}, err
	}
	if cfg.ProjectFile == "" {
		return story.Project{}, errors.New("project-file is required")
	}
	return story.LoadProject(cfg.ProjectFile)
}
