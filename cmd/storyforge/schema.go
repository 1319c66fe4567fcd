package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storyforge/storyforge/internal/plugin"
)

// NewSchemaCmd creates the schema subcommand tree.
func NewSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with the plugin wire protocol JSON Schemas",
	}

	cmd.AddCommand(newSchemaShowCmd())
	cmd.AddCommand(newSchemaValidateCmd())

	return cmd
}

func newSchemaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a wire protocol schema (" + strings.Join(plugin.SchemaNames(), ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := plugin.GenerateSchema(args[0])
			if err != nil {
				return err
			}
			cmd.Println(string(schema))
			return nil
		},
	}
}

func newSchemaValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <name> <file>",
		Short: "Validate a JSON document against a wire protocol schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			if err := plugin.ValidateSchema(args[0], data); err != nil {
				return fmt.Errorf("%s does not match schema %s: %w", args[1], args[0], err)
			}
			cmd.Printf("%s matches schema %s\n", args[1], args[0])
			return nil
		},
	}
}
