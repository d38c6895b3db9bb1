package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/config"
)

// NewConfigCmd creates the 'config' command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage engine configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

// newConfigInitCmd writes a default config file.
func newConfigInitCmd() *cobra.Command {
	var source string
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Write a default config file",
		Example: `  rules-engine config init --content-source myorg/rules`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.Default()
			opts.ContentSource = source
			if err := opts.Validate(); err != nil {
				return err
			}

			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			if err := config.Save(opts, path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "content-source", "", "Remote document source as owner/repo (required)")
	cmd.Flags().StringVar(&path, "path", "", "Destination path (default ~/.rules-engine.json)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	cmd.MarkFlagRequired("content-source")

	return cmd
}

// newConfigShowCmd prints the active configuration.
func newConfigShowCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts *config.Options
			var err error
			if path != "" {
				opts, err = config.LoadFrom(path)
			} else {
				opts, err = config.Load()
			}
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(opts)
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Config file path (default ~/.rules-engine.json)")

	return cmd
}
