package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/catalog"
)

// NewCatalogCmd creates the 'catalog' command group.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate the rule catalog",
	}
	cmd.AddCommand(newCatalogValidateCmd())
	cmd.AddCommand(newCatalogListCmd())
	return cmd
}

// newCatalogValidateCmd validates a catalog file and reports the first
// malformed entry.
func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <catalog.yaml>",
		Short:   "Validate a rule catalog file",
		Example: `  rules-engine catalog validate rules.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				var entryErr *catalog.EntryError
				if errors.As(err, &entryErr) {
					return fmt.Errorf("catalog invalid: %w", entryErr)
				}
				return err
			}
			fmt.Printf("Catalog OK: %d entries, ~%d total tokens\n", cat.Len(), cat.TotalTokens())
			return nil
		},
	}
}

// newCatalogListCmd prints catalog entries.
func newCatalogListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list <catalog.yaml>",
		Short:   "List rule catalog entries",
		Example: `  rules-engine catalog list rules.yaml --json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(cat.Rules())
			}

			fmt.Printf("Rule catalog (%d entries):\n\n", cat.Len())
			for _, r := range cat.Rules() {
				fmt.Printf("  %-10s %-40s ~%d tokens\n", r.Category, r.Path, r.EstimatedTokens)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
