package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/detector"
)

// NewContextCmd creates the 'context' command: detect and print the
// project context for a directory.
func NewContextCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "context [directory]",
		Short: "Detect project context for a directory",
		Long: `Inspect a working directory for language, framework, cloud provider,
and maturity signals. Detection is read-only and deterministic.`,
		Example: `  rules-engine context
  rules-engine context ./my-service --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runContext(dir, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runContext(dir string, jsonOutput bool) error {
	ctx := detector.New().Detect(dir)

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ctx)
	}

	fmt.Printf("Project context for %s:\n", dir)
	fmt.Printf("  Languages:       %s\n", orNone(ctx.Languages))
	fmt.Printf("  Frameworks:      %s\n", orNone(ctx.Frameworks))
	fmt.Printf("  Cloud providers: %s\n", orNone(ctx.CloudProviders))
	fmt.Printf("  Maturity:        %s\n", ctx.Maturity)
	fmt.Printf("  Confidence:      %.2f\n", ctx.Confidence)
	return nil
}

func orNone(set []string) string {
	if len(set) == 0 {
		return "(none)"
	}
	return strings.Join(set, ", ")
}
