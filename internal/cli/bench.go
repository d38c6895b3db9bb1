package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/benchmark"
	"github.com/PaulDuvall/rules-engine/internal/classifier"
	"github.com/PaulDuvall/rules-engine/internal/config"
	"github.com/PaulDuvall/rules-engine/internal/detector"
	"github.com/PaulDuvall/rules-engine/internal/intent"
	"github.com/PaulDuvall/rules-engine/internal/scorer"
)

// NewBenchmarkCmd creates the 'benchmark' command: estimate token savings
// of budgeted selection versus injecting the entire catalog.
func NewBenchmarkCmd() *cobra.Command {
	var flags commonFlags
	var dir string
	var maxRules, maxTokens int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "benchmark <message>",
		Short: "Estimate token savings of budgeted selection",
		Example: `  rules-engine benchmark "Add a payment endpoint" --catalog rules.yaml
  rules-engine benchmark "Fix the login bug" --catalog rules.yaml --dir ./svc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(&flags, args[0], dir, maxRules, maxTokens, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&flags.catalogPath, "catalog", "", "Rule catalog YAML file")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Working directory for context detection")
	cmd.Flags().IntVar(&maxRules, "max-rules", config.DefaultMaxRules, "Selection rule cap")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", config.DefaultMaxTokens, "Selection token budget")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// runBenchmark runs the scoring half of the pipeline (no fetching) and
// compares token footprints.
func runBenchmark(flags *commonFlags, message, dir string, maxRules, maxTokens int, jsonOutput bool) error {
	cat, err := flags.loadCatalog()
	if err != nil {
		return err
	}

	cls, err := classifier.New()
	if err != nil {
		return err
	}

	class := cls.Classify(message)
	projCtx := detector.New().Detect(dir)
	it := intent.Derive(message)
	selection := scorer.Select(cat.Rules(), projCtx, it, cls.Definition(class), maxRules, maxTokens)

	result := benchmark.Compare(cat, selection)

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if selection.Skipped {
		fmt.Printf("Prompt classified as %s: selection skipped, nothing would be injected.\n", class)
		return nil
	}

	fmt.Printf("Full catalog:  %d rule(s), ~%d tokens\n", result.FullCatalog.RuleCount, result.FullCatalog.Tokens)
	fmt.Printf("Selected:      %d rule(s), ~%d tokens\n", result.Selected.RuleCount, result.Selected.Tokens)
	fmt.Printf("Savings:       ~%d tokens (%.1f%%)\n", result.TokenSavings, result.SavingsPercent)
	return nil
}
