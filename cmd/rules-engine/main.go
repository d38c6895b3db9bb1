/*
Package main is the entry point for the rules-engine CLI.

rules-engine selects a small, token-bounded subset of reference rule
documents relevant to a prompt and working directory, out of a larger
static catalog, for injection into an assistant's context window.

Usage:
  rules-engine [command]

Available Commands:
  select      Select the most relevant rules for a prompt
  classify    Classify a prompt into a semantic category
  context     Detect project context for a directory
  catalog     Inspect and validate the rule catalog
  serve       Serve the selection pipeline over stdio (JSON-RPC)
  benchmark   Estimate token savings of budgeted selection
  stats       Show recent selection history
  config      Manage engine configuration
  version     Print version information

Examples:
  # One-shot selection
  rules-engine select "Fix this error in the login function" --catalog rules.yaml

  # Serve the pipeline to a host process
  rules-engine serve --catalog rules.yaml
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/cli"
	"github.com/PaulDuvall/rules-engine/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rules-engine",
		Short: "Token-bounded rule selection for assistant context windows",
		Long: `rules-engine ranks a static rule catalog against a prompt's intent and
the project's detected context, then retrieves content for the highest
scoring rules within a token budget.

Pipeline: classify -> detect context -> score & select -> fetch (cached,
bounded parallelism, retry with backoff) -> ordered result.`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewSelectCmd())
	rootCmd.AddCommand(cli.NewClassifyCmd())
	rootCmd.AddCommand(cli.NewContextCmd())
	rootCmd.AddCommand(cli.NewCatalogCmd())
	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewBenchmarkCmd())
	rootCmd.AddCommand(cli.NewStatsCmd())
	rootCmd.AddCommand(cli.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
