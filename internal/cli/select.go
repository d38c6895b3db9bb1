package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewSelectCmd creates the 'select' command: run the full pipeline once
// for a prompt and working directory.
func NewSelectCmd() *cobra.Command {
	var flags commonFlags
	var dir string
	var jsonOutput bool
	var withContent bool

	cmd := &cobra.Command{
		Use:   "select <message>",
		Short: "Select the most relevant rules for a prompt",
		Long: `Run the selection pipeline for one prompt:
classify the prompt, detect the project context, score the catalog,
and fetch content for the token-bounded top-ranked rules.`,
		Example: `  rules-engine select "Fix this error in the login function" --catalog rules.yaml
  rules-engine select "Add a payment endpoint" --catalog rules.yaml --dir ./svc --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(&flags, args[0], dir, jsonOutput, withContent)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (default ~/.rules-engine.json)")
	cmd.Flags().StringVar(&flags.catalogPath, "catalog", "", "Rule catalog YAML file")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Working directory to detect project context from")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&withContent, "content", false, "Print fetched rule content")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// runSelect executes one pipeline run and prints the result.
func runSelect(flags *commonFlags, message, dir string, jsonOutput, withContent bool) error {
	eng, recorder, err := flags.buildEngine(true)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer recorder.Stop()
	}

	result, err := eng.Run(context.Background(), message, dir)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Printf("Class: %s\n", result.Class)
	if result.Skipped {
		fmt.Println("Selection skipped: prompt is not actionable.")
		return nil
	}
	if len(result.Rules) == 0 {
		fmt.Println("No matching rules.")
		return nil
	}
	if result.Partial {
		fmt.Println("Warning: time budget exceeded, result is partial.")
	}

	fmt.Printf("Selected %d rule(s):\n\n", len(result.Rules))
	for i, sr := range result.Rules {
		fmt.Printf("%d. %s (score %d, ~%d tokens)\n   %s\n",
			i+1, sr.Rule.Title, sr.Score, sr.Rule.EstimatedTokens, sr.Rule.Path)
		if withContent && len(sr.Content) > 0 {
			fmt.Printf("\n%s\n", sr.Content)
		}
	}
	return nil
}
