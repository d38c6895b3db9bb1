package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/classifier"
)

// NewClassifyCmd creates the 'classify' command: classify a prompt
// without running the rest of the pipeline.
func NewClassifyCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a prompt into a semantic category",
		Example: `  rules-engine classify "Fix this error in the login function"
  rules-engine classify "Draft our privacy policy" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runClassify(message string, jsonOutput bool) error {
	cls, err := classifier.New()
	if err != nil {
		return fmt.Errorf("failed to build classifier: %w", err)
	}

	class := cls.Classify(message)
	actionable := cls.Actionable(class)

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"class":      class,
			"actionable": actionable,
		})
	}

	fmt.Printf("Class: %s\n", class)
	if actionable {
		fmt.Println("Actionable: yes")
	} else {
		fmt.Println("Actionable: no (selection would be skipped)")
	}
	return nil
}
