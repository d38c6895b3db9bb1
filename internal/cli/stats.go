package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PaulDuvall/rules-engine/internal/storage"
)

// NewStatsCmd creates the 'stats' command: summarize recent selection
// history from the analytics store.
func NewStatsCmd() *cobra.Command {
	var days int
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recent selection history",
		Example: `  rules-engine stats
  rules-engine stats --days 30 --limit 20 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(days, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "History window in days")
	cmd.Flags().IntVar(&limit, "limit", 10, "Max rules to list")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runStats(days, limit int, jsonOutput bool) error {
	store := storage.NewStore()
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	runs, err := store.RecentRuns(since)
	if err != nil {
		return err
	}
	top, err := store.TopRules(since, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"runs":     runs,
			"topRules": top,
		})
	}

	var skipped int
	var hits, misses uint64
	for _, r := range runs {
		if r.Skipped {
			skipped++
		}
		hits += r.CacheHits
		misses += r.CacheMisses
	}

	fmt.Printf("Last %d day(s): %d run(s), %d skipped\n", days, len(runs), skipped)
	if hits+misses > 0 {
		fmt.Printf("Cache: %d hit(s), %d miss(es) (%.0f%% hit rate)\n",
			hits, misses, float64(hits)/float64(hits+misses)*100)
	}
	if len(top) > 0 {
		fmt.Printf("\nMost selected rules:\n")
		for i, rc := range top {
			fmt.Printf("  %d. %-40s %d\n", i+1, rc.RulePath, rc.Count)
		}
	}
	return nil
}
