package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/scout-go/internal/client"
	"github.com/raphaelgruber/scout-go/internal/models"
)

var (
	evolutionsRecent bool
	evolutionsServer string
)

// recentEvolutions caps --recent output.
const recentEvolutions = 5

var evolutionsCmd = &cobra.Command{
	Use:   "evolutions <topic-id>",
	Short: "Show a topic's strategy evolution log",
	Long: `Show the append-only evolution log for a topic: every strategy version
transition with its reason and the configuration changes that were made.

Examples:
  scout evolutions distributed-systems
  scout evolutions distributed-systems --recent`,
	Args: cobra.ExactArgs(1),
	RunE: runEvolutions,
}

func init() {
	evolutionsCmd.Flags().BoolVar(&evolutionsRecent, "recent", false, "only the 5 most recent entries")
	evolutionsCmd.Flags().StringVar(&evolutionsServer, "server", "", "query a scout-server instead of the local database")
}

func runEvolutions(cmd *cobra.Command, args []string) error {
	topicID := args[0]
	ctx := context.Background()

	if evolutionsServer != "" {
		entries, err := client.New(evolutionsServer).Evolutions(ctx, topicID, evolutionsRecent)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No evolutions recorded.")
			return nil
		}
		for _, e := range entries {
			printEvolution(e.FromVersion, e.ToVersion, e.Reason, e.Timestamp, e.Changes)
		}
		return nil
	}

	limit := 0
	if evolutionsRecent {
		limit = recentEvolutions
	}
	entries, err := dbClient.ListEvolutionEntries(ctx, topicID, limit)
	if err != nil {
		return fmt.Errorf("list evolutions: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No evolutions recorded.")
		return nil
	}
	for _, e := range entries {
		printEvolution(e.FromVersion, e.ToVersion, e.Reason, e.Created, e.Changes)
	}
	return nil
}

func printEvolution(from, to int, reason string, ts time.Time, changes *models.StrategyDiff) {
	fmt.Printf("v%d -> v%d  %s (%s)\n", from, to, reason, ts.Format("2006-01-02 15:04"))
	if changes == nil {
		return
	}
	for _, line := range diffLines(changes.Before, changes.After) {
		fmt.Printf("    %s\n", line)
	}
	fmt.Printf("    over %d episodes: save rate %.2f, avg %.1f follow-ups\n",
		changes.Metrics.TotalEpisodes, changes.Metrics.AvgSaveRate, changes.Metrics.AvgFollowupCount)
}

// diffLines summarizes the fields that changed between two configs.
func diffLines(before, after models.StrategyConfig) []string {
	var lines []string
	add := func(field string, a, b any) {
		if a != b {
			lines = append(lines, fmt.Sprintf("%s: %v -> %v", field, a, b))
		}
	}
	add("search_depth", before.SearchDepth, after.SearchDepth)
	add("time_window_days", before.TimeWindowDays, after.TimeWindowDays)
	add("summary_style", before.SummaryStyle, after.SummaryStyle)
	add("model_tier", before.ModelTier, after.ModelTier)
	add("max_followups", before.MaxFollowups, after.MaxFollowups)
	add("parallel_search", before.ParallelSearch, after.ParallelSearch)
	add("senso_first", before.SensoFirst, after.SensoFirst)
	if a, b := strings.Join(before.EnabledTools, ","), strings.Join(after.EnabledTools, ","); a != b {
		lines = append(lines, fmt.Sprintf("enabled_tools: [%s] -> [%s]", a, b))
	}
	return lines
}
