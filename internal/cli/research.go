package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/scout-go/internal/client"
	"github.com/raphaelgruber/scout-go/internal/episode"
)

var researchServer string

var researchCmd = &cobra.Command{
	Use:   "research <topic-id> <query>",
	Short: "Run a research episode against a topic",
	Long: `Run a research episode: the agent searches, evaluates and distills
sources under the topic's active strategy, writes a result note and feeds
the outcome back into strategy evolution.

Examples:
  scout research distributed-systems "how does raft handle network partitions"
  scout research go-runtime "recent GC changes" --server http://localhost:8585`,
	Args: cobra.MinimumNArgs(2),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVar(&researchServer, "server", "", "run via a scout-server instead of in-process")
}

func runResearch(cmd *cobra.Command, args []string) error {
	topicID := args[0]
	query := strings.Join(args[1:], " ")
	ctx := context.Background()

	events, wait, err := startResearch(ctx, topicID, query)
	if err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		err = runResearchUI(events)
	} else {
		err = printResearchPlain(events)
	}

	// In-process episodes also run the post-episode analysis; hold the
	// process open until it finishes so the evolution isn't lost.
	if wait != nil {
		wait()
	}
	return err
}

// startResearch starts the episode either in-process or via a server and
// returns its event stream. wait is non-nil for in-process runs.
func startResearch(ctx context.Context, topicID, query string) (<-chan episode.Event, func(), error) {
	if researchServer != "" {
		ch := make(chan episode.Event, 64)
		c := client.New(researchServer)
		go func() {
			defer close(ch)
			err := c.Research(ctx, topicID, query, func(e episode.Event) error {
				ch <- e
				return nil
			})
			if err != nil {
				ch <- episode.Event{Type: episode.EventError, Error: err.Error()}
			}
		}()
		return ch, nil, nil
	}

	controller, analyzer := buildStack()
	events, err := controller.Run(ctx, topicID, query)
	if err != nil {
		return nil, nil, err
	}
	return events, analyzer.Wait, nil
}

// printResearchPlain renders the event stream as plain lines for pipes and
// redirects.
func printResearchPlain(events <-chan episode.Event) error {
	var failure error
	inText := false

	endText := func() {
		if inText {
			fmt.Println()
			inText = false
		}
	}

	for e := range events {
		switch e.Type {
		case episode.EventEpisodeCreated:
			fmt.Printf("episode %s started\n", e.EpisodeID)
		case episode.EventStatus:
			endText()
			fmt.Printf("[%s]\n", e.Status)
		case episode.EventPartial:
			fmt.Print(e.Text)
			inText = true
		case episode.EventToolCall:
			endText()
			fmt.Printf("  tool %s\n", e.Tool)
		case episode.EventSearchResults:
			for _, r := range e.Results {
				fmt.Printf("    %s\n", r.URL)
			}
		case episode.EventLearningExtracted:
			for _, l := range e.Learnings {
				fmt.Printf("    learned: %s\n", l)
			}
		case episode.EventNoteCreated:
			endText()
			fmt.Printf("note saved: %s\n", e.NoteID)
		case episode.EventComplete:
			endText()
			fmt.Printf("episode %s completed\n", e.EpisodeID)
		case episode.EventError:
			endText()
			failure = fmt.Errorf("episode failed: %s", e.Error)
		}
	}
	return failure
}
