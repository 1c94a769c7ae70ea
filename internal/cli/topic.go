package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/scout-go/internal/models"
)

var (
	topicID          string
	topicDescription string
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Manage research topics",
}

var topicAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new topic",
	Long: `Create a new research topic. The topic id defaults to a slug of the
name and is used in every other command.

Examples:
  scout topic add "Distributed Systems"
  scout topic add "Go Runtime" --id go-runtime --description "GC, scheduler, compiler"`,
	Args: cobra.ExactArgs(1),
	RunE: runTopicAdd,
}

var topicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all topics",
	Args:  cobra.NoArgs,
	RunE:  runTopicList,
}

func init() {
	topicAddCmd.Flags().StringVar(&topicID, "id", "", "topic id (defaults to a slug of the name)")
	topicAddCmd.Flags().StringVar(&topicDescription, "description", "", "topic description")

	topicCmd.AddCommand(topicAddCmd)
	topicCmd.AddCommand(topicListCmd)
}

func runTopicAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	id := topicID
	if id == "" {
		id = models.Slugify(name)
	}
	if id == "" {
		return fmt.Errorf("cannot derive a topic id from %q, pass --id", name)
	}

	var description *string
	if topicDescription != "" {
		description = &topicDescription
	}

	topic, err := dbClient.CreateTopic(context.Background(), id, name, description)
	if err != nil {
		return fmt.Errorf("create topic: %w", err)
	}

	fmt.Printf("Created topic %s (%s)\n", topic.ID.ID, topic.Name)
	return nil
}

func runTopicList(cmd *cobra.Command, args []string) error {
	topics, err := dbClient.ListTopics(context.Background())
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}

	if len(topics) == 0 {
		fmt.Println("No topics yet. Create one with: scout topic add <name>")
		return nil
	}

	for _, t := range topics {
		fmt.Printf("%-24v %s", t.ID.ID, t.Name)
		if t.Description != nil {
			fmt.Printf("  (%s)", *t.Description)
		}
		fmt.Println()
	}
	return nil
}
