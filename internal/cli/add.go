package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var addSource string

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add free text to the knowledge base",
	Long: `Chunk and index a piece of free text under a source name. Reads from
stdin when no text argument is given.

Examples:
  deepscout add "Go's scheduler multiplexes goroutines onto OS threads." --source go-notes
  cat meeting-notes.txt | deepscout add --source meetings`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addSource, "source", "s", "manual", "source name stored with the chunks")
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var content string
	if len(args) == 1 {
		content = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)
	}

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	ids, err := o.AddKnowledge(ctx, content, addSource, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("add knowledge: %w", err)
	}

	fmt.Printf("Indexed %d chunks under source '%s'\n", len(ids), addSource)
	return nil
}
