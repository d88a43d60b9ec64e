package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/anhoffmann/deepscout/internal/llm"
	"github.com/anhoffmann/deepscout/internal/parser"
	"github.com/spf13/cobra"
)

var (
	summarizeStyle     string
	summarizeMaxWords  int
	summarizeKeyPoints int
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [file]",
	Short: "Summarize a document",
	Long: `Summarize a document with the configured LLM, without touching the
knowledge base. Reads from stdin when no file is given.

Examples:
  deepscout summarize report.md
  deepscout summarize report.md --style bullet --max-words 150
  deepscout summarize notes.txt --key-points 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeStyle, "style", "concise", "summary style: comprehensive, concise, bullet")
	summarizeCmd.Flags().IntVar(&summarizeMaxWords, "max-words", 300, "summary length limit in words")
	summarizeCmd.Flags().IntVar(&summarizeKeyPoints, "key-points", 0, "also extract this many key points")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var text string
	if len(args) == 1 {
		doc, err := parser.LoadDocument(args[0])
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		text = doc
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if _, err := getOrchestrator(ctx); err != nil {
		return err
	}

	summary, err := model.Summarize(ctx, text, llm.SummaryStyle(summarizeStyle), summarizeMaxWords)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	fmt.Println(summary)

	if summarizeKeyPoints > 0 {
		points, err := model.ExtractKeyPoints(ctx, text, summarizeKeyPoints)
		if err != nil {
			return fmt.Errorf("extract key points: %w", err)
		}
		fmt.Println("\nKey Points:")
		for i, p := range points {
			fmt.Printf("%d. %s\n", i+1, p)
		}
	}
	return nil
}
