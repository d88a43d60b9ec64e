package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	ingestExtensions []string
	ingestChunkSize  int
	ingestOverlap    int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Index a document or directory into the knowledge base",
	Long: `Chunk a text document (or every matching document under a directory)
and index the chunks into the knowledge base.

Examples:
  deepscout ingest notes.md
  deepscout ingest ./docs --ext .md --ext .txt
  deepscout ingest paper.txt --chunk-size 500 --overlap 100`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestExtensions, "ext", []string{".txt", ".md"}, "file extensions to include for directories")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "chunk size in characters (default from config)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "chunk overlap in characters (default from config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := context.Background()

	o, err := getOrchestrator(ctx)
	if err != nil {
		return err
	}

	chunkSize := ingestChunkSize
	if chunkSize <= 0 {
		chunkSize = cfg.ChunkSize
	}
	overlap := ingestOverlap
	if overlap <= 0 {
		overlap = cfg.ChunkOverlap
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var ids []string
	if info.IsDir() {
		ids, err = o.IngestDirectory(ctx, path, ingestExtensions, chunkSize, overlap)
	} else {
		ids, err = o.IngestFile(ctx, path, chunkSize, overlap)
	}
	if err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}

	if len(ids) == 0 {
		fmt.Println("No indexable text found.")
		return nil
	}

	fmt.Printf("Indexed %d chunks from %s\n", len(ids), path)
	return nil
}
