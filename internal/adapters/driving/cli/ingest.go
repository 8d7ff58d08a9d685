package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document",
	Long: `Runs the ingestion pipeline for a single file: extraction (with OCR
fallback for scanned documents), chunking, embedding, and indexing.
Re-ingesting a path replaces its previous chunks and index entries.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestStatusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show ingestion status for a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestStatus,
}

var ingestRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-embed all documents with the configured model",
	Long: `Recomputes embeddings for every complete document and records the
configured embedding model as the index model. Use after changing
the embedding model to clear a stale index.`,
	RunE: runIngestRefresh,
}

func init() {
	ingestCmd.AddCommand(ingestStatusCmd)
	ingestCmd.AddCommand(ingestRefreshCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	ctx := context.Background()

	cmd.Printf("Ingesting %s...\n", path)
	doc, err := ingestService.Ingest(ctx, path)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Document %s: %s\n", doc.ID, doc.Status)
	if doc.UsedOCR {
		cmd.Println("Text was recovered via OCR.")
	}
	return nil
}

func runIngestStatus(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	doc, err := ingestService.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("Document: %s\n", doc.ID)
	cmd.Printf("  Path: %s\n", doc.Path)
	cmd.Printf("  Status: %s\n", doc.Status)
	if doc.FailureReason != "" {
		cmd.Printf("  Failure: %s\n", doc.FailureReason)
	}
	return nil
}

func runIngestRefresh(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	cmd.Println("Re-embedding all documents...")
	if err := ingestService.RefreshEmbeddings(context.Background()); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	cmd.Println("All documents re-embedded.")
	return nil
}
