package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List, inspect, summarise, or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentSummaryCmd = &cobra.Command{
	Use:   "summary [doc-id]",
	Short: "Summarise a document with the configured LLM",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentSummary,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentSummaryCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	cmd.Println("Ingested documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Path: %s\n", docs[i].Path)
		cmd.Printf("    Status: %s\n", docs[i].Status)
		if docs[i].FailureReason != "" {
			cmd.Printf("    Failure: %s\n", docs[i].FailureReason)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n", doc.ID)
	cmd.Printf("  Path: %s\n", doc.Path)
	cmd.Printf("  Media type: %s\n", doc.MediaType)
	cmd.Printf("  Status: %s\n", doc.Status)
	cmd.Printf("  Used OCR: %t\n", doc.UsedOCR)
	if doc.FailureReason != "" {
		cmd.Printf("  Failure: %s\n", doc.FailureReason)
	}
	if !doc.CreatedAt.IsZero() {
		cmd.Printf("  Created: %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !doc.UpdatedAt.IsZero() {
		cmd.Printf("  Updated: %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentSummary(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("no LLM configured: set PAPERBASE_API_KEY or OPENAI_API_KEY")
	}

	summary, err := answerService.SummariseDocument(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to summarise document: %w", err)
	}

	cmd.Println(summary)
	return nil
}
