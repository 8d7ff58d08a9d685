package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperbase/paperbase/internal/core/domain"
)

var (
	queryK      int
	queryDedupe string
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve passages by semantic similarity",
	Long: `Embeds the query text and returns the best matching passages from
the indexed documents. Results are deduplicated to the best passage
per document unless --dedupe all is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "k", "n", 0, "Number of passages to return")
	queryCmd.Flags().StringVar(&queryDedupe, "dedupe", "", "Dedupe policy: best or all")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	opts := domain.QueryOptions{K: queryK}
	if queryDedupe != "" {
		policy := domain.DedupePolicy(queryDedupe)
		if !policy.IsValid() {
			return fmt.Errorf("unknown dedupe policy %q", queryDedupe)
		}
		opts.Dedupe = policy
	}

	passages, err := queryService.Query(context.Background(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, passages)
	}
	return outputQueryTable(cmd, passages)
}

func outputQueryJSON(cmd *cobra.Command, passages []domain.Passage) error {
	data, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, passages []domain.Passage) error {
	if len(passages) == 0 {
		cmd.Println("No matching passages found.")
		return nil
	}

	cmd.Printf("Passages (%d):\n\n", len(passages))
	for i, p := range passages {
		cmd.Printf("%d. %s (chunk %d, score %.3f)\n", i+1, p.Path, p.Seq, p.Score)
		cmd.Printf("   %s\n\n", snippet(p.Text, 200))
	}
	return nil
}

// snippet collapses whitespace and truncates text for terminal display.
func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
