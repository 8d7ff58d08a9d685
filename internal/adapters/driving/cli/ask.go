package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed documents",
	Long: `Retrieves the most relevant passages and asks the configured LLM to
answer using only that context. Requires an API key.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("no LLM configured: set PAPERBASE_API_KEY or OPENAI_API_KEY")
	}

	answer, err := answerService.Answer(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println(answer.Answer)
	if answer.ContextFound {
		cmd.Println("\nSources:")
		for _, p := range answer.Passages {
			cmd.Printf("  %s (chunk %d, score %.3f)\n", p.Path, p.Seq, p.Score)
		}
	}
	return nil
}
