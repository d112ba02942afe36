// ABOUTME: CLI command to ask a one-shot question against the index
// ABOUTME: Prints the answer and its cited sources
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/docchat-standalone/internal/models"
)

var (
	askModel string
	askTopK  int
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the documentation",
		Long: `Ask a one-shot question against the indexed documentation.

The answer cites the documentation sources it was generated from.
Use --model to pick a generation backend; unknown keys fall back to
the default.

Examples:
  docchat ask "How do I configure the webhook?"
  docchat ask --model groq-llama-8b "What ports does the server use?"
  docchat ask --format json "Where are logs written?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askModel, "model", "", "Generation model key (see 'docchat models')")
	cmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of chunks to retrieve (overrides TOP_K_RESULTS)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askTopK != 0 {
		if err := validatePositiveInt(askTopK, "top-k"); err != nil {
			return err
		}
		os.Setenv("TOP_K_RESULTS", fmt.Sprintf("%d", askTopK))
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	question := args[0]

	result, err := a.retriever.Query(cmd.Context(), question, askModel, nil)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	if outputFormat == "json" {
		sources := make([]models.Source, 0, len(result.Chunks))
		for _, chunk := range result.Chunks {
			sources = append(sources, models.NewSource(chunk))
		}
		out := map[string]any{
			"answer":  result.Answer,
			"sources": sources,
			"query":   result.Query,
		}
		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Answer)

	if len(result.Chunks) > 0 && !quiet {
		fmt.Fprintln(cmd.OutOrStdout())
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "SCORE\tTITLE\tPATH\n")
		fmt.Fprintf(w, "-----\t-----\t----\n")
		for _, chunk := range result.Chunks {
			fmt.Fprintf(w, "%.3f\t%s\t%s\n",
				chunk.Score,
				truncate(chunk.Title, 40),
				truncate(chunk.DocPath, 50))
		}
		w.Flush()
	}

	return nil
}
