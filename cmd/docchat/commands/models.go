// ABOUTME: CLI command to list available generation model keys
// ABOUTME: Marks the default backend used when no model is requested
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/docchat-standalone/internal/llm"
)

// NewModelsCmd creates the models command
func NewModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available generation models",
		Long: `List the model keys accepted by 'docchat ask --model' and the
chat API. Unknown keys fall back to the default.`,
		Args: cobra.NoArgs,
		RunE: runModels,
	}
}

func runModels(cmd *cobra.Command, args []string) error {
	keys := llm.AvailableModels()

	if outputFormat == "json" {
		out := map[string]any{"models": keys, "default": llm.DefaultModelKey}
		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	for _, key := range keys {
		if key == llm.DefaultModelKey {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (default)\n", key)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
	}
	return nil
}
