// ABOUTME: CLI command to index the documentation tree into the vector store
// ABOUTME: Rebuilds the index from scratch on every run
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var indexDocsPath string

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index documentation into the vector store",
		Long: `Walk the documentation directory, chunk every markdown file,
embed the chunks, and store them in the vector database.

The index is rebuilt from scratch: chunks from documents that no
longer exist are removed.

Examples:
  docchat index
  docchat index --docs ./handbook`,
		Args: cobra.NoArgs,
		RunE: runIndex,
	}

	cmd.Flags().StringVar(&indexDocsPath, "docs", "", "Documentation directory (overrides DOCS_PATH)")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexDocsPath != "" {
		os.Setenv("DOCS_PATH", indexDocsPath)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	count, err := a.ingestor.Ingest(cmd.Context())
	if err != nil {
		return fmt.Errorf("indexing documentation: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %s\n", count, a.cfg.DocsPath)
	}
	return nil
}
