package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowgenius/flowdex/internal/cli"
	"github.com/flowgenius/flowdex/internal/cli/indexer"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "flowdex",
		Short: "Flowdex CLI - document indexing for tool knowledge bases",
		Long: `Flowdex CLI indexes documents into per-tool knowledge bases.

Environment variables:
  DATABASE_URL     Postgres connection string (required)
  OPENAI_API_KEY   OpenAI API key (required for index and batch)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(indexer.IndexCmd())
	rootCmd.AddCommand(indexer.BatchCmd())
	rootCmd.AddCommand(indexer.StatsCmd())
	rootCmd.AddCommand(indexer.CleanupCmd())
	rootCmd.AddCommand(indexer.ToolsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
