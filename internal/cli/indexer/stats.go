package indexer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <tool-id>",
		Short: "Show stored knowledge stats for a tool",
		Long: `Show how many chunks are stored for a tool, broken down per source,
with a few of the highest quality chunks as samples.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runStats(cmd *cobra.Command, toolID string, outputJSON bool) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats, err := rt.Pipeline.Stats(ctx, toolID)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	color.Cyan("%s", stats.ToolID)
	fmt.Printf("  total chunks: %d\n", stats.TotalChunks)
	if len(stats.Sources) > 0 {
		fmt.Println("  sources:")
		for _, s := range stats.Sources {
			title := s.Title
			if title == "" {
				title = s.SourcePath
			}
			fmt.Printf("    %-10s %4d  %s\n", s.SourceType, s.ChunkCount, title)
		}
	}
	if len(stats.TopSamples) > 0 {
		fmt.Println("  top samples:")
		for _, sample := range stats.TopSamples {
			fmt.Printf("    [%.2f] %s\n", sample.QualityScore, sample.Content)
		}
	}
	return nil
}
