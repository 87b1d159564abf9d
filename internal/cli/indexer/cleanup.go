package indexer

import (
	"encoding/json"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CleanupCmd creates the cleanup command.
func CleanupCmd() *cobra.Command {
	var (
		sourcePath string
		confirm    bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup <tool-id>",
		Short: "Delete stored chunks for a tool",
		Long: `Delete the stored knowledge chunks of a tool, either all of them or
only those from one source. Deletion is refused without --confirm.

Examples:
  flowdex cleanup my-tool --confirm
  flowdex cleanup my-tool --source docs/guide.md --confirm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runCleanup(cmd, args[0], sourcePath, confirm, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&sourcePath, "source", "s", "", "Only delete chunks from this source path")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Actually delete (required)")

	return cmd
}

func runCleanup(cmd *cobra.Command, toolID, sourcePath string, confirm, outputJSON bool) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	deleted, err := rt.Pipeline.Cleanup(ctx, toolID, sourcePath, confirm)
	if err != nil {
		return err
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"tool_id":     toolID,
			"source_path": sourcePath,
			"deleted":     deleted,
		})
	}

	color.Green("✓ deleted %d chunks", deleted)
	return nil
}
