package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flowgenius/flowdex/internal/domain"
	"github.com/flowgenius/flowdex/internal/pipeline"
)

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var (
		toolID     string
		sourceType string
		title      string
	)

	cmd := &cobra.Command{
		Use:   "index <source>",
		Short: "Index one document into a tool's knowledge base",
		Long: `Index a single document: load, chunk, score, embed and store it.

The source can be a local file path, an http(s) URL or an s3:// key.
The source type is detected from the path unless --type is given.

Examples:
  flowdex index docs/guide.md --tool my-tool
  flowdex index https://example.com/docs --tool my-tool
  flowdex index manual.pdf --tool my-tool --title "User Manual"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runIndex(cmd, args[0], toolID, sourceType, title, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&toolID, "tool", "t", "", "Tool ID to index into (required)")
	cmd.Flags().StringVar(&sourceType, "type", "", "Source type: pdf, url, text or markdown (default: detected)")
	cmd.Flags().StringVar(&title, "title", "", "Document title (default: derived from path)")
	_ = cmd.MarkFlagRequired("tool")

	return cmd
}

func runIndex(cmd *cobra.Command, source, toolID, sourceType, title string, outputJSON bool) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.Pipeline.IndexDocument(ctx, pipeline.IndexRequest{
		ToolID:     toolID,
		SourcePath: source,
		SourceType: domain.SourceType(sourceType),
		Title:      title,
	})

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
		return err
	}

	if err != nil {
		color.Red("✗ %s failed during %s", source, report.FailedStage)
		fmt.Fprintln(os.Stderr, report.Error)
		return err
	}

	printDocumentReport(report)
	return nil
}

func printDocumentReport(r *pipeline.DocumentReport) {
	color.Green("✓ %s indexed", r.SourcePath)
	fmt.Printf("  type:       %s\n", r.SourceType)
	fmt.Printf("  chunks:     %d\n", r.ChunkCount)
	fmt.Printf("  inserted:   %d\n", r.Persist.Inserted)
	if r.Persist.SkippedDuplicate > 0 {
		fmt.Printf("  duplicates: %d\n", r.Persist.SkippedDuplicate)
	}
	fmt.Printf("  took:       %s\n", r.Duration.Round(time.Millisecond))
}
