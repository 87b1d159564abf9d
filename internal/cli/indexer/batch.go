package indexer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/flowgenius/flowdex/internal/domain"
	"github.com/flowgenius/flowdex/internal/pipeline"
)

const maxManifestDocuments = 1000

// manifestEntry is one document line in a batch manifest.
type manifestEntry struct {
	ToolID     string `json:"tool_id"`
	SourcePath string `json:"source_path"`
	SourceType string `json:"source_type,omitempty"`
	Title      string `json:"title,omitempty"`
}

// BatchCmd creates the batch command.
func BatchCmd() *cobra.Command {
	var (
		toolID      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <manifest>",
		Short: "Index a batch of documents from a manifest file",
		Long: `Index many documents listed in a JSON or CSV manifest.

A JSON manifest is an array of objects with tool_id, source_path and
optional source_type and title. A CSV manifest has a header row with the
same column names. The --tool flag fills in tool_id for entries that omit
it. Each document is processed independently; one failure does not stop
the rest.

Examples:
  flowdex batch docs.json
  flowdex batch sources.csv --tool my-tool --concurrency 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runBatch(cmd, args[0], toolID, concurrency, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&toolID, "tool", "t", "", "Default tool ID for entries without one")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "Documents processed in parallel")

	return cmd
}

func runBatch(cmd *cobra.Command, manifestPath, defaultToolID string, concurrency int, outputJSON bool) error {
	ctx := cmd.Context()

	reqs, err := loadManifest(manifestPath, defaultToolID)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	var bar *progressbar.ProgressBar
	if !outputJSON {
		bar = newBatchProgressBar(len(reqs))
	}

	var mu sync.Mutex
	report := rt.Pipeline.IndexBatchProgress(ctx, reqs, concurrency, func(r *pipeline.DocumentReport) {
		if bar == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		_ = bar.Add(1)
	})

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_ = bar.Finish()
	fmt.Println()
	printBatchReport(report)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", report.Failed, len(reqs))
	}
	return nil
}

func newBatchProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString("indexing")),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
}

func printBatchReport(report *pipeline.BatchReport) {
	color.Green("✓ %d indexed", report.Succeeded)
	if report.Failed > 0 {
		color.Red("✗ %d failed", report.Failed)
	}

	var inserted, duplicates int
	for _, doc := range report.Documents {
		if doc == nil {
			continue
		}
		inserted += doc.Persist.Inserted
		duplicates += doc.Persist.SkippedDuplicate
		if doc.FailedStage != "" {
			fmt.Printf("  %s %s: %s\n", color.RedString("-"), doc.SourcePath, doc.Error)
		}
	}
	fmt.Printf("  chunks inserted: %d, duplicates skipped: %d\n", inserted, duplicates)
}

// loadManifest reads a JSON or CSV manifest into index requests. The format
// is chosen by file extension, defaulting to JSON.
func loadManifest(path, defaultToolID string) ([]pipeline.IndexRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var entries []manifestEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		entries, err = parseCSVManifest(f)
	default:
		entries, err = parseJSONManifest(f)
	}
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest %s contains no documents", path)
	}
	if len(entries) > maxManifestDocuments {
		return nil, fmt.Errorf("manifest exceeds %d documents", maxManifestDocuments)
	}

	reqs := make([]pipeline.IndexRequest, 0, len(entries))
	for i, e := range entries {
		if e.ToolID == "" {
			e.ToolID = defaultToolID
		}
		if e.ToolID == "" {
			return nil, fmt.Errorf("manifest entry %d has no tool_id and no --tool default was given", i)
		}
		if e.SourcePath == "" {
			return nil, fmt.Errorf("manifest entry %d has no source_path", i)
		}
		reqs = append(reqs, pipeline.IndexRequest{
			ToolID:     e.ToolID,
			SourcePath: e.SourcePath,
			SourceType: domain.SourceType(e.SourceType),
			Title:      e.Title,
		})
	}
	return reqs, nil
}

func parseJSONManifest(r io.Reader) ([]manifestEntry, error) {
	var entries []manifestEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse JSON manifest: %w", err)
	}
	return entries, nil
}

func parseCSVManifest(r io.Reader) ([]manifestEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV manifest: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["source_path"]; !ok {
		return nil, fmt.Errorf("CSV manifest is missing a source_path column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	entries := make([]manifestEntry, 0, len(records)-1)
	for _, row := range records[1:] {
		entries = append(entries, manifestEntry{
			ToolID:     field(row, "tool_id"),
			SourcePath: field(row, "source_path"),
			SourceType: field(row, "source_type"),
			Title:      field(row, "title"),
		})
	}
	return entries, nil
}
