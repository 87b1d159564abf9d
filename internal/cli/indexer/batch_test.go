package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowgenius/flowdex/internal/domain"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest_JSON(t *testing.T) {
	path := writeManifest(t, "docs.json", `[
		{"tool_id":"tool-1","source_path":"a.md"},
		{"tool_id":"tool-2","source_path":"https://example.com/docs","source_type":"url","title":"Docs"}
	]`)

	reqs, err := loadManifest(path, "")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "tool-1", reqs[0].ToolID)
	assert.Equal(t, "a.md", reqs[0].SourcePath)
	assert.Equal(t, domain.SourceTypeURL, reqs[1].SourceType)
	assert.Equal(t, "Docs", reqs[1].Title)
}

func TestLoadManifest_JSONDefaultTool(t *testing.T) {
	path := writeManifest(t, "docs.json", `[{"source_path":"a.md"}]`)

	reqs, err := loadManifest(path, "fallback-tool")
	require.NoError(t, err)
	assert.Equal(t, "fallback-tool", reqs[0].ToolID)
}

func TestLoadManifest_JSONMissingTool(t *testing.T) {
	path := writeManifest(t, "docs.json", `[{"source_path":"a.md"}]`)

	_, err := loadManifest(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool_id")
}

func TestLoadManifest_JSONMissingSourcePath(t *testing.T) {
	path := writeManifest(t, "docs.json", `[{"tool_id":"tool-1"}]`)

	_, err := loadManifest(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_path")
}

func TestLoadManifest_CSV(t *testing.T) {
	path := writeManifest(t, "docs.csv", "tool_id,source_path,source_type,title\ntool-1,a.md,markdown,Guide\n,b.txt,,\n")

	reqs, err := loadManifest(path, "fallback-tool")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "tool-1", reqs[0].ToolID)
	assert.Equal(t, domain.SourceTypeMarkdown, reqs[0].SourceType)
	assert.Equal(t, "Guide", reqs[0].Title)
	assert.Equal(t, "fallback-tool", reqs[1].ToolID)
	assert.Equal(t, "b.txt", reqs[1].SourcePath)
}

func TestLoadManifest_CSVMissingColumn(t *testing.T) {
	path := writeManifest(t, "docs.csv", "tool_id,title\ntool-1,Guide\n")

	_, err := loadManifest(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source_path")
}

func TestLoadManifest_Empty(t *testing.T) {
	path := writeManifest(t, "docs.json", `[]`)

	_, err := loadManifest(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documents")
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "nope.json"), "")
	require.Error(t, err)
}

func TestLoadManifest_InvalidJSON(t *testing.T) {
	path := writeManifest(t, "docs.json", `{not valid`)

	_, err := loadManifest(path, "")
	require.Error(t, err)
}
