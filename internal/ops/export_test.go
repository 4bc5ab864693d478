package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/query"
	"github.com/hpungsan/threads/internal/thread"
)

// exportConfig returns a config that allows import/export in dir.
func exportConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	return cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestExport_HappyPath(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	dir := t.TempDir()
	cfg := exportConfig(dir)

	a := mustCreate(t, database, "thread", "First <b>", "perf")
	b := mustCreate(t, database, "check", "Second")

	path := filepath.Join(dir, "backup.jsonl")
	out, err := Export(ctx, database, cfg, ExportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, path, out.Path)
	assert.Equal(t, 2, out.Count)
	assert.NotZero(t, out.ExportedAt)

	lines := readLines(t, path)
	require.Len(t, lines, 3)

	var header ExportHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	assert.True(t, header.ThreadsExport)
	assert.Equal(t, ExportSchemaVersion, header.SchemaVersion)
	assert.Equal(t, out.ExportedAt, header.ExportedAt)

	var first, second thread.ExportRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &second))
	assert.Equal(t, a, first.ID)
	assert.Equal(t, "First <b>", first.Title)
	assert.Equal(t, []string{"perf"}, first.Labels)
	assert.Equal(t, b, second.ID)
	assert.Equal(t, "check", second.Kind)

	// HTML is not escaped in the file
	assert.Contains(t, lines[1], "<b>")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExport_QueryFilter(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	dir := t.TempDir()

	mustCreate(t, database, "thread", "A")
	check := mustCreate(t, database, "check", "B")

	path := filepath.Join(dir, "checks.jsonl")
	out, err := Export(ctx, database, exportConfig(dir), ExportInput{Path: path, Query: "is:check"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], check)
}

func TestExport_IncludeDeleted(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	dir := t.TempDir()
	cfg := exportConfig(dir)

	id := mustCreate(t, database, "", "Deleted")
	mustCreate(t, database, "", "Kept")
	_, err := Delete(ctx, database, DeleteInput{ID: id})
	require.NoError(t, err)

	out, err := Export(ctx, database, cfg, ExportInput{Path: filepath.Join(dir, "a.jsonl")})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	out, err = Export(ctx, database, cfg, ExportInput{Path: filepath.Join(dir, "b.jsonl"), IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
}

func TestExport_ReplacesPreviousExport(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	dir := t.TempDir()
	path := writeImportFile(t, dir, "backup.jsonl", importHeader, `{"id":"01OLD","title":"Old"}`)

	mustCreate(t, database, "", "New")
	_, err := Export(ctx, database, exportConfig(dir), ExportInput{Path: path})
	require.NoError(t, err)

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[1], "01OLD")
}

func TestExport_RefusesToOverwriteForeignFile(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	dir := t.TempDir()
	path := writeImportFile(t, dir, "notes.jsonl", "old")

	mustCreate(t, database, "", "New")
	_, err := Export(ctx, database, exportConfig(dir), ExportInput{Path: path})
	assert.True(t, errors.Is(err, errors.ErrConflict), "got %v", err)

	// The file is left untouched
	assert.Equal(t, []string{"old"}, readLines(t, path))
}

func TestExport_PathValidation(t *testing.T) {
	database := openTestDB(t)
	dir := t.TempDir()
	cfg := exportConfig(dir)

	tests := []string{
		filepath.Join(dir, "backup.json"),
		filepath.Join(dir, "..", "backup.jsonl"),
		filepath.Join(dir, "nested", "backup.jsonl"),
		filepath.Join(t.TempDir(), "outside.jsonl"),
	}
	for _, path := range tests {
		_, err := Export(context.Background(), database, cfg, ExportInput{Path: path})
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "path %s: %v", path, err)
	}
}

func TestExport_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	database := openTestDB(t)
	mustCreate(t, database, "check", "A")

	out, err := Export(context.Background(), database, config.DefaultConfig(), ExportInput{Query: "is:check is:open"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, config.DirName, "exports"), filepath.Dir(out.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(out.Path), "checks-"), out.Path)
	assert.Equal(t, 1, out.Count)
}

func TestDefaultExportPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	got, err := defaultExportPath(query.Parse("label:x"), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, config.DirName, "exports", "all-2024-03-01T123045.jsonl"), got)

	got, err = defaultExportPath(query.Parse("is:codemod"), now)
	require.NoError(t, err)
	assert.Equal(t, "codemods-2024-03-01T123045.jsonl", filepath.Base(got))
}
