package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/ops"
	"github.com/hpungsan/threads/internal/thread"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// runCLI runs the app with args and stdin, returning stdout.
func runCLI(t *testing.T, database *sql.DB, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(database, cfg, zap.NewNop())
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"threads"}, args...))
	return out.String(), err
}

// mustRunCLI runs the app and decodes its JSON output into v.
func mustRunCLI(t *testing.T, database *sql.DB, cfg *config.Config, v any, args ...string) {
	t.Helper()
	out, err := runCLI(t, database, cfg, "", args...)
	if err != nil {
		t.Fatalf("%v failed: %v", args, err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single", input: "perf", expected: []string{"perf"}},
		{name: "multiple", input: "perf,bug,ui", expected: []string{"perf", "bug", "ui"}},
		{name: "spaces", input: " perf , bug ", expected: []string{"perf", "bug"}},
		{name: "empty entries filtered", input: "perf,,bug,", expected: []string{"perf", "bug"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseList(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d entries, got %d", len(tt.expected), len(result))
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("expected [%d]=%q, got %q", i, tt.expected[i], v)
				}
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input       string
		expected    int
		expectError bool
	}{
		{input: "7d", expected: 7},
		{input: "0d", expected: 0},
		{input: "365d", expected: 365},
		{input: "-7d", expectError: true},
		{input: "7", expectError: true},
		{input: "7h", expectError: true},
		{input: "d", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := parseDuration(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestParseAssignment(t *testing.T) {
	field, value, err := parseAssignment("is=thread,closed")
	if err != nil || field != "is" || value != "thread,closed" {
		t.Errorf("parseAssignment = %q, %q, %v", field, value, err)
	}

	field, value, err = parseAssignment(" label =")
	if err != nil || field != "label" || value != "" {
		t.Errorf("parseAssignment with empty value = %q, %q, %v", field, value, err)
	}

	for _, bad := range []string{"is", "=open", ""} {
		if _, _, err := parseAssignment(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestReadLimited(t *testing.T) {
	got, err := readLimited(strings.NewReader("  small content \n"), 1000)
	if err != nil || got != "small content" {
		t.Errorf("readLimited = %q, %v", got, err)
	}

	if _, err := readLimited(strings.NewReader(strings.Repeat("x", 100)), 50); err == nil {
		t.Error("expected error for content exceeding limit")
	}
}

func TestCLICreateAndFetch(t *testing.T) {
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	out, err := runCLI(t, database, cfg, "## Steps\n\n1. run it", "create", "--kind=check", "--labels=ci,Flaky", "--stdin", "Nightly", "build")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var created ops.CreateOutput
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if created.ID == "" || created.Kind != thread.KindCheck || created.Status != thread.StatusOpen {
		t.Fatalf("unexpected create output: %+v", created)
	}

	var fetched ops.FetchOutput
	mustRunCLI(t, database, cfg, &fetched, "fetch", created.ID)
	if fetched.Title != "Nightly build" {
		t.Errorf("title = %q, want %q", fetched.Title, "Nightly build")
	}
	if fetched.Body != "## Steps\n\n1. run it" {
		t.Errorf("body = %q", fetched.Body)
	}
	if len(fetched.Labels) != 2 || fetched.Labels[0] != "ci" || fetched.Labels[1] != "flaky" {
		t.Errorf("labels = %v", fetched.Labels)
	}

	mustRunCLI(t, database, cfg, &fetched, "fetch", "--no-body", created.ID)
	if fetched.Body != "" || fetched.BodyChars == 0 {
		t.Errorf("--no-body output: body=%q body_chars=%d", fetched.Body, fetched.BodyChars)
	}
}

func TestCLICreate_BodyAndStdinConflict(t *testing.T) {
	database := setupTestDB(t)
	if _, err := runCLI(t, database, config.DefaultConfig(), "x", "create", "--body=a", "--stdin", "Title"); err == nil {
		t.Error("expected error when both --body and --stdin are given")
	}
}

func TestCLIUpdate(t *testing.T) {
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	var created ops.CreateOutput
	mustRunCLI(t, database, cfg, &created, "create", "--author=sqs", "--labels=a", "Old")

	var updated ops.UpdateOutput
	mustRunCLI(t, database, cfg, &updated, "update", "--title=New", "--labels=", "--author=", created.ID)

	var fetched ops.FetchOutput
	mustRunCLI(t, database, cfg, &fetched, "fetch", created.ID)
	if fetched.Title != "New" {
		t.Errorf("title = %q, want New", fetched.Title)
	}
	if len(fetched.Labels) != 0 {
		t.Errorf("labels = %v, want cleared", fetched.Labels)
	}
	if fetched.Author != nil {
		t.Errorf("author = %v, want cleared", *fetched.Author)
	}

	if _, err := runCLI(t, database, cfg, "", "update", created.ID); err == nil {
		t.Error("expected error for update without fields")
	}
}

func TestCLIStatusCommands(t *testing.T) {
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	var created ops.CreateOutput
	mustRunCLI(t, database, cfg, &created, "create", "Status")

	for _, tc := range []struct {
		cmd  string
		want thread.Status
	}{
		{"close", thread.StatusClosed},
		{"ignore", thread.StatusIgnored},
		{"reopen", thread.StatusOpen},
	} {
		var out ops.SetStatusOutput
		mustRunCLI(t, database, cfg, &out, tc.cmd, created.ID)
		if out.Status != tc.want || !out.Changed {
			t.Errorf("%s: output = %+v", tc.cmd, out)
		}
	}
}

func TestCLIList(t *testing.T) {
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	var open, closed ops.CreateOutput
	mustRunCLI(t, database, cfg, &open, "create", "--labels=perf", "Open one")
	mustRunCLI(t, database, cfg, &closed, "create", "Closed one")
	var s ops.SetStatusOutput
	mustRunCLI(t, database, cfg, &s, "close", closed.ID)

	tests := []struct {
		name      string
		args      []string
		wantQuery string
		wantIDs   []string
	}{
		{"default", []string{"list"}, "is:thread is:open", []string{open.ID}},
		{"closed", []string{"list", "-q", "is:closed"}, "is:closed", []string{closed.ID}},
		{"empty query", []string{"list", "--query="}, "", []string{closed.ID, open.ID}},
		{"label", []string{"list", "-q", "label:perf"}, "label:perf", []string{open.ID}},
		{"negated", []string{"list", "-q", "-label:perf"}, "-label:perf", []string{closed.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out ops.ListOutput
			mustRunCLI(t, database, cfg, &out, tt.args...)
			if out.Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", out.Query, tt.wantQuery)
			}
			if len(out.Items) != len(tt.wantIDs) {
				t.Fatalf("items = %d, want %d", len(out.Items), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if out.Items[i].ID != id {
					t.Errorf("items[%d] = %s, want %s", i, out.Items[i].ID, id)
				}
			}
		})
	}
}

func TestCLIBulkStatus(t *testing.T) {
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	var a, b ops.CreateOutput
	mustRunCLI(t, database, cfg, &a, "create", "--labels=stale", "A")
	mustRunCLI(t, database, cfg, &b, "create", "B")

	var out ops.BulkSetStatusOutput
	mustRunCLI(t, database, cfg, &out, "bulk-status", "-q", "label:stale", "-s", "closed")
	if out.Updated != 1 || len(out.IDs) != 1 || out.IDs[0] != a.ID {
		t.Errorf("unexpected output: %+v", out)
	}

	if _, err := runCLI(t, database, cfg, "", "bulk-status", "-s", "closed"); err == nil {
		t.Error("expected error without --query")
	}
}

func TestCLIDeleteAndPurge(t *testing.T) {
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	var created ops.CreateOutput
	mustRunCLI(t, database, cfg, &created, "create", "Doomed")

	var deleted ops.DeleteOutput
	mustRunCLI(t, database, cfg, &deleted, "delete", created.ID)

	if _, err := runCLI(t, database, cfg, "", "fetch", created.ID); err == nil {
		t.Error("expected error fetching deleted thread")
	}

	var purged ops.PurgeOutput
	mustRunCLI(t, database, cfg, &purged, "purge", "--older-than=7d")
	if purged.Purged != 0 {
		t.Errorf("purged = %d, want 0 for recent delete", purged.Purged)
	}
	mustRunCLI(t, database, cfg, &purged, "purge")
	if purged.Purged != 1 {
		t.Errorf("purged = %d, want 1", purged.Purged)
	}
}

func TestCLIExportImport(t *testing.T) {
	source := setupTestDB(t)
	target := setupTestDB(t)
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	var created ops.CreateOutput
	mustRunCLI(t, source, cfg, &created, "create", "--kind=codemod", "Rename API")
	mustRunCLI(t, source, cfg, &ops.CreateOutput{}, "create", "Unrelated")

	path := filepath.Join(dir, "codemods.jsonl")
	var exported ops.ExportOutput
	mustRunCLI(t, source, cfg, &exported, "export", "-p", path, "-q", "is:codemod")
	if exported.Count != 1 {
		t.Errorf("exported count = %d, want 1", exported.Count)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	var imported ops.ImportOutput
	mustRunCLI(t, target, cfg, &imported, "import", path)
	if imported.Imported != 1 {
		t.Errorf("imported = %d, want 1", imported.Imported)
	}

	var fetched ops.FetchOutput
	mustRunCLI(t, target, cfg, &fetched, "fetch", created.ID)
	if fetched.Kind != thread.KindCodemod {
		t.Errorf("kind = %s, want codemod", fetched.Kind)
	}
}

func TestCLIQuery(t *testing.T) {
	cfg := config.DefaultConfig()

	var parsed ops.ParseQueryOutput
	mustRunCLI(t, nil, cfg, &parsed, "query", "parse", "is:open  label:bug crash")
	if parsed.Query != "is:open label:bug crash" || len(parsed.Terms) != 3 {
		t.Errorf("parse output = %+v", parsed)
	}

	var with ops.QueryWithValuesOutput
	mustRunCLI(t, nil, cfg, &with, "query", "with", "is:thread is:open bug", "is=thread,closed")
	if with.Query != "bug is:thread is:closed" {
		t.Errorf("with output = %q", with.Query)
	}

	var match ops.QueryMatchesOutput
	mustRunCLI(t, nil, cfg, &match, "query", "match", "is:thread is:open", "is=open")
	if !match.Matches {
		t.Error("expected is:open to match")
	}
	mustRunCLI(t, nil, cfg, &match, "query", "match", "is:thread is:open", "is=closed")
	if match.Matches {
		t.Error("expected is:closed not to match")
	}

	if _, err := runCLI(t, nil, cfg, "", "query", "match", "is:open"); err == nil {
		t.Error("expected error without field=value")
	}
	if _, err := runCLI(t, nil, cfg, "", "query", "with", "is:open", "bogus"); err == nil {
		t.Error("expected error for malformed assignment")
	}
}

func TestCLIServe_InvalidPort(t *testing.T) {
	if _, err := runCLI(t, nil, config.DefaultConfig(), "", "serve", "--port=0"); err == nil {
		t.Error("expected error for port 0")
	}
}

func TestCLIErrorHandling(t *testing.T) {
	database := setupTestDB(t)
	cfg := config.DefaultConfig()

	for _, args := range [][]string{
		{"fetch", "nonexistent"},
		{"delete", "nonexistent"},
		{"close", "nonexistent"},
		{"create"},
		{"create", "--kind=issue", "Title"},
		{"purge", "--older-than=invalid"},
		{"import", "--mode=rename", "/tmp/x.jsonl"},
	} {
		if _, err := runCLI(t, database, cfg, "", args...); err == nil {
			t.Errorf("%v: expected error, got nil", args)
		}
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"threads"}, false},
		{"create command", []string{"threads", "create"}, true},
		{"list command", []string{"threads", "list"}, true},
		{"query command", []string{"threads", "query"}, true},
		{"serve command", []string{"threads", "serve"}, true},
		{"help flag", []string{"threads", "--help"}, true},
		{"version flag", []string{"threads", "--version"}, true},
		{"short help flag", []string{"threads", "-h"}, true},
		{"short version flag", []string{"threads", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"threads", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"threads"}, false},
		{"help flag", []string{"threads", "--help"}, true},
		{"short help flag", []string{"threads", "-h"}, true},
		{"version flag", []string{"threads", "--version"}, true},
		{"short version flag", []string{"threads", "-v"}, true},
		{"help subcommand", []string{"threads", "help"}, true},
		{"create command is not help", []string{"threads", "create"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}
