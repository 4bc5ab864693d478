package ops

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

func stringPtr(s string) *string {
	return &s
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// mustCreate creates a thread and returns its ID.
func mustCreate(t *testing.T, database *sql.DB, kind, title string, labels ...string) string {
	t.Helper()
	out, err := Create(context.Background(), database, config.DefaultConfig(), CreateInput{
		Kind:   kind,
		Title:  title,
		Labels: labels,
	})
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", title, err)
	}
	return out.ID
}

// mustSetStatus sets a thread's status.
func mustSetStatus(t *testing.T, database *sql.DB, id string, status thread.Status) {
	t.Helper()
	if _, err := SetStatus(context.Background(), database, SetStatusInput{ID: id, Status: string(status)}); err != nil {
		t.Fatalf("SetStatus(%s, %s) failed: %v", id, status, err)
	}
}

func TestResolveKind(t *testing.T) {
	cfg := config.DefaultConfig()

	k, err := resolveKind("", cfg)
	if err != nil || k != thread.KindThread {
		t.Errorf("resolveKind(\"\") = %q, %v; want thread", k, err)
	}

	cfg.DefaultKind = "codemod"
	k, err = resolveKind("  ", cfg)
	if err != nil || k != thread.KindCodemod {
		t.Errorf("resolveKind with default codemod = %q, %v", k, err)
	}

	k, err = resolveKind("Check", cfg)
	if err != nil || k != thread.KindCheck {
		t.Errorf("resolveKind(Check) = %q, %v", k, err)
	}

	if _, err := resolveKind("issue", cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("resolveKind(issue) error = %v, want INVALID_REQUEST", err)
	}

	k, err = resolveKind("", nil)
	if err != nil || k != thread.KindThread {
		t.Errorf("resolveKind with nil config = %q, %v", k, err)
	}
}

func TestValidateTitle(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TitleMaxChars = 10

	got, err := validateTitle("  Fix   bug ", cfg)
	if err != nil {
		t.Fatalf("validateTitle failed: %v", err)
	}
	if got != "Fix bug" {
		t.Errorf("validateTitle = %q, want %q", got, "Fix bug")
	}

	if _, err := validateTitle("   ", cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty title error = %v, want INVALID_REQUEST", err)
	}

	_, err = validateTitle(strings.Repeat("é", 11), cfg)
	if !errors.Is(err, errors.ErrTitleTooLong) {
		t.Fatalf("long title error = %v, want TITLE_TOO_LONG", err)
	}
	tErr, _ := errors.As(err)
	if tErr.Details["actual_chars"] != 11 {
		t.Errorf("actual_chars = %v, want 11 (runes, not bytes)", tErr.Details["actual_chars"])
	}
}

func TestCleanOptionalString(t *testing.T) {
	if cleanOptionalString(nil) != nil {
		t.Error("nil should stay nil")
	}
	if cleanOptionalString(stringPtr("  ")) != nil {
		t.Error("blank should become nil")
	}
	if got := cleanOptionalString(stringPtr(" x ")); got == nil || *got != "x" {
		t.Errorf("cleanOptionalString = %v, want x", got)
	}
}

func TestNewID(t *testing.T) {
	a := newID()
	b := newID()
	if len(a) != 26 {
		t.Errorf("ULID length = %d, want 26", len(a))
	}
	if a >= b {
		t.Errorf("IDs should increase: %s then %s", a, b)
	}
}
