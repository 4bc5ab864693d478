package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the existing thread on collision
)

// maxImportLine bounds a single JSONL line; bodies are markdown and may be long.
const maxImportLine = 16 * 1024 * 1024

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents an error that occurred during import.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// parsedRecord is a record with the line it came from.
type parsedRecord struct {
	line   int
	thread *thread.Thread
}

// Import reads threads from a JSONL export file. All writes happen in one
// transaction; in error mode any parse error or ID collision imports nothing.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace && input.Mode != ImportModeSkip {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}

	path, err := input.resolvePath(cfg)
	if err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)

	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		return &ImportOutput{Errors: parseErrors}, nil
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := &ImportOutput{
		Skipped: len(parseErrors),
		Errors:  append([]ImportError{}, parseErrors...),
	}

	for _, r := range records {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("import")
		}

		t := r.thread
		if input.Mode == ImportModeReplace {
			if err := db.Upsert(ctx, tx, t); err != nil {
				return nil, err
			}
			out.Imported++
			continue
		}

		exists, err := db.Exists(ctx, tx, t.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			if input.Mode == ImportModeSkip {
				out.Skipped++
				continue
			}
			// Error mode aborts the whole import
			return &ImportOutput{
				Errors: []ImportError{{
					Line:    r.line,
					ID:      t.ID,
					Code:    string(errors.ErrIDExists),
					Message: fmt.Sprintf("thread with id %q already exists", t.ID),
				}},
			}, nil
		}

		if err := db.Insert(ctx, tx, t); err != nil {
			return nil, err
		}
		out.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return out, nil
}

// parseExportFile parses a JSONL export file into threads. The header line
// and blank lines are skipped.
func parseExportFile(r io.Reader) ([]parsedRecord, []ImportError) {
	var records []parsedRecord
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var record thread.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if record.ThreadsExport {
			continue
		}

		if strings.TrimSpace(record.ID) == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}

		t := record.ToThread()
		if t.Title == "" {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				ID:      record.ID,
				Code:    "INVALID_RECORD",
				Message: "missing title field",
			})
			continue
		}

		records = append(records, parsedRecord{line: lineNum, thread: t})
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}
