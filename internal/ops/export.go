package ops

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/query"
	"github.com/hpungsan/threads/internal/thread"
)

// ExportSchemaVersion is written to the header line of every export file.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path           string // optional, default: ~/.threads/exports/<name>-<timestamp>.jsonl
	Query          string // optional, only threads matching the query are exported
	IncludeDeleted bool
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader represents the header line in a JSONL export file.
type ExportHeader struct {
	ThreadsExport bool   `json:"_threads_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes threads to a JSONL file: one header line, then one thread per
// line in creation order. The file is replaced atomically, so a failed export
// leaves any previous file intact.
func Export(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	now := time.Now()
	exportedAt := now.Unix()
	q := query.Parse(input.Query)

	exportPath, err := input.resolvePath(cfg, q, now)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	header := ExportHeader{
		ThreadsExport: true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    exportedAt,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	rows, err := db.StreamForExport(ctx, database, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}

		t, err := db.ScanThreadFromRows(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if !t.MatchesQuery(q) {
			continue
		}

		if err := enc.Encode(thread.ToExportRecord(t)); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := atomic.WriteFile(exportPath, &buf); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to write export file: %w", err))
	}
	// atomic.WriteFile keeps the mode of a replaced file but not of a new one
	_ = os.Chmod(exportPath, 0600)

	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: exportedAt,
	}, nil
}
