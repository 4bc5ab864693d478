package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so every query can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectColumns = `
	SELECT id, kind, title, body, status, labels_json, author,
		created_at, updated_at, closed_at, deleted_at
	FROM threads
`

// Insert stores a new thread in the database.
func Insert(ctx context.Context, q Querier, t *thread.Thread) error {
	labelsJSON, err := toLabelsJSON(t.Labels)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO threads (
			id, kind, title, body, status, labels_json, author,
			created_at, updated_at, closed_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		t.ID, string(t.Kind), t.Title, t.Body, string(t.Status), labelsJSON,
		toNullString(t.Author), t.CreatedAt, t.UpdatedAt,
		toNullInt64(t.ClosedAt), toNullInt64(t.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewIDExists(t.ID)
		}
		return errors.NewInternal(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE or PRIMARY KEY violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// GetByID retrieves a thread by its ULID.
// If includeDeleted is false, soft-deleted threads are excluded.
func GetByID(ctx context.Context, q Querier, id string, includeDeleted bool) (*thread.Thread, error) {
	query := selectColumns + " WHERE id = ?"
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	t, err := scanThread(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return t, nil
}

// UpdateByID updates the editable fields of an existing thread: title, body,
// labels and author. Sets updated_at to the current timestamp.
func UpdateByID(ctx context.Context, q Querier, t *thread.Thread) error {
	labelsJSON, err := toLabelsJSON(t.Labels)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	query := `
		UPDATE threads
		SET title = ?, body = ?, labels_json = ?, author = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := q.ExecContext(ctx, query,
		t.Title, t.Body, labelsJSON, toNullString(t.Author), now, t.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := requireRow(result, t.ID); err != nil {
		return err
	}

	t.UpdatedAt = now
	return nil
}

// SetStatus changes the status of an active thread. closed_at is set when
// the new status is closed and cleared otherwise.
func SetStatus(ctx context.Context, q Querier, id string, status thread.Status, now int64) error {
	var closedAt sql.NullInt64
	if status == thread.StatusClosed {
		closedAt = sql.NullInt64{Int64: now, Valid: true}
	}

	query := `
		UPDATE threads
		SET status = ?, closed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := q.ExecContext(ctx, query, string(status), closedAt, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, id)
}

// SoftDelete marks a thread as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, q Querier, id string) error {
	query := `
		UPDATE threads
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := q.ExecContext(ctx, query, time.Now().Unix(), id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireRow(result, id)
}

// ListAll returns threads ordered by updated_at DESC, id DESC.
// An empty kind lists every kind.
func ListAll(ctx context.Context, q Querier, kind thread.Kind, includeDeleted bool) ([]*thread.Thread, error) {
	var (
		where []string
		args  []any
	)
	if kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(kind))
	}
	if !includeDeleted {
		where = append(where, "deleted_at IS NULL")
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id DESC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var threads []*thread.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return threads, nil
}

// StreamForExport returns rows for every thread in created_at order.
// The caller must close the rows and scan them with ScanThreadFromRows.
func StreamForExport(ctx context.Context, q Querier, includeDeleted bool) (*sql.Rows, error) {
	query := selectColumns
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// ScanThreadFromRows scans the current row of a StreamForExport result.
func ScanThreadFromRows(rows *sql.Rows) (*thread.Thread, error) {
	return scanThread(rows)
}

// PurgeDeleted permanently removes soft-deleted threads.
// If olderThanDays is set, only threads deleted before now-N days are removed.
func PurgeDeleted(ctx context.Context, q Querier, olderThanDays *int) (int, error) {
	query := "DELETE FROM threads WHERE deleted_at IS NOT NULL"
	var args []any
	if olderThanDays != nil {
		cutoff := time.Now().Add(-time.Duration(*olderThanDays) * 24 * time.Hour).Unix()
		query += " AND deleted_at < ?"
		args = append(args, cutoff)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

// Upsert inserts t or overwrites every column of the existing row with the
// same ID. Used by import in replace mode.
func Upsert(ctx context.Context, q Querier, t *thread.Thread) error {
	labelsJSON, err := toLabelsJSON(t.Labels)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO threads (
			id, kind, title, body, status, labels_json, author,
			created_at, updated_at, closed_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			body = excluded.body,
			status = excluded.status,
			labels_json = excluded.labels_json,
			author = excluded.author,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at,
			deleted_at = excluded.deleted_at
	`

	_, err = q.ExecContext(ctx, query,
		t.ID, string(t.Kind), t.Title, t.Body, string(t.Status), labelsJSON,
		toNullString(t.Author), t.CreatedAt, t.UpdatedAt,
		toNullInt64(t.ClosedAt), toNullInt64(t.DeletedAt),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Exists reports whether a row with id exists, deleted or not.
func Exists(ctx context.Context, q Querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM threads WHERE id = ? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

func requireRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanThread scans a single row into a Thread struct.
func scanThread(row rowScanner) (*thread.Thread, error) {
	var (
		t          thread.Thread
		kind       string
		status     string
		labelsJSON sql.NullString
		author     sql.NullString
		closedAt   sql.NullInt64
		deletedAt  sql.NullInt64
	)

	err := row.Scan(
		&t.ID, &kind, &t.Title, &t.Body, &status, &labelsJSON, &author,
		&t.CreatedAt, &t.UpdatedAt, &closedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Kind = thread.Kind(kind)
	t.Status = thread.Status(status)
	t.Author = fromNullString(author)
	if closedAt.Valid {
		t.ClosedAt = &closedAt.Int64
	}
	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.Int64
	}

	if labelsJSON.Valid && labelsJSON.String != "" {
		if err := json.Unmarshal([]byte(labelsJSON.String), &t.Labels); err != nil {
			return nil, err
		}
	}

	return &t, nil
}

func toLabelsJSON(labels []string) (sql.NullString, error) {
	if len(labels) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}
