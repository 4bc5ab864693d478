package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/query"
	"github.com/hpungsan/threads/internal/thread"
)

// BulkSetStatusInput contains parameters for the BulkSetStatus operation.
type BulkSetStatusInput struct {
	Query  string // required, must contain at least one term
	Kind   string // optional, restricts rows to one kind
	Status string // open, closed or ignored
}

// BulkSetStatusOutput contains the result of the BulkSetStatus operation.
type BulkSetStatusOutput struct {
	Query   string   `json:"query"`
	Updated int      `json:"updated"`
	IDs     []string `json:"ids"`
	Message string   `json:"message"`
}

// BulkSetStatus applies a status to every active thread matching a query.
// An empty query is refused so a typo cannot close every thread. Threads
// already in the target status are left untouched. All changes commit in a
// single transaction.
func BulkSetStatus(ctx context.Context, database *sql.DB, input BulkSetStatusInput) (*BulkSetStatusOutput, error) {
	q := query.Parse(input.Query)
	if len(q) == 0 {
		return nil, errors.NewInvalidRequest("query must not be empty")
	}

	status, err := parseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var kind thread.Kind
	if strings.TrimSpace(input.Kind) != "" {
		k, ok := thread.ParseKind(input.Kind)
		if !ok {
			return nil, errors.NewInvalidRequest("kind must be one of: thread, check, codemod")
		}
		kind = k
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := db.ListAll(ctx, tx, kind, false)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	ids := []string{}
	for _, t := range rows {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("bulk status")
		}
		if t.Status == status || !t.MatchesQuery(q) {
			continue
		}
		if err := db.SetStatus(ctx, tx, t.ID, status, now); err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &BulkSetStatusOutput{
		Query:   q.String(),
		Updated: len(ids),
		IDs:     ids,
		Message: formatBulkStatusMessage(len(ids), status),
	}, nil
}

func formatBulkStatusMessage(count int, status thread.Status) string {
	if count == 0 {
		return "No matching threads to update"
	}
	word := "thread"
	if count > 1 {
		word = "threads"
	}
	return fmt.Sprintf("Marked %d %s as %s", count, word, status)
}
