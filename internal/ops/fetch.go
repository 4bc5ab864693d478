package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
	IncludeBody    *bool // default: true (nil means default)
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	thread.Thread     // embedded (copy, not pointer)
	BodyChars     int `json:"body_chars"`
}

// Fetch retrieves a thread by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	t, err := db.GetByID(ctx, database, id, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{
		Thread:    *t,
		BodyChars: thread.CountChars(t.Body),
	}

	if input.IncludeBody != nil && !*input.IncludeBody {
		output.Body = ""
	}

	return output, nil
}
