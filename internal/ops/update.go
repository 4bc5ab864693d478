package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string

	// Editable fields (nil = don't change)
	Title  *string
	Body   *string
	Labels *[]string

	// Author set to an empty string clears the author.
	Author *string
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updated_at"`
}

// Update modifies the editable fields of an existing thread.
func Update(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if input.Title == nil && input.Body == nil && input.Labels == nil && input.Author == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	t, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := validateTitle(*input.Title, cfg)
		if err != nil {
			return nil, err
		}
		t.Title = title
	}

	if input.Body != nil {
		t.Body = *input.Body
	}

	if input.Labels != nil {
		t.Labels = thread.NormalizeLabels(*input.Labels)
	}

	if input.Author != nil {
		t.Author = nil
		if a := thread.NormalizeLabel(*input.Author); a != "" {
			t.Author = &a
		}
	}

	if err := db.UpdateByID(ctx, database, t); err != nil {
		return nil, err
	}

	return &UpdateOutput{
		ID:        t.ID,
		UpdatedAt: t.UpdatedAt,
	}, nil
}
