package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/thread"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Kind   string // default: cfg.DefaultKind
	Title  string // required
	Body   string
	Labels []string
	Author *string
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID     string        `json:"id"`
	Kind   thread.Kind   `json:"kind"`
	Status thread.Status `json:"status"`
}

// Create stores a new open thread.
func Create(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateInput) (*CreateOutput, error) {
	kind, err := resolveKind(input.Kind, cfg)
	if err != nil {
		return nil, err
	}

	title, err := validateTitle(input.Title, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	t := &thread.Thread{
		ID:        newID(),
		Kind:      kind,
		Title:     title,
		Body:      input.Body,
		Status:    thread.StatusOpen,
		Labels:    thread.NormalizeLabels(input.Labels),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if author := cleanOptionalString(input.Author); author != nil {
		a := thread.NormalizeLabel(*author)
		t.Author = &a
	}

	if err := db.Insert(ctx, database, t); err != nil {
		return nil, err
	}

	return &CreateOutput{
		ID:     t.ID,
		Kind:   t.Kind,
		Status: t.Status,
	}, nil
}
