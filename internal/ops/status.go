package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

// SetStatusInput contains parameters for the SetStatus operation.
type SetStatusInput struct {
	ID     string
	Status string // open, closed or ignored
}

// SetStatusOutput contains the result of the SetStatus operation.
type SetStatusOutput struct {
	ID       string        `json:"id"`
	Status   thread.Status `json:"status"`
	Previous thread.Status `json:"previous"`
	Changed  bool          `json:"changed"`
	ClosedAt *int64        `json:"closed_at,omitempty"`
}

// SetStatus moves a thread to a new status. Setting the current status again
// is a no-op and leaves updated_at alone.
func SetStatus(ctx context.Context, database *sql.DB, input SetStatusInput) (*SetStatusOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	status, err := parseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	t, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}

	output := &SetStatusOutput{
		ID:       t.ID,
		Status:   status,
		Previous: t.Status,
		ClosedAt: t.ClosedAt,
	}
	if t.Status == status {
		return output, nil
	}

	now := time.Now().Unix()
	if err := db.SetStatus(ctx, database, t.ID, status, now); err != nil {
		return nil, err
	}

	output.Changed = true
	output.ClosedAt = nil
	if status == thread.StatusClosed {
		output.ClosedAt = &now
	}
	return output, nil
}
