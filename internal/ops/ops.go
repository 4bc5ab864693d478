package ops

import (
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/thread"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// resolveKind parses kind, falling back to the configured default kind and
// then to "thread" when kind is empty.
func resolveKind(kind string, cfg *config.Config) (thread.Kind, error) {
	if strings.TrimSpace(kind) == "" {
		if cfg != nil {
			if k, ok := thread.ParseKind(cfg.DefaultKind); ok {
				return k, nil
			}
		}
		return thread.KindThread, nil
	}
	k, ok := thread.ParseKind(kind)
	if !ok {
		return "", errors.NewInvalidRequest("kind must be one of: thread, check, codemod")
	}
	return k, nil
}

// parseStatus parses a required status value.
func parseStatus(status string) (thread.Status, error) {
	s, ok := thread.ParseStatus(status)
	if !ok {
		return "", errors.NewInvalidRequest("status must be one of: open, closed, ignored")
	}
	return s, nil
}

// validateTitle cleans a title and enforces the configured size limit.
func validateTitle(title string, cfg *config.Config) (string, error) {
	title = thread.CleanTitle(title)
	if title == "" {
		return "", errors.NewInvalidRequest("title is required")
	}
	maxChars := config.DefaultConfig().TitleMaxChars
	if cfg != nil && cfg.TitleMaxChars > 0 {
		maxChars = cfg.TitleMaxChars
	}
	if n := thread.CountChars(title); n > maxChars {
		return "", errors.NewTitleTooLong(maxChars, n)
	}
	return title, nil
}

// cleanOptionalString trims s and returns nil when the result is empty.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// newID returns a new ULID. IDs from one process are strictly increasing,
// so ordering by id breaks updated_at ties in creation order.
func newID() string {
	return ulid.Make().String()
}
