package thread

import "strings"

// Kind is the kind of a thread. Checks and codemods are threads with a
// different kind and share storage and queries.
type Kind string

const (
	KindThread  Kind = "thread"
	KindCheck   Kind = "check"
	KindCodemod Kind = "codemod"
)

// Kinds lists all valid kinds in display order.
var Kinds = []Kind{KindThread, KindCheck, KindCodemod}

// ParseKind returns the Kind named by s (case-insensitive).
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Noun returns the noun for kind, e.g. "thread" or "checks".
func Noun(kind Kind, plural bool) string {
	n := strings.ToLower(string(kind))
	if plural {
		return n + "s"
	}
	return n
}

// Status is the state of a thread.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusIgnored Status = "ignored"
)

// Statuses lists all valid statuses in display order.
var Statuses = []Status{StatusOpen, StatusClosed, StatusIgnored}

// ParseStatus returns the Status named by s (case-insensitive).
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Thread is a discussion thread, check or codemod.
type Thread struct {
	// ID is a ULID that uniquely identifies this thread
	ID string `json:"id"`

	Kind  Kind   `json:"kind"`
	Title string `json:"title"`

	// Body is markdown
	Body string `json:"body"`

	Status Status `json:"status"`

	// Labels are normalized (lowercased, trimmed) and deduplicated
	Labels []string `json:"labels,omitempty"`

	// Author is an optional normalized author handle
	Author *string `json:"author,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	// ClosedAt is set while Status is closed
	ClosedAt *int64 `json:"closed_at,omitempty"`

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}
