package thread

// Summary is a thread's metadata without the body.
// Used for list surfaces to reduce data transfer.
type Summary struct {
	ID        string   `json:"id"`
	Kind      Kind     `json:"kind"`
	Title     string   `json:"title"`
	Status    Status   `json:"status"`
	Labels    []string `json:"labels,omitempty"`
	Author    *string  `json:"author,omitempty"`
	BodyChars int      `json:"body_chars"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
	ClosedAt  *int64   `json:"closed_at,omitempty"`
	DeletedAt *int64   `json:"deleted_at,omitempty"`
}

// ToSummary converts a Thread to a Summary by stripping the body.
func (t *Thread) ToSummary() Summary {
	return Summary{
		ID:        t.ID,
		Kind:      t.Kind,
		Title:     t.Title,
		Status:    t.Status,
		Labels:    t.Labels,
		Author:    t.Author,
		BodyChars: CountChars(t.Body),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		ClosedAt:  t.ClosedAt,
		DeletedAt: t.DeletedAt,
	}
}
