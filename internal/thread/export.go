package thread

// ExportRecord represents a thread record in JSONL export format.
// It is used for parsing export files during import.
type ExportRecord struct {
	// Header detection field - true only for header line
	ThreadsExport bool `json:"_threads_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Status    string   `json:"status"`
	Labels    []string `json:"labels"`
	Author    *string  `json:"author"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
	ClosedAt  *int64   `json:"closed_at"`
	DeletedAt *int64   `json:"deleted_at"`
}

// ToThread converts an ExportRecord to a Thread, normalizing kind, status
// and labels. Unknown kinds and statuses fall back to thread/open.
func (r *ExportRecord) ToThread() *Thread {
	kind, ok := ParseKind(r.Kind)
	if !ok {
		kind = KindThread
	}
	status, ok := ParseStatus(r.Status)
	if !ok {
		status = StatusOpen
	}

	t := &Thread{
		ID:        r.ID,
		Kind:      kind,
		Title:     CleanTitle(r.Title),
		Body:      r.Body,
		Status:    status,
		Labels:    NormalizeLabels(r.Labels),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		DeletedAt: r.DeletedAt,
	}
	if r.Author != nil {
		if a := NormalizeLabel(*r.Author); a != "" {
			t.Author = &a
		}
	}
	if status == StatusClosed {
		t.ClosedAt = r.ClosedAt
		if t.ClosedAt == nil {
			closed := r.UpdatedAt
			t.ClosedAt = &closed
		}
	}
	return t
}

// ToExportRecord converts a Thread to an ExportRecord for export.
func ToExportRecord(t *Thread) *ExportRecord {
	return &ExportRecord{
		ID:        t.ID,
		Kind:      string(t.Kind),
		Title:     t.Title,
		Body:      t.Body,
		Status:    string(t.Status),
		Labels:    t.Labels,
		Author:    t.Author,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		ClosedAt:  t.ClosedAt,
		DeletedAt: t.DeletedAt,
	}
}
