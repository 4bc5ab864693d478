package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/threads/internal/config"
	"github.com/hpungsan/threads/internal/db"
	"github.com/hpungsan/threads/internal/errors"
	"github.com/hpungsan/threads/internal/query"
	"github.com/hpungsan/threads/internal/thread"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	// Query is a threads query. nil means the default query for the kind
	// ("is:<kind> is:open"); an empty string matches everything.
	Query *string

	// Kind restricts the rows to one kind. Empty lists every kind.
	Kind string

	Limit          int // default: 20, max: 100
	Offset         int // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	// Query is the canonical form of the query that was applied.
	Query      string                `json:"query"`
	Kind       thread.Kind           `json:"kind"`
	Items      []thread.Summary      `json:"items"`
	Pagination Pagination            `json:"pagination"`
	Counts     map[thread.Status]int `json:"counts"`
	Links      []query.ResolvedLink  `json:"links"`
	Sort       string                `json:"sort"`
}

// List returns the threads matching a query, with per-status counts and the
// header links that swap the status in the active query.
func List(ctx context.Context, database *sql.DB, cfg *config.Config, input ListInput) (*ListOutput, error) {
	var rowKind thread.Kind
	if strings.TrimSpace(input.Kind) != "" {
		k, err := resolveKind(input.Kind, cfg)
		if err != nil {
			return nil, err
		}
		rowKind = k
	}

	linkKind := rowKind
	if linkKind == "" {
		linkKind, _ = resolveKind("", cfg)
	}

	raw := query.DefaultQuery(string(linkKind))
	if input.Query != nil {
		raw = *input.Query
	}
	q := query.Parse(raw)
	if rowKind == "" {
		if k, ok := kindInQuery(q); ok {
			linkKind = k
		}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	rows, err := db.ListAll(ctx, database, rowKind, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	matched, err := filterThreads(ctx, rows, q)
	if err != nil {
		return nil, err
	}

	counts, links, err := statusCounts(ctx, rows, q, linkKind)
	if err != nil {
		return nil, err
	}

	items := []thread.Summary{}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		for _, t := range matched[offset:end] {
			items = append(items, t.ToSummary())
		}
	}

	return &ListOutput{
		Query: q.String(),
		Kind:  linkKind,
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < len(matched),
			Total:   len(matched),
		},
		Counts: counts,
		Links:  query.ResolveLinks(raw, links),
		Sort:   "updated_at_desc",
	}, nil
}

// filterThreads keeps the threads matching q, preserving order.
func filterThreads(ctx context.Context, rows []*thread.Thread, q query.Query) ([]*thread.Thread, error) {
	var out []*thread.Thread
	for i, t := range rows {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, errors.NewCancelled("list")
		}
		if t.MatchesQuery(q) {
			out = append(out, t)
		}
	}
	return out, nil
}

// statusCounts counts, for every status, the threads matching q with its
// "is" terms replaced by the kind and that status, and builds the matching
// header links.
func statusCounts(ctx context.Context, rows []*thread.Thread, q query.Query, kind thread.Kind) (map[thread.Status]int, []query.Link, error) {
	counts := make(map[thread.Status]int, len(thread.Statuses))
	links := make([]query.Link, 0, len(thread.Statuses))
	for _, s := range thread.Statuses {
		values := []string{string(kind), string(s)}
		matched, err := filterThreads(ctx, rows, query.WithValuesQuery(q, query.Set("is", values...)))
		if err != nil {
			return nil, nil, err
		}
		counts[s] = len(matched)
		links = append(links, query.Link{
			Label:  string(s),
			Field:  "is",
			Values: values,
			Count:  len(matched),
		})
	}
	return counts, links, nil
}

// kindInQuery returns the first kind named by a non-negated "is" term.
func kindInQuery(q query.Query) (thread.Kind, bool) {
	for _, t := range q {
		if t.Negated || t.IsFreeText() || !strings.EqualFold(t.Field, "is") {
			continue
		}
		if k, ok := thread.ParseKind(t.Value); ok {
			return k, true
		}
	}
	return "", false
}
