package thread

import (
	"strings"

	"github.com/hpungsan/threads/internal/query"
)

// Facets returns the values a thread carries for a query field. The "is"
// field covers both kind and status, so "is:check is:open" selects open
// checks. Unknown fields have no values.
func (t *Thread) Facets(field string) []string {
	switch strings.ToLower(field) {
	case "is":
		return []string{string(t.Kind), string(t.Status)}
	case "kind":
		return []string{string(t.Kind)}
	case "status":
		return []string{string(t.Status)}
	case "label":
		return t.Labels
	case "author":
		if t.Author == nil {
			return nil
		}
		return []string{*t.Author}
	case "id":
		return []string{t.ID}
	default:
		return nil
	}
}

// MatchesQuery reports whether t satisfies q. Positive terms that share a
// facet dimension are alternatives: "label:a label:b" accepts either label.
// Different dimensions must all hold, and "is" splits into a kind dimension
// and a status dimension, so "is:check is:open" selects open checks. A
// negated term excludes any thread carrying that facet. Values compare
// case-insensitively, and free-text terms must all appear in the title or
// body.
func (t *Thread) MatchesQuery(q query.Query) bool {
	var haystack string
	// dimension -> whether any of its positive terms held
	dims := make(map[string]bool)
	for _, term := range q {
		if term.IsFreeText() {
			if haystack == "" {
				haystack = strings.ToLower(t.Title + "\n" + t.Body)
			}
			if !strings.Contains(haystack, strings.ToLower(term.Value)) {
				return false
			}
			continue
		}
		has := t.hasFacet(term.Field, term.Value)
		if term.Negated {
			if has {
				return false
			}
			continue
		}
		dim := facetDimension(term.Field, term.Value)
		dims[dim] = dims[dim] || has
	}
	for _, ok := range dims {
		if !ok {
			return false
		}
	}
	return true
}

// facetDimension names the group a positive term belongs to. Terms in the
// same group are ORed together.
func facetDimension(field, value string) string {
	field = strings.ToLower(field)
	if field == "is" {
		if _, ok := ParseKind(value); ok {
			return "kind"
		}
		if _, ok := ParseStatus(value); ok {
			return "status"
		}
		return "is:" + strings.ToLower(value)
	}
	return field
}

func (t *Thread) hasFacet(field, value string) bool {
	for _, v := range t.Facets(field) {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
