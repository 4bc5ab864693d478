// Package query implements the threads query mini-language: whitespace
// separated terms of the form "field:value", "-field:value" (negated) or
// bare free text, as used in the "q" URL parameter of thread lists.
//
// Queries are immutable values. Every operation returns a new Query or
// string and none of them can fail.
package query

import "strings"

// Term is a single unit of a Query.
type Term struct {
	// Field is the term's field name. Empty for free-text terms.
	Field string `json:"field"`

	// Value is the term's value, or the raw token for free-text terms.
	Value string `json:"value"`

	// Negated is true for "-field:value" terms. Always false for free text.
	Negated bool `json:"negated"`
}

// IsFreeText reports whether the term is a free-text term.
func (t Term) IsFreeText() bool {
	return t.Field == ""
}

// String renders the term in token form.
func (t Term) String() string {
	if t.IsFreeText() {
		return t.Value
	}
	if t.Negated {
		return "-" + t.Field + ":" + t.Value
	}
	return t.Field + ":" + t.Value
}

// Query is an ordered sequence of terms.
type Query []Term

// Parse parses raw into a Query. Tokens that are not of the form
// "[-]field:value" are kept as free-text terms, so Parse never fails.
func Parse(raw string) Query {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return Query{}
	}

	q := make(Query, 0, len(tokens))
	for _, tok := range tokens {
		q = append(q, parseToken(tok))
	}
	return q
}

// parseToken converts a single non-empty, space-free token into a Term.
func parseToken(tok string) Term {
	if rest, ok := strings.CutPrefix(tok, "-"); ok {
		if field, value, ok := splitFieldValue(rest); ok {
			return Term{Field: field, Value: value, Negated: true}
		}
	}
	if field, value, ok := splitFieldValue(tok); ok {
		return Term{Field: field, Value: value}
	}
	return Term{Value: tok}
}

// splitFieldValue splits "field:value" at the first colon. Both sides must be
// non-empty.
func splitFieldValue(tok string) (field, value string, ok bool) {
	field, value, found := strings.Cut(tok, ":")
	if !found || field == "" || value == "" {
		return "", "", false
	}
	return field, value, true
}

// String serializes q: each term in token form, joined by single spaces.
func (q Query) String() string {
	if len(q) == 0 {
		return ""
	}
	var b strings.Builder
	for i, t := range q {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// Serialize is the function form of Query.String.
func Serialize(q Query) string {
	return q.String()
}

// Values returns the non-negated values given for field, in query order.
func (q Query) Values(field string) []string {
	var values []string
	for _, t := range q {
		if !t.Negated && !t.IsFreeText() && sameField(t.Field, field) {
			values = append(values, t.Value)
		}
	}
	return values
}

// FreeText returns the free-text tokens of q, in query order.
func (q Query) FreeText() []string {
	var text []string
	for _, t := range q {
		if t.IsFreeText() {
			text = append(text, t.Value)
		}
	}
	return text
}

// Fields returns the distinct structured field names of q in first-seen
// order, lowercased.
func (q Query) Fields() []string {
	seen := make(map[string]bool)
	var fields []string
	for _, t := range q {
		if t.IsFreeText() {
			continue
		}
		f := strings.ToLower(t.Field)
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	return fields
}

// sameField compares field names case-insensitively. The empty field only
// equals itself.
func sameField(a, b string) bool {
	return strings.EqualFold(a, b)
}
