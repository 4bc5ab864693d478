package query

import "strings"

// FieldValues is one entry of an Updates list.
type FieldValues struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// Updates is an ordered list of field replacements for WithValues. It is a
// slice rather than a map because the order of keys decides where the new
// terms are appended.
type Updates []FieldValues

// Set is shorthand for a single-entry Updates.
func Set(field string, values ...string) Updates {
	return Updates{{Field: field, Values: values}}
}

// And appends another field replacement.
func (u Updates) And(field string, values ...string) Updates {
	return append(u, FieldValues{Field: field, Values: values})
}

// WithValues parses currentRaw, replaces every term whose field is named in
// updates with the given values and returns the serialized result.
//
// Untouched terms keep their relative order. Replaced fields are appended
// after them in the order of updates, one non-negated term per value. Free
// text is never touched.
func WithValues(currentRaw string, updates Updates) string {
	return WithValuesQuery(Parse(currentRaw), updates).String()
}

// WithValuesQuery is WithValues on an already parsed Query. q is not
// modified.
func WithValuesQuery(q Query, updates Updates) Query {
	var keys []FieldValues
	for _, u := range updates {
		if validField(u.Field) {
			keys = append(keys, u)
		}
	}

	out := make(Query, 0, len(q))
	for _, t := range q {
		if !t.IsFreeText() && replaced(keys, t.Field) {
			continue
		}
		out = append(out, t)
	}

	for _, u := range keys {
		for _, v := range u.Values {
			if !validValue(v) {
				continue
			}
			out = append(out, Term{Field: u.Field, Value: v})
		}
	}
	return out
}

func replaced(keys []FieldValues, field string) bool {
	for _, u := range keys {
		if sameField(u.Field, field) {
			return true
		}
	}
	return false
}

// validField reports whether field can be written as a structured term that
// parses back to the same field.
func validField(field string) bool {
	if field == "" || strings.HasPrefix(field, "-") {
		return false
	}
	return !strings.Contains(field, ":") && !containsSpace(field)
}

// validValue reports whether value can be written as a single token.
func validValue(value string) bool {
	return value != "" && !containsSpace(value)
}

// containsSpace reports whether s would not survive strings.Fields as one
// token.
func containsSpace(s string) bool {
	f := strings.Fields(s)
	return len(f) != 1 || f[0] != s
}
