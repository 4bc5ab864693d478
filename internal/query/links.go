package query

import "net/url"

// QueryParam is the URL parameter that holds a threads query.
const QueryParam = "q"

// Link is a list header link that narrows the list to the given values of
// one field, such as "4 open" or "3 closed".
type Link struct {
	Label  string   `json:"label"`
	Field  string   `json:"field"`
	Values []string `json:"values"`
	Count  int      `json:"count"`
}

// ResolvedLink is a Link evaluated against the active query.
type ResolvedLink struct {
	Link

	// Query is the query the link navigates to.
	Query string `json:"query"`

	// Active is true when every link value already matches the active query.
	Active bool `json:"active"`
}

// ResolveLinks evaluates links against the active query.
func ResolveLinks(active string, links []Link) []ResolvedLink {
	q := Parse(active)
	out := make([]ResolvedLink, 0, len(links))
	for _, l := range links {
		out = append(out, ResolvedLink{
			Link:   l,
			Query:  WithValuesQuery(q, Set(l.Field, l.Values...)).String(),
			Active: allMatch(q, l.Field, l.Values),
		})
	}
	return out
}

func allMatch(q Query, field string, values []string) bool {
	for _, v := range values {
		if !Matches(q, Predicate{field: v}) {
			return false
		}
	}
	return true
}

// URLForQuery returns rawQuery (an encoded URL query string, without the
// leading "?") with the q parameter set to query. Other parameters are kept.
// An unparseable rawQuery is replaced rather than reported.
func URLForQuery(rawQuery, query string) string {
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		params = url.Values{}
	}
	params.Set(QueryParam, query)
	return params.Encode()
}

// FromURL returns the q parameter of an encoded URL query string and whether
// it was present.
func FromURL(rawQuery string) (string, bool) {
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", false
	}
	if _, ok := params[QueryParam]; !ok {
		return "", false
	}
	return params.Get(QueryParam), true
}

// DefaultQuery is the query a thread list starts with when the URL carries
// none: open items of the given kind.
func DefaultQuery(kind string) string {
	return WithValues("", Set("is", kind, "open"))
}
