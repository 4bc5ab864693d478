package ops

import (
	"github.com/hpungsan/threads/internal/query"
)

// ParseQueryInput contains parameters for the ParseQuery operation.
type ParseQueryInput struct {
	Query string
}

// ParseQueryOutput contains the result of the ParseQuery operation.
type ParseQueryOutput struct {
	// Query is the canonical serialization of the parsed terms.
	Query    string      `json:"query"`
	Terms    query.Query `json:"terms"`
	Fields   []string    `json:"fields"`
	FreeText []string    `json:"free_text"`
}

// ParseQuery splits a threads query into terms.
func ParseQuery(input ParseQueryInput) *ParseQueryOutput {
	q := query.Parse(input.Query)
	out := &ParseQueryOutput{
		Query:    q.String(),
		Terms:    q,
		Fields:   q.Fields(),
		FreeText: q.FreeText(),
	}
	if out.Fields == nil {
		out.Fields = []string{}
	}
	if out.FreeText == nil {
		out.FreeText = []string{}
	}
	return out
}

// QueryWithValuesInput contains parameters for the QueryWithValues operation.
type QueryWithValuesInput struct {
	Query   string
	Updates query.Updates
}

// QueryWithValuesOutput contains the result of the QueryWithValues operation.
type QueryWithValuesOutput struct {
	Query string `json:"query"`
}

// QueryWithValues replaces the values of the named fields in a query.
func QueryWithValues(input QueryWithValuesInput) *QueryWithValuesOutput {
	return &QueryWithValuesOutput{
		Query: query.WithValues(input.Query, input.Updates),
	}
}

// QueryMatchesInput contains parameters for the QueryMatches operation.
type QueryMatchesInput struct {
	Query  string
	Values query.Predicate
}

// QueryMatchesOutput contains the result of the QueryMatches operation.
type QueryMatchesOutput struct {
	Matches bool `json:"matches"`
}

// QueryMatches reports whether a query holds every given field value.
func QueryMatches(input QueryMatchesInput) *QueryMatchesOutput {
	return &QueryMatchesOutput{
		Matches: query.MatchesRaw(input.Query, input.Values),
	}
}
