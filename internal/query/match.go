package query

// Predicate maps a field name to the single value it must have.
type Predicate map[string]string

// Matches reports whether q satisfies every pair in pred: q must contain a
// non-negated term with that field and exact value, and no negated term with
// that field and value. Fields not named in pred are ignored, and an empty
// predicate always matches. Free-text terms carry no field, so they never
// satisfy a pair, including one keyed by "".
func Matches(q Query, pred Predicate) bool {
	for field, value := range pred {
		if !matchesOne(q, field, value) {
			return false
		}
	}
	return true
}

// MatchesRaw parses raw and calls Matches.
func MatchesRaw(raw string, pred Predicate) bool {
	return Matches(Parse(raw), pred)
}

func matchesOne(q Query, field, value string) bool {
	found := false
	for _, t := range q {
		if t.IsFreeText() || !sameField(t.Field, field) || t.Value != value {
			continue
		}
		if t.Negated {
			return false
		}
		found = true
	}
	return found
}
