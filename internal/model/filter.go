package model

// ClauseKind discriminates the filter clause variants the translator knows
// how to render.
type ClauseKind string

const (
	// ClauseRange bounds a date field to [Gte, Lte] in TimeZone.
	ClauseRange ClauseKind = "range"
	// ClauseTerm is an exact match on a keyword field.
	ClauseTerm ClauseKind = "term"
	// ClauseTerms matches any of Values (an OR over one field).
	ClauseTerms ClauseKind = "terms"
	// ClauseNotTerm excludes documents matching Value.
	ClauseNotTerm ClauseKind = "not_term"
)

// Clause is one normalized filter condition.
type Clause struct {
	Kind     ClauseKind
	Field    string
	Value    any
	Values   []any
	Gte      string
	Lte      string
	TimeZone string
}

// FilterContext is the normalized filter state for one render cycle. It is
// built once per cycle from raw UI input and never mutated afterwards.
type FilterContext struct {
	// Date is an engine date expression: either "now/d" (start of the
	// current day) or an explicit calendar date "2006-01-02".
	Date string
	// ReportingGroup scopes queries to a business unit; empty means no
	// group clause at all, never an all-groups wildcard.
	ReportingGroup string
	// OffsetMinutes is the resolved relative-window lower bound in minutes
	// before now. Nil until the resolver has run; metrics that do not use a
	// relative window ignore it.
	OffsetMinutes *int
	TimeZone      string
	Clauses       []Clause
}
