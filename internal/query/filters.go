package query

import (
	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

const (
	// TimestampField is the event-time field shared by every index.
	TimestampField = "@timestamp"
	// ReportingGroupField scopes documents to a business unit.
	ReportingGroupField = "reporting.reporting_group"
	// todaySentinel is engine date-math for the start of the current day
	// in the range clause's time zone.
	todaySentinel = "now/d"
)

// BuildFilters normalizes raw UI selections into the cycle's FilterContext.
// The clause list always carries exactly one range on @timestamp bounding a
// single-day window. An empty reportingGroup emits no group clause at all;
// extra clauses are metric-specific and appended verbatim.
func BuildFilters(date, reportingGroup, timeZone string, extra []model.Clause) model.FilterContext {
	if date == "" {
		date = todaySentinel
	}

	clauses := []model.Clause{
		{
			Kind:     model.ClauseRange,
			Field:    TimestampField,
			Gte:      date,
			Lte:      date,
			TimeZone: timeZone,
		},
	}

	if reportingGroup != "" {
		clauses = append(clauses, model.Clause{
			Kind:  model.ClauseTerm,
			Field: ReportingGroupField,
			Value: reportingGroup,
		})
	}

	clauses = append(clauses, extra...)

	return model.FilterContext{
		Date:           date,
		ReportingGroup: reportingGroup,
		TimeZone:       timeZone,
		Clauses:        clauses,
	}
}

// clauseBody renders one clause into its engine JSON fragment. Negated
// clauses are collected separately by boolQuery.
func clauseBody(c model.Clause) map[string]any {
	switch c.Kind {
	case model.ClauseRange:
		return map[string]any{
			"range": map[string]any{
				c.Field: map[string]any{
					"gte":       c.Gte,
					"lte":       c.Lte,
					"time_zone": c.TimeZone,
				},
			},
		}
	case model.ClauseTerm, model.ClauseNotTerm:
		return map[string]any{
			"term": map[string]any{c.Field: c.Value},
		}
	case model.ClauseTerms:
		return map[string]any{
			"terms": map[string]any{c.Field: c.Values},
		}
	}
	return nil
}

// boolQuery assembles the clause list into the engine's bool query shape.
func boolQuery(clauses []model.Clause) map[string]any {
	must := make([]any, 0, len(clauses))
	var mustNot []any

	for _, c := range clauses {
		body := clauseBody(c)
		if body == nil {
			continue
		}
		if c.Kind == model.ClauseNotTerm {
			mustNot = append(mustNot, body)
			continue
		}
		must = append(must, body)
	}

	b := map[string]any{"must": must}
	if len(mustNot) > 0 {
		b["must_not"] = mustNot
	}
	return map[string]any{"bool": b}
}
