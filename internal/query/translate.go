package query

import (
	"fmt"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

// compositePageSize is how many grouped buckets the engine materializes
// before the bucket_sort trims them to the metric's limit.
const compositePageSize = 1000

// RequestKind selects which engine endpoint a request targets.
type RequestKind string

const (
	// RequestSearch is a structured aggregation body for the search API.
	RequestSearch RequestKind = "search"
	// RequestSQL is a tabular statement for the SQL endpoint.
	RequestSQL RequestKind = "sql"
)

// Request is one engine request, derived from a FilterContext and a
// MetricDefinition. It is never mutated after construction.
type Request struct {
	Metric     string
	Index      string
	Kind       RequestKind
	SearchBody map[string]any
	SQLQuery   string
	SQLFilter  map[string]any
}

// Translate builds the engine request for one metric under the cycle's
// filter context. Metrics flagged RelativeWindow require the context to
// carry a resolved offset.
func Translate(fc model.FilterContext, def model.MetricDefinition) (Request, error) {
	if def.RelativeWindow && fc.OffsetMinutes == nil {
		return Request{}, fmt.Errorf("metric %s needs a resolved offset", def.Name)
	}

	req := Request{Metric: def.Name, Index: def.Index}

	switch spec := def.Spec.(type) {
	case model.ScalarAgg:
		req.Kind = RequestSearch
		req.SearchBody = searchBody(fc, opAggs(spec.Ops, fc.OffsetMinutes))

	case model.Histogram:
		aggs := opAggs(spec.Ops, fc.OffsetMinutes)
		if spec.Order == model.OrderByValueDesc {
			aggs["top"] = bucketSort(spec.SortOp, spec.Size)
		}
		req.Kind = RequestSearch
		req.SearchBody = searchBody(fc, map[string]any{
			"by_time": map[string]any{
				"date_histogram": map[string]any{
					"field":          TimestampField,
					"fixed_interval": spec.Interval,
				},
				"aggs": aggs,
			},
		})

	case model.CompositeTopN:
		sources := make([]any, 0, len(spec.Sources))
		for _, src := range spec.Sources {
			sources = append(sources, map[string]any{
				src.Name: map[string]any{
					"terms": map[string]any{"field": src.Field},
				},
			})
		}
		aggs := opAggs(spec.Ops, fc.OffsetMinutes)
		// The engine cannot order composite buckets by a nested metric, so
		// a bucket_sort stage always rides along to do the order-and-limit.
		aggs["top"] = bucketSort(spec.SortOp, spec.Limit)
		req.Kind = RequestSearch
		req.SearchBody = searchBody(fc, map[string]any{
			"groups": map[string]any{
				"composite": map[string]any{
					"size":    compositePageSize,
					"sources": sources,
				},
				"aggs": aggs,
			},
		})

	case model.TabularSQL:
		req.Kind = RequestSQL
		req.SQLQuery = spec.Query
		if def.RelativeWindow {
			req.SQLQuery = fmt.Sprintf(spec.Query, *fc.OffsetMinutes)
		}
		req.SQLFilter = boolQuery(fc.Clauses)

	default:
		return Request{}, fmt.Errorf("metric %s: unsupported aggregation spec %T", def.Name, def.Spec)
	}

	return req, nil
}

// ProbeEarliest builds the size-1 ascending probe the relative-window
// resolver uses to find the first event of the day.
func ProbeEarliest(fc model.FilterContext) map[string]any {
	return map[string]any{
		"size":    1,
		"query":   boolQuery(fc.Clauses),
		"sort":    []any{map[string]any{TimestampField: map[string]any{"order": "asc"}}},
		"_source": []any{TimestampField},
	}
}

func searchBody(fc model.FilterContext, aggs map[string]any) map[string]any {
	return map[string]any{
		"size":  0,
		"query": boolQuery(fc.Clauses),
		"aggs":  aggs,
	}
}

// opAggs renders named aggregation ops. Plain ops become a bare metric
// aggregation; filtered or window-anchored ops nest the metric under a
// filter aggregation keyed "value".
func opAggs(ops []model.AggOp, offsetMinutes *int) map[string]any {
	out := make(map[string]any, len(ops))
	for _, op := range ops {
		metric := map[string]any{
			string(op.Func): map[string]any{"field": op.Field},
		}

		var filters []any
		if op.Filter != nil {
			filters = append(filters, clauseBody(*op.Filter))
		}
		if op.RelativeWindow && offsetMinutes != nil {
			filters = append(filters, map[string]any{
				"range": map[string]any{
					TimestampField: map[string]any{
						"gte": fmt.Sprintf("now-%dm", *offsetMinutes),
					},
				},
			})
		}

		if len(filters) == 0 {
			out[op.Name] = metric
			continue
		}

		var filter any
		if len(filters) == 1 {
			filter = filters[0]
		} else {
			filter = map[string]any{"bool": map[string]any{"must": filters}}
		}
		out[op.Name] = map[string]any{
			"filter": filter,
			"aggs":   map[string]any{"value": metric},
		}
	}
	return out
}

// bucketSort orders sibling buckets by one op descending, breaking ties on
// the grouping key so repeated requests paginate deterministically.
func bucketSort(sortOp string, size int) map[string]any {
	return map[string]any{
		"bucket_sort": map[string]any{
			"sort": []any{
				map[string]any{sortOp: map[string]any{"order": "desc"}},
				map[string]any{"_key": map[string]any{"order": "asc"}},
			},
			"size": size,
		},
	}
}
