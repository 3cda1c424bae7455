package model

import (
	"encoding/json"
	"time"
)

// TabularColumn is one column descriptor from the engine's SQL endpoint.
type TabularColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TabularResult is a raw SQL response: named columns plus row tuples.
type TabularResult struct {
	Columns []TabularColumn `json:"columns"`
	Rows    [][]any         `json:"rows"`
}

// SearchHit is one document from a structured search response. Only the
// fields the resolver reads are kept.
type SearchHit struct {
	Source json.RawMessage
}

// SearchResult is a raw structured search response: hit metadata plus the
// unparsed aggregation tree.
type SearchResult struct {
	TotalHits    int64
	Hits         []SearchHit
	Aggregations map[string]json.RawMessage
}

// ResultRecord is the normalized output for one metric. NoData marks a
// metric whose query matched nothing; it is distinct from a record whose
// values happen to be zero.
type ResultRecord struct {
	Metric string           `json:"metric"`
	NoData bool             `json:"no_data"`
	Values map[string]any   `json:"values,omitempty"`
	Rows   []map[string]any `json:"rows,omitempty"`
}

// NoDataRecord builds the sentinel record for a metric.
func NoDataRecord(metric string) ResultRecord {
	return ResultRecord{Metric: metric, NoData: true}
}

// MetricPanel pairs a normalized record with its display string.
type MetricPanel struct {
	Record  ResultRecord `json:"record"`
	Display string       `json:"display"`
}

// RenderInput is the raw UI state driving one render cycle.
type RenderInput struct {
	// Date is an explicit calendar date "2006-01-02"; empty means today.
	Date string
	// ReportingGroup is the selected group pill; empty means no group
	// filter.
	ReportingGroup string
	// OffsetMinutes is an explicit relative-window pick; nil asks the
	// resolver to discover one.
	OffsetMinutes *int
}

// RenderResult is everything one render cycle produces for the
// presentation layer.
type RenderResult struct {
	Panels         map[string]MetricPanel `json:"panels"`
	Date           string                 `json:"date"`
	ReportingGroup string                 `json:"reporting_group,omitempty"`
	OffsetMinutes  *int                   `json:"offset_minutes,omitempty"`
	RefreshedAt    time.Time              `json:"refreshed_at"`
}
