package model

// AggFunc names an aggregation function applied to one field.
type AggFunc string

const (
	AggSum         AggFunc = "sum"
	AggCardinality AggFunc = "cardinality"
	AggValueCount  AggFunc = "value_count"
)

// AggOp is one named aggregation output. When Filter is set the operation
// only counts documents matching it; when RelativeWindow is set the
// operation is additionally restricted to the cycle's resolved offset.
type AggOp struct {
	Name           string
	Func           AggFunc
	Field          string
	Filter         *Clause
	RelativeWindow bool
}

// GroupSource is one field of a composite grouping key.
type GroupSource struct {
	Name  string
	Field string
}

// HistogramOrder selects how histogram buckets are returned.
type HistogramOrder string

const (
	// OrderByKeyAsc returns the full series in time order.
	OrderByKeyAsc HistogramOrder = "key_asc"
	// OrderByValueDesc keeps only the top buckets by the sort op.
	OrderByValueDesc HistogramOrder = "value_desc"
)

// AggSpec is the tagged union of request shapes the translator produces.
// The marker method keeps the set closed so Translate can switch
// exhaustively.
type AggSpec interface {
	aggSpec()
}

// ScalarAgg is a flat set of named aggregations with no grouping.
type ScalarAgg struct {
	Ops []AggOp
}

// Histogram is a fixed-interval date histogram with nested operations.
type Histogram struct {
	Interval string
	Ops      []AggOp
	Order    HistogramOrder
	// SortOp names the op buckets are sorted by when Order is
	// OrderByValueDesc.
	SortOp string
	// Size limits the bucket count when sorting by value; 0 means the
	// full series.
	Size int
}

// CompositeTopN is a multi-field grouping with a bucket-level sort and
// limit. The engine's composite aggregation cannot order by a nested
// metric on its own, so the translator always pairs it with a bucket_sort
// sub-aggregation.
type CompositeTopN struct {
	Sources []GroupSource
	Ops     []AggOp
	// SortOp names the op the bucket_sort orders by, descending. Ties fall
	// back to the grouping key ascending so repeated requests page
	// deterministically.
	SortOp string
	Limit  int
}

// TabularSQL is a query against the engine's SQL endpoint. When the owning
// metric uses a relative window the statement carries one %d verb for the
// resolved offset in minutes.
type TabularSQL struct {
	Query string
}

func (ScalarAgg) aggSpec()     {}
func (Histogram) aggSpec()     {}
func (CompositeTopN) aggSpec() {}
func (TabularSQL) aggSpec()    {}

// MetricDefinition describes one dashboard metric. Definitions are static;
// the catalog holds one per exposed metric.
type MetricDefinition struct {
	Name  string
	Index string
	Spec  AggSpec
	// ExtraClauses are metric-specific filters appended after the shared
	// day-window and group clauses.
	ExtraClauses []Clause
	// Columns are the output column names the normalizer expects, in order.
	Columns []string
	// IgnoreGroup drops the reporting-group clause for metrics that span
	// all groups (visitation counts the whole venue).
	IgnoreGroup bool
	// RelativeWindow marks metrics whose queries are anchored to the
	// cycle's resolved offset.
	RelativeWindow bool
}
