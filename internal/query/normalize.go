package query

import (
	"encoding/json"
	"time"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

// NormalizeTabular reshapes a SQL response into a record keyed by the
// metric's declared columns. Empty responses and responses missing an
// expected column become the NoData sentinel; a present row whose values
// are zero stays a real record.
func NormalizeTabular(def model.MetricDefinition, res *model.TabularResult) model.ResultRecord {
	if res == nil || len(res.Rows) == 0 {
		return model.NoDataRecord(def.Name)
	}

	index := make(map[string]int, len(res.Columns))
	for i, col := range res.Columns {
		index[col.Name] = i
	}

	row := res.Rows[0]
	values := make(map[string]any, len(def.Columns))
	for _, col := range def.Columns {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return model.NoDataRecord(def.Name)
		}
		if row[i] == nil {
			return model.NoDataRecord(def.Name)
		}
		values[col] = row[i]
	}

	return model.ResultRecord{Metric: def.Name, Values: values}
}

// NormalizeSearch reshapes a structured search response according to the
// metric's aggregation spec.
func NormalizeSearch(def model.MetricDefinition, res *model.SearchResult) model.ResultRecord {
	if res == nil {
		return model.NoDataRecord(def.Name)
	}

	switch spec := def.Spec.(type) {
	case model.ScalarAgg:
		return normalizeScalar(def, spec, res)
	case model.Histogram:
		return normalizeBuckets(def, "by_time", spec.Ops, res, true)
	case model.CompositeTopN:
		return normalizeBuckets(def, "groups", spec.Ops, res, false)
	}
	return model.NoDataRecord(def.Name)
}

func normalizeScalar(def model.MetricDefinition, spec model.ScalarAgg, res *model.SearchResult) model.ResultRecord {
	// A sum over zero documents still reports 0; the hit total is what
	// separates "zero sales" from "no data".
	if res.TotalHits == 0 {
		return model.NoDataRecord(def.Name)
	}

	values := make(map[string]any, len(spec.Ops))
	for _, op := range spec.Ops {
		raw, ok := res.Aggregations[op.Name]
		if !ok {
			return model.NoDataRecord(def.Name)
		}
		v, ok := metricValue(raw)
		if !ok {
			return model.NoDataRecord(def.Name)
		}
		values[op.Name] = v
	}

	return model.ResultRecord{Metric: def.Name, Values: values}
}

func normalizeBuckets(def model.MetricDefinition, aggName string, ops []model.AggOp, res *model.SearchResult, timeKeyed bool) model.ResultRecord {
	raw, ok := res.Aggregations[aggName]
	if !ok {
		return model.NoDataRecord(def.Name)
	}

	var parsed struct {
		Buckets []map[string]json.RawMessage `json:"buckets"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Buckets) == 0 {
		return model.NoDataRecord(def.Name)
	}

	rows := make([]map[string]any, 0, len(parsed.Buckets))
	for _, bucket := range parsed.Buckets {
		row := make(map[string]any)

		if timeKeyed {
			ts, ok := bucketTime(bucket)
			if !ok {
				// Unparseable bucket keys poison the whole metric rather
				// than propagating a parse failure upwards.
				return model.NoDataRecord(def.Name)
			}
			row["datetime"] = ts
		} else {
			var key map[string]any
			if err := json.Unmarshal(bucket["key"], &key); err != nil {
				return model.NoDataRecord(def.Name)
			}
			for k, v := range key {
				row[k] = v
			}
		}

		for _, op := range ops {
			rawOp, ok := bucket[op.Name]
			if !ok {
				return model.NoDataRecord(def.Name)
			}
			v, ok := metricValue(rawOp)
			if !ok {
				return model.NoDataRecord(def.Name)
			}
			row[op.Name] = v
		}

		rows = append(rows, row)
	}

	return model.ResultRecord{Metric: def.Name, Rows: rows}
}

// bucketTime extracts a histogram bucket's timestamp from key_as_string or
// the epoch-millis key.
func bucketTime(bucket map[string]json.RawMessage) (time.Time, bool) {
	if raw, ok := bucket["key_as_string"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
		return ts.UTC(), true
	}

	raw, ok := bucket["key"]
	if !ok {
		return time.Time{}, false
	}
	var millis int64
	if err := json.Unmarshal(raw, &millis); err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis).UTC(), true
}

// metricValue reads a metric aggregation's numeric value, unwrapping the
// filter aggregation the translator nests window-anchored ops under.
func metricValue(raw json.RawMessage) (float64, bool) {
	var node struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &node); err != nil || node.Value == nil {
		return 0, false
	}

	var v float64
	if err := json.Unmarshal(node.Value, &v); err == nil {
		return v, true
	}

	// Filtered op: {"doc_count": n, "value": {"value": x}}.
	return metricValue(node.Value)
}
