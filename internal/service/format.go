package service

import (
	"encoding/json"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
	"github.com/Alkira-Consulting/skylight-web/internal/query"
)

// placeholder is what a panel shows when its metric produced no data or
// its query failed.
const placeholder = "-"

var printer = message.NewPrinter(language.English)

// FormatCurrency renders a dollar value rounded to whole dollars with
// thousands grouping, e.g. 15342.50 -> "$15,343".
func FormatCurrency(v float64) string {
	return printer.Sprintf("$%d", int64(math.Round(v)))
}

// FormatCount renders a count with thousands grouping.
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// display builds the headline string for scalar panels. Tabular and series
// metrics are rendered from their rows by the presentation layer and get
// no headline.
func (s *dashboardService) display(def model.MetricDefinition, rec model.ResultRecord) string {
	switch def.Name {
	case query.MetricTotalSales:
		if rec.NoData {
			return placeholder
		}
		v, ok := asFloat(rec.Values["total_sales"])
		if !ok {
			return placeholder
		}
		return FormatCurrency(v)

	case query.MetricVisitation:
		if rec.NoData {
			return placeholder
		}
		v, ok := asFloat(rec.Values["entries"])
		if !ok {
			return placeholder
		}
		return FormatCount(v)

	case query.MetricActiveTerminals:
		if rec.NoData {
			return placeholder
		}
		swift, ok1 := asFloat(rec.Values["swiftpos_terminals"])
		mashgin, ok2 := asFloat(rec.Values["mashgin_terminals"])
		if !ok1 || !ok2 {
			return placeholder
		}
		return FormatCount(swift + mashgin)

	case query.MetricHighestHour:
		if rec.NoData || len(rec.Rows) == 0 {
			return placeholder
		}
		ts, ok := rec.Rows[0]["datetime"].(time.Time)
		if !ok {
			return placeholder
		}
		return ts.In(s.loc).Format("3 PM")
	}

	return ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
