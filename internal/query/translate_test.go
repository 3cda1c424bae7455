package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

type TranslateTestSuite struct {
	suite.Suite
}

func TestTranslateSuite(t *testing.T) {
	suite.Run(t, new(TranslateTestSuite))
}

func (s *TranslateTestSuite) filterContext(offset *int) model.FilterContext {
	fc := BuildFilters("", "event_retail", testZone, nil)
	fc.OffsetMinutes = offset
	return fc
}

func (s *TranslateTestSuite) definition(name string) model.MetricDefinition {
	for _, def := range Catalog() {
		if def.Name == name {
			return def
		}
	}
	s.FailNowf("unknown metric", "no definition named %s", name)
	return model.MetricDefinition{}
}

func (s *TranslateTestSuite) TestScalarAgg() {
	req, err := Translate(s.filterContext(nil), s.definition(MetricTotalSales))

	s.Require().NoError(err)
	s.Equal(RequestSearch, req.Kind)
	s.Equal("*-retail-transactions", req.Index)
	s.Equal(0, req.SearchBody["size"])

	aggs := req.SearchBody["aggs"].(map[string]any)
	s.Equal(map[string]any{
		"total_sales": map[string]any{
			"sum": map[string]any{"field": "data.transaction_value.total_ex"},
		},
	}, aggs)
}

func (s *TranslateTestSuite) TestHistogramTopBucket() {
	req, err := Translate(s.filterContext(nil), s.definition(MetricHighestHour))

	s.Require().NoError(err)
	byTime := req.SearchBody["aggs"].(map[string]any)["by_time"].(map[string]any)

	hist := byTime["date_histogram"].(map[string]any)
	s.Equal("@timestamp", hist["field"])
	s.Equal("1h", hist["fixed_interval"])

	aggs := byTime["aggs"].(map[string]any)
	s.Contains(aggs, "sale_total")
	s.Contains(aggs, "txn_total")

	// Top-bucket metrics trim to size 1 via bucket_sort desc.
	sort := aggs["top"].(map[string]any)["bucket_sort"].(map[string]any)
	s.Equal(1, sort["size"])
	first := sort["sort"].([]any)[0].(map[string]any)
	s.Contains(first, "sale_total")
}

func (s *TranslateTestSuite) TestHistogramFullSeriesHasNoBucketSort() {
	req, err := Translate(s.filterContext(nil), s.definition(MetricSalesOverTime))

	s.Require().NoError(err)
	byTime := req.SearchBody["aggs"].(map[string]any)["by_time"].(map[string]any)
	s.Equal("1m", byTime["date_histogram"].(map[string]any)["fixed_interval"])
	s.NotContains(byTime["aggs"], "top")
}

// TestCompositeAlwaysPairsBucketSort guards the core translation rule:
// a composite aggregation never ships without its bucket_sort stage, since
// composite ordering alone cannot express "order by aggregate, limit N".
func (s *TranslateTestSuite) TestCompositeAlwaysPairsBucketSort() {
	offset := 15
	for _, name := range []string{MetricTopLocations, MetricTopProducts} {
		s.Run(name, func() {
			req, err := Translate(s.filterContext(&offset), s.definition(name))
			s.Require().NoError(err)

			groups := req.SearchBody["aggs"].(map[string]any)["groups"].(map[string]any)
			s.Contains(groups, "composite")

			aggs := groups["aggs"].(map[string]any)
			s.Require().Contains(aggs, "top")
			sort := aggs["top"].(map[string]any)["bucket_sort"].(map[string]any)

			order := sort["sort"].([]any)
			s.Require().Len(order, 2)
			first := order[0].(map[string]any)["Total"].(map[string]any)
			s.Equal("desc", first["order"])
			// Equal totals fall back to the grouping key so pagination is
			// deterministic across repeated requests.
			tie := order[1].(map[string]any)["_key"].(map[string]any)
			s.Equal("asc", tie["order"])
		})
	}
}

func (s *TranslateTestSuite) TestCompositeLimits() {
	offset := 15
	req, err := Translate(s.filterContext(&offset), s.definition(MetricTopLocations))
	s.Require().NoError(err)

	groups := req.SearchBody["aggs"].(map[string]any)["groups"].(map[string]any)
	sort := groups["aggs"].(map[string]any)["top"].(map[string]any)["bucket_sort"].(map[string]any)
	s.Equal(15, sort["size"])

	req, err = Translate(s.filterContext(&offset), s.definition(MetricTopProducts))
	s.Require().NoError(err)
	groups = req.SearchBody["aggs"].(map[string]any)["groups"].(map[string]any)
	sort = groups["aggs"].(map[string]any)["top"].(map[string]any)["bucket_sort"].(map[string]any)
	s.Equal(20, sort["size"])
}

func (s *TranslateTestSuite) TestWindowAnchoredOpNestsFilter() {
	offset := 74
	req, err := Translate(s.filterContext(&offset), s.definition(MetricTopLocations))
	s.Require().NoError(err)

	groups := req.SearchBody["aggs"].(map[string]any)["groups"].(map[string]any)
	active := groups["aggs"].(map[string]any)["Active"].(map[string]any)

	filter := active["filter"].(map[string]any)["range"].(map[string]any)
	window := filter["@timestamp"].(map[string]any)
	s.Equal("now-74m", window["gte"])

	nested := active["aggs"].(map[string]any)["value"].(map[string]any)
	s.Contains(nested, "cardinality")
}

func (s *TranslateTestSuite) TestTabularOffsetSubstitution() {
	offset := 42
	req, err := Translate(s.filterContext(&offset), s.definition(MetricActiveTerminals))

	s.Require().NoError(err)
	s.Equal(RequestSQL, req.Kind)
	s.Contains(req.SQLQuery, "DATEADD('minutes', -42, NOW())")
	s.NotContains(req.SQLQuery, "%d")
	s.NotNil(req.SQLFilter)
}

func (s *TranslateTestSuite) TestRelativeWindowRequiresOffset() {
	_, err := Translate(s.filterContext(nil), s.definition(MetricActiveTerminals))
	s.Error(err)

	_, err = Translate(s.filterContext(nil), s.definition(MetricTopLocations))
	s.Error(err)
}

// TestIdempotence: translating the same pair twice yields structurally
// identical requests.
func (s *TranslateTestSuite) TestIdempotence() {
	offset := 30
	fc := s.filterContext(&offset)

	for _, def := range Catalog() {
		s.Run(def.Name, func() {
			first, err := Translate(fc, def)
			s.Require().NoError(err)
			second, err := Translate(fc, def)
			s.Require().NoError(err)
			s.Equal(first, second)
		})
	}
}

func (s *TranslateTestSuite) TestCatalogTranslatesCompletely() {
	offset := 10
	fc := s.filterContext(&offset)

	seen := map[string]bool{}
	for _, def := range Catalog() {
		req, err := Translate(fc, def)
		s.Require().NoError(err, def.Name)
		s.NotEmpty(req.Index)
		seen[def.Name] = true
	}
	s.Len(seen, 7)
}

func (s *TranslateTestSuite) TestVisitationIgnoresGroup() {
	def := s.definition(MetricVisitation)
	s.True(def.IgnoreGroup)
	s.True(strings.Contains(visitationSQL, "'Entry'"))
}

func (s *TranslateTestSuite) TestProbeEarliestShape() {
	body := ProbeEarliest(BuildFilters("", "event_retail", testZone, nil))

	s.Equal(1, body["size"])
	s.Equal([]any{TimestampField}, body["_source"])

	sort := body["sort"].([]any)[0].(map[string]any)
	order := sort[TimestampField].(map[string]any)
	s.Equal("asc", order["order"])
}
