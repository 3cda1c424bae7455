package query

import (
	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

// Metric names exposed to the presentation layer.
const (
	MetricTotalSales      = "total_sales"
	MetricHighestHour     = "highest_hour"
	MetricSalesOverTime   = "sales_over_time"
	MetricActiveTerminals = "active_terminals"
	MetricVisitation      = "visitation"
	MetricTopLocations    = "top_locations"
	MetricTopProducts     = "top_products"
)

// Index patterns and fields of the retail data streams.
const (
	transactionsIndex = "*-retail-transactions"
	productIndex      = "*-retail-product"
	swiftposIndex     = "swiftpos-retail-product"
	attendanceIndex   = "ticketek-customer-attendance"

	txnTotalExField     = "data.transaction_value.total_ex"
	productTotalExField = "data.total_ex"
	masterGroupField    = "data.master_group.id"
)

// ProbeIndex is where the relative-window resolver looks for the first
// event of the day.
const ProbeIndex = transactionsIndex

const (
	foodGroupID     = "10"
	beverageGroupID = "20"
)

var nonZeroTxn = model.Clause{Kind: model.ClauseNotTerm, Field: txnTotalExField, Value: 0}
var nonZeroProduct = model.Clause{Kind: model.ClauseNotTerm, Field: productTotalExField, Value: 0}

// foodOrBeverage restricts product rows to master groups 10 and 20. The
// terms clause keeps the OR scoped to the group field, independent of the
// non-zero filter it is combined with.
var foodOrBeverage = model.Clause{
	Kind:   model.ClauseTerms,
	Field:  masterGroupField,
	Values: []any{foodGroupID, beverageGroupID},
}

const activeTerminalsSQL = `SELECT count(DISTINCT "data.transaction.terminal.id") as "swiftpos_terminals", count(DISTINCT "data.transaction.kiosk_id") as "mashgin_terminals" FROM "*-retail-product" WHERE "@timestamp" > DATEADD('minutes', -%d, NOW()) AND "data.total_ex" != 0`

const visitationSQL = `SELECT count("data.barcode") as "entries" FROM "ticketek-customer-attendance" WHERE "data.status.type" = 'Entry' AND "data.priceTypeName" != 'TICKETEK TEST'`

// Catalog returns the static metric definitions, one per dashboard panel.
func Catalog() []model.MetricDefinition {
	return []model.MetricDefinition{
		{
			Name:  MetricTotalSales,
			Index: transactionsIndex,
			Spec: model.ScalarAgg{Ops: []model.AggOp{
				{Name: "total_sales", Func: model.AggSum, Field: txnTotalExField},
			}},
			Columns: []string{"total_sales"},
		},
		{
			Name:  MetricHighestHour,
			Index: transactionsIndex,
			Spec: model.Histogram{
				Interval: "1h",
				Ops: []model.AggOp{
					{Name: "sale_total", Func: model.AggSum, Field: txnTotalExField},
					{Name: "txn_total", Func: model.AggCardinality, Field: "data.id"},
				},
				Order:  model.OrderByValueDesc,
				SortOp: "sale_total",
				Size:   1,
			},
			ExtraClauses: []model.Clause{nonZeroTxn},
			Columns:      []string{"datetime", "sale_total", "txn_total"},
		},
		{
			Name:  MetricSalesOverTime,
			Index: transactionsIndex,
			Spec: model.Histogram{
				Interval: "1m",
				Ops: []model.AggOp{
					{Name: "sale_total", Func: model.AggSum, Field: txnTotalExField},
				},
				Order: model.OrderByKeyAsc,
			},
			ExtraClauses: []model.Clause{nonZeroTxn},
			Columns:      []string{"datetime", "sale_total"},
		},
		{
			Name:           MetricActiveTerminals,
			Index:          productIndex,
			Spec:           model.TabularSQL{Query: activeTerminalsSQL},
			Columns:        []string{"swiftpos_terminals", "mashgin_terminals"},
			RelativeWindow: true,
		},
		{
			Name:        MetricVisitation,
			Index:       attendanceIndex,
			Spec:        model.TabularSQL{Query: visitationSQL},
			Columns:     []string{"entries"},
			IgnoreGroup: true,
		},
		{
			Name:  MetricTopLocations,
			Index: productIndex,
			Spec: model.CompositeTopN{
				Sources: []model.GroupSource{
					{Name: "location_id", Field: "data.location.id"},
					{Name: "Location", Field: "data.location.name"},
				},
				Ops: []model.AggOp{
					{Name: "Active", Func: model.AggCardinality, Field: "data.transaction.terminal.id", RelativeWindow: true},
					{Name: "Food", Func: model.AggSum, Field: productTotalExField,
						Filter: &model.Clause{Kind: model.ClauseTerm, Field: masterGroupField, Value: foodGroupID}},
					{Name: "Beverage", Func: model.AggSum, Field: productTotalExField,
						Filter: &model.Clause{Kind: model.ClauseTerm, Field: masterGroupField, Value: beverageGroupID}},
					{Name: "Total", Func: model.AggSum, Field: productTotalExField},
				},
				SortOp: "Total",
				Limit:  15,
			},
			ExtraClauses:   []model.Clause{nonZeroProduct, foodOrBeverage},
			Columns:        []string{"Location", "Active", "Beverage", "Food", "Total"},
			RelativeWindow: true,
		},
		{
			Name:  MetricTopProducts,
			Index: swiftposIndex,
			Spec: model.CompositeTopN{
				Sources: []model.GroupSource{
					{Name: "Item", Field: "data.name.keyword"},
				},
				Ops: []model.AggOp{
					{Name: "Qty Sold", Func: model.AggSum, Field: "data.quantity"},
					{Name: "Total", Func: model.AggSum, Field: productTotalExField},
				},
				SortOp: "Total",
				Limit:  20,
			},
			ExtraClauses: []model.Clause{foodOrBeverage},
			Columns:      []string{"Item", "Qty Sold", "Total"},
		},
	}
}
