package assistant

import (
	"sort"
	"time"

	"github.com/DachengChen/paiERP/ai"
	"github.com/DachengChen/paiERP/erp"
	"github.com/DachengChen/paiERP/intent"
	"github.com/DachengChen/paiERP/query"
)

// QueryInfo describes the question behind an enriched response.
type QueryInfo struct {
	OriginalQuery string        `json:"originalQuery"`
	Intent        intent.Intent `json:"intent"`
	Timestamp     string        `json:"timestamp"`
}

// BarPoint is one bar of a bar chart.
type BarPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TrendPoint is one period of a trend line chart.
type TrendPoint struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

const topCustomers = 5

// Enrich merges backend data into a provider response and appends charts
// derived from it. resp is not modified.
func Enrich(resp ai.Response, data erp.Data, p query.Processed) ai.Response {
	return enrichAt(resp, data, p, time.Now())
}

func enrichAt(resp ai.Response, data erp.Data, p query.Processed, now time.Time) ai.Response {
	payload := make(map[string]any)
	if m, ok := resp.Data.(map[string]any); ok {
		for k, v := range m {
			payload[k] = v
		}
	}
	payload["netSuiteData"] = data
	payload["queryInfo"] = QueryInfo{
		OriginalQuery: p.OriginalQuery,
		Intent:        p.Intent,
		Timestamp:     now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}

	out := resp
	out.Data = payload
	out.Visualizations = make([]ai.Visualization, 0, len(resp.Visualizations)+1)
	out.Visualizations = append(out.Visualizations, resp.Visualizations...)
	out.Visualizations = append(out.Visualizations, derivedCharts(data, p.Intent.Type)...)
	return out
}

// derivedCharts applies each chart rule independently. Failed data slots
// never produce a chart.
func derivedCharts(data erp.Data, category intent.Category) []ai.Visualization {
	var charts []ai.Visualization

	periods, hasPeriods := data[query.CashFlow].([]erp.FinancialPeriod)

	if category == intent.Financial && hasPeriods && len(periods) > 0 {
		first := periods[0]
		charts = append(charts, ai.Visualization{
			Type:  ai.ChartKPI,
			Title: "Financial Overview",
			Data: map[string]any{
				"revenue":  first.Revenue,
				"profit":   first.Profit,
				"cashFlow": first.CashFlow,
			},
			Options: map[string]any{"format": "currency"},
		})
	}

	if customers, ok := data[query.Customers].([]erp.Customer); ok && category == intent.Sales {
		sorted := make([]erp.Customer, len(customers))
		copy(sorted, customers)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].TotalRevenue > sorted[j].TotalRevenue
		})
		if len(sorted) > topCustomers {
			sorted = sorted[:topCustomers]
		}
		points := make([]BarPoint, 0, len(sorted))
		for _, c := range sorted {
			points = append(points, BarPoint{Name: c.Name, Value: c.TotalRevenue})
		}
		charts = append(charts, ai.Visualization{
			Type:  ai.ChartBar,
			Title: "Top Customers by Revenue",
			Data:  points,
			Options: map[string]any{
				"xAxis":  "name",
				"yAxis":  "value",
				"format": "currency",
			},
		})
	}

	if category == intent.Analytics && hasPeriods {
		points := make([]TrendPoint, 0, len(periods))
		for _, fp := range periods {
			points = append(points, TrendPoint{Period: fp.Period, Revenue: fp.Revenue, Profit: fp.Profit})
		}
		charts = append(charts, ai.Visualization{
			Type:  ai.ChartLine,
			Title: "Financial Trends",
			Data:  points,
			Options: map[string]any{
				"xAxis":  "period",
				"yAxis":  []string{"revenue", "profit"},
				"format": "currency",
			},
		})
	}

	return charts
}
