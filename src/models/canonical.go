// src/models/canonical.go
package models

import "encoding/json"

// Recognized period sources. Every parser stamps exactly one of these.
const (
	SourceQuickBooks = "quickbooks"
	SourceRootfi     = "rootfi"
)

// CanonicalPeriod is the unified, per-period representation of a financial
// report interval. Each parser is responsible for populating as many of these
// fields as possible directly from its source document; metrics that the
// source does not carry stay at zero.
//
// (PeriodStart, PeriodEnd, Source) is the identity triple: the natural key
// used for upsert. Dates are kept as ISO YYYY-MM-DD strings exactly as the
// sources emit them; the validator is the single place they are parsed.
type CanonicalPeriod struct {
	// --- Identity (immutable once stored) ---
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Source      string `json:"source"` // "quickbooks" or "rootfi"

	// --- Core financial metrics ---
	Revenue              float64 `json:"revenue"`
	CostOfGoodsSold      float64 `json:"cost_of_goods_sold"`
	GrossProfit          float64 `json:"gross_profit"`
	OperatingExpenses    float64 `json:"operating_expenses"`
	OperatingProfit      float64 `json:"operating_profit"`
	NonOperatingRevenue  float64 `json:"non_operating_revenue"`
	NonOperatingExpenses float64 `json:"non_operating_expenses"`
	NetProfit            float64 `json:"net_profit"`

	// --- Detailed breakdowns (account label -> amount, zero entries omitted) ---
	RevenueBreakdown map[string]float64 `json:"revenue_breakdown,omitempty"`
	ExpenseBreakdown map[string]float64 `json:"expense_breakdown,omitempty"`

	// --- Metadata ---
	Currency string          `json:"currency"`
	RawData  json.RawMessage `json:"raw_data,omitempty"` // original record, audit only
}

// Metrics returns the metric fields keyed by their canonical names.
// Used by the validator to check every metric with one loop.
func (p *CanonicalPeriod) Metrics() map[string]float64 {
	return map[string]float64{
		"revenue":                p.Revenue,
		"cost_of_goods_sold":     p.CostOfGoodsSold,
		"gross_profit":           p.GrossProfit,
		"operating_expenses":     p.OperatingExpenses,
		"operating_profit":       p.OperatingProfit,
		"non_operating_revenue":  p.NonOperatingRevenue,
		"non_operating_expenses": p.NonOperatingExpenses,
		"net_profit":             p.NetProfit,
	}
}

// LoadResult reports how many new periods each source contributed.
// Updates to already-stored identities are not counted.
type LoadResult struct {
	QuickBooksRecords int `json:"quickbooks_records"`
	RootfiRecords     int `json:"rootfi_records"`
	TotalRecords      int `json:"total_records"`
}

// DateRange bounds a set of stored periods.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SummaryStatistics is a high-level rollup across all stored periods.
type SummaryStatistics struct {
	TotalPeriods          int       `json:"total_periods"`
	DateRange             DateRange `json:"date_range"`
	TotalRevenue          float64   `json:"total_revenue"`
	TotalExpenses         float64   `json:"total_expenses"`
	TotalProfit           float64   `json:"total_profit"`
	AverageMonthlyRevenue float64   `json:"average_monthly_revenue"`
	AverageMonthlyProfit  float64   `json:"average_monthly_profit"`
}
