// src/parsers/rootfi/parser.go
package rootfi

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
)

// --- Export document structures ---

// exportDocument is the envelope of a Rootfi financial export: a list of
// per-period records under "data". The pointer distinguishes a missing
// section from an empty export.
type exportDocument struct {
	Data *[]periodRecord `json:"data"`
}

type periodRecord struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	// Pre-computed by the upstream platform; taken verbatim, not re-derived.
	GrossProfit     float64 `json:"gross_profit"`
	OperatingProfit float64 `json:"operating_profit"`
	NetProfit       float64 `json:"net_profit"`

	Revenue              []lineItem `json:"revenue"`
	CostOfGoodsSold      []lineItem `json:"cost_of_goods_sold"`
	OperatingExpenses    []lineItem `json:"operating_expenses"`
	NonOperatingRevenue  []lineItem `json:"non_operating_revenue"`
	NonOperatingExpenses []lineItem `json:"non_operating_expenses"`
}

// lineItem is one node of a nested account tree.
type lineItem struct {
	Name      string     `json:"name"`
	Value     float64    `json:"value"`
	LineItems []lineItem `json:"line_items"`
}

// --- Rootfi parser implementation ---

// RootfiParser extracts one draft CanonicalPeriod per record of a Rootfi
// nested line-item export.
type RootfiParser struct{}

func NewParser() *RootfiParser {
	return &RootfiParser{}
}

// Parse decodes a Rootfi export and returns one draft per period record.
// Metric totals sum only top-level line items; nested children would
// double-count against their own parents. Breakdowns, by contrast, flatten
// the full tree. Records without both period dates are skipped.
func (p *RootfiParser) Parse(r io.Reader) ([]models.CanonicalPeriod, error) {
	var doc exportDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("rootfi parser: failed to decode JSON: %w", err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("rootfi parser: document missing data envelope")
	}

	periods := make([]models.CanonicalPeriod, 0, len(*doc.Data))
	for _, record := range *doc.Data {
		if record.PeriodStart == "" || record.PeriodEnd == "" {
			logger.L.Warn("rootfi parser: record without period dates skipped",
				"periodStart", record.PeriodStart, "periodEnd", record.PeriodEnd)
			continue
		}

		periods = append(periods, models.CanonicalPeriod{
			PeriodStart:          record.PeriodStart,
			PeriodEnd:            record.PeriodEnd,
			Source:               models.SourceRootfi,
			Revenue:              sumLineItems(record.Revenue),
			CostOfGoodsSold:      sumLineItems(record.CostOfGoodsSold),
			GrossProfit:          record.GrossProfit,
			OperatingExpenses:    sumLineItems(record.OperatingExpenses),
			OperatingProfit:      record.OperatingProfit,
			NonOperatingRevenue:  sumLineItems(record.NonOperatingRevenue),
			NonOperatingExpenses: sumLineItems(record.NonOperatingExpenses),
			NetProfit:            record.NetProfit,
			RevenueBreakdown:     flattenBreakdown(record.Revenue),
			ExpenseBreakdown:     flattenBreakdown(record.OperatingExpenses),
			Currency:             "USD",
		})
	}

	return periods, nil
}

// sumLineItems totals the top-level items only.
func sumLineItems(items []lineItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Value
	}
	return total
}

// flattenBreakdown walks the whole line-item tree and builds a flat
// name -> amount map. The traversal is an explicit stack in document
// preorder, so a deeply nested export cannot exhaust the call stack and a
// later item with a colliding name overwrites an earlier one. Zero-valued
// items contribute no entry but their children are still visited.
func flattenBreakdown(items []lineItem) map[string]float64 {
	breakdown := make(map[string]float64)

	// Seed in reverse so popping from the tail yields document order.
	stack := make([]lineItem, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		stack = append(stack, items[i])
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.Value != 0 {
			name := item.Name
			if name == "" {
				name = "Unknown"
			}
			breakdown[name] = item.Value
		}

		for i := len(item.LineItems) - 1; i >= 0; i-- {
			stack = append(stack, item.LineItems[i])
		}
	}

	return breakdown
}
