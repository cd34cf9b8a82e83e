// src/parsers/quickbooks/parser.go
package quickbooks

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/utils"
)

// --- Report document structures ---

// reportDocument is the envelope of a QuickBooks Profit and Loss report.
// Columns and Rows are pointers so a missing section can be told apart
// from an empty one.
type reportDocument struct {
	Data *reportData `json:"data"`
}

type reportData struct {
	Columns *columnSet `json:"Columns"`
	Rows    *rowSet    `json:"Rows"`
}

type columnSet struct {
	Column []column `json:"Column"`
}

type rowSet struct {
	Row []row `json:"Row"`
}

type column struct {
	ColTitle string     `json:"ColTitle"`
	ColType  string     `json:"ColType"`
	MetaData []metaItem `json:"MetaData"`
}

type metaItem struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// row is one report line. A grouped row (Income, Expenses, ...) carries its
// per-period totals in Summary and its child account rows in Rows; a plain
// detail row carries its cells directly in ColData.
type row struct {
	Group   string    `json:"group"`
	Summary *cellList `json:"Summary"`
	Header  *cellList `json:"Header"`
	ColData []cell    `json:"ColData"`
	Rows    *rowSet   `json:"Rows"`
}

type cellList struct {
	ColData []cell `json:"ColData"`
}

type cell struct {
	Value string `json:"value"`
}

// --- QuickBooks parser implementation ---

// QuickBooksParser extracts one draft CanonicalPeriod per month column of a
// column-indexed P&L report.
type QuickBooksParser struct{}

func NewParser() *QuickBooksParser {
	return &QuickBooksParser{}
}

// Parse decodes a QuickBooks P&L report and returns one draft per reporting
// month. The first column is the account-label column and the "Total" column
// is an aggregate; neither produces a draft. Columns without both StartDate
// and EndDate metadata are dropped without error (header artifacts).
func (p *QuickBooksParser) Parse(r io.Reader) ([]models.CanonicalPeriod, error) {
	var doc reportDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("quickbooks parser: failed to decode JSON: %w", err)
	}
	if doc.Data == nil || doc.Data.Columns == nil || doc.Data.Rows == nil {
		return nil, fmt.Errorf("quickbooks parser: document missing Columns/Rows envelope")
	}

	columns := doc.Data.Columns.Column
	rows := doc.Data.Rows.Row

	if len(columns) < 2 {
		// Only the label column (or nothing) present: no reporting months.
		return []models.CanonicalPeriod{}, nil
	}

	var periods []models.CanonicalPeriod

	// Skip the leading account-label column. The positional index into each
	// row's cells is idx+1: skipped columns still occupy their position.
	monthColumns := columns[1:]
	for idx, col := range monthColumns {
		if col.ColTitle == "Total" {
			continue
		}

		var startDate, endDate string
		for _, meta := range col.MetaData {
			switch meta.Name {
			case "StartDate":
				startDate = meta.Value
			case "EndDate":
				endDate = meta.Value
			}
		}
		if startDate == "" || endDate == "" {
			logger.L.Debug("quickbooks parser: column without period metadata dropped", "colTitle", col.ColTitle)
			continue
		}

		period := extractPeriodMetrics(rows, idx+1)
		period.PeriodStart = startDate
		period.PeriodEnd = endDate
		period.Source = models.SourceQuickBooks
		period.Currency = "USD"
		periods = append(periods, period)
	}

	if periods == nil {
		periods = []models.CanonicalPeriod{}
	}
	return periods, nil
}

// extractPeriodMetrics reads every grouped row's summary cell at colIndex and
// maps the row group onto the canonical metric fields. Rows with unrecognized
// groups, no summary, or too few cells are skipped rather than failing the
// document.
func extractPeriodMetrics(rows []row, colIndex int) models.CanonicalPeriod {
	var period models.CanonicalPeriod

	for _, rw := range rows {
		if rw.Summary == nil || colIndex >= len(rw.Summary.ColData) {
			continue
		}
		value := utils.ParseAmount(rw.Summary.ColData[colIndex].Value)

		switch rw.Group {
		case "Income":
			period.Revenue = value
			period.RevenueBreakdown = extractBreakdown(rw, colIndex)
		case "COGS":
			period.CostOfGoodsSold = value
		case "GrossProfit":
			period.GrossProfit = value
		case "Expenses":
			period.OperatingExpenses = value
			period.ExpenseBreakdown = extractBreakdown(rw, colIndex)
		case "NetIncome":
			period.NetProfit = value
		}
	}

	return period
}

// extractBreakdown walks a grouped row's child rows one level deep and builds
// the account-label -> amount map for colIndex. The first cell of each child
// is the label; zero amounts are omitted.
func extractBreakdown(rw row, colIndex int) map[string]float64 {
	breakdown := make(map[string]float64)

	if rw.Rows == nil {
		return breakdown
	}
	for _, subRow := range rw.Rows.Row {
		var cells []cell
		switch {
		case subRow.Header != nil:
			cells = subRow.Header.ColData
		case subRow.ColData != nil:
			cells = subRow.ColData
		default:
			continue
		}
		if len(cells) == 0 || colIndex >= len(cells) {
			continue
		}

		accountName := cells[0].Value
		if accountName == "" {
			accountName = "Unknown"
		}
		value := utils.ParseAmount(cells[colIndex].Value)
		if value != 0 {
			breakdown[accountName] = value
		}
	}

	return breakdown
}
