// src/database/period_store.go
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/username/finsight/src/models"
)

const periodColumns = `period_start, period_end, source,
	revenue, cost_of_goods_sold, gross_profit, operating_expenses,
	operating_profit, non_operating_revenue, non_operating_expenses, net_profit,
	revenue_breakdown, expense_breakdown, currency, raw_data`

// SQLPeriodStore persists canonical periods in the financial_periods table.
// Identity is (period_start, period_end, source); the table enforces it with
// a UNIQUE constraint.
type SQLPeriodStore struct {
	db *sql.DB
}

func NewPeriodStore(db *sql.DB) *SQLPeriodStore {
	return &SQLPeriodStore{db: db}
}

// FindByIdentity returns the stored period for an identity triple, or nil if
// no such period exists.
func (s *SQLPeriodStore) FindByIdentity(periodStart, periodEnd, source string) (*models.CanonicalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM financial_periods
		WHERE period_start = ? AND period_end = ? AND source = ?`

	row := s.db.QueryRow(query, periodStart, periodEnd, source)
	period, err := scanPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query period by identity: %w", err)
	}
	return period, nil
}

// Insert stores a new period.
func (s *SQLPeriodStore) Insert(period *models.CanonicalPeriod) error {
	revenueBreakdown, expenseBreakdown, err := marshalBreakdowns(period)
	if err != nil {
		return err
	}

	query := `INSERT INTO financial_periods (` + periodColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		period.PeriodStart, period.PeriodEnd, period.Source,
		period.Revenue, period.CostOfGoodsSold, period.GrossProfit, period.OperatingExpenses,
		period.OperatingProfit, period.NonOperatingRevenue, period.NonOperatingExpenses, period.NetProfit,
		revenueBreakdown, expenseBreakdown, period.Currency, string(period.RawData),
	)
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

// Update overwrites every non-identity field of the period stored under the
// given identity triple. The identity itself is immutable.
func (s *SQLPeriodStore) Update(period *models.CanonicalPeriod) error {
	revenueBreakdown, expenseBreakdown, err := marshalBreakdowns(period)
	if err != nil {
		return err
	}

	query := `UPDATE financial_periods SET
		revenue = ?, cost_of_goods_sold = ?, gross_profit = ?, operating_expenses = ?,
		operating_profit = ?, non_operating_revenue = ?, non_operating_expenses = ?, net_profit = ?,
		revenue_breakdown = ?, expense_breakdown = ?, currency = ?, raw_data = ?,
		updated_at = CURRENT_TIMESTAMP
		WHERE period_start = ? AND period_end = ? AND source = ?`

	_, err = s.db.Exec(query,
		period.Revenue, period.CostOfGoodsSold, period.GrossProfit, period.OperatingExpenses,
		period.OperatingProfit, period.NonOperatingRevenue, period.NonOperatingExpenses, period.NetProfit,
		revenueBreakdown, expenseBreakdown, period.Currency, string(period.RawData),
		period.PeriodStart, period.PeriodEnd, period.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to update period: %w", err)
	}
	return nil
}

// ListAll returns all stored periods ordered by period_start, optionally
// filtered by source. An empty source means no filter.
func (s *SQLPeriodStore) ListAll(source string) ([]models.CanonicalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM financial_periods`
	args := []interface{}{}
	if source != "" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY period_start`

	return s.queryPeriods(query, args...)
}

// ListRange returns stored periods fully contained in [startDate, endDate],
// ordered by period_start, optionally filtered by source. ISO date strings
// compare correctly as text.
func (s *SQLPeriodStore) ListRange(startDate, endDate, source string) ([]models.CanonicalPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM financial_periods
		WHERE period_start >= ? AND period_end <= ?`
	args := []interface{}{startDate, endDate}
	if source != "" {
		query += ` AND source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY period_start`

	return s.queryPeriods(query, args...)
}

func (s *SQLPeriodStore) queryPeriods(query string, args ...interface{}) ([]models.CanonicalPeriod, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	periods := []models.CanonicalPeriod{}
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period row: %w", err)
		}
		periods = append(periods, *period)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate period rows: %w", err)
	}
	return periods, nil
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanPeriod(row scannable) (*models.CanonicalPeriod, error) {
	var period models.CanonicalPeriod
	var revenueBreakdown, expenseBreakdown, rawData sql.NullString

	err := row.Scan(
		&period.PeriodStart, &period.PeriodEnd, &period.Source,
		&period.Revenue, &period.CostOfGoodsSold, &period.GrossProfit, &period.OperatingExpenses,
		&period.OperatingProfit, &period.NonOperatingRevenue, &period.NonOperatingExpenses, &period.NetProfit,
		&revenueBreakdown, &expenseBreakdown, &period.Currency, &rawData,
	)
	if err != nil {
		return nil, err
	}

	if revenueBreakdown.Valid && revenueBreakdown.String != "" {
		if err := json.Unmarshal([]byte(revenueBreakdown.String), &period.RevenueBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode revenue breakdown: %w", err)
		}
	}
	if expenseBreakdown.Valid && expenseBreakdown.String != "" {
		if err := json.Unmarshal([]byte(expenseBreakdown.String), &period.ExpenseBreakdown); err != nil {
			return nil, fmt.Errorf("failed to decode expense breakdown: %w", err)
		}
	}
	if rawData.Valid && rawData.String != "" {
		period.RawData = json.RawMessage(rawData.String)
	}

	return &period, nil
}

func marshalBreakdowns(period *models.CanonicalPeriod) (string, string, error) {
	revenueBreakdown, err := json.Marshal(period.RevenueBreakdown)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode revenue breakdown: %w", err)
	}
	expenseBreakdown, err := json.Marshal(period.ExpenseBreakdown)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode expense breakdown: %w", err)
	}
	return string(revenueBreakdown), string(expenseBreakdown), nil
}
