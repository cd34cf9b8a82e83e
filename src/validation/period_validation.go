// src/validation/period_validation.go
package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/utils"
)

// ErrValidationFailed is the sentinel wrapped by every validation failure.
// Callers drop the offending record and continue; a validation failure is
// never fatal to a batch.
var ErrValidationFailed = errors.New("period validation failed")

// ValidatePeriod checks a draft period before it is trusted for storage.
// Checks run in order and the first failure wins: required identity fields,
// date format and ordering, recognized source, finite metrics.
func ValidatePeriod(period *models.CanonicalPeriod) error {
	if period.PeriodStart == "" {
		return fmt.Errorf("%w: missing required field: period_start", ErrValidationFailed)
	}
	if period.PeriodEnd == "" {
		return fmt.Errorf("%w: missing required field: period_end", ErrValidationFailed)
	}
	if period.Source == "" {
		return fmt.Errorf("%w: missing required field: source", ErrValidationFailed)
	}

	startDate, err := utils.ParseISODate(period.PeriodStart)
	if err != nil {
		return fmt.Errorf("%w: invalid period_start date format: %v", ErrValidationFailed, err)
	}
	endDate, err := utils.ParseISODate(period.PeriodEnd)
	if err != nil {
		return fmt.Errorf("%w: invalid period_end date format: %v", ErrValidationFailed, err)
	}
	if !startDate.Before(endDate) {
		return fmt.Errorf("%w: period_start must be before period_end", ErrValidationFailed)
	}

	if period.Source != models.SourceQuickBooks && period.Source != models.SourceRootfi {
		return fmt.Errorf("%w: invalid source: %s", ErrValidationFailed, period.Source)
	}

	for name, value := range period.Metrics() {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("%w: invalid numeric value for %s", ErrValidationFailed, name)
		}
	}

	return nil
}

// ValidateDateRange checks a query date range: both dates must parse as
// YYYY-MM-DD and the start must precede the end.
func ValidateDateRange(startDate, endDate string) error {
	start, err := utils.ParseISODate(startDate)
	if err != nil {
		return fmt.Errorf("%w: invalid start_date format: %v", ErrValidationFailed, err)
	}
	end, err := utils.ParseISODate(endDate)
	if err != nil {
		return fmt.Errorf("%w: invalid end_date format: %v", ErrValidationFailed, err)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start_date must be before end_date", ErrValidationFailed)
	}
	return nil
}
