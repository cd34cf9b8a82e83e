package services

import (
	"errors"
	"io"

	"github.com/username/finsight/src/models"
)

// Sentinel errors for the ingestion pipeline. Handlers translate these into
// HTTP statuses with errors.Is.
var (
	// ErrDataSource means a configured source could not be opened at all.
	// The whole load aborts; there is no partial credit across sources.
	ErrDataSource = errors.New("data source unavailable")

	// ErrSourceFormat means a source document was readable but malformed:
	// undecodable JSON or a missing envelope. Fatal for that batch.
	ErrSourceFormat = errors.New("source document format invalid")

	// ErrProcessingFailed wraps any other failure during a load pass.
	ErrProcessingFailed = errors.New("data processing failed")
)

// PeriodStore is the persistence contract the ingestion pipeline needs:
// lookup by identity triple, insert, full-field update, plus the two list
// queries the read API uses.
type PeriodStore interface {
	FindByIdentity(periodStart, periodEnd, source string) (*models.CanonicalPeriod, error)
	Insert(period *models.CanonicalPeriod) error
	Update(period *models.CanonicalPeriod) error
	ListAll(source string) ([]models.CanonicalPeriod, error)
	ListRange(startDate, endDate, source string) ([]models.CanonicalPeriod, error)
}

// DataService defines the core financial data operations.
type DataService interface {
	// LoadFromSources parses both configured source files, validates each
	// draft and upserts it, returning counts of newly inserted periods.
	LoadFromSources() (*models.LoadResult, error)

	// IngestDocument runs one ad-hoc document through the parser for the
	// given source and upserts the result, returning the insert count.
	IngestDocument(source string, r io.Reader) (int, error)

	GetAllPeriods(source string) ([]models.CanonicalPeriod, error)
	GetPeriodRange(startDate, endDate, source string) ([]models.CanonicalPeriod, error)
	GetSummaryStatistics() (*models.SummaryStatistics, error)
}
