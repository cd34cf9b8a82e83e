// src/services/data_service.go
package services

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
	"github.com/username/finsight/src/parsers"
	"github.com/username/finsight/src/validation"
)

const (
	// Aggregate cache, invalidated whenever a load changes stored state.
	ckSummaryStatistics = "agg_summary_statistics"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type dataServiceImpl struct {
	store              PeriodStore
	reportCache        *cache.Cache
	quickBooksDataPath string
	rootfiDataPath     string
}

func NewDataService(store PeriodStore, reportCache *cache.Cache, quickBooksDataPath, rootfiDataPath string) DataService {
	return &dataServiceImpl{
		store:              store,
		reportCache:        reportCache,
		quickBooksDataPath: quickBooksDataPath,
		rootfiDataPath:     rootfiDataPath,
	}
}

// LoadFromSources runs both parsers against their configured files and loads
// the results. A source that cannot be opened or parsed aborts the whole
// call; invalid individual records are skipped inside loadPeriods.
func (s *dataServiceImpl) LoadFromSources() (*models.LoadResult, error) {
	runID := uuid.NewString()
	startTime := time.Now()
	logger.L.Info("LoadFromSources START", "runID", runID,
		"quickbooksPath", s.quickBooksDataPath, "rootfiPath", s.rootfiDataPath)

	quickBooksPeriods, err := s.parseSourceFile(models.SourceQuickBooks, s.quickBooksDataPath)
	if err != nil {
		return nil, err
	}
	rootfiPeriods, err := s.parseSourceFile(models.SourceRootfi, s.rootfiDataPath)
	if err != nil {
		return nil, err
	}

	quickBooksCount, err := s.loadPeriods(quickBooksPeriods)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}
	rootfiCount, err := s.loadPeriods(rootfiPeriods)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	s.reportCache.Delete(ckSummaryStatistics)

	result := &models.LoadResult{
		QuickBooksRecords: quickBooksCount,
		RootfiRecords:     rootfiCount,
		TotalRecords:      quickBooksCount + rootfiCount,
	}
	logger.L.Info("LoadFromSources END", "runID", runID,
		"quickbooksRecords", result.QuickBooksRecords, "rootfiRecords", result.RootfiRecords,
		"duration", time.Since(startTime).String())
	return result, nil
}

// IngestDocument loads one raw document for the given source, e.g. from an
// upload. Parse errors surface as ErrSourceFormat; unknown sources too, since
// the caller handed us a document we have no format for.
func (s *dataServiceImpl) IngestDocument(source string, r io.Reader) (int, error) {
	parser, err := parsers.GetParser(source)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceFormat, err)
	}

	periods, err := parser.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceFormat, err)
	}

	count, err := s.loadPeriods(periods)
	if err != nil {
		return count, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	s.reportCache.Delete(ckSummaryStatistics)
	logger.L.Info("Ad-hoc document ingested", "source", source, "newRecords", count)
	return count, nil
}

// parseSourceFile opens one configured source file and runs its parser.
func (s *dataServiceImpl) parseSourceFile(source, path string) ([]models.CanonicalPeriod, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s data file: %v", ErrDataSource, source, err)
	}
	defer file.Close()

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessingFailed, err)
	}

	periods, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceFormat, err)
	}
	return periods, nil
}

// loadPeriods validates and upserts a parser's drafts, returning how many
// were newly inserted. Invalid drafts are logged and skipped; an existing
// identity gets every non-identity field overwritten, which makes repeated
// loads idempotent with respect to final state.
func (s *dataServiceImpl) loadPeriods(periods []models.CanonicalPeriod) (int, error) {
	count := 0

	for i := range periods {
		period := &periods[i]

		if err := validation.ValidatePeriod(period); err != nil {
			logger.L.Warn("Skipping invalid period record",
				"source", period.Source, "periodStart", period.PeriodStart,
				"periodEnd", period.PeriodEnd, "error", err)
			continue
		}

		// Retain the draft itself as the audit copy before storing.
		if period.RawData == nil {
			raw, err := json.Marshal(period)
			if err != nil {
				return count, fmt.Errorf("failed to encode raw period data: %w", err)
			}
			period.RawData = raw
		}

		existing, err := s.store.FindByIdentity(period.PeriodStart, period.PeriodEnd, period.Source)
		if err != nil {
			return count, err
		}

		if existing != nil {
			if err := s.store.Update(period); err != nil {
				return count, err
			}
		} else {
			if err := s.store.Insert(period); err != nil {
				return count, err
			}
			count++
		}
	}

	return count, nil
}

func (s *dataServiceImpl) GetAllPeriods(source string) ([]models.CanonicalPeriod, error) {
	return s.store.ListAll(source)
}

func (s *dataServiceImpl) GetPeriodRange(startDate, endDate, source string) ([]models.CanonicalPeriod, error) {
	if err := validation.ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	return s.store.ListRange(startDate, endDate, source)
}

// GetSummaryStatistics rolls up totals across all stored periods. Results
// are cached until the next load changes stored state. Returns (nil, nil)
// when nothing is stored.
func (s *dataServiceImpl) GetSummaryStatistics() (*models.SummaryStatistics, error) {
	if cached, found := s.reportCache.Get(ckSummaryStatistics); found {
		if stats, ok := cached.(*models.SummaryStatistics); ok {
			logger.L.Debug("Summary statistics served from cache")
			return stats, nil
		}
	}

	periods, err := s.store.ListAll("")
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, nil
	}

	var totalRevenue, totalExpenses, totalProfit float64
	minStart := periods[0].PeriodStart
	maxEnd := periods[0].PeriodEnd
	for _, p := range periods {
		totalRevenue += p.Revenue
		totalExpenses += p.OperatingExpenses
		totalProfit += p.NetProfit
		if p.PeriodStart < minStart {
			minStart = p.PeriodStart
		}
		if p.PeriodEnd > maxEnd {
			maxEnd = p.PeriodEnd
		}
	}

	stats := &models.SummaryStatistics{
		TotalPeriods:          len(periods),
		DateRange:             models.DateRange{Start: minStart, End: maxEnd},
		TotalRevenue:          totalRevenue,
		TotalExpenses:         totalExpenses,
		TotalProfit:           totalProfit,
		AverageMonthlyRevenue: totalRevenue / float64(len(periods)),
		AverageMonthlyProfit:  totalProfit / float64(len(periods)),
	}

	s.reportCache.Set(ckSummaryStatistics, stats, DefaultCacheExpiration)
	return stats, nil
}
