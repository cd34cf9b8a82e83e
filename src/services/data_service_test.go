package services

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

// fakePeriodStore is an in-memory PeriodStore keyed by the identity triple.
type fakePeriodStore struct {
	periods map[string]models.CanonicalPeriod
	inserts int
	updates int
}

func newFakePeriodStore() *fakePeriodStore {
	return &fakePeriodStore{periods: make(map[string]models.CanonicalPeriod)}
}

func identityKey(periodStart, periodEnd, source string) string {
	return periodStart + "|" + periodEnd + "|" + source
}

func (s *fakePeriodStore) FindByIdentity(periodStart, periodEnd, source string) (*models.CanonicalPeriod, error) {
	p, ok := s.periods[identityKey(periodStart, periodEnd, source)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *fakePeriodStore) Insert(period *models.CanonicalPeriod) error {
	s.inserts++
	s.periods[identityKey(period.PeriodStart, period.PeriodEnd, period.Source)] = *period
	return nil
}

func (s *fakePeriodStore) Update(period *models.CanonicalPeriod) error {
	s.updates++
	key := identityKey(period.PeriodStart, period.PeriodEnd, period.Source)
	if _, ok := s.periods[key]; !ok {
		return errors.New("update of missing identity")
	}
	s.periods[key] = *period
	return nil
}

func (s *fakePeriodStore) ListAll(source string) ([]models.CanonicalPeriod, error) {
	out := []models.CanonicalPeriod{}
	for _, p := range s.periods {
		if source == "" || p.Source == source {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart < out[j].PeriodStart })
	return out, nil
}

func (s *fakePeriodStore) ListRange(startDate, endDate, source string) ([]models.CanonicalPeriod, error) {
	all, _ := s.ListAll(source)
	out := []models.CanonicalPeriod{}
	for _, p := range all {
		if p.PeriodStart >= startDate && p.PeriodEnd <= endDate {
			out = append(out, p)
		}
	}
	return out, nil
}

const quickBooksFixture = `{
  "data": {
    "Columns": {"Column": [
      {"ColTitle": "", "ColType": "Account"},
      {"ColTitle": "Jan 2024", "MetaData": [
        {"Name": "StartDate", "Value": "2024-01-01"},
        {"Name": "EndDate", "Value": "2024-01-31"}
      ]},
      {"ColTitle": "Feb 2024", "MetaData": [
        {"Name": "StartDate", "Value": "2024-02-01"},
        {"Name": "EndDate", "Value": "2024-02-29"}
      ]},
      {"ColTitle": "Total"}
    ]},
    "Rows": {"Row": [
      {"group": "Income", "Summary": {"ColData": [{"value": ""}, {"value": "1000.00"}, {"value": "1200.00"}, {"value": "2200.00"}]}},
      {"group": "NetIncome", "Summary": {"ColData": [{"value": ""}, {"value": "100.00"}, {"value": "140.00"}, {"value": "240.00"}]}}
    ]}
  }
}`

const rootfiFixture = `{
  "data": [
    {
      "period_start": "2024-01-01",
      "period_end": "2024-01-31",
      "net_profit": 90,
      "revenue": [{"name": "Sales", "value": 900}]
    }
  ]
}`

// rootfiFixtureWithInvalid adds a record whose period_start is not before
// period_end; it must be dropped by validation without failing the batch.
const rootfiFixtureWithInvalid = `{
  "data": [
    {
      "period_start": "2024-01-01",
      "period_end": "2024-01-31",
      "net_profit": 90,
      "revenue": [{"name": "Sales", "value": 900}]
    },
    {
      "period_start": "2024-02-29",
      "period_end": "2024-02-01",
      "net_profit": 10
    }
  ]
}`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

func newTestService(t *testing.T, store PeriodStore, quickBooksDoc, rootfiDoc string) DataService {
	t.Helper()
	dir := t.TempDir()
	qbPath := writeFixture(t, dir, "quickbooks.json", quickBooksDoc)
	rootfiPath := writeFixture(t, dir, "rootfi.json", rootfiDoc)
	return NewDataService(store, cache.New(DefaultCacheExpiration, CacheCleanupInterval), qbPath, rootfiPath)
}

func TestLoadFromSourcesCounts(t *testing.T) {
	store := newFakePeriodStore()
	svc := newTestService(t, store, quickBooksFixture, rootfiFixture)

	result, err := svc.LoadFromSources()
	if err != nil {
		t.Fatalf("LoadFromSources returned error: %v", err)
	}
	if result.QuickBooksRecords != 2 {
		t.Errorf("expected 2 new quickbooks records, got %d", result.QuickBooksRecords)
	}
	if result.RootfiRecords != 1 {
		t.Errorf("expected 1 new rootfi record, got %d", result.RootfiRecords)
	}
	if result.TotalRecords != 3 {
		t.Errorf("expected 3 total records, got %d", result.TotalRecords)
	}

	// Same identity, different sources: both coexist.
	qbJan, _ := store.FindByIdentity("2024-01-01", "2024-01-31", models.SourceQuickBooks)
	rootfiJan, _ := store.FindByIdentity("2024-01-01", "2024-01-31", models.SourceRootfi)
	if qbJan == nil || rootfiJan == nil {
		t.Fatal("expected January stored once per source")
	}
	if qbJan.Revenue != 1000 || rootfiJan.Revenue != 900 {
		t.Errorf("unexpected stored revenues: quickbooks=%v rootfi=%v", qbJan.Revenue, rootfiJan.Revenue)
	}
	if len(qbJan.RawData) == 0 {
		t.Error("expected raw audit copy on stored record")
	}
}

func TestLoadFromSourcesIdempotent(t *testing.T) {
	store := newFakePeriodStore()
	svc := newTestService(t, store, quickBooksFixture, rootfiFixture)

	if _, err := svc.LoadFromSources(); err != nil {
		t.Fatalf("first load returned error: %v", err)
	}
	firstState, _ := store.ListAll("")

	result, err := svc.LoadFromSources()
	if err != nil {
		t.Fatalf("second load returned error: %v", err)
	}
	if result.QuickBooksRecords != 0 || result.RootfiRecords != 0 || result.TotalRecords != 0 {
		t.Errorf("expected second load to insert nothing, got %+v", result)
	}
	if store.updates == 0 {
		t.Error("expected second load to overwrite existing identities")
	}

	secondState, _ := store.ListAll("")
	if len(firstState) != len(secondState) {
		t.Fatalf("canonical state changed size across reloads: %d -> %d", len(firstState), len(secondState))
	}
	for i := range firstState {
		if firstState[i].PeriodStart != secondState[i].PeriodStart ||
			firstState[i].Revenue != secondState[i].Revenue ||
			firstState[i].NetProfit != secondState[i].NetProfit {
			t.Errorf("canonical state diverged at %d: %+v vs %+v", i, firstState[i], secondState[i])
		}
	}
}

func TestLoadSkipsInvalidRecords(t *testing.T) {
	store := newFakePeriodStore()
	svc := newTestService(t, store, quickBooksFixture, rootfiFixtureWithInvalid)

	result, err := svc.LoadFromSources()
	if err != nil {
		t.Fatalf("LoadFromSources returned error: %v", err)
	}
	if result.RootfiRecords != 1 {
		t.Errorf("expected the inverted-range record to be dropped, got %d rootfi records", result.RootfiRecords)
	}
	if p, _ := store.FindByIdentity("2024-02-29", "2024-02-01", models.SourceRootfi); p != nil {
		t.Error("invalid record must never reach storage")
	}
}

func TestLoadFromSourcesMissingFile(t *testing.T) {
	store := newFakePeriodStore()
	dir := t.TempDir()
	rootfiPath := writeFixture(t, dir, "rootfi.json", rootfiFixture)
	svc := NewDataService(store, cache.New(DefaultCacheExpiration, CacheCleanupInterval),
		filepath.Join(dir, "does-not-exist.json"), rootfiPath)

	_, err := svc.LoadFromSources()
	if !errors.Is(err, ErrDataSource) {
		t.Errorf("expected ErrDataSource for missing file, got: %v", err)
	}
	if store.inserts != 0 {
		t.Error("no records may be inserted when a source is unavailable")
	}
}

func TestLoadFromSourcesMalformedDocument(t *testing.T) {
	store := newFakePeriodStore()
	svc := newTestService(t, store, `{"data": {}}`, rootfiFixture)

	_, err := svc.LoadFromSources()
	if !errors.Is(err, ErrSourceFormat) {
		t.Errorf("expected ErrSourceFormat for missing envelope, got: %v", err)
	}
}

func TestIngestDocument(t *testing.T) {
	store := newFakePeriodStore()
	svc := newTestService(t, store, quickBooksFixture, rootfiFixture)

	count, err := svc.IngestDocument(models.SourceRootfi, strings.NewReader(rootfiFixture))
	if err != nil {
		t.Fatalf("IngestDocument returned error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 new record, got %d", count)
	}

	// Re-ingesting the same document inserts nothing new.
	count, err = svc.IngestDocument(models.SourceRootfi, strings.NewReader(rootfiFixture))
	if err != nil {
		t.Fatalf("second IngestDocument returned error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected idempotent re-ingest to insert 0, got %d", count)
	}

	if _, err := svc.IngestDocument("xero", strings.NewReader(`{}`)); !errors.Is(err, ErrSourceFormat) {
		t.Errorf("expected ErrSourceFormat for unknown source, got: %v", err)
	}
}

func TestGetSummaryStatistics(t *testing.T) {
	store := newFakePeriodStore()
	svc := newTestService(t, store, quickBooksFixture, rootfiFixture)

	stats, err := svc.GetSummaryStatistics()
	if err != nil {
		t.Fatalf("GetSummaryStatistics returned error: %v", err)
	}
	if stats != nil {
		t.Fatal("expected nil statistics before any data is loaded")
	}

	if _, err := svc.LoadFromSources(); err != nil {
		t.Fatalf("LoadFromSources returned error: %v", err)
	}

	stats, err = svc.GetSummaryStatistics()
	if err != nil {
		t.Fatalf("GetSummaryStatistics returned error: %v", err)
	}
	if stats == nil {
		t.Fatal("expected statistics after load")
	}
	if stats.TotalPeriods != 3 {
		t.Errorf("expected 3 periods, got %d", stats.TotalPeriods)
	}
	if stats.TotalRevenue != 1000+1200+900 {
		t.Errorf("unexpected total revenue: %v", stats.TotalRevenue)
	}
	if stats.DateRange.Start != "2024-01-01" || stats.DateRange.End != "2024-02-29" {
		t.Errorf("unexpected date range: %+v", stats.DateRange)
	}
}

func TestGetPeriodRange(t *testing.T) {
	store := newFakePeriodStore()
	svc := newTestService(t, store, quickBooksFixture, rootfiFixture)
	if _, err := svc.LoadFromSources(); err != nil {
		t.Fatalf("LoadFromSources returned error: %v", err)
	}

	periods, err := svc.GetPeriodRange("2024-01-01", "2024-01-31", "")
	if err != nil {
		t.Fatalf("GetPeriodRange returned error: %v", err)
	}
	if len(periods) != 2 {
		t.Errorf("expected 2 January periods across sources, got %d", len(periods))
	}

	periods, err = svc.GetPeriodRange("2024-01-01", "2024-01-31", models.SourceQuickBooks)
	if err != nil {
		t.Fatalf("GetPeriodRange returned error: %v", err)
	}
	if len(periods) != 1 {
		t.Errorf("expected 1 quickbooks January period, got %d", len(periods))
	}

	if _, err := svc.GetPeriodRange("2024-03-31", "2024-01-01", ""); err == nil {
		t.Error("expected inverted range to fail validation")
	}
}
