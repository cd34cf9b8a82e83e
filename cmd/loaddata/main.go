// Command loaddata runs one ingestion pass from both configured sources and
// prints the resulting counts. Intended for initial seeding and cron use.
package main

import (
	"fmt"
	"os"

	"github.com/patrickmn/go-cache"
	"github.com/username/finsight/src/config"
	"github.com/username/finsight/src/database"
	"github.com/username/finsight/src/logger"
	"github.com/username/finsight/src/services"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)

	periodStore := database.NewPeriodStore(database.DB)
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	dataService := services.NewDataService(
		periodStore, reportCache,
		config.Cfg.QuickBooksDataPath, config.Cfg.RootfiDataPath,
	)

	result, err := dataService.LoadFromSources()
	if err != nil {
		logger.L.Error("Data load failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error loading data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Data loaded successfully!")
	fmt.Printf("  - QuickBooks records: %d\n", result.QuickBooksRecords)
	fmt.Printf("  - Rootfi records:     %d\n", result.RootfiRecords)
	fmt.Printf("  - Total records:      %d\n", result.TotalRecords)
}
