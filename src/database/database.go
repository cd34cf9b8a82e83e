package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/finsight/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migratePeriodTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS financial_periods (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		source TEXT NOT NULL,
		revenue REAL DEFAULT 0,
		cost_of_goods_sold REAL DEFAULT 0,
		gross_profit REAL DEFAULT 0,
		operating_expenses REAL DEFAULT 0,
		operating_profit REAL DEFAULT 0,
		non_operating_revenue REAL DEFAULT 0,
		non_operating_expenses REAL DEFAULT 0,
		net_profit REAL DEFAULT 0,
		revenue_breakdown TEXT,
		expense_breakdown TEXT,
		currency TEXT DEFAULT 'USD',
		raw_data TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(period_start, period_end, source)
	);

	CREATE INDEX IF NOT EXISTS idx_financial_periods_start ON financial_periods(period_start);
	CREATE INDEX IF NOT EXISTS idx_financial_periods_end ON financial_periods(period_end);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migratePeriodTable adds columns introduced after the first schema version
// to an existing financial_periods table.
func migratePeriodTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='financial_periods'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'financial_periods' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'financial_periods' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'financial_periods' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'financial_periods' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(financial_periods)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'financial_periods'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'financial_periods': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'financial_periods'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'financial_periods': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'financial_periods'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'financial_periods': %v", err)
		}
		return
	}

	if _, ok := columnExists["currency"]; !ok {
		_, err := DB.Exec("ALTER TABLE financial_periods ADD COLUMN currency TEXT DEFAULT 'USD'")
		if err != nil {
			logger.L.Error("Error adding 'currency' column to 'financial_periods' table", "error", err)
		} else {
			logger.L.Info("Added 'currency' column to 'financial_periods' table")
		}
	}
	if _, ok := columnExists["raw_data"]; !ok {
		_, err := DB.Exec("ALTER TABLE financial_periods ADD COLUMN raw_data TEXT")
		if err != nil {
			logger.L.Error("Error adding 'raw_data' column to 'financial_periods' table", "error", err)
		} else {
			logger.L.Info("Added 'raw_data' column to 'financial_periods' table")
		}
	}
	if _, ok := columnExists["updated_at"]; !ok {
		_, err := DB.Exec("ALTER TABLE financial_periods ADD COLUMN updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP")
		if err != nil {
			logger.L.Error("Error adding 'updated_at' column to 'financial_periods' table", "error", err)
		} else {
			logger.L.Info("Added 'updated_at' column to 'financial_periods' table")
		}
	}
}
