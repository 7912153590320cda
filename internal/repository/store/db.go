package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/advisorlens/advisorlens/internal/config"
)

// Open creates a database connection for the configured driver.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		// WAL mode for better concurrency
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}

		db.SetMaxOpenConns(1) // SQLite supports one writer at a time
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(time.Hour)

	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
		)

		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	report_type TEXT NOT NULL,
	status TEXT NOT NULL,
	total_rows INTEGER NOT NULL DEFAULT 0,
	parsed_rows INTEGER NOT NULL DEFAULT 0,
	skipped_rows INTEGER NOT NULL DEFAULT 0,
	total_savings TEXT NOT NULL DEFAULT '0',
	currency TEXT NOT NULL DEFAULT 'USD',
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendations (
	id TEXT PRIMARY KEY,
	report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
	row_index INTEGER NOT NULL,
	category TEXT NOT NULL,
	impact TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	resource_name TEXT,
	resource_type TEXT,
	resource_group TEXT,
	subscription_id TEXT,
	subscription_name TEXT,
	potential_savings TEXT,
	currency TEXT NOT NULL DEFAULT 'USD',
	potential_benefits TEXT,
	retirement_date TIMESTAMP,
	retiring_feature TEXT,
	advisor_score_impact TEXT,
	metadata TEXT,
	analysis TEXT NOT NULL,
	total_commitment_savings TEXT,
	monthly_savings TEXT
);

CREATE INDEX IF NOT EXISTS idx_recommendations_report ON recommendations(report_id);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

// Migrate creates the schema if it does not exist.
func Migrate(db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// rebind translates ? placeholders to the driver's native form. SQLite keeps
// ? while postgres needs $1..$n.
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
