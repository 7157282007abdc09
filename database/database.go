package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DBClient wraps the primary analytics database. The same client serves
// both deployment variants: an embedded SQLite file (default) or a hosted
// PostgreSQL instance when DATABASE_URL is set.
type DBClient struct {
	DB     *sql.DB
	Driver string
}

func NewAnalyticsDB() (*DBClient, error) {
	driver := "sqlite3"
	dsn := os.Getenv("ANALYTICS_DB_PATH")
	if dsn == "" {
		dsn = "./analytics.db"
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		driver = "postgres"
		dsn = dbURL
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening %s database: %w", driver, err)
	}

	if driver == "postgres" {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// SQLite serializes writers through a single connection; more than
		// one would surface "database is locked" under concurrent batches.
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database (ping failed): %w", err)
	}

	client := &DBClient{DB: db, Driver: driver}
	if err := client.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	log.Printf("Connected to %s analytics database.", driver)
	return client, nil
}

func (c *DBClient) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			session_id TEXT,
			source_ip TEXT,
			page TEXT NOT NULL DEFAULT '',
			event_type TEXT NOT NULL DEFAULT 'custom',
			properties TEXT NOT NULL DEFAULT '{}'
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			session_id TEXT,
			result_name TEXT NOT NULL DEFAULT '',
			scores TEXT NOT NULL DEFAULT '{}'
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_results_timestamp ON results(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id);`,
	}

	for _, stmt := range statements {
		if _, err := c.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *DBClient) Close() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		} else {
			log.Println("Analytics database connection closed.")
		}
	}
}
