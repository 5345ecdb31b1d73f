package db

import (
	"database/sql"
	"fmt"

	"github.com/studyspark/StudySparkApi/utils"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func InitDB(dbPath string) (*DB, error) {
	utils.LogStartup("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		utils.LogError("Failed to open database: %v", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		utils.LogError("Failed to ping database: %v", err)
		return nil, err
	}

	utils.LogStartup("Database connection established")

	if err := createTables(db); err != nil {
		utils.LogError("Failed to create tables: %v", err)
		return nil, err
	}

	utils.LogStartup("Database tables initialized successfully")
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Per-topic session cache, one serialized session per topic
		`CREATE TABLE IF NOT EXISTS sessions (
			topic TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Bounded Q&A history log
		`CREATE TABLE IF NOT EXISTS qa_history (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			topic TEXT NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Entitlement snapshot, single row
		`CREATE TABLE IF NOT EXISTS entitlement (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			credit_balance INTEGER NOT NULL DEFAULT 0,
			used_topics TEXT NOT NULL DEFAULT '[]'
		)`,

		// Append-only consumed payment order ids
		`CREATE TABLE IF NOT EXISTS used_orders (
			order_id TEXT PRIMARY KEY,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Verified payments
		`CREATE TABLE IF NOT EXISTS payment_history (
			order_id TEXT PRIMARY KEY,
			amount REAL NOT NULL,
			package TEXT NOT NULL,
			method TEXT NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Provider configuration, single row
		`CREATE TABLE IF NOT EXISTS provider_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			provider TEXT NOT NULL,
			api_key TEXT NOT NULL DEFAULT '',
			base_url TEXT NOT NULL,
			model TEXT NOT NULL
		)`,

		// Learning stats, single serialized row
		`CREATE TABLE IF NOT EXISTS learning_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL
		)`,
	}

	for i, query := range queries {
		utils.LogDB("Creating table %d/%d", i+1, len(queries))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_qa_history_timestamp ON qa_history(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_qa_history_topic ON qa_history(topic)",
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			utils.LogDB("Failed to create index (non-fatal): %v", err)
		}
	}

	return nil
}
