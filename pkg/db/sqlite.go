package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sql.DB connection
type DB struct {
	*sql.DB
}

// NewDB creates a new SQLite database connection
func NewDB(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.DB.Close()
}

// InitSchema initializes the database schema
func (d *DB) InitSchema() error {
	// sort_order is intentionally not UNIQUE: explicit caller-provided orders
	// may collide, and list queries break ties by id.
	schema := `
	CREATE TABLE IF NOT EXISTS thoughts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS processed_thoughts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thought_id INTEGER NOT NULL REFERENCES thoughts(id),
		content TEXT NOT NULL,
		destination TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		sort_order INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_processed_thoughts_destination
		ON processed_thoughts(destination, sort_order);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS document_thoughts (
		document_id INTEGER NOT NULL REFERENCES documents(id),
		thought_id INTEGER NOT NULL REFERENCES processed_thoughts(id),
		PRIMARY KEY (document_id, thought_id)
	);
	`

	_, err := d.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}

	return nil
}
