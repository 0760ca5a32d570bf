// Package datastore exports scan results to SQLite (and optionally a
// remote Datasette instance) for browsing and querying.
package datastore

// Store defines the interface for result storage backends.
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// CreateTable creates a new table with the given schema if it doesn't exist
	CreateTable(schema string) error

	// BatchInsert inserts multiple records into the specified table
	BatchInsert(database string, table string, records []map[string]any) error

	// Close closes the connection to the data store
	Close() error
}

// SeriesSchema is the table for enriched records.
const SeriesSchema = `
CREATE TABLE IF NOT EXISTS series (
	serial_no INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL,
	tmdb_id INTEGER,
	imdb_id TEXT,
	year INTEGER,
	episodes TEXT NOT NULL,
	episode_offset INTEGER NOT NULL DEFAULT 0
);
`

// ScanErrorsSchema is the table for classified failures.
const ScanErrorsSchema = `
CREATE TABLE IF NOT EXISTS scan_errors (
	identifier INTEGER NOT NULL,
	url TEXT NOT NULL,
	reason TEXT NOT NULL,
	classification TEXT NOT NULL,
	failed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_errors_class ON scan_errors(classification);
`
