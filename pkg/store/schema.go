package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	if err := createDocumentsTable(db); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	if err := createSpansTable(db); err != nil {
		return fmt.Errorf("creating spans table: %w", err)
	}

	if err := createWarningsTable(db); err != nil {
		return fmt.Errorf("creating warnings table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("datastore schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	return nil
}

func createDocumentsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY NOT NULL,
			token_path TEXT NOT NULL DEFAULT '',
			text_path TEXT NOT NULL DEFAULT '',
			digest TEXT NOT NULL,
			tokens INTEGER NOT NULL DEFAULT 0,
			spans INTEGER NOT NULL DEFAULT 0,
			warnings INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			converted_at TEXT NOT NULL
		)
	`)
	return err
}

func createSpansTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS spans (
			document_id TEXT NOT NULL REFERENCES documents(id),
			span_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			offset_start INTEGER NOT NULL,
			offset_end INTEGER NOT NULL,
			start_line INTEGER,
			start_column INTEGER,
			end_line INTEGER,
			end_column INTEGER,
			text TEXT NOT NULL,
			token_ids_json TEXT,
			PRIMARY KEY (document_id, span_id)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_spans_type ON spans(type)
	`)
	return err
}

func createWarningsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS warnings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id),
			kind TEXT NOT NULL,
			line INTEGER NOT NULL DEFAULT 0,
			token_id TEXT NOT NULL DEFAULT '',
			label TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			UNIQUE(document_id, line, kind, token_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create index for efficient warning lookup by document
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_warnings_document_id ON warnings(document_id)
	`)
	return err
}
