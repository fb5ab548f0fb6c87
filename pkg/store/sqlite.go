package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/praetorian-inc/bio2brat/pkg/types"
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// openDB opens a database and initializes its schema.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Converter workers share the store; a single connection serializes
	// writers and keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}

// AddDocument stores a document record, replacing any previous one along
// with its spans and warnings.
func (s *SQLiteStore) AddDocument(rec *types.DocumentRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM spans WHERE document_id = ?", rec.ID); err != nil {
		return fmt.Errorf("deleting spans: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM warnings WHERE document_id = ?", rec.ID); err != nil {
		return fmt.Errorf("deleting warnings: %w", err)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO documents (id, token_path, text_path, digest, tokens, spans, warnings, status, error, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.TokenPath,
		rec.TextPath,
		rec.Digest,
		rec.Tokens,
		rec.Spans,
		rec.Warnings,
		string(rec.Status),
		rec.Error,
		formatTime(rec.ConvertedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AddSpans stores the decoded spans of a document.
func (s *SQLiteStore) AddSpans(docID string, spans []types.Span) error {
	if len(spans) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO spans (document_id, span_id, type, offset_start, offset_end,
			start_line, start_column, end_line, end_column, text, token_ids_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing span insert: %w", err)
	}
	defer stmt.Close()

	for _, sp := range spans {
		tokenIDs, err := json.Marshal(sp.TokenIDs)
		if err != nil {
			return fmt.Errorf("marshaling token ids: %w", err)
		}
		src := sp.Location.Source
		_, err = stmt.Exec(
			docID,
			sp.ID,
			sp.Type,
			sp.Location.Offset.Start,
			sp.Location.Offset.End,
			src.Start.Line,
			src.Start.Column,
			src.End.Line,
			src.End.Column,
			sp.Text,
			string(tokenIDs),
		)
		if err != nil {
			return fmt.Errorf("inserting span %s: %w", sp.AnnotationID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AddWarnings stores the decoding warnings of a document.
func (s *SQLiteStore) AddWarnings(docID string, warnings []types.Warning) error {
	if len(warnings) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO warnings (document_id, kind, line, token_id, label, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing warning insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range warnings {
		_, err := stmt.Exec(docID, string(w.Kind), w.Line, w.TokenID, w.Label, w.Message)
		if err != nil {
			return fmt.Errorf("inserting warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const documentColumns = `id, token_path, text_path, digest, tokens, spans, warnings, status, error, converted_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*types.DocumentRecord, error) {
	var rec types.DocumentRecord
	var status, convertedAt string
	err := row.Scan(
		&rec.ID,
		&rec.TokenPath,
		&rec.TextPath,
		&rec.Digest,
		&rec.Tokens,
		&rec.Spans,
		&rec.Warnings,
		&status,
		&rec.Error,
		&convertedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = types.DocumentStatus(status)
	if rec.ConvertedAt, err = parseTime(convertedAt); err != nil {
		return nil, fmt.Errorf("parsing converted_at of %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// GetDocument retrieves one document record.
func (s *SQLiteStore) GetDocument(id string) (*types.DocumentRecord, error) {
	row := s.db.QueryRow("SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	rec, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return rec, nil
}

// GetDocuments retrieves all document records ordered by ID.
func (s *SQLiteStore) GetDocuments() ([]*types.DocumentRecord, error) {
	rows, err := s.db.Query("SELECT " + documentColumns + " FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []*types.DocumentRecord{}
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

const spanColumns = `document_id, span_id, type, offset_start, offset_end,
	start_line, start_column, end_line, end_column, text, token_ids_json`

func (s *SQLiteStore) querySpans(where string, args ...any) ([]DocumentSpan, error) {
	rows, err := s.db.Query("SELECT "+spanColumns+" FROM spans "+where+" ORDER BY document_id, span_id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying spans: %w", err)
	}
	defer rows.Close()

	spans := []DocumentSpan{}
	for rows.Next() {
		var ds DocumentSpan
		var startLine, startCol, endLine, endCol sql.NullInt64
		var tokenIDs sql.NullString
		err := rows.Scan(
			&ds.Document,
			&ds.ID,
			&ds.Type,
			&ds.Location.Offset.Start,
			&ds.Location.Offset.End,
			&startLine,
			&startCol,
			&endLine,
			&endCol,
			&ds.Text,
			&tokenIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning span: %w", err)
		}
		ds.Location.Source.Start.Line = int(startLine.Int64)
		ds.Location.Source.Start.Column = int(startCol.Int64)
		ds.Location.Source.End.Line = int(endLine.Int64)
		ds.Location.Source.End.Column = int(endCol.Int64)

		if tokenIDs.Valid && tokenIDs.String != "" {
			if err := json.Unmarshal([]byte(tokenIDs.String), &ds.TokenIDs); err != nil {
				return nil, fmt.Errorf("unmarshaling token ids: %w", err)
			}
		}
		spans = append(spans, ds)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating spans: %w", err)
	}
	return spans, nil
}

// GetSpans retrieves a document's spans ordered by span ID.
func (s *SQLiteStore) GetSpans(docID string) ([]types.Span, error) {
	stored, err := s.querySpans("WHERE document_id = ?", docID)
	if err != nil {
		return nil, err
	}
	spans := make([]types.Span, len(stored))
	for i, ds := range stored {
		spans[i] = ds.Span
	}
	return spans, nil
}

// GetAllSpans retrieves every stored span.
func (s *SQLiteStore) GetAllSpans() ([]DocumentSpan, error) {
	return s.querySpans("")
}

// GetWarnings retrieves all warnings ordered by document and line.
func (s *SQLiteStore) GetWarnings() ([]types.Warning, error) {
	rows, err := s.db.Query(`
		SELECT document_id, kind, line, token_id, label, message
		FROM warnings
		ORDER BY document_id, line, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying warnings: %w", err)
	}
	defer rows.Close()

	warnings := []types.Warning{}
	for rows.Next() {
		var w types.Warning
		var kind string
		if err := rows.Scan(&w.Document, &kind, &w.Line, &w.TokenID, &w.Label, &w.Message); err != nil {
			return nil, fmt.Errorf("scanning warning: %w", err)
		}
		w.Kind = types.WarningKind(kind)
		warnings = append(warnings, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating warnings: %w", err)
	}
	return warnings, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
