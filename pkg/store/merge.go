package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	DocumentsMerged  int
	DocumentsSkipped int
	SpansMerged      int
	WarningsMerged   int
	SourcesProcessed int
}

// Merge combines multiple datastores into one.
// A source document replaces the destination's copy (with its spans and
// warnings) only when it was converted more recently.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	// Open/create destination database
	destDB, err := openDB(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer destDB.Close()

	stats := &MergeStats{}

	// Process each source database
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.DocumentsMerged += sourceStats.DocumentsMerged
		stats.DocumentsSkipped += sourceStats.DocumentsSkipped
		stats.SpansMerged += sourceStats.SpansMerged
		stats.WarningsMerged += sourceStats.WarningsMerged
		stats.SourcesProcessed++
	}

	return stats, nil
}

// mergeFrom copies data from a source database to the destination.
func mergeFrom(destDB *sql.DB, sourcePath string) (*MergeStats, error) {
	sourceDB, err := sql.Open(driverName, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer sourceDB.Close()

	// Read all source documents first; the destination holds a single
	// connection and the transaction below occupies it.
	docs, err := sourceDocuments(sourceDB)
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}

	stats := &MergeStats{}

	tx, err := destDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		newer, err := isNewer(tx, doc.id, doc.convertedAt)
		if err != nil {
			return nil, fmt.Errorf("comparing document %s: %w", doc.id, err)
		}
		if !newer {
			stats.DocumentsSkipped++
			continue
		}

		if err := replaceDocument(tx, doc); err != nil {
			return nil, fmt.Errorf("merging document %s: %w", doc.id, err)
		}
		stats.DocumentsMerged++

		spanCount, err := mergeSpans(tx, sourceDB, doc.id)
		if err != nil {
			return nil, fmt.Errorf("merging spans of %s: %w", doc.id, err)
		}
		stats.SpansMerged += spanCount

		warningCount, err := mergeWarnings(tx, sourceDB, doc.id)
		if err != nil {
			return nil, fmt.Errorf("merging warnings of %s: %w", doc.id, err)
		}
		stats.WarningsMerged += warningCount
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return stats, nil
}

// documentRow is a documents row copied verbatim between databases.
type documentRow struct {
	id, tokenPath, textPath, digest string
	tokens, spans, warnings         int64
	status, errMsg, convertedAt     string
}

func sourceDocuments(sourceDB *sql.DB) ([]documentRow, error) {
	rows, err := sourceDB.Query("SELECT " + documentColumns + " FROM documents ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []documentRow
	for rows.Next() {
		var d documentRow
		if err := rows.Scan(&d.id, &d.tokenPath, &d.textPath, &d.digest, &d.tokens, &d.spans,
			&d.warnings, &d.status, &d.errMsg, &d.convertedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// isNewer reports whether a source document converted at convertedAt should
// replace the destination's copy of id.
func isNewer(tx *sql.Tx, id, convertedAt string) (bool, error) {
	var existing string
	err := tx.QueryRow("SELECT converted_at FROM documents WHERE id = ?", id).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	src, err := parseTime(convertedAt)
	if err != nil {
		return false, err
	}
	dst, err := parseTime(existing)
	if err != nil {
		return false, err
	}
	return src.After(dst), nil
}

func replaceDocument(tx *sql.Tx, d documentRow) error {
	if _, err := tx.Exec("DELETE FROM spans WHERE document_id = ?", d.id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM warnings WHERE document_id = ?", d.id); err != nil {
		return err
	}
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.id, d.tokenPath, d.textPath, d.digest, d.tokens, d.spans, d.warnings, d.status, d.errMsg, d.convertedAt)
	return err
}

func mergeSpans(tx *sql.Tx, sourceDB *sql.DB, docID string) (int, error) {
	rows, err := sourceDB.Query("SELECT "+spanColumns+" FROM spans WHERE document_id = ?", docID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO spans (` + spanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for rows.Next() {
		var documentID, spanType, text string
		var spanID, offsetStart, offsetEnd int64
		var startLine, startCol, endLine, endCol sql.NullInt64
		var tokenIDs sql.NullString

		if err := rows.Scan(&documentID, &spanID, &spanType, &offsetStart, &offsetEnd,
			&startLine, &startCol, &endLine, &endCol, &text, &tokenIDs); err != nil {
			return count, err
		}
		result, err := stmt.Exec(documentID, spanID, spanType, offsetStart, offsetEnd,
			startLine, startCol, endLine, endCol, text, tokenIDs)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}

func mergeWarnings(tx *sql.Tx, sourceDB *sql.DB, docID string) (int, error) {
	rows, err := sourceDB.Query(`
		SELECT document_id, kind, line, token_id, label, message
		FROM warnings WHERE document_id = ? ORDER BY id
	`, docID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO warnings (document_id, kind, line, token_id, label, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for rows.Next() {
		var documentID, kind, tokenID, label, message string
		var line int64
		if err := rows.Scan(&documentID, &kind, &line, &tokenID, &label, &message); err != nil {
			return count, err
		}
		result, err := stmt.Exec(documentID, kind, line, tokenID, label, message)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
