package store

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// ErrNotFound is returned when a requested document is not in the store.
var ErrNotFound = errors.New("document not found")

// MemoryPath selects the in-memory backend.
const MemoryPath = ":memory:"

// Store provides persistence for conversion results.
// This interface abstracts the underlying storage implementation so the
// converter can run against SQLite or plain memory.
type Store interface {
	// AddDocument stores a document record. Re-adding a document replaces
	// the record and drops its previously stored spans and warnings.
	AddDocument(rec *types.DocumentRecord) error

	// AddSpans stores the decoded spans of a document.
	AddSpans(docID string, spans []types.Span) error

	// AddWarnings stores the decoding warnings of a document.
	AddWarnings(docID string, warnings []types.Warning) error

	// GetDocument retrieves one document record, or ErrNotFound.
	GetDocument(id string) (*types.DocumentRecord, error)

	// GetDocuments retrieves all document records ordered by ID.
	GetDocuments() ([]*types.DocumentRecord, error)

	// GetSpans retrieves a document's spans ordered by span ID.
	GetSpans(docID string) ([]types.Span, error)

	// GetAllSpans retrieves every stored span ordered by document and span ID.
	GetAllSpans() ([]DocumentSpan, error)

	// GetWarnings retrieves all warnings ordered by document and line.
	GetWarnings() ([]types.Warning, error)

	// Close closes the database connection.
	Close() error
}

// DocumentSpan is a span together with the document it belongs to.
type DocumentSpan struct {
	Document string `json:"document"`
	types.Span
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a new Store.
// ":memory:" returns a MemoryStore, any other path a SQLiteStore.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == MemoryPath {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}
