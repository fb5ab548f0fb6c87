package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]types.DocumentRecord // keyed by document ID
	spans     map[string][]types.Span
	warnings  map[string][]types.Warning
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]types.DocumentRecord),
		spans:     make(map[string][]types.Span),
		warnings:  make(map[string][]types.Warning),
	}
}

// AddDocument stores a document record, replacing any previous one.
func (m *MemoryStore) AddDocument(rec *types.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents[rec.ID] = *rec
	delete(m.spans, rec.ID)
	delete(m.warnings, rec.ID)
	return nil
}

// AddSpans stores the decoded spans of a document.
func (m *MemoryStore) AddSpans(docID string, spans []types.Span) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range spans {
		s.TokenIDs = append([]string(nil), s.TokenIDs...)
		m.spans[docID] = append(m.spans[docID], s)
	}
	return nil
}

// AddWarnings stores the decoding warnings of a document.
func (m *MemoryStore) AddWarnings(docID string, warnings []types.Warning) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range warnings {
		w.Document = docID
		m.warnings[docID] = append(m.warnings[docID], w)
	}
	return nil
}

// GetDocument retrieves one document record.
func (m *MemoryStore) GetDocument(id string) (*types.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// GetDocuments retrieves all document records ordered by ID.
func (m *MemoryStore) GetDocuments() ([]*types.DocumentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.DocumentRecord, 0, len(m.documents))
	for _, id := range m.documentIDs() {
		rec := m.documents[id]
		result = append(result, &rec)
	}
	return result, nil
}

// GetSpans retrieves a document's spans ordered by span ID.
func (m *MemoryStore) GetSpans(docID string) ([]types.Span, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]types.Span, len(m.spans[docID]))
	copy(result, m.spans[docID])
	sort.SliceStable(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetAllSpans retrieves every stored span.
func (m *MemoryStore) GetAllSpans() ([]DocumentSpan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []DocumentSpan
	for _, id := range m.spanDocumentIDs() {
		spans := append([]types.Span(nil), m.spans[id]...)
		sort.SliceStable(spans, func(i, j int) bool { return spans[i].ID < spans[j].ID })
		for _, s := range spans {
			result = append(result, DocumentSpan{Document: id, Span: s})
		}
	}
	if result == nil {
		return []DocumentSpan{}, nil
	}
	return result, nil
}

// GetWarnings retrieves all warnings ordered by document and line.
func (m *MemoryStore) GetWarnings() ([]types.Warning, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []types.Warning
	for _, ws := range m.warnings {
		result = append(result, ws...)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Document != result[j].Document {
			return result[i].Document < result[j].Document
		}
		return result[i].Line < result[j].Line
	})
	if result == nil {
		return []types.Warning{}, nil
	}
	return result, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) documentIDs() []string {
	ids := make([]string, 0, len(m.documents))
	for id := range m.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MemoryStore) spanDocumentIDs() []string {
	ids := make([]string, 0, len(m.spans))
	for id := range m.spans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
