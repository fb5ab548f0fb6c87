package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/praetorian-inc/bio2brat/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id string, at time.Time) *types.DocumentRecord {
	return &types.DocumentRecord{
		ID:          id,
		TokenPath:   "in/" + id + ".bio",
		TextPath:    "text/" + id + ".txt",
		Digest:      types.ComputeDigest([]byte(id)),
		Tokens:      4,
		Spans:       1,
		Warnings:    1,
		Status:      types.StatusConverted,
		ConvertedAt: at,
	}
}

func testSpans() []types.Span {
	return []types.Span{
		{
			ID:   1,
			Type: "DATE",
			Location: types.Location{
				Offset: types.OffsetSpan{Start: 0, End: 7},
				Source: types.SourceSpan{
					Start: types.SourcePoint{Line: 1, Column: 1},
					End:   types.SourcePoint{Line: 1, Column: 8},
				},
			},
			TokenIDs: []string{"0", "1"},
			Text:     "May 3rd",
		},
		{
			ID:       2,
			Type:     "PER",
			Location: types.Location{Offset: types.OffsetSpan{Start: 12, End: 15}},
			Text:     "Ann",
		},
	}
}

func testWarnings() []types.Warning {
	return []types.Warning{
		{Kind: types.WarningUnknownLabel, Line: 3, TokenID: "2", Label: "<unk>", Message: "unknown label"},
	}
}

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestStore_DocumentRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 3, 10, 0, 0, 123, time.UTC)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			rec := testRecord("doc1", at)

			// Act
			require.NoError(t, s.AddDocument(rec))
			got, err := s.GetDocument("doc1")

			// Assert
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, rec.TokenPath, got.TokenPath)
			assert.Equal(t, rec.TextPath, got.TextPath)
			assert.Equal(t, rec.Digest, got.Digest)
			assert.Equal(t, rec.Tokens, got.Tokens)
			assert.Equal(t, types.StatusConverted, got.Status)
			assert.True(t, at.Equal(got.ConvertedAt))
		})
	}
}

func TestStore_GetDocument_NotFound(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetDocument("missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_GetDocuments_Ordered(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			for _, id := range []string{"b", "c", "a"} {
				require.NoError(t, s.AddDocument(testRecord(id, time.Now())))
			}

			// Act
			docs, err := s.GetDocuments()

			// Assert
			require.NoError(t, err)
			require.Len(t, docs, 3)
			assert.Equal(t, "a", docs[0].ID)
			assert.Equal(t, "b", docs[1].ID)
			assert.Equal(t, "c", docs[2].ID)
		})
	}
}

func TestStore_Spans(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			require.NoError(t, s.AddDocument(testRecord("doc1", time.Now())))

			// Act
			require.NoError(t, s.AddSpans("doc1", testSpans()))
			spans, err := s.GetSpans("doc1")

			// Assert
			require.NoError(t, err)
			require.Len(t, spans, 2)
			assert.Equal(t, testSpans()[0], spans[0])
			assert.Equal(t, "Ann", spans[1].Text)
			assert.Equal(t, 12, spans[1].Begin())

			none, err := s.GetSpans("other")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStore_GetAllSpans(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			for _, id := range []string{"b", "a"} {
				require.NoError(t, s.AddDocument(testRecord(id, time.Now())))
				require.NoError(t, s.AddSpans(id, testSpans()))
			}

			// Act
			all, err := s.GetAllSpans()

			// Assert
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, "a", all[0].Document)
			assert.Equal(t, 1, all[0].ID)
			assert.Equal(t, "a", all[1].Document)
			assert.Equal(t, 2, all[1].ID)
			assert.Equal(t, "b", all[2].Document)
		})
	}
}

func TestStore_Warnings(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			require.NoError(t, s.AddDocument(testRecord("doc1", time.Now())))

			// Act
			require.NoError(t, s.AddWarnings("doc1", testWarnings()))
			warnings, err := s.GetWarnings()

			// Assert
			require.NoError(t, err)
			require.Len(t, warnings, 1)
			assert.Equal(t, "doc1", warnings[0].Document)
			assert.Equal(t, types.WarningUnknownLabel, warnings[0].Kind)
			assert.Equal(t, 3, warnings[0].Line)
			assert.Equal(t, "<unk>", warnings[0].Label)
		})
	}
}

func TestStore_ReAddReplaces(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// Arrange
			require.NoError(t, s.AddDocument(testRecord("doc1", time.Now())))
			require.NoError(t, s.AddSpans("doc1", testSpans()))
			require.NoError(t, s.AddWarnings("doc1", testWarnings()))

			// Act - rerun of the same document
			rec := testRecord("doc1", time.Now())
			rec.Spans = 1
			require.NoError(t, s.AddDocument(rec))
			require.NoError(t, s.AddSpans("doc1", testSpans()[:1]))

			// Assert
			spans, err := s.GetSpans("doc1")
			require.NoError(t, err)
			assert.Len(t, spans, 1)

			warnings, err := s.GetWarnings()
			require.NoError(t, err)
			assert.Empty(t, warnings)

			docs, err := s.GetDocuments()
			require.NoError(t, err)
			assert.Len(t, docs, 1)
		})
	}
}

func TestStore_FailedDocument(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := &types.DocumentRecord{
				ID:          "broken",
				Status:      types.StatusFailed,
				Error:       "missing text",
				ConvertedAt: time.Now(),
			}
			require.NoError(t, s.AddDocument(rec))

			got, err := s.GetDocument("broken")
			require.NoError(t, err)
			assert.Equal(t, types.StatusFailed, got.Status)
			assert.Equal(t, "missing text", got.Error)
			assert.True(t, got.Digest.IsZero())
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := New(Config{Path: MemoryPath})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := New(Config{Path: filepath.Join(t.TempDir(), "bio2brat.db")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStore{}, s)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := New(Config{})
		assert.Error(t, err)
	})
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "persist.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.AddDocument(testRecord("doc1", time.Now())))
	require.NoError(t, s.AddSpans("doc1", testSpans()))
	require.NoError(t, s.Close())

	// Act
	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	// Assert
	spans, err := reopened.GetSpans("doc1")
	require.NoError(t, err)
	assert.Len(t, spans, 2)
}
