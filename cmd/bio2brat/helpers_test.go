package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/praetorian-inc/bio2brat/pkg/store"
	"github.com/praetorian-inc/bio2brat/pkg/types"
	"github.com/stretchr/testify/require"
)

const (
	sampleText   = "May 3rd is today"
	sampleTokens = "0\tMay\t0\t3\tB-DATE\n1\t3rd\t4\t7\tI-DATE\n2\tis\t8\t10\tO\n3\ttoday\t11\t16\tO\n"
	sampleAnn    = "T1\tDATE 0 7\tMay 3rd"
)

// writeFile creates parent directories and writes content to path.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// corpus lays out input, text and output directories under a temp dir.
type corpus struct {
	input, texts, output string
}

func newCorpus(t *testing.T) corpus {
	t.Helper()
	root := t.TempDir()
	c := corpus{
		input:  filepath.Join(root, "predictions"),
		texts:  filepath.Join(root, "texts"),
		output: filepath.Join(root, "brat"),
	}
	require.NoError(t, os.MkdirAll(c.input, 0755))
	require.NoError(t, os.MkdirAll(c.texts, 0755))
	return c
}

func (c corpus) add(t *testing.T, id, tokens, text string) {
	t.Helper()
	writeFile(t, filepath.Join(c.input, id+".bio"), tokens)
	if text != "" {
		writeFile(t, filepath.Join(c.texts, id+".txt"), text)
	}
}

// seedStore writes converted documents, each holding one DATE span and one
// warning, into a SQLite datastore at path.
func seedStore(t *testing.T, path string, at time.Time, ids ...string) {
	t.Helper()
	s, err := store.NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	for _, id := range ids {
		require.NoError(t, s.AddDocument(&types.DocumentRecord{
			ID:          id,
			TokenPath:   id + ".bio",
			TextPath:    id + ".txt",
			Tokens:      4,
			Spans:       1,
			Warnings:    1,
			Status:      types.StatusConverted,
			ConvertedAt: at,
		}))
		require.NoError(t, s.AddSpans(id, []types.Span{{
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
		}}))
		require.NoError(t, s.AddWarnings(id, []types.Warning{{
			Kind:    types.WarningUnknownLabel,
			Line:    3,
			TokenID: "2",
			Label:   "<unk>",
			Message: "label is neither O nor a B/I/E/S tag, treated as outside",
		}}))
	}
}
