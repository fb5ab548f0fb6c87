package bio2brat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dateTokens = []Token{
	{ID: "0", Text: "May", Begin: 0, End: 3, Label: "B-DATE"},
	{ID: "1", Text: "3rd", Begin: 4, End: 7, Label: "I-DATE"},
	{ID: "2", Text: "is", Begin: 8, End: 10, Label: "O"},
	{ID: "3", Text: "today", Begin: 11, End: 16, Label: "O"},
}

func TestConvert(t *testing.T) {
	result := Convert(dateTokens, "May 3rd is today")

	require.Len(t, result.Spans, 1)
	span := result.Spans[0]
	assert.Equal(t, 1, span.ID)
	assert.Equal(t, "DATE", span.Type)
	assert.Equal(t, 0, span.Begin())
	assert.Equal(t, 7, span.End())
	assert.Equal(t, "May 3rd", span.Text)
	assert.Equal(t, []string{"0", "1"}, span.TokenIDs)
	assert.Equal(t, "T1\tDATE 0 7\tMay 3rd", result.Annotation)
	assert.Equal(t, 4, result.Tokens)
	assert.Empty(t, result.Warnings)
}

func TestConvert_NoTokens(t *testing.T) {
	result := Convert(nil, "anything")

	assert.Empty(t, result.Spans)
	assert.Equal(t, "", result.Annotation)
}

func TestConvert_NewlineInSpan(t *testing.T) {
	tokens := []Token{
		{ID: "0", Text: "New", Begin: 0, End: 3, Label: "B-LOC"},
		{ID: "1", Text: "York", Begin: 4, End: 8, Label: "E-LOC"},
	}

	result := Convert(tokens, "New\nYork")

	assert.Equal(t, "T1\tLOC 0 8\tNew York", result.Annotation)
	assert.Equal(t, 2, result.Spans[0].Location.Source.End.Line)
}

func TestConvert_Strict(t *testing.T) {
	tokens := []Token{
		{ID: "0", Text: "Ann", Begin: 0, End: 3, Label: "I-PER"},
	}

	var warnings []Warning
	permissive := Convert(tokens, "Ann", WithWarningHandler(func(w Warning) { warnings = append(warnings, w) }))
	assert.Empty(t, permissive.Spans)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarningOrphanContinuation, warnings[0].Kind)

	strict := Convert(tokens, "Ann", WithStrictContinuation())
	assert.Equal(t, "T1\tPER 0 3\tAnn", strict.Annotation)
}

func TestConvert_UnknownLabel(t *testing.T) {
	tokens := []Token{
		{ID: "0", Text: "Bob", Begin: 0, End: 3, Label: "B-PER"},
		{ID: "1", Text: "x", Begin: 4, End: 5, Label: "<unk>"},
	}

	result := Convert(tokens, "Bob x")

	assert.Equal(t, "T1\tPER 0 3\tBob", result.Annotation)
	assert.True(t, result.HasWarning(WarningUnknownLabel))
}

func TestConvertFiles(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "doc1.bio")
	textPath := filepath.Join(dir, "doc1.txt")
	require.NoError(t, os.WriteFile(tokenPath, []byte("0\tMay\t0\t3\tB-DATE\n1\t3rd\t4\t7\tI-DATE\n"), 0644))
	require.NoError(t, os.WriteFile(textPath, []byte("May 3rd is today"), 0644))

	result, err := ConvertFiles(tokenPath, textPath)

	require.NoError(t, err)
	assert.Equal(t, "T1\tDATE 0 7\tMay 3rd", result.Annotation)
	assert.Equal(t, tokenPath, result.Document)
}

func TestConvertFiles_MissingText(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "doc1.bio")
	require.NoError(t, os.WriteFile(tokenPath, []byte("0\tMay\t0\t3\tB-DATE\n"), 0644))

	_, err := ConvertFiles(tokenPath, filepath.Join(dir, "doc1.txt"))

	assert.ErrorIs(t, err, ErrMissingText)
}

func TestReadTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.bio")
	require.NoError(t, os.WriteFile(path, []byte("0\tMay\t0\t3\tB-DATE\n\n1\tis\t4\t6\tO\n"), 0644))

	tokens, err := ReadTokens(path)

	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "B-DATE", tokens[0].Label)
	assert.Equal(t, 1, tokens[1].Sentence)

	_, err = ReadTokens(filepath.Join(t.TempDir(), "missing.bio"))
	assert.Error(t, err)
}

func TestReadTokens_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bio")
	require.NoError(t, os.WriteFile(path, []byte("0\tMay\t0\n"), 0644))

	_, err := ReadTokens(path)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
