package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.Document(StatusConverted)
	r.Document(StatusConverted)
	r.Document(StatusFailed)
	r.Span("PER")
	r.Span("PER")
	r.Span("LOC")
	r.Tokens(12)
	r.Tokens(0)
	r.Warning("unknown_label")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.documentsTotal.WithLabelValues(StatusConverted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.documentsTotal.WithLabelValues(StatusFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.spansTotal.WithLabelValues("PER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.spansTotal.WithLabelValues("LOC")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.tokensTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.warningsTotal.WithLabelValues("unknown_label")))
}

func TestRecorder_Duration(t *testing.T) {
	r := New()
	r.ObserveDuration(5 * time.Millisecond)
	r.ObserveDuration(time.Second)

	count, err := testutil.GatherAndCount(r.Registry(), "bio2brat_document_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP bio2brat_tokens_total Count of token records read
# TYPE bio2brat_tokens_total counter
bio2brat_tokens_total 0
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "bio2brat_tokens_total"))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.Document(StatusConverted)
	r.Span("DATE")

	path := filepath.Join(t.TempDir(), "bio2brat.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `bio2brat_documents_total{status="converted"} 1`)
	assert.Contains(t, content, `bio2brat_spans_total{type="DATE"} 1`)
	assert.Contains(t, content, "bio2brat_document_duration_seconds_bucket")
}

func TestRecorder_WriteTextfile_BadPath(t *testing.T) {
	r := New()
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "out.prom"))
	assert.Error(t, err)
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.Document(StatusConverted)
		r.Span("PER")
		r.Tokens(3)
		r.Warning("type_mismatch")
		r.ObserveDuration(time.Millisecond)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}
