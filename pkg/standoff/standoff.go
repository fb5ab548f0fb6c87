// Package standoff renders decoded spans in BRAT standoff notation and
// reads it back.
//
// Each span becomes one text-bound annotation line:
//
//	T<id>\t<type> <begin> <end>\t<text>
//
// Lines are joined with "\n" and the output carries no trailing newline, so
// a document without spans produces an empty file.
package standoff

import (
	"strconv"
	"strings"

	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// Attach returns copies of spans with Text filled from the document.
// The input spans are not modified.
func Attach(spans []types.Span, text string) []types.Span {
	return AttachDocument(spans, NewDocument(text))
}

// AttachDocument is Attach for an already indexed document.
func AttachDocument(spans []types.Span, doc *Document) []types.Span {
	out := make([]types.Span, len(spans))
	for i, s := range spans {
		s.Text = doc.SpanText(s.Begin(), s.End())
		out[i] = s
	}
	return out
}

// Format renders spans whose Text is already set. Span text is written as
// is; use Attach or Serialize to slice it from the document.
func Format(spans []types.Span) string {
	var b strings.Builder
	for i := range spans {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeRecord(&b, &spans[i])
	}
	return b.String()
}

// Serialize renders spans against the document text they were decoded from.
func Serialize(spans []types.Span, text string) string {
	return Format(Attach(spans, text))
}

func writeRecord(b *strings.Builder, s *types.Span) {
	b.WriteByte('T')
	b.WriteString(strconv.Itoa(s.ID))
	b.WriteByte('\t')
	b.WriteString(s.Type)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(s.Begin()))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(s.End()))
	b.WriteByte('\t')
	b.WriteString(NormalizeText(s.Text))
}
