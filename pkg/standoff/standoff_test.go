package standoff

import (
	"testing"

	"github.com/praetorian-inc/bio2brat/pkg/decoder"
	"github.com/praetorian-inc/bio2brat/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(id int, typ string, begin, end int) types.Span {
	return types.Span{
		ID:       id,
		Type:     typ,
		Location: types.Location{Offset: types.OffsetSpan{Start: begin, End: end}},
	}
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []types.Span
		want  string
	}{
		{
			name:  "no spans",
			text:  "nothing here",
			spans: nil,
			want:  "",
		},
		{
			name:  "single span",
			text:  "May 3rd is today",
			spans: []types.Span{span(1, "DATE", 0, 7)},
			want:  "T1\tDATE 0 7\tMay 3rd",
		},
		{
			name:  "two spans without trailing newline",
			text:  "Alice met Bob in Paris",
			spans: []types.Span{span(1, "PER", 0, 5), span(2, "LOC", 17, 22)},
			want:  "T1\tPER 0 5\tAlice\nT2\tLOC 17 22\tParis",
		},
		{
			name:  "embedded newline replaced by space",
			text:  "New\nYork is big",
			spans: []types.Span{span(1, "LOC", 0, 8)},
			want:  "T1\tLOC 0 8\tNew York",
		},
		{
			name:  "multiple newlines each replaced",
			text:  "a\n\nb",
			spans: []types.Span{span(1, "X", 0, 4)},
			want:  "T1\tX 0 4\ta  b",
		},
		{
			name:  "character offsets in multi-byte text",
			text:  "Zoë visited Zürich",
			spans: []types.Span{span(1, "PER", 0, 3), span(2, "LOC", 12, 18)},
			want:  "T1\tPER 0 3\tZoë\nT2\tLOC 12 18\tZürich",
		},
		{
			name:  "end past document is clamped",
			text:  "short",
			spans: []types.Span{span(1, "X", 2, 50)},
			want:  "T1\tX 2 50\tort",
		},
		{
			name:  "span entirely outside document has empty text",
			text:  "short",
			spans: []types.Span{span(1, "X", 10, 20)},
			want:  "T1\tX 10 20\t",
		},
		{
			name:  "type passed through verbatim",
			text:  "aspirin",
			spans: []types.Span{span(1, "Drug/Chemical-Name", 0, 7)},
			want:  "T1\tDrug/Chemical-Name 0 7\taspirin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Serialize(tt.spans, tt.text)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttach_DoesNotMutateInput(t *testing.T) {
	spans := []types.Span{span(1, "PER", 0, 5)}

	attached := Attach(spans, "Alice")

	assert.Equal(t, "Alice", attached[0].Text)
	assert.Empty(t, spans[0].Text)
}

func TestSerialize_DecodedFixture(t *testing.T) {
	text := "May 3rd is today"
	toks := []types.Token{
		{ID: "1", Begin: 0, End: 3, Label: "B-DATE"},
		{ID: "2", Begin: 4, End: 7, Label: "I-DATE"},
		{ID: "3", Begin: 8, End: 10, Label: "O"},
		{ID: "4", Begin: 11, End: 16, Label: "O"},
	}

	out := decoder.Decode(toks)
	ann := Serialize(out.Spans, text)

	assert.Equal(t, "T1\tDATE 0 7\tMay 3rd", ann)
	assert.Equal(t, ann, Serialize(decoder.Decode(toks).Spans, text), "serialization must be deterministic")
}

func TestParse_RoundTrip(t *testing.T) {
	text := "Dr. Jane\nDoe works at Acme Corp. in Zürich."
	spans := []types.Span{
		span(1, "PER", 0, 12),
		span(2, "ORG", 22, 31),
		span(3, "LOC", 36, 42),
	}

	ann := Serialize(spans, text)
	parsed, err := Parse(ann)
	require.NoError(t, err)
	require.Len(t, parsed, len(spans))

	for i, p := range parsed {
		assert.Equal(t, spans[i].ID, p.ID)
		assert.Equal(t, spans[i].Type, p.Type)
		assert.Equal(t, spans[i].Begin(), p.Begin())
		assert.Equal(t, spans[i].End(), p.End())
		assert.Equal(t, NormalizeText(Slice(text, p.Begin(), p.End())), p.Text)
	}
	assert.Equal(t, "Jane Doe", parsed[0].Text[4:])
}

func TestParse_TypeWithSpaces(t *testing.T) {
	text := "May 3rd"
	toks := []types.Token{
		{ID: "0", Text: "May", Begin: 0, End: 3, Label: "B-DATE X"},
		{ID: "1", Text: "3rd", Begin: 4, End: 7, Label: "S-a  b"},
	}

	ann := Serialize(decoder.Decode(toks).Spans, text)
	require.Equal(t, "T1\tDATE X 0 3\tMay\nT2\ta  b 4 7\t3rd", ann)

	parsed, err := Parse(ann)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, "DATE X", parsed[0].Type)
	assert.Equal(t, 0, parsed[0].Begin())
	assert.Equal(t, 3, parsed[0].End())
	assert.Equal(t, "a  b", parsed[1].Type)
	assert.Equal(t, 4, parsed[1].Begin())

	mismatches, err := Verify(ann, text)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestParse_SkipsOtherAnnotationKinds(t *testing.T) {
	ann := "T1\tPER 0 5\tAlice\nR1\tKnows Arg1:T1 Arg2:T2\n#1\tAnnotatorNotes T1\tnote\nA1\tNegated T1\n\nT2\tPER 10 13\tBob\n"

	spans, err := Parse(ann)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, "Alice", spans[0].Text)
	assert.Equal(t, "Bob", spans[1].Text)
}

func TestParse_Empty(t *testing.T) {
	spans, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestParse_TextWithTab(t *testing.T) {
	spans, err := Parse("T1\tX 0 3\ta\tb")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "a\tb", spans[0].Text)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		ann  string
		line int
	}{
		{name: "missing text field", ann: "T1\tPER 0 5", line: 1},
		{name: "bad id", ann: "Tx\tPER 0 5\tAlice", line: 1},
		{name: "bad begin", ann: "T1\tPER a 5\tAlice", line: 1},
		{name: "bad end", ann: "T1\tPER 0 b\tAlice", line: 1},
		{name: "missing offsets", ann: "T1\tPER 0\tAlice", line: 1},
		{name: "discontinuous", ann: "T1\tPER 0 5\tAlice\nT2\tLOC 0 2;4 6\tAl ce", line: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.ann)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAnnotation)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestVerify(t *testing.T) {
	text := "Alice met Bob"

	t.Run("consistent", func(t *testing.T) {
		ann := Serialize([]types.Span{span(1, "PER", 0, 5), span(2, "PER", 10, 13)}, text)
		mismatches, err := Verify(ann, text)
		require.NoError(t, err)
		assert.Empty(t, mismatches)
	})

	t.Run("text mismatch", func(t *testing.T) {
		mismatches, err := Verify("T1\tPER 0 5\tAlicia", text)
		require.NoError(t, err)
		require.Len(t, mismatches, 1)
		assert.Equal(t, "Alicia", mismatches[0].Recorded)
		assert.Equal(t, "Alice", mismatches[0].Document)
	})

	t.Run("ids out of sequence", func(t *testing.T) {
		_, err := Verify("T2\tPER 0 5\tAlice", text)
		assert.ErrorIs(t, err, ErrInvalidAnnotation)
	})
}
