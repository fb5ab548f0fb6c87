package standoff

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// ErrInvalidAnnotation is wrapped by every ParseError.
var ErrInvalidAnnotation = errors.New("invalid annotation")

// ParseError reports a malformed text-bound annotation line.
type ParseError struct {
	Line   int    // 1-based line number in the .ann content
	Reason string // what was wrong with the line
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidAnnotation
}

// Parse reads text-bound ("T") annotations from standoff content. Other
// annotation kinds (relations, events, attributes, notes, comments) are
// skipped. Blank lines and a trailing newline are tolerated. Carriage
// returns are kept: they are part of the annotated text.
func Parse(ann string) ([]types.Span, error) {
	var spans []types.Span
	for i, line := range strings.Split(ann, "\n") {
		if line == "" || line[0] != 'T' {
			continue
		}
		span, err := parseRecord(line)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Reason: err.Error()}
		}
		spans = append(spans, span)
	}
	return spans, nil
}

func parseRecord(line string) (types.Span, error) {
	fields := strings.SplitN(line, "\t", 3)
	if len(fields) != 3 {
		return types.Span{}, fmt.Errorf("expected 3 tab-separated fields, got %d", len(fields))
	}

	id, err := strconv.Atoi(fields[0][1:])
	if err != nil {
		return types.Span{}, fmt.Errorf("invalid annotation id %q", fields[0])
	}

	if strings.Contains(fields[1], ";") {
		return types.Span{}, fmt.Errorf("discontinuous annotation %q is not supported", fields[1])
	}
	// The type is written unescaped and may itself contain spaces, so the
	// offsets are taken from the right.
	parts := strings.Split(fields[1], " ")
	if len(parts) < 3 {
		return types.Span{}, fmt.Errorf("expected \"<type> <begin> <end>\", got %q", fields[1])
	}
	n := len(parts)
	begin, err := strconv.Atoi(parts[n-2])
	if err != nil {
		return types.Span{}, fmt.Errorf("invalid begin offset %q", parts[n-2])
	}
	end, err := strconv.Atoi(parts[n-1])
	if err != nil {
		return types.Span{}, fmt.Errorf("invalid end offset %q", parts[n-1])
	}

	return types.Span{
		ID:   id,
		Type: strings.Join(parts[:n-2], " "),
		Location: types.Location{
			Offset: types.OffsetSpan{Start: begin, End: end},
		},
		Text: fields[2],
	}, nil
}

// Mismatch describes an annotation whose text does not match the document.
type Mismatch struct {
	ID       int    `json:"id"`
	Begin    int    `json:"begin"`
	End      int    `json:"end"`
	Recorded string `json:"recorded"` // text found in the .ann file
	Document string `json:"document"` // normalized text at the offsets
}

// Verify parses ann and checks each annotation's text against the
// normalized document slice at its offsets. It also reports annotations
// whose ids are not exactly 1..N in order.
func Verify(ann, text string) ([]Mismatch, error) {
	spans, err := Parse(ann)
	if err != nil {
		return nil, err
	}

	doc := NewDocument(text)
	var mismatches []Mismatch
	for i, s := range spans {
		if s.ID != i+1 {
			return mismatches, fmt.Errorf("annotation T%d out of sequence, expected T%d: %w", s.ID, i+1, ErrInvalidAnnotation)
		}
		want := doc.SpanText(s.Begin(), s.End())
		if want != s.Text {
			mismatches = append(mismatches, Mismatch{
				ID:       s.ID,
				Begin:    s.Begin(),
				End:      s.End(),
				Recorded: s.Text,
				Document: want,
			})
		}
	}
	return mismatches, nil
}
