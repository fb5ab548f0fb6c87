// Package bio2brat converts BIO/BIOES tagged token predictions into BRAT
// standoff annotations.
//
// # Basic Usage
//
// Decode a tagged token sequence against its document text:
//
//	tokens := []bio2brat.Token{
//	    {ID: "0", Text: "May", Begin: 0, End: 3, Label: "B-DATE"},
//	    {ID: "1", Text: "3rd", Begin: 4, End: 7, Label: "I-DATE"},
//	    {ID: "2", Text: "is", Begin: 8, End: 10, Label: "O"},
//	}
//	result := bio2brat.Convert(tokens, "May 3rd is today")
//	fmt.Println(result.Annotation) // T1	DATE 0 7	May 3rd
//
// # Files
//
// Token files hold one tab-separated record per line (id, text, begin,
// end, ..., label); blank lines separate sentences:
//
//	result, err := bio2brat.ConvertFiles("doc1.bio", "doc1.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("doc1.ann", []byte(result.Annotation), 0644)
//
// Directory batches, datastores and metrics live in pkg/convert and the
// bio2brat command.
package bio2brat

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/praetorian-inc/bio2brat/pkg/bio"
	"github.com/praetorian-inc/bio2brat/pkg/convert"
	"github.com/praetorian-inc/bio2brat/pkg/decoder"
	"github.com/praetorian-inc/bio2brat/pkg/standoff"
	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// Re-export commonly used types for convenience.
type (
	// Token is one labeled token with character offsets into the document.
	Token = types.Token

	// Span is a decoded entity with its standoff id, type, offsets and text.
	Span = types.Span

	// Warning is a non-fatal diagnostic raised while decoding.
	Warning = types.Warning

	// WarningKind classifies a Warning.
	WarningKind = types.WarningKind

	// Result is the outcome of converting one document.
	Result = types.Result

	// Option configures decoding.
	Option = decoder.Option
)

// Re-export warning kinds.
const (
	WarningUnknownLabel       = types.WarningUnknownLabel
	WarningMalformedTag       = types.WarningMalformedTag
	WarningOrphanContinuation = types.WarningOrphanContinuation
	WarningTypeMismatch       = types.WarningTypeMismatch
)

// Re-export errors.
var (
	ErrMalformedRecord = bio.ErrMalformedRecord
	ErrMissingText     = convert.ErrMissingText
)

// WithStrictContinuation makes orphaned or mismatched I-/E- tags start a new
// span instead of being dropped or merged.
func WithStrictContinuation() Option {
	return decoder.WithStrictContinuation()
}

// WithWarningHandler calls fn for every warning as it is raised.
func WithWarningHandler(fn func(Warning)) Option {
	return decoder.WithWarningHandler(fn)
}

// Convert decodes tokens into spans over text and serializes them.
func Convert(tokens []Token, text string, opts ...Option) *Result {
	return convertDocument("", tokens, text, opts...)
}

// ConvertFiles reads a token file and its text file and converts them.
func ConvertFiles(tokenPath, textPath string, opts ...Option) (*Result, error) {
	tokens, err := bio.ReadFile(tokenPath)
	if err != nil {
		return nil, err
	}

	text, err := os.ReadFile(textPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &convert.MissingTextError{Document: tokenPath, Path: textPath, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}

	return convertDocument(tokenPath, tokens, string(text), opts...), nil
}

// ReadTokens reads a token file.
func ReadTokens(path string) ([]Token, error) {
	return bio.ReadFile(path)
}

func convertDocument(document string, tokens []Token, text string, opts ...Option) *Result {
	out := decoder.New(opts...).Decode(tokens)

	doc := standoff.NewDocument(text)
	spans := standoff.AttachDocument(out.Spans, doc)
	lines := types.NewLineIndex(text)
	for i := range spans {
		spans[i].Location.Source = lines.Span(spans[i].Location.Offset)
	}
	for i := range out.Warnings {
		out.Warnings[i].Document = document
	}

	return &Result{
		Document:   document,
		Tokens:     len(tokens),
		Spans:      spans,
		Warnings:   out.Warnings,
		Annotation: standoff.Format(spans),
	}
}
