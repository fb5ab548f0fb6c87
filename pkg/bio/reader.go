// Package bio reads per-token prediction files.
//
// A token file holds one token per line with tab-separated fields:
//
//	<token_id>\t<token_text>\t<begin>\t<end>\t...\t<predicted_label>
//
// Only the first four fields and the last one are used. Blank (or
// whitespace-only) lines separate sentences; the returned token sequence is
// flattened across them.
//
// The label is trimmed of surrounding whitespace, so "B-PER " yields the
// type "PER". Inner spaces are kept: "B-DATE X" has the type "DATE X".
package bio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// MaxLineSize is the longest token line the reader accepts.
const MaxLineSize = 1 << 20

// minFields is the number of leading fields every record must carry.
const minFields = 4

// ErrMalformedRecord is wrapped by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed token record")

// MalformedRecordError reports a token line that cannot be decoded.
type MalformedRecordError struct {
	Document string // document (or file) the line belongs to
	Line     int    // 1-based line number
	Reason   string // what is wrong with the line
	Err      error  // underlying error, if any
}

func (e *MalformedRecordError) Error() string {
	if e.Document != "" {
		return fmt.Sprintf("%s:%d: %s: %s", e.Document, e.Line, ErrMalformedRecord, e.Reason)
	}
	return fmt.Sprintf("line %d: %s: %s", e.Line, ErrMalformedRecord, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedRecord
}

// Is lets errors.Is match ErrMalformedRecord even when Err is set.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Read parses token records from r. document names the source in errors.
// The first malformed record aborts reading; no partial result is returned.
func Read(r io.Reader, document string) ([]types.Token, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	var tokens []types.Token
	lineNo := 0
	sentence := 0
	inSentence := false

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" {
			if inSentence {
				sentence++
				inSentence = false
			}
			continue
		}

		tok, err := parseRecord(line)
		if err != nil {
			err.Document = document
			err.Line = lineNo
			return nil, err
		}
		tok.Line = lineNo
		tok.Sentence = sentence
		inSentence = true
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &MalformedRecordError{
				Document: document,
				Line:     lineNo + 1,
				Reason:   fmt.Sprintf("line exceeds %d bytes", MaxLineSize),
				Err:      err,
			}
		}
		return nil, fmt.Errorf("reading %s: %w", document, err)
	}

	return tokens, nil
}

// ReadBytes parses token records from an in-memory token file.
func ReadBytes(content []byte, document string) ([]types.Token, error) {
	return Read(bytes.NewReader(content), document)
}

// ReadFile parses the token file at path.
func ReadFile(path string) ([]types.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening token file: %w", err)
	}
	defer f.Close()

	return Read(f, path)
}

func parseRecord(line string) (types.Token, *MalformedRecordError) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return types.Token{}, &MalformedRecordError{
			Reason: fmt.Sprintf("expected at least %d tab-separated fields, got %d", minFields, len(fields)),
		}
	}

	begin, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return types.Token{}, &MalformedRecordError{
			Reason: fmt.Sprintf("begin offset %q is not an integer", fields[2]),
			Err:    err,
		}
	}
	end, err := strconv.Atoi(strings.TrimSpace(fields[3]))
	if err != nil {
		return types.Token{}, &MalformedRecordError{
			Reason: fmt.Sprintf("end offset %q is not an integer", fields[3]),
			Err:    err,
		}
	}

	// The label is the last field, whatever sits between it and the offsets.
	label := strings.TrimSpace(fields[len(fields)-1])
	if label == "" {
		return types.Token{}, &MalformedRecordError{Reason: "empty label"}
	}

	return types.Token{
		ID:    fields[0],
		Text:  fields[1],
		Begin: begin,
		End:   end,
		Label: label,
	}, nil
}
