package types

import "fmt"

// WarningKind classifies a non-fatal decoding diagnostic.
type WarningKind string

const (
	// WarningUnknownLabel: label is neither "O" nor B/I/E/S prefixed, e.g. "<unk>".
	WarningUnknownLabel WarningKind = "unknown_label"
	// WarningMalformedTag: B/I/E/S prefix without the "X-TYPE" shape, e.g. "BPER".
	WarningMalformedTag WarningKind = "malformed_tag"
	// WarningOrphanContinuation: I/E tag while no span is open.
	WarningOrphanContinuation WarningKind = "orphan_continuation"
	// WarningTypeMismatch: I/E tag whose type differs from the open span.
	WarningTypeMismatch WarningKind = "type_mismatch"
)

// Warning is a diagnostic raised while decoding. Warnings never change the
// decoded spans; they exist for observability.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Document string      `json:"document,omitempty"`
	Line     int         `json:"line,omitempty"`
	TokenID  string      `json:"token_id"`
	Label    string      `json:"label"`
	Message  string      `json:"message"`
}

// NewWarning creates a warning for a token.
func NewWarning(kind WarningKind, tok Token, message string) Warning {
	return Warning{
		Kind:    kind,
		Line:    tok.Line,
		TokenID: tok.ID,
		Label:   tok.Label,
		Message: message,
	}
}

// String renders the warning for log output.
func (w Warning) String() string {
	loc := w.Document
	if w.Line > 0 {
		loc = fmt.Sprintf("%s:%d", w.Document, w.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s (label %q)", w.Kind, w.Message, w.Label)
	}
	return fmt.Sprintf("%s: %s: %s (label %q)", loc, w.Kind, w.Message, w.Label)
}
