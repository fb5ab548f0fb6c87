package types

import "time"

// DocumentStatus is the outcome of converting one document.
type DocumentStatus string

const (
	StatusConverted DocumentStatus = "converted"
	StatusFailed    DocumentStatus = "failed"
)

// DocumentRecord is the persisted summary of one document's conversion.
type DocumentRecord struct {
	ID          string         `json:"id"`         // path relative to the input root, without suffix
	TokenPath   string         `json:"token_path"` // where the token records were read from
	TextPath    string         `json:"text_path"`  // where the document text was read from
	Digest      Digest         `json:"digest"`     // BLAKE3 over token file and text
	Tokens      int            `json:"tokens"`
	Spans       int            `json:"spans"`
	Warnings    int            `json:"warnings"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	ConvertedAt time.Time      `json:"converted_at"`
}

// Result is the in-memory outcome of converting one document.
type Result struct {
	Document   string    `json:"document"`
	Tokens     int       `json:"tokens"`
	Spans      []Span    `json:"spans"`
	Warnings   []Warning `json:"warnings,omitempty"`
	Annotation string    `json:"annotation"` // serialized standoff (.ann) content
}

// HasWarning reports whether any warning of the given kind was raised.
func (r *Result) HasWarning(kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}

// Record builds the persisted summary for a successful conversion.
func (r *Result) Record(tokenPath, textPath string, digest Digest) *DocumentRecord {
	return &DocumentRecord{
		ID:          r.Document,
		TokenPath:   tokenPath,
		TextPath:    textPath,
		Digest:      digest,
		Tokens:      r.Tokens,
		Spans:       len(r.Spans),
		Warnings:    len(r.Warnings),
		Status:      StatusConverted,
		ConvertedAt: time.Now().UTC(),
	}
}
