package types

import "fmt"

// Span is one contiguous, typed entity decoded from a run of tokens.
type Span struct {
	ID       int      `json:"id"`   // 1-based, assigned in the order spans are closed
	Type     string   `json:"type"` // entity type shared by the span's tokens
	Location Location `json:"location"`
	TokenIDs []string `json:"token_ids,omitempty"`
	Text     string   `json:"text"` // document[begin:end] with newlines replaced by spaces
}

// Begin returns the span's first character offset.
func (s *Span) Begin() int {
	return s.Location.Offset.Start
}

// End returns the span's exclusive end offset.
func (s *Span) End() int {
	return s.Location.Offset.End
}

// AnnotationID returns the standoff identifier of the span, e.g. "T3".
func (s *Span) AnnotationID() string {
	return fmt.Sprintf("T%d", s.ID)
}
