package types

// Token is one labeled unit of a source document, as read from a token file.
type Token struct {
	ID    string `json:"id"`
	Text  string `json:"text"`  // surface form; span text is re-sliced from the document
	Begin int    `json:"begin"` // character offset, inclusive
	End   int    `json:"end"`   // character offset, exclusive
	Label string `json:"label"` // predicted tag, e.g. "B-PER"

	Line     int `json:"line,omitempty"`     // 1-based line in the token file
	Sentence int `json:"sentence,omitempty"` // 0-based sentence index
}

// Tag parses the token's label.
func (t Token) Tag() Tag {
	return ParseTag(t.Label)
}
