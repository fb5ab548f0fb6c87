package standoff

import (
	"strings"
	"unicode/utf8"
)

// Document gives character-offset access to a document's text.
// Offsets in token files count code points, so non-ASCII text needs a
// rune index to find byte boundaries; pure ASCII text is sliced directly.
type Document struct {
	text  string
	bytes []int // bytes[i] = byte offset of character i; nil for ASCII text
	chars int
}

// NewDocument indexes text for character-offset slicing.
func NewDocument(text string) *Document {
	d := &Document{text: text}
	d.chars = utf8.RuneCountInString(text)
	if d.chars == len(text) {
		return d
	}
	d.bytes = make([]int, 0, d.chars+1)
	for i := range text {
		d.bytes = append(d.bytes, i)
	}
	d.bytes = append(d.bytes, len(text))
	return d
}

// Len returns the length of the document in characters.
func (d *Document) Len() int {
	return d.chars
}

// Text returns the full document text.
func (d *Document) Text() string {
	return d.text
}

// Slice returns the characters in [begin, end). Bounds outside the document
// are clamped to it and an empty or inverted range yields "".
func (d *Document) Slice(begin, end int) string {
	if begin < 0 {
		begin = 0
	}
	if end > d.chars {
		end = d.chars
	}
	if begin >= end {
		return ""
	}
	if d.bytes == nil {
		return d.text[begin:end]
	}
	return d.text[d.bytes[begin]:d.bytes[end]]
}

// SpanText returns the normalized annotation text for [begin, end).
func (d *Document) SpanText(begin, end int) string {
	return NormalizeText(d.Slice(begin, end))
}

// Slice is a convenience for one-off slicing of text by character offsets.
func Slice(text string, begin, end int) string {
	return NewDocument(text).Slice(begin, end)
}

// NormalizeText replaces newlines, which the line-oriented standoff format
// cannot carry, with single spaces.
func NormalizeText(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
