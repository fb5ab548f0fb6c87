package types

import "sort"

// ComputeLineColumn computes line and column numbers from a character offset in text.
// Lines and columns are 1-indexed (first line is 1, first column is 1).
func ComputeLineColumn(text string, charOffset int) (line, column int) {
	line = 1
	column = 1
	i := 0
	for _, r := range text {
		if i >= charOffset {
			break
		}
		if r == '\n' {
			line++
			column = 1
		} else {
			column++
		}
		i++
	}
	return line, column
}

// LineIndex answers repeated offset -> line:column queries for one document.
type LineIndex struct {
	starts []int // character offset of each line start
	length int   // text length in characters
}

// NewLineIndex scans text once and records where each line begins.
func NewLineIndex(text string) *LineIndex {
	idx := &LineIndex{starts: []int{0}}
	n := 0
	for _, r := range text {
		n++
		if r == '\n' {
			idx.starts = append(idx.starts, n)
		}
	}
	idx.length = n
	return idx
}

// Position returns the 1-based line and column of a character offset.
// Offsets past the end of the text are clamped, matching ComputeLineColumn.
func (idx *LineIndex) Position(charOffset int) SourcePoint {
	if charOffset < 0 {
		charOffset = 0
	}
	if charOffset > idx.length {
		charOffset = idx.length
	}
	// last line start <= offset
	i := sort.Search(len(idx.starts), func(i int) bool { return idx.starts[i] > charOffset }) - 1
	return SourcePoint{Line: i + 1, Column: charOffset - idx.starts[i] + 1}
}

// Span converts an offset range into a source range.
func (idx *LineIndex) Span(offset OffsetSpan) SourceSpan {
	return SourceSpan{Start: idx.Position(offset.Start), End: idx.Position(offset.End)}
}
