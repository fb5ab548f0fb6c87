package types

// Tag prefixes of the BIOES scheme.
const (
	PrefixBegin   byte = 'B'
	PrefixInside  byte = 'I'
	PrefixOutside byte = 'O'
	PrefixEnd     byte = 'E'
	PrefixSingle  byte = 'S'
)

// LabelOutside is the only label that asserts "outside any entity".
const LabelOutside = "O"

// LabelUnknown is what some taggers emit for an out-of-vocabulary prediction.
const LabelUnknown = "<unk>"

// Tag is a label split into its scheme prefix and entity type.
// Prefix is the first byte of the label and Type everything after the
// second byte, so "B-PER" yields ('B', "PER"). Labels are never rejected
// here; use WellFormed and Known to classify them.
type Tag struct {
	Label  string
	Prefix byte
	Type   string
}

// ParseTag splits a label into prefix and type.
func ParseTag(label string) Tag {
	t := Tag{Label: label}
	if len(label) > 0 {
		t.Prefix = label[0]
	}
	if len(label) > 2 {
		t.Type = label[2:]
	}
	return t
}

// Outside reports whether the label is exactly "O".
func (t Tag) Outside() bool {
	return t.Label == LabelOutside
}

// Opens reports whether the tag starts a new span (B or S).
func (t Tag) Opens() bool {
	return t.Prefix == PrefixBegin || t.Prefix == PrefixSingle
}

// Continues reports whether the tag extends an open span (I or E).
func (t Tag) Continues() bool {
	return t.Prefix == PrefixInside || t.Prefix == PrefixEnd
}

// Known reports whether the label is "O" or carries a B/I/E/S prefix.
// Unknown labels such as "<unk>" close an open span and never open one.
func (t Tag) Known() bool {
	return t.Outside() || t.Opens() || t.Continues()
}

// WellFormed reports whether the label is "O" or has the exact shape
// "<B|I|E|S>-<TYPE>" with a non-empty type.
func (t Tag) WellFormed() bool {
	if t.Outside() {
		return true
	}
	if !t.Opens() && !t.Continues() {
		return false
	}
	return len(t.Label) > 2 && t.Label[1] == '-'
}

// String returns the original label.
func (t Tag) String() string {
	return t.Label
}
