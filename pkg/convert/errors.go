package convert

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversion failures.
var (
	// ErrMissingText is matched by errors.Is when a document has no text.
	ErrMissingText = errors.New("missing text file")

	// ErrSkippedFile is matched when the enumerator refused a token file.
	ErrSkippedFile = errors.New("token file skipped")
)

// MissingTextError reports a document whose original text could not be found.
type MissingTextError struct {
	Document string
	Path     string // where the text was expected, if the source has paths
	Err      error  // underlying error, if any
}

func (e *MissingTextError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Document, ErrMissingText)
	}
	return fmt.Sprintf("%s: %s (expected %s)", e.Document, ErrMissingText, e.Path)
}

// Unwrap returns the underlying error.
func (e *MissingTextError) Unwrap() error {
	return e.Err
}

// Is matches ErrMissingText.
func (e *MissingTextError) Is(target error) bool {
	return target == ErrMissingText
}

// DocumentError attributes a failure to one document.
type DocumentError struct {
	Document string
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Document, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}
