package convert

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// TextSource supplies the original text of a document.
type TextSource interface {
	// Text returns the document's text. A missing document yields an error
	// matching ErrMissingText.
	Text(ctx context.Context, id string) ([]byte, error)
}

// DirTextSource reads "<Dir>/<id><Suffix>" from disk.
type DirTextSource struct {
	Dir    string
	Suffix string
}

// Path returns where the text of id is expected.
func (s DirTextSource) Path(id string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(id)+s.Suffix)
}

// Text reads the document text.
func (s DirTextSource) Text(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(id)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingTextError{Document: id, Path: path, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// MapTextSource serves texts from memory, keyed by document ID.
type MapTextSource map[string]string

// Text returns the stored text.
func (m MapTextSource) Text(ctx context.Context, id string) ([]byte, error) {
	text, ok := m[id]
	if !ok {
		return nil, &MissingTextError{Document: id}
	}
	return []byte(text), nil
}

// textPath returns the on-disk location of a text if the source has one.
func textPath(src TextSource, id string) string {
	if p, ok := src.(interface{ Path(string) string }); ok {
		return p.Path(id)
	}
	return ""
}
