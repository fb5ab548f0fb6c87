package enum

import "context"

// Source is one document's token file found during enumeration.
type Source struct {
	// ID identifies the document: the path relative to the root, with
	// forward slashes and the suffix removed (e.g. "notes/doc1").
	ID string

	// Path is the file's location on disk.
	Path string

	// RelPath is Path relative to the enumeration root.
	RelPath string

	// Content is the file content.
	Content []byte

	// Err is set when the file was found but could not be read; Content is
	// then nil. The callback decides whether this stops enumeration.
	Err error
}

// Callback receives each source. It may be called concurrently.
type Callback func(ctx context.Context, src Source) error

// Enumerator discovers documents to convert.
type Enumerator interface {
	// Enumerate yields every matching file under the configured root.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration.
	Root string

	// Suffix selects files by name suffix, e.g. ".bio".
	Suffix string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Workers is the number of parallel readers (0 = number of CPUs).
	Workers int

	// OnSkip, if set, is told about matching files that were not yielded.
	OnSkip func(path, reason string)
}
