package enum

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// FilesystemEnumerator enumerates token files from a filesystem directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// fileEntry holds metadata collected during the walk phase.
type fileEntry struct {
	path    string
	relPath string
	id      string
}

// List walks the tree and returns matching files sorted by document ID,
// without reading them.
func (e *FilesystemEnumerator) List(ctx context.Context) ([]Source, error) {
	files, err := e.walk(ctx)
	if err != nil {
		return nil, err
	}
	sources := make([]Source, len(files))
	for i, f := range files {
		sources[i] = Source{ID: f.id, Path: f.path, RelPath: f.relPath}
	}
	return sources, nil
}

// Enumerate walks the filesystem and yields matching files.
// Phase 1: Walk directory tree and collect eligible file paths (fast, sequential).
// Phase 2: Read files and invoke callback in parallel.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	// Phase 1: Walk and collect eligible file paths
	files, err := e.walk(ctx)
	if err != nil {
		return err
	}

	// Phase 2: Read and process files in parallel
	numReaders := e.config.Workers
	if numReaders < 1 {
		numReaders = runtime.NumCPU()
	}
	if numReaders < 1 {
		numReaders = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan fileEntry, numReaders*2)

	// Feed paths to readers
	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Parallel readers
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for f := range pathsCh {
				if err := e.processFile(ctx, f, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

func (e *FilesystemEnumerator) walk(ctx context.Context) ([]fileEntry, error) {
	root := e.config.Root
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", root)
	}

	// Load .gitignore patterns if present
	var ignore *gitignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
	}

	var files []fileEntry
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && !e.config.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			if path != root && ignore != nil && ignore.MatchesPath(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(info.Name(), e.config.Suffix) {
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !e.config.FollowSymlinks {
			e.skip(path, "symlink")
			return nil
		}

		if !e.config.IncludeHidden && isHidden(info.Name()) {
			return nil
		}

		if ignore != nil && ignore.MatchesPath(relPath) {
			return nil
		}

		size := info.Size()
		if info.Mode()&os.ModeSymlink != 0 {
			// Walk reports the link itself; size the target. A dangling
			// link is kept so the read failure reaches the callback.
			if target, err := os.Stat(path); err == nil {
				size = target.Size()
			}
		}
		if e.config.MaxFileSize > 0 && size > e.config.MaxFileSize {
			e.skip(path, fmt.Sprintf("size %d exceeds limit %d", size, e.config.MaxFileSize))
			return nil
		}

		files = append(files, fileEntry{
			path:    path,
			relPath: relPath,
			id:      DocumentID(relPath, e.config.Suffix),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].id < files[j].id })
	return files, nil
}

// processFile reads a single file and invokes the callback.
func (e *FilesystemEnumerator) processFile(ctx context.Context, f fileEntry, callback Callback) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	src := Source{ID: f.id, Path: f.path, RelPath: f.relPath}
	content, err := os.ReadFile(f.path)
	if err != nil {
		src.Err = fmt.Errorf("failed to read file %s: %w", f.path, err)
	} else {
		src.Content = content
	}

	return callback(ctx, src)
}

func (e *FilesystemEnumerator) skip(path, reason string) {
	if e.config.OnSkip != nil {
		e.config.OnSkip(path, reason)
	}
}

// DocumentID derives a document ID from a path relative to the root.
func DocumentID(relPath, suffix string) string {
	return strings.TrimSuffix(filepath.ToSlash(relPath), suffix)
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
