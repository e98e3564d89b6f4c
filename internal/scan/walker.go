package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Walker enumerates candidate files under a root. Traversal is breadth-first
// so matches near the top of the tree surface early in progress output.
// Symbolic links are never followed, which prevents cycles and double
// counting when scanning whole drives.
type Walker struct {
	root string
}

// NewWalker constructs a walker over root.
func NewWalker(root string) *Walker {
	return &Walker{root: root}
}

// Run enumerates the subtree, calling emit for each regular file and report
// for each recoverable enumeration failure. It returns an error only for
// fatal conditions: a root that does not exist, is not readable, or was
// removed before traversal started. Unreadable subdirectories are reported
// and skipped; traversal always continues with their siblings.
func (w *Walker) Run(ctx context.Context, emit func(string) bool, report func(ErrorEvent)) error {
	info, err := os.Lstat(w.root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootInaccessible, w.root, err)
	}

	// A root that is itself a single file classifies that one file.
	if info.Mode().IsRegular() {
		emit(w.root)
		return nil
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s: not a directory or regular file", ErrRootInaccessible, w.root)
	}

	rootEntries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRootInaccessible, w.root, err)
	}

	queue := make([]string, 0, 64)
	if !w.visit(ctx, w.root, rootEntries, emit, &queue) {
		return nil
	}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			// Permission denial or mid-scan removal of a subtree is a
			// per-entry error, not fatal.
			report(ErrorEvent{Category: CategoryEnumeration, Path: dir, Err: err})
			continue
		}
		if !w.visit(ctx, dir, entries, emit, &queue) {
			return nil
		}
	}
	return nil
}

func (w *Walker) visit(ctx context.Context, dir string, entries []fs.DirEntry, emit func(string) bool, queue *[]string) bool {
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			continue
		case entry.IsDir():
			*queue = append(*queue, path)
		case entry.Type().IsRegular():
			if !emit(path) {
				return false
			}
		}
	}
	return true
}
