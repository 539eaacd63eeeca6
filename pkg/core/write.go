package core

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"binpack/pkg/progress"
)

// WriteTree materializes entries under destRoot. Directories are
// created before the files that depend on them; missing intermediate
// directories are created defensively, so the input need not arrive in
// pre-order. Cancellation is checked between entries and leaves the
// tree in the last fully-written entry's state.
func WriteTree(ctx context.Context, entries []Entry, destRoot string) error {
	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return &AccessError{Path: destRoot, Err: err}
	}

	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		e := &entries[i]

		dest, err := securePath(destRoot, e.RelPath)
		if err != nil {
			return err
		}

		switch e.Kind {
		case KindDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return &AccessError{Path: dest, Err: err}
			}
		case KindFile:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return &AccessError{Path: filepath.Dir(dest), Err: err}
			}
			if err := os.WriteFile(dest, e.Data, 0644); err != nil {
				return &AccessError{Path: dest, Err: err}
			}
			progress.AddBytes(uint64(len(e.Data)))
		default:
			return fmt.Errorf("entry %q: unknown kind %d", e.RelPath, e.Kind)
		}
	}
	return nil
}

// securePath resolves rel beneath root, rejecting entries that would
// escape it.
func securePath(root, rel string) (string, error) {
	if rel == "" || path.IsAbs(rel) {
		return "", fmt.Errorf("invalid entry path %q", rel)
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("entry path %q escapes the destination", rel)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}
