package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// SymlinkPolicy controls how the walker treats symbolic links.
type SymlinkPolicy int

const (
	// RejectSymlinks aborts the walk when a symbolic link is encountered.
	RejectSymlinks SymlinkPolicy = iota
	// FollowSymlinks dereferences symbolic links and archives their targets.
	FollowSymlinks
)

// WalkOptions configure a tree walk. The zero value rejects symlinks.
type WalkOptions struct {
	Symlinks SymlinkPolicy
}

// Walk enumerates the tree rooted at root into a depth-first, pre-order
// sequence of entries. Children of each directory are visited in
// lexicographic order, so repeated walks of an unmodified tree produce
// identical sequences. Empty directories are included; the root itself
// is not. Cancellation is checked between entries, never mid-entry.
func Walk(ctx context.Context, root string, opts WalkOptions) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &AccessError{Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &AccessError{Path: root, Err: errors.New("not a directory")}
	}

	// Following symlinks can loop back into an ancestor; track the
	// resolved directories on the recursion stack to catch cycles.
	var active map[string]bool
	if opts.Symlinks == FollowSymlinks {
		active = make(map[string]bool)
	}

	var entries []Entry
	if err := walkDir(ctx, root, "", opts, active, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// walkDir appends entries for everything under dir, where rel is dir's
// slash-separated path relative to the walk root ("" for the root).
func walkDir(ctx context.Context, dir, rel string, opts WalkOptions, active map[string]bool, out *[]Entry) error {
	if active != nil {
		resolved, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return &AccessError{Path: dir, Err: err}
		}
		if active[resolved] {
			return &AccessError{Path: dir, Err: errors.New("symbolic link cycle")}
		}
		active[resolved] = true
		defer delete(active, resolved)
	}

	children, err := os.ReadDir(dir) // sorted by name
	if err != nil {
		return &AccessError{Path: dir, Err: err}
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		childPath := filepath.Join(dir, child.Name())
		childRel := path.Join(rel, child.Name())

		mode := child.Type()
		if mode&os.ModeSymlink != 0 {
			if opts.Symlinks == RejectSymlinks {
				return &AccessError{Path: childPath, Err: errors.New("symbolic link")}
			}
			// Dereference and archive whatever the link points at.
			target, err := os.Stat(childPath)
			if err != nil {
				return &AccessError{Path: childPath, Err: err}
			}
			mode = target.Mode().Type()
		}

		switch {
		case mode.IsDir():
			*out = append(*out, Entry{RelPath: childRel, Kind: KindDir})
			if err := walkDir(ctx, childPath, childRel, opts, active, out); err != nil {
				return err
			}
		case mode.IsRegular():
			data, err := os.ReadFile(childPath)
			if err != nil {
				return &AccessError{Path: childPath, Err: err}
			}
			*out = append(*out, Entry{RelPath: childRel, Kind: KindFile, Data: data})
		default:
			return &AccessError{Path: childPath, Err: fmt.Errorf("unsupported file type %v", mode)}
		}
	}
	return nil
}
