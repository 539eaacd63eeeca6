package core

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// treeSpec describes a directory tree for tests: a nil value is an
// empty directory, a byte slice is file content.
type treeSpec map[string][]byte

// buildTree materializes spec under a fresh temp directory.
func buildTree(t *testing.T, spec treeSpec) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range spec {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if content == nil {
			if err := os.MkdirAll(full, 0755); err != nil {
				t.Fatalf("create dir %s: %v", full, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("create parent of %s: %v", full, err)
		}
		if err := os.WriteFile(full, content, 0644); err != nil {
			t.Fatalf("write %s: %v", full, err)
		}
	}
	return root
}

// snapshotTree reads every file and directory under root into a
// treeSpec for comparison.
func snapshotTree(t *testing.T, root string) treeSpec {
	t.Helper()
	snap := treeSpec{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			snap[rel] = nil
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		snap[rel] = data
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot %s: %v", root, err)
	}
	return snap
}

// requireSameTree fails the test unless both roots hold byte-identical
// trees, including empty directories.
func requireSameTree(t *testing.T, want, got string) {
	t.Helper()
	w, g := snapshotTree(t, want), snapshotTree(t, got)
	if len(w) != len(g) {
		t.Fatalf("tree mismatch: %d paths in %s, %d in %s", len(w), want, len(g), got)
	}
	for rel, content := range w {
		other, ok := g[rel]
		if !ok {
			t.Fatalf("missing %s in %s", rel, got)
		}
		if (content == nil) != (other == nil) {
			t.Fatalf("%s: kind mismatch", rel)
		}
		if !bytes.Equal(content, other) {
			t.Fatalf("%s: content mismatch", rel)
		}
	}
}

// requireEntry fails the test unless e matches the given fields.
func requireEntry(t *testing.T, e Entry, relPath string, kind EntryKind, data []byte) {
	t.Helper()
	if e.RelPath != relPath {
		t.Fatalf("entry path = %q, want %q", e.RelPath, relPath)
	}
	if e.Kind != kind {
		t.Fatalf("entry %q: kind = %d, want %d", relPath, e.Kind, kind)
	}
	if !bytes.Equal(e.Data, data) {
		t.Fatalf("entry %q: content mismatch", relPath)
	}
}
