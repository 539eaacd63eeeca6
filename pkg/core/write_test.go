package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteTreeMaterializes(t *testing.T) {
	entries := []Entry{
		{RelPath: "a", Kind: KindDir},
		{RelPath: "a/b.txt", Kind: KindFile, Data: []byte("hello")},
		{RelPath: "a/c", Kind: KindDir},
		{RelPath: "d.bin", Kind: KindFile, Data: []byte{0x00, 0xFF}},
	}

	dest := t.TempDir()
	if err := WriteTree(context.Background(), entries, dest); err != nil {
		t.Fatalf("WriteTree failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "a", "b.txt"))
	if err != nil || string(data) != "hello" {
		t.Fatalf("a/b.txt wrong: %q, %v", data, err)
	}
	info, err := os.Stat(filepath.Join(dest, "a", "c"))
	if err != nil || !info.IsDir() {
		t.Fatalf("empty directory a/c not materialized: %v", err)
	}
}

// TestWriteTreeOutOfOrder feeds a file before its parent directory's
// entry; missing intermediates are created defensively.
func TestWriteTreeOutOfOrder(t *testing.T) {
	entries := []Entry{
		{RelPath: "deep/nested/file.txt", Kind: KindFile, Data: []byte("x")},
		{RelPath: "deep", Kind: KindDir},
	}

	dest := t.TempDir()
	if err := WriteTree(context.Background(), entries, dest); err != nil {
		t.Fatalf("WriteTree failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "deep", "nested", "file.txt")); err != nil {
		t.Fatalf("nested file missing: %v", err)
	}
}

func TestWriteTreeRejectsEscape(t *testing.T) {
	cases := [][]Entry{
		{{RelPath: "../evil.txt", Kind: KindFile, Data: []byte("x")}},
		{{RelPath: "/abs.txt", Kind: KindFile, Data: []byte("x")}},
		{{RelPath: "ok/../../evil.txt", Kind: KindFile, Data: []byte("x")}},
	}
	for _, entries := range cases {
		if err := WriteTree(context.Background(), entries, t.TempDir()); err == nil {
			t.Fatalf("entry %q escaped the destination", entries[0].RelPath)
		}
	}
}

func TestWriteTreeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []Entry{{RelPath: "f", Kind: KindFile, Data: []byte("x")}}
	if err := WriteTree(ctx, entries, t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// TestFullRoundTrip exercises walk, pack, unpack, and materialize over
// one tree with empty files, empty directories, and binary content
// containing the delimiter bytes.
func TestFullRoundTrip(t *testing.T) {
	delim := []byte("||")
	root := buildTree(t, treeSpec{
		"src/main.txt":       []byte("package main"),
		"src/vendor":         nil,
		"src/deep/a/b/c.txt": []byte("nested"),
		"empty.txt":          {},
		"raw.bin":            {'|', '|', 0x00, '|', '|', 0xFF},
	})

	data, err := PackTree(context.Background(), root, delim, WalkOptions{})
	if err != nil {
		t.Fatalf("PackTree failed: %v", err)
	}
	entries, err := Unpack(context.Background(), data, delim)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	dest := t.TempDir()
	if err := WriteTree(context.Background(), entries, dest); err != nil {
		t.Fatalf("WriteTree failed: %v", err)
	}
	requireSameTree(t, root, dest)
}
