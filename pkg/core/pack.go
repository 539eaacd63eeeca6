package core

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"path"
	"strings"

	"binpack/pkg/progress"

	"github.com/cespare/xxhash/v2"
)

// PackTree walks the directory at root and packs the resulting
// snapshot into one archive buffer. A nil or empty delimiter selects
// DefaultDelimiter.
func PackTree(ctx context.Context, root string, delimiter []byte, opts WalkOptions) ([]byte, error) {
	entries, err := Walk(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	var total uint64
	for i := range entries {
		total += uint64(len(entries[i].Data))
	}
	progress.Init(total)
	defer progress.Stop()

	return Pack(ctx, entries, delimiter)
}

// Pack encodes entries into a single archive buffer. Per entry it
// emits a kind tag, the relative path, the delimiter, for files a
// big-endian uint64 length prefix plus the raw content, and the
// delimiter again as terminator. Content bytes are framed by the
// length prefix alone and may contain the delimiter freely; a relative
// path containing the delimiter fails with *DelimiterCollisionError.
// The returned buffer is owned by the caller.
func Pack(ctx context.Context, entries []Entry, delimiter []byte) ([]byte, error) {
	if len(delimiter) == 0 {
		delimiter = DefaultDelimiter
	}
	if len(delimiter) > maxDelimiterLen {
		return nil, fmt.Errorf("delimiter longer than %d bytes", maxDelimiterLen)
	}

	kinds, err := indexEntries(entries)
	if err != nil {
		return nil, err
	}

	var payload bytes.Buffer
	var size [8]byte
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := &entries[i]

		if bytes.Contains([]byte(e.RelPath), delimiter) {
			return nil, &DelimiterCollisionError{Path: e.RelPath}
		}
		for dir := path.Dir(e.RelPath); dir != "."; dir = path.Dir(dir) {
			// Ancestors without an entry of their own are fine; only an
			// explicit file entry at dir is a conflict.
			if k, ok := kinds[dir]; ok && k == KindFile {
				return nil, fmt.Errorf("entry %q passes through file %q", e.RelPath, dir)
			}
		}

		payload.WriteByte(byte(e.Kind))
		payload.WriteString(e.RelPath)
		payload.Write(delimiter)
		if e.Kind == KindFile {
			binary.BigEndian.PutUint64(size[:], uint64(len(e.Data)))
			payload.Write(size[:])
			payload.Write(e.Data)
		}
		payload.Write(delimiter)
		progress.AddBytes(uint64(len(e.Data)))
	}

	out := make([]byte, 0, headerSize(delimiter)+payload.Len())
	out = append(out, Magic...)
	out = append(out, Version)
	out = binary.BigEndian.AppendUint16(out, uint16(len(delimiter)))
	out = append(out, delimiter...)
	out = binary.BigEndian.AppendUint64(out, xxhash.Sum64(payload.Bytes()))
	out = append(out, payload.Bytes()...)
	return out, nil
}

// maxDelimiterLen bounds the delimiter so its length always fits the
// header's uint16 field.
const maxDelimiterLen = 1<<16 - 1

func headerSize(delimiter []byte) int {
	return len(Magic) + 1 + 2 + len(delimiter) + 8
}

// indexEntries validates each relative path and builds a path-to-kind
// index, rejecting duplicates up front so the ancestor checks in Pack
// see every entry regardless of input order.
func indexEntries(entries []Entry) (map[string]EntryKind, error) {
	kinds := make(map[string]EntryKind, len(entries))
	for i := range entries {
		e := &entries[i]
		if !validRelPath(e.RelPath) {
			return nil, fmt.Errorf("invalid entry path %q", e.RelPath)
		}
		if e.Kind != KindFile && e.Kind != KindDir {
			return nil, fmt.Errorf("entry %q: unknown kind %d", e.RelPath, e.Kind)
		}
		if _, ok := kinds[e.RelPath]; ok {
			return nil, fmt.Errorf("duplicate entry path %q", e.RelPath)
		}
		kinds[e.RelPath] = e.Kind
	}
	return kinds, nil
}

// validRelPath accepts clean, non-empty, slash-separated paths that
// stay below the archive root.
func validRelPath(rel string) bool {
	if rel == "" || rel == "." || path.IsAbs(rel) {
		return false
	}
	if rel != path.Clean(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, "../")
}
