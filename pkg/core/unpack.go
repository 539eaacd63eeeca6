package core

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"binpack/pkg/progress"

	"github.com/cespare/xxhash/v2"
)

// Unpack decodes an archive produced by Pack into an ordered entry
// list. The input buffer is read-only; entry content is copied into
// fresh buffers that never alias it. The archive header carries the
// delimiter it was packed with; a non-empty delimiter argument is
// checked against it and a difference fails with ErrDelimiterMismatch.
// A zero-length delimiter accepts whatever the archive declares,
// mirroring Pack's treatment of a zero-length delimiter as "default".
func Unpack(ctx context.Context, data []byte, delimiter []byte) ([]Entry, error) {
	delim, sum, payload, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if len(delimiter) > 0 && !bytes.Equal(delimiter, delim) {
		return nil, fmt.Errorf("%w: archive declares %q", ErrDelimiterMismatch, delim)
	}

	var entries []Entry
	rest := payload
	for len(rest) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, n, err := readEntry(rest, delim)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
		rest = rest[n:]
		progress.AddBytes(uint64(len(e.Data)))
	}

	// Structural parsing ran clean; the checksum catches corruption
	// that still parses, such as flipped content bytes.
	if xxhash.Sum64(payload) != sum {
		return nil, ErrChecksumMismatch
	}
	return entries, nil
}

// readHeader validates the fixed header and returns the declared
// delimiter, the payload checksum, and the payload itself.
func readHeader(data []byte) (delim []byte, sum uint64, payload []byte, err error) {
	fixed := len(Magic) + 1 + 2
	if len(data) < fixed {
		return nil, 0, nil, fmt.Errorf("%w: %d bytes is too short", ErrMalformedHeader, len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, 0, nil, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, data[:len(Magic)])
	}
	if data[len(Magic)] != Version {
		return nil, 0, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHeader, data[len(Magic)])
	}
	dl := int(binary.BigEndian.Uint16(data[len(Magic)+1 : fixed]))
	if dl == 0 {
		return nil, 0, nil, fmt.Errorf("%w: zero-length delimiter", ErrMalformedHeader)
	}
	if len(data) < fixed+dl+8 {
		return nil, 0, nil, fmt.Errorf("%w: header cut short", ErrTruncatedArchive)
	}
	delim = data[fixed : fixed+dl]
	sum = binary.BigEndian.Uint64(data[fixed+dl : fixed+dl+8])
	return delim, sum, data[fixed+dl+8:], nil
}

// readEntry decodes one entry from the front of b and reports how many
// bytes it consumed. Only the path region is delimiter-scanned; file
// content is consumed by its declared length.
func readEntry(b, delim []byte) (Entry, int, error) {
	kind := EntryKind(b[0])
	if kind != KindFile && kind != KindDir {
		return Entry{}, 0, fmt.Errorf("%w: unknown kind tag 0x%02x", ErrMalformedHeader, b[0])
	}

	i := bytes.Index(b[1:], delim)
	if i < 0 {
		return Entry{}, 0, fmt.Errorf("%w: no delimiter after path", ErrMalformedHeader)
	}
	relPath := string(b[1 : 1+i])
	off := 1 + i + len(delim)

	var data []byte
	if kind == KindFile {
		if len(b)-off < 8 {
			return Entry{}, 0, fmt.Errorf("%w: missing length field for %q", ErrTruncatedArchive, relPath)
		}
		size := binary.BigEndian.Uint64(b[off : off+8])
		off += 8
		if size > uint64(len(b)-off) {
			return Entry{}, 0, fmt.Errorf("%w: %q declares %d content bytes, %d remain",
				ErrTruncatedArchive, relPath, size, len(b)-off)
		}
		data = make([]byte, size)
		copy(data, b[off:off+int(size)])
		off += int(size)
	}

	if len(b)-off < len(delim) {
		return Entry{}, 0, fmt.Errorf("%w: missing terminator for %q", ErrTruncatedArchive, relPath)
	}
	if !bytes.Equal(b[off:off+len(delim)], delim) {
		return Entry{}, 0, fmt.Errorf("%w: bad terminator for %q", ErrMalformedHeader, relPath)
	}
	off += len(delim)

	return Entry{RelPath: relPath, Kind: kind, Data: data}, off, nil
}
