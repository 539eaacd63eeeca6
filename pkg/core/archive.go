// Package core implements the folder-to-binary archive codec: a tree
// walker that snapshots a directory into an ordered entry list, a codec
// that packs that list into a single self-describing binary blob and
// unpacks it back, and a writer that materializes entries onto disk.
package core

// Constants for archive format
const (
	Magic   = "FBIN" // Magic number to identify the archive
	Version = 1      // Archive format version
)

// DefaultDelimiter separates structural fields in the serialized form.
// The NUL bytes keep it out of any legal file name; file content is
// length-prefixed and never scanned for it.
var DefaultDelimiter = []byte{0x00, '|', '|', 0x00}

// EntryKind distinguishes file entries from directory entries
type EntryKind byte

const (
	KindFile EntryKind = 0 // Regular file with content
	KindDir  EntryKind = 1 // Directory, possibly empty
)

// Entry is one file or directory record in an archive.
type Entry struct {
	RelPath string    // Slash-separated path relative to the archive root
	Kind    EntryKind // File or directory
	Data    []byte    // File content; nil for directories
}
