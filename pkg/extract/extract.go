// Package extract unpacks common archive and compression formats into
// a destination directory, dispatching on the file name suffix.
package extract

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"binpack/pkg/progress"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrUnknownFormat reports a file whose suffix matches no supported
// archive format.
var ErrUnknownFormat = errors.New("unknown archive format")

// Extract unpacks the archive at src into destDir, creating destDir if
// needed. Supported suffixes: .zip, .tar, .tar.gz, .tgz, .tar.zst,
// .tar.lz4, and bare .gz / .lz4 single-file streams.
func Extract(src, destDir string) error {
	switch {
	case strings.HasSuffix(src, ".zip"):
		return extractZip(src, destDir)
	case strings.HasSuffix(src, ".tar"):
		return withFile(src, func(r io.Reader) error {
			return extractTar(r, destDir)
		})
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		return withFile(src, func(r io.Reader) error {
			zr, err := gzip.NewReader(r)
			if err != nil {
				return fmt.Errorf("open gzip stream: %w", err)
			}
			defer zr.Close()
			return extractTar(zr, destDir)
		})
	case strings.HasSuffix(src, ".tar.zst"):
		return withFile(src, func(r io.Reader) error {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return fmt.Errorf("open zstd stream: %w", err)
			}
			defer zr.Close()
			return extractTar(zr, destDir)
		})
	case strings.HasSuffix(src, ".tar.lz4"):
		return withFile(src, func(r io.Reader) error {
			return extractTar(lz4.NewReader(r), destDir)
		})
	case strings.HasSuffix(src, ".gz"):
		return extractSingle(src, destDir, ".gz", func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(src, ".lz4"):
		return extractSingle(src, destDir, ".lz4", func(r io.Reader) (io.Reader, error) {
			return lz4.NewReader(r), nil
		})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(src))
	}
}

func withFile(src string, fn func(io.Reader) error) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()
	return fn(f)
}

func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		dest, err := joinInside(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("create dir %s: %w", dest, err)
			}
		case tar.TypeReg:
			if err := writeStream(dest, tr, os.FileMode(hdr.Mode)&0777); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, hdr.Linkname); err != nil {
				return err
			}
		default:
			return fmt.Errorf("entry %q: unsupported tar type %q", hdr.Name, hdr.Typeflag)
		}
	}
}

func extractZip(src, destDir string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		dest, err := joinInside(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return fmt.Errorf("create dir %s: %w", dest, err)
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s in %s: %w", f.Name, src, err)
		}
		err = writeStream(dest, rc, f.Mode().Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extractSingle decompresses a single-file stream like file.txt.gz
// into destDir/file.txt.
func extractSingle(src, destDir, suffix string, wrap func(io.Reader) (io.Reader, error)) error {
	name := strings.TrimSuffix(filepath.Base(src), suffix)
	return withFile(src, func(r io.Reader) error {
		zr, err := wrap(r)
		if err != nil {
			return fmt.Errorf("open %s: %w", src, err)
		}
		return writeStream(filepath.Join(destDir, name), zr, 0644)
	})
}

func writeStream(dest string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", dest, err)
	}
	if mode == 0 {
		mode = 0644
	}
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	pw := &progress.Writer{W: f}
	if _, err := io.Copy(pw, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}

// writeSymlink recreates a relative symlink, rejecting targets that
// cannot be proven to stay relative.
func writeSymlink(dest, target string) error {
	if filepath.IsAbs(target) {
		return fmt.Errorf("symlink %s: absolute target %q", dest, target)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create dir for %s: %w", dest, err)
	}
	if err := os.Symlink(target, dest); err != nil {
		return fmt.Errorf("create symlink %s: %w", dest, err)
	}
	return nil
}

// joinInside resolves an archive entry name beneath root, rejecting
// names that would escape it.
func joinInside(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes the destination", name)
	}
	return filepath.Join(root, clean), nil
}
