package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"binpack/pkg/config"
	"binpack/pkg/core"
	"binpack/pkg/extract"
	"binpack/pkg/progress"
)

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	switch operation := os.Args[1]; operation {
	case "pack":
		err = handlePack(cfg)
	case "unpack":
		err = handleUnpack(cfg)
	case "extract":
		err = handleExtract()
	default:
		fmt.Fprintln(os.Stderr, "Invalid operation:", operation)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// printUsage prints the command-line usage information
func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  binpack pack folder [output.bin]")
	fmt.Println("  binpack unpack archive.bin [destination]")
	fmt.Println("  binpack extract archive destination")
	fmt.Println()
	fmt.Println("extract supports .zip, .tar, .tar.gz, .tgz, .tar.zst, .tar.lz4, .gz and .lz4")
}

// handlePack archives a folder into a single binary file
func handlePack(cfg config.Config) error {
	if len(os.Args) != 3 && len(os.Args) != 4 {
		fmt.Println("Usage: binpack pack folder [output.bin]")
		os.Exit(1)
	}

	input := os.Args[2]
	output := packOutputPath(input, cfg.Extension)

	progress.Init(0)
	defer progress.Stop()

	opts := core.WalkOptions{}
	if cfg.FollowSymlinks {
		opts.Symlinks = core.FollowSymlinks
	}

	data, err := core.PackTree(context.Background(), input, []byte(cfg.Delimiter), opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

// packOutputPath determines the output path for packing
func packOutputPath(input, extension string) string {
	if len(os.Args) == 4 {
		return os.Args[3]
	}
	return filepath.Base(filepath.Clean(input)) + extension
}

// handleUnpack restores a folder from a binary archive
func handleUnpack(cfg config.Config) error {
	if len(os.Args) != 3 && len(os.Args) != 4 {
		fmt.Println("Usage: binpack unpack archive.bin [destination]")
		os.Exit(1)
	}

	input := os.Args[2]
	dest := unpackDestPath(input, cfg.Extension)

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	progress.Init(uint64(len(data)))
	defer progress.Stop()

	// Archives declare their own delimiter; nil accepts it as-is.
	entries, err := core.Unpack(context.Background(), data, nil)
	if err != nil {
		return err
	}
	return core.WriteTree(context.Background(), entries, dest)
}

// unpackDestPath determines the destination folder for unpacking
func unpackDestPath(input, extension string) string {
	if len(os.Args) == 4 {
		return os.Args[3]
	}
	base := filepath.Base(input)
	if dest := strings.TrimSuffix(base, extension); dest != base {
		return dest
	}
	return base + "_unpacked"
}

// handleExtract dispatches foreign archive formats to their decoders
func handleExtract() error {
	if len(os.Args) != 4 {
		fmt.Println("Usage: binpack extract archive destination")
		os.Exit(1)
	}

	progress.Init(0)
	defer progress.Stop()

	return extract.Extract(os.Args[2], os.Args[3])
}
