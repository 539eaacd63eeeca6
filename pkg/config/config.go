// Package config loads optional user defaults for the binpack CLI
// from a .binpackrc INI file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// FileName is the config file looked up in the working directory and
// then in the user's home directory.
const FileName = ".binpackrc"

// Config holds CLI defaults. Explicit command-line arguments always
// take precedence over these.
type Config struct {
	Delimiter      string // pack.delimiter; empty selects the built-in default
	Extension      string // pack.extension for generated archive names
	FollowSymlinks bool   // walk.symlinks = follow
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{Extension: ".bin"}
}

// Load reads the first .binpackrc found in the working directory or
// the home directory. A missing file is not an error.
func Load() (Config, error) {
	path, ok := locate()
	if !ok {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads defaults from the INI file at path.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	file, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}

	if v := file.Section("pack").Key("delimiter").String(); v != "" {
		cfg.Delimiter = v
	}
	if v := file.Section("pack").Key("extension").String(); v != "" {
		if !strings.HasPrefix(v, ".") {
			v = "." + v
		}
		cfg.Extension = v
	}
	switch v := file.Section("walk").Key("symlinks").String(); v {
	case "", "reject":
	case "follow":
		cfg.FollowSymlinks = true
	default:
		return cfg, fmt.Errorf("%s: walk.symlinks must be reject or follow, got %q", path, v)
	}

	return cfg, nil
}

func locate() (string, bool) {
	if _, err := os.Stat(FileName); err == nil {
		return FileName, true
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
