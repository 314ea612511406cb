// Package manifest handles blush.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a blush.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Build   BuildConfig `toml:"build"`
	Run     RunConfig   `toml:"run"`

	// Dir is the directory containing the blush.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// BuildConfig configures compiler output.
type BuildConfig struct {
	Output    string `toml:"output"`
	Cache     bool   `toml:"cache"`
	CachePath string `toml:"cache-path"`
}

// RunConfig configures the interpreter.
type RunConfig struct {
	Trace bool `toml:"trace"`
}

// Load parses a blush.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "blush.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Build.CachePath == "" {
		m.Build.CachePath = filepath.Join(".blush", "cache.db")
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a blush.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "blush.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// CacheDBPath returns the absolute path to the program cache database.
func (m *Manifest) CacheDBPath() string {
	if filepath.IsAbs(m.Build.CachePath) {
		return m.Build.CachePath
	}
	return filepath.Join(m.Dir, m.Build.CachePath)
}
