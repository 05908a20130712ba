// Package config loads tool settings from a JSON file and merges command-line
// overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stagekit/resnode/pkg/archive"
	"github.com/stagekit/resnode/pkg/resource"
)

// DefaultLabelDir is the label directory used when nothing else is set.
const DefaultLabelDir = "TBRM"

// Config holds all configurable paths and encode settings.
type Config struct {
	// Paths
	BaseDir      string `json:"base_dir"`
	LabelDir     string `json:"label_dir"`
	SkeletonPath string `json:"skeleton"`

	// Decode and encode settings
	NamePrefix       string `json:"name_prefix"`
	CompressionLevel int    `json:"compression_level"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	LabelDir         string
	SkeletonPath     string
	NamePrefix       string
	CompressionLevel int
}

// Resolve applies flag overrides, then fills defaults. CLI flags take
// priority when non-zero/non-empty. Relative paths from the file are resolved
// against BaseDir.
func (c *Config) Resolve(flags Flags) {
	if flags.LabelDir != "" {
		c.LabelDir = flags.LabelDir
	}
	if flags.SkeletonPath != "" {
		c.SkeletonPath = flags.SkeletonPath
	}
	if flags.NamePrefix != "" {
		c.NamePrefix = flags.NamePrefix
	}
	if flags.CompressionLevel > 0 {
		c.CompressionLevel = flags.CompressionLevel
	}

	if c.LabelDir == "" {
		c.LabelDir = DefaultLabelDir
	}
	if c.BaseDir != "" {
		if !filepath.IsAbs(c.LabelDir) {
			c.LabelDir = filepath.Join(c.BaseDir, c.LabelDir)
		}
		if c.SkeletonPath != "" && !filepath.IsAbs(c.SkeletonPath) {
			c.SkeletonPath = filepath.Join(c.BaseDir, c.SkeletonPath)
		}
	}

	if c.NamePrefix == "" {
		c.NamePrefix = resource.DefaultNamePrefix
	}
	if c.CompressionLevel <= 0 {
		c.CompressionLevel = archive.DefaultCompressionLevel
	}
}
