package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stagekit/resnode/pkg/archive"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restool.json")
	body := `{"base_dir": "/games/stage", "label_dir": "labels", "skeleton": "fighter.json", "compression_level": 9}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LabelDir != "labels" || cfg.CompressionLevel != 9 {
		t.Errorf("got %+v", cfg)
	}

	t.Run("Missing", func(t *testing.T) {
		if _, err := Load(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		os.WriteFile(bad, []byte("{"), 0644)
		if _, err := Load(bad); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestResolve(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		var cfg Config
		cfg.Resolve(Flags{})
		if cfg.LabelDir != DefaultLabelDir {
			t.Errorf("label dir: got %q", cfg.LabelDir)
		}
		if cfg.NamePrefix != "STG" {
			t.Errorf("prefix: got %q", cfg.NamePrefix)
		}
		if cfg.CompressionLevel != archive.DefaultCompressionLevel {
			t.Errorf("level: got %d", cfg.CompressionLevel)
		}
	})

	t.Run("BaseDir", func(t *testing.T) {
		cfg := Config{BaseDir: "/games/stage", SkeletonPath: "fighter.json"}
		cfg.Resolve(Flags{})
		if want := filepath.Join("/games/stage", "TBRM"); cfg.LabelDir != want {
			t.Errorf("label dir: got %q, want %q", cfg.LabelDir, want)
		}
		if want := filepath.Join("/games/stage", "fighter.json"); cfg.SkeletonPath != want {
			t.Errorf("skeleton: got %q, want %q", cfg.SkeletonPath, want)
		}
	})

	t.Run("FlagsWin", func(t *testing.T) {
		cfg := Config{LabelDir: "from-file", NamePrefix: "ABC", CompressionLevel: 3}
		cfg.Resolve(Flags{LabelDir: "/abs/labels", NamePrefix: "XYZ", CompressionLevel: 12})
		if cfg.LabelDir != "/abs/labels" || cfg.NamePrefix != "XYZ" || cfg.CompressionLevel != 12 {
			t.Errorf("got %+v", cfg)
		}
	})
}
