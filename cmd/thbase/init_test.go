package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vango-dev/thbase/internal/config"
	"github.com/vango-dev/thbase/internal/errors"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()

	if err := runInit(dir, "yaml", false); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != config.DefaultPort || filepath.Base(cfg.Path()) != "thbase.yaml" {
		t.Fatalf("cfg = %+v (%s)", cfg, cfg.Path())
	}
	for _, d := range []string{"image", "base"} {
		if info, err := os.Stat(filepath.Join(dir, d)); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", d, err)
		}
	}

	if err := runInit(dir, "json", false); !errors.Is(err, "E121") {
		t.Fatalf("second runInit = %v, want E121", err)
	}
	if err := runInit(dir, "json", true); err != nil {
		t.Fatalf("forced runInit: %v", err)
	}
	if err := runInit(dir, "toml", true); !errors.Is(err, "E120") {
		t.Fatalf("unknown format = %v, want E120", err)
	}
}
