package store

import (
	"path/filepath"
	"testing"

	"github.com/lumenlabsco/exam-eval/internal/config"
)

func TestOpen(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Type = "memory"

	st, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	st.Close()

	cfg.Storage.Type = "sqlite"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "x.db")
	st, err = Open(cfg)
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	st.Close()

	cfg.Storage.Type = "redis"
	if _, err := Open(cfg); err == nil {
		t.Fatal("expected error for unsupported type")
	}

	if _, err := Open(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
