package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesConfiguredChunkSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("chunk_size: 4096\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != 4096 {
		t.Fatalf("got %d", cfg.ChunkSize)
	}
}

func TestLoadFallsBackToDefaultOnNonPositive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("chunk_size: 0\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != defaultChunkSize {
		t.Fatalf("got %d", cfg.ChunkSize)
	}
}
