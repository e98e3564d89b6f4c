package testsupport

import (
	"path/filepath"
	"testing"

	"alsrescue/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "recovered")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ManifestPath = filepath.Join(base, "manifest.db")
	cfg.Scan.Workers = 2
	cfg.Scan.MinFreeGiB = 0

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}
