package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// ZIPHeader is the local-file-header signature that opens .alp containers
// and compressed Live sets.
var ZIPHeader = []byte("PK\x03\x04\x14\x00\x00\x00")

// XMLSet is a minimal uncompressed Live set prefix.
var XMLSet = []byte(`<?xml version="1.0" encoding="UTF-8"?><Ableton MajorVersion="5"></Ableton>`)

// WriteFile creates path (and its parents) with the given content.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteTree creates a set of files under root, keyed by relative path.
func WriteTree(t testing.TB, root string, files map[string][]byte) {
	t.Helper()

	for rel, content := range files {
		WriteFile(t, filepath.Join(root, rel), content)
	}
}
