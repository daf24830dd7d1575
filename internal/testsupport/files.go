package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// FakeClip writes a synthetic media payload of exactly size bytes to path,
// creating parent directories as needed. A size <= 0 writes a single byte.
// The payload repeats the file's base name so a mixed-up artifact shows up
// as a content mismatch, not just a length one.
func FakeClip(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	stamp := []byte(filepath.Base(path) + "|")
	payload := bytes.Repeat(stamp, int(size)/len(stamp)+1)[:size]
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
