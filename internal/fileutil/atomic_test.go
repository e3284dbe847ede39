package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteAtomic(t *testing.T) {
	t.Parallel()
	dst := filepath.Join(t.TempDir(), "nested", "selenium.jar")

	n, err := WriteAtomic(dst, strings.NewReader("jar bytes"), 0o640)
	if err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}
	if n != int64(len("jar bytes")) {
		t.Errorf("WriteAtomic() wrote %d bytes, want %d", n, len("jar bytes"))
	}
	got, err := os.ReadFile(dst) //nolint:gosec // G304: path is test-controlled
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "jar bytes" {
		t.Errorf("content = %q, want %q", got, "jar bytes")
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o640 {
		t.Errorf("mode = %o, want 640", perm)
	}
}

func TestWriteAtomic_FailureLeavesNothing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dst := filepath.Join(dir, "artifact.zip")

	if _, err := WriteAtomic(dst, failingReader{}, 0o644); err == nil {
		t.Fatal("expected error from failing reader, got nil")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory not empty after failed write: %v", entries)
	}
}

func TestWriteAtomic_EmptyDestination(t *testing.T) {
	t.Parallel()
	if _, err := WriteAtomic("", strings.NewReader(""), 0o644); !errors.Is(err, ErrEmptyDst) {
		t.Errorf("error = %v, want %v", err, ErrEmptyDst)
	}
}
