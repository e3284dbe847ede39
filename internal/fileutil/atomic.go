package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giantswarm/browserenv/internal/sentinel"
)

// ErrEmptyDst is returned when a destination path is empty.
const ErrEmptyDst = sentinel.Error("destination path must not be empty")

// WriteAtomic copies r into dst with the given mode. Data goes to a temp
// file in dst's directory, is synced, then renamed over dst, so readers see
// either the old file or the complete new one. Parent directories are
// created as needed. It returns the number of bytes written.
func WriteAtomic(dst string, r io.Reader, mode os.FileMode) (n int64, retErr error) {
	if dst == "" {
		return 0, ErrEmptyDst
	}
	if err := EnsureDirForFile(dst); err != nil {
		return 0, fmt.Errorf("prepare destination: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-"+filepath.Base(dst)+"-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(mode); err != nil {
		return 0, fmt.Errorf("chmod temp file: %w", err)
	}
	if n, err = io.Copy(tmp, r); err != nil {
		return n, fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return n, fmt.Errorf("rename temp file to destination: %w", err)
	}
	return n, nil
}
