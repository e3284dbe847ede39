package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/giantswarm/browserenv/internal/fileutil"
)

// errUnsafePath is returned for archive entries that would land outside the
// extraction directory.
var errUnsafePath = errors.New("archive entry escapes destination")

// unzip extracts the archive at src into dir.
func unzip(src, dir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractEntry(f, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, dir string) error {
	target := filepath.Join(dir, filepath.FromSlash(f.Name))
	if target != dir && !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return fmt.Errorf("%s: %w", f.Name, errUnsafePath)
	}

	mode := f.Mode()
	switch {
	case mode.IsDir():
		return fileutil.EnsureDir(target)
	case mode&os.ModeSymlink != 0:
		// Not produced by the archives we install.
		return nil
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	if _, err := fileutil.WriteAtomic(target, rc, perm); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}
