// Package safefile writes report and metrics outputs without following
// symlinks or leaving half-written files behind.
package safefile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteFileAtomic replaces path with data. The bytes go to a temporary file
// next to the target, which is synced and renamed over it, so readers see
// either the old or the new content. Missing parents are created. Symlinked
// targets or parents and directory targets are refused.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("write target is required")
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	if err := checkParent(dir); err != nil {
		return err
	}
	if err := checkTarget(target); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".reviewgate-tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	if err := fill(tmp, data, perm); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

func fill(f *os.File, data []byte, perm os.FileMode) error {
	_, err := f.Write(data)
	if err == nil {
		err = f.Chmod(perm)
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	return nil
}

func checkParent(dir string) error {
	info, err := os.Lstat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return fmt.Errorf("refusing symlinked directory: %s", dir)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	return nil
}

func checkTarget(target string) error {
	info, err := os.Lstat(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", target, err)
	case info.Mode()&fs.ModeSymlink != 0:
		return fmt.Errorf("refusing symlinked file target: %s", target)
	case info.IsDir():
		return fmt.Errorf("refusing directory write target: %s", target)
	}
	return nil
}
