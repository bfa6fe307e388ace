package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// rename is replaced in tests to simulate a failing filesystem.
var rename = os.Rename

// placed records a target moved into place and where its previous
// contents were parked, if it had any.
type placed struct {
	path   string
	backup string
}

// writeFiles writes every file to a temporary file next to its target and
// renames them into place only after all of them were written. Targets
// that existed are moved aside first; if any rename fails, every target
// already replaced is put back, so either all files change or none do.
func writeFiles(files map[string][]byte) error {
	paths := slices.Sorted(maps.Keys(files))
	temps := make([]string, 0, len(paths))
	cleanup := func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}

	for _, path := range paths {
		tmp, err := writeTemp(path, files[path])
		if err != nil {
			cleanup()
			return err
		}
		temps = append(temps, tmp)
	}

	var done []placed
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			p := done[i]
			if p.backup == "" {
				_ = os.Remove(p.path)
				continue
			}
			_ = rename(p.backup, p.path)
		}
		cleanup()
	}

	for i, path := range paths {
		backup, err := moveAside(path)
		if err != nil {
			rollback()
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
		done = append(done, placed{path: path, backup: backup})
		if err := rename(temps[i], path); err != nil {
			rollback()
			return fmt.Errorf("failed to replace %s: %w", path, err)
		}
	}

	for _, p := range done {
		if p.backup != "" {
			_ = os.Remove(p.backup)
		}
	}
	return nil
}

// moveAside renames an existing target to a backup next to it and returns
// the backup path, or "" when there was nothing to move.
func moveAside(path string) (string, error) {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".bak-*")
	if err != nil {
		return "", err
	}
	backup := f.Name()
	_ = f.Close()
	if err := rename(path, backup); err != nil {
		_ = os.Remove(backup)
		return "", err
	}
	return backup, nil
}

func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil { //nolint:gosec // G302: generated sources are world-readable
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	return f.Name(), nil
}
