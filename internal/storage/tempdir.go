package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TempDir is a staging directory for in-progress downloads.
// It lives inside the output directory so finished files can be renamed
// into place without crossing filesystems:
//
//	{base}/.steamcat-{label}-{timestamp}/
//
// The caller is responsible for cleaning up by calling Remove().
type TempDir struct {
	root    string
	created time.Time
}

// NewTempDir creates a staging directory under base.
func NewTempDir(base, label string) (*TempDir, error) {
	if base == "" {
		return nil, fmt.Errorf("base directory cannot be empty")
	}
	if label == "" {
		return nil, fmt.Errorf("label cannot be empty")
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	pattern := fmt.Sprintf(".steamcat-%s-%s-*", label, time.Now().Format("20060102T150405"))
	root, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TempDir{
		root:    root,
		created: time.Now(),
	}, nil
}

// Root returns the staging directory path.
// Returns empty string if TempDir was not initialized.
func (t *TempDir) Root() string {
	return t.root
}

// Path returns the staging path for a file name.
func (t *TempDir) Path(name string) string {
	return filepath.Join(t.root, name)
}

// Promote moves a staged file to dest, replacing any existing file.
func (t *TempDir) Promote(name, dest string) error {
	if t.root == "" {
		return fmt.Errorf("temp directory not initialized: use NewTempDir to create instances")
	}
	if err := os.Rename(t.Path(name), dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}

// Remove deletes the staging directory and all its contents.
// It does not fail if the directory doesn't exist.
func (t *TempDir) Remove() error {
	if t.root == "" {
		return nil
	}
	if _, err := os.Stat(t.root); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(t.root); err != nil {
		return fmt.Errorf("failed to remove temp directory %s: %w", t.root, err)
	}
	return nil
}

// Age returns how long ago the staging directory was created.
func (t *TempDir) Age() time.Duration {
	return time.Since(t.created)
}

// ListFiles returns the regular files currently staged, as absolute paths.
func (t *TempDir) ListFiles() ([]string, error) {
	if t.root == "" {
		return nil, fmt.Errorf("temp directory not initialized: use NewTempDir to create instances")
	}
	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged files: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(t.root, entry.Name()))
	}
	return files, nil
}
