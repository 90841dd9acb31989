package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Local manages the download root on the local filesystem.
// Each locator gets one subdirectory under the root; creation is
// idempotent so re-runs resume into pre-existing partial content.
type Local struct {
	rootPath string
}

// NewLocal creates a local storage layer rooted at the download root.
// The root directory is created if it does not exist.
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve download root: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download root: %w", err)
	}

	return &Local{rootPath: absPath}, nil
}

// Root returns the absolute download root path
func (l *Local) Root() string {
	return l.rootPath
}

// TargetPath returns the absolute path for a target directory name
func (l *Local) TargetPath(name string) string {
	return filepath.Join(l.rootPath, name)
}

// EnsureDir creates a target directory under the root if it does not
// already exist. Pre-existing directories (including prior partial
// mirrors) are left untouched.
func (l *Local) EnsureDir(name string) (string, error) {
	path := l.TargetPath(name)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create target directory %s: %w", path, err)
	}
	return path, nil
}

// CountSubdirectories counts the immediate subdirectories of a target
// directory. Files and anything deeper than one level are ignored.
func (l *Local) CountSubdirectories(name string) (int, error) {
	path := l.TargetPath(name)
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read target directory %s: %w", path, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			count++
		}
	}
	return count, nil
}
