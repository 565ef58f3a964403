// Package fileops provides the filesystem helpers shared by the rule
// loaders: source directory validation and deterministic file listing.
package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// ValidateDir checks that a path names a usable source directory. It
// rejects empty paths and traversal sequences before touching the
// filesystem, then requires the path to exist and be a directory.
func ValidateDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.Contains(filepath.Clean(path), "..") {
		return fmt.Errorf("path traversal not allowed: %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// ListFiles returns the full paths of regular files in dir whose
// extension matches one of extensions (lowercase, leading dot). Hidden
// files and subdirectories are skipped. Results are sorted by name so
// callers see a deterministic order.
func ListFiles(dir string, extensions []string) ([]string, error) {
	if err := ValidateDir(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if slices.Contains(extensions, ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
