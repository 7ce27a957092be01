package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ArchiveFinder locates zipped app bundles on a file system
type ArchiveFinder struct {
	fs afero.Fs
}

// NewArchiveFinder creates a new archive finder
func NewArchiveFinder(fs afero.Fs) *ArchiveFinder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &ArchiveFinder{fs: fs}
}

// FindRecursive searches dir recursively for .zip archives, skipping hidden directories.
// Results are sorted by path.
func (f *ArchiveFinder) FindRecursive(dir string) ([]string, error) {
	info, err := f.fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive directory does not exist: %s", dir)
		}
		return nil, fmt.Errorf("failed to stat archive directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var archives []string
	err = afero.Walk(f.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Skip hidden directories such as .git, but never the root itself
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if isArchive(info.Name()) {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(archives)
	return archives, nil
}

// FindByGlob matches pattern (relative to dir) against .zip archives
func (f *ArchiveFinder) FindByGlob(dir, pattern string) ([]string, error) {
	matches, err := afero.Glob(f.fs, filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}

	archives := matches[:0]
	for _, m := range matches {
		rel, err := filepath.Rel(dir, m)
		if err != nil || hiddenPath(rel) {
			continue
		}
		if isArchive(filepath.Base(m)) {
			archives = append(archives, m)
		}
	}
	sort.Strings(archives)
	return archives, nil
}

func isArchive(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".zip")
}

func hiddenPath(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
