package build

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IsTestFile reports whether path names a UCG test file.
func IsTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_test.ucg")
}

// DiscoverFiles expands the given paths into the set of UCG files to build.
// Directories are walked recursively. With testsOnly set, only *_test.ucg
// files are returned; otherwise test files are skipped. Explicitly named
// files are always included. The result is sorted and deduplicated.
func DiscoverFiles(paths []string, testsOnly bool) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	seen := map[string]bool{}
	var files []string
	add := func(p string) error {
		canon, err := canonical(p)
		if err != nil {
			return err
		}
		if !seen[canon] {
			seen[canon] = true
			files = append(files, canon)
		}
		return nil
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".ucg") {
				return nil
			}
			if IsTestFile(path) != testsOnly {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
