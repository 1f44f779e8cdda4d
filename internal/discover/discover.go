// Package discover finds spec files in a project tree.
package discover

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultIgnoreDirs are directories never searched for specs.
var DefaultIgnoreDirs = []string{
	"node_modules", "vendor", ".git", ".svn", ".hg",
	"dist", "bin", "tmp",
	".idea", ".vscode",
}

// Options configures a search.
type Options struct {
	Pattern string   // file name glob, e.g. "*.roost.yml"
	Exclude []string // extra directory names or root-relative paths to skip
}

// Walk traverses root, skipping hidden and ignored directories, and calls
// visit for every regular file. Returning filepath.SkipDir from visit for a
// directory skips it.
func Walk(root string, exclude []string, visit func(path string, d fs.DirEntry) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if d.IsDir() {
			if skipDir(root, path, d.Name(), exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}
		return visit(path, d)
	})
}

func skipDir(root, path, name string, exclude []string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	for _, ignore := range DefaultIgnoreDirs {
		if name == ignore {
			return true
		}
	}
	rel, _ := filepath.Rel(root, path)
	rel = filepath.ToSlash(rel)
	for _, ex := range exclude {
		ex = strings.Trim(filepath.ToSlash(ex), "/")
		if name == ex || rel == ex {
			return true
		}
	}
	return false
}

// Find returns the spec files under root matching opts.Pattern, sorted.
func Find(root string, opts Options) ([]string, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = "*.roost.yml"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid discover pattern '%s': %w", pattern, err)
	}

	var specs []string
	err := Walk(root, opts.Exclude, func(path string, d fs.DirEntry) error {
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			specs = append(specs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}

	sort.Strings(specs)
	return specs, nil
}

// Tree returns root and every directory below it that Walk would enter.
func Tree(root string, exclude []string) ([]string, error) {
	dirs := []string{root}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root || !d.IsDir() {
			return nil
		}
		if skipDir(root, path, d.Name(), exclude) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	return dirs, nil
}

// Skipped reports whether Walk would skip the directory at path.
func Skipped(root, path string, exclude []string) bool {
	if path == root {
		return false
	}
	return skipDir(root, path, filepath.Base(path), exclude)
}
