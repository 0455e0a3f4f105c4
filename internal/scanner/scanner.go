// Package scanner finds Befunge sources below a directory. It honors
// .bfcignore files with gitignore-style patterns at any level of the tree.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source is one program found by a scan.
type Source struct {
	Path     string // Slash path relative to the scan root
	FullPath string
	Size     int64
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip files and directories starting with .
	Extensions      []string // Recognised source extensions, lower case with the dot
	DefaultExcludes []string // Directory names never entered
	IgnoreFileName  string
	MaxSize         int64 // Files above this size are skipped; 0 means no limit
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:      true,
		Extensions:      []string{".bf", ".b93", ".befunge"},
		DefaultExcludes: []string{".git", ".hg", ".svn", "node_modules", "vendor"},
		IgnoreFileName:  ".bfcignore",
		MaxSize:         1 << 20,
	}
}

// Scanner walks directory trees collecting sources.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// IsSource reports whether name carries one of the recognised extensions.
func (s *Scanner) IsSource(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range s.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan returns the sources below root sorted by path.
func (s *Scanner) Scan(root string) ([]Source, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	var rules ignoreList
	var sources []Source
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." {
				if s.skipDir(d.Name()) || rules.ignored(rel, true) {
					return filepath.SkipDir
				}
			} else {
				rel = ""
			}
			rules, err = rules.load(path, rel, s.opts.IgnoreFileName)
			if err != nil {
				return fmt.Errorf("loading %s: %w", filepath.Join(path, s.opts.IgnoreFileName), err)
			}
			return nil
		}

		if !d.Type().IsRegular() || !s.IsSource(d.Name()) {
			return nil
		}
		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if rules.ignored(rel, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if s.opts.MaxSize > 0 && info.Size() > s.opts.MaxSize {
			return nil
		}
		sources = append(sources, Source{Path: rel, FullPath: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
	return sources, nil
}

func (s *Scanner) skipDir(name string) bool {
	if s.opts.SkipHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// Expand replaces every directory in paths with the sources found below it.
// Plain files are kept as given whatever their extension.
func (s *Scanner) Expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			files = append(files, p)
			continue
		}
		sources, err := s.Scan(p)
		if err != nil {
			return nil, err
		}
		if len(sources) == 0 {
			return nil, fmt.Errorf("no Befunge sources in %s", p)
		}
		for _, src := range sources {
			files = append(files, src.FullPath)
		}
	}
	return files, nil
}
