package scanner

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ignoreRule is one line of a .bfcignore file. The syntax is the gitignore
// subset: "!" negates, a trailing "/" matches directories only, a leading
// "/" anchors at the directory holding the file and "**" spans directories.
type ignoreRule struct {
	base     string // slash path of the directory holding the ignore file, relative to the scan root
	segments []string
	negate   bool
	dirOnly  bool
	anchored bool
}

func parseIgnoreRule(base, line string) ignoreRule {
	r := ignoreRule{base: base}
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.anchored = true
		line = line[1:]
	} else if strings.Contains(line, "/") {
		r.anchored = true
	}
	r.segments = strings.Split(line, "/")
	return r
}

// match reports whether rel, a slash path relative to the scan root, is
// covered by the rule.
func (r ignoreRule) match(rel string, isDir bool) bool {
	if r.base != "" {
		if !strings.HasPrefix(rel, r.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, r.base+"/")
	}
	parts := strings.Split(rel, "/")

	// A rule naming a directory also covers everything below it.
	for end := len(parts); end > 0; end-- {
		if r.dirOnly && end == len(parts) && !isDir {
			continue
		}
		prefix := parts[:end]
		if r.anchored {
			if matchSegments(r.segments, prefix) {
				return true
			}
			continue
		}
		for start := range prefix {
			if matchSegments(r.segments, prefix[start:]) {
				return true
			}
		}
	}
	return false
}

func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}

// ignoreList accumulates the rules of every ignore file met while walking.
type ignoreList []ignoreRule

// ignored applies the rules in order so a later negation can re-include a path.
func (l ignoreList) ignored(rel string, isDir bool) bool {
	ignored := false
	for _, r := range l {
		if r.match(rel, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// load appends the rules of the ignore file in dir, if there is one.
func (l ignoreList) load(dir, base, name string) (ignoreList, error) {
	file, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return l, err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		l = append(l, parseIgnoreRule(base, line))
	}
	return l, sc.Err()
}
