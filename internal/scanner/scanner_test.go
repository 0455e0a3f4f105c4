package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for path, content := range files {
		fullPath := filepath.Join(tmpDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
	return tmpDir
}

func paths(sources []Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Path
	}
	return out
}

func TestScannerScan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"hello.bf":              `"!olleH",,,,,,@`,
		"games/snake.b93":       "v\n>@",
		"games/LIFE.BEFUNGE":    "@",
		"README.md":             "# programs",
		".hidden/secret.bf":     "@",
		".dot.bf":               "@",
		"node_modules/x/y.bf":   "@",
		"games/notes/todo.txt":  "later",
		"games/notes/sketch.bf": "1.@",
	})

	results, err := New(DefaultOptions()).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"games/LIFE.BEFUNGE", "games/notes/sketch.bf", "games/snake.b93", "hello.bf"}
	if got := paths(results); !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
	for _, r := range results {
		if r.FullPath != filepath.Join(root, filepath.FromSlash(r.Path)) {
			t.Errorf("FullPath of %s = %s", r.Path, r.FullPath)
		}
	}
	if results[3].Size != int64(len(`"!olleH",,,,,,@`)) {
		t.Errorf("Size of hello.bf = %d", results[3].Size)
	}
}

func TestScannerWithBfcignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".bfcignore":      "# generated programs\nout/\n*.tmp.bf\n!keep.tmp.bf\n/top.bf\n",
		"top.bf":          "@",
		"sub/top.bf":      "@",
		"out/a.bf":        "@",
		"sub/out/b.bf":    "@",
		"scratch.tmp.bf":  "@",
		"keep.tmp.bf":     "@",
		"sub/.bfcignore":  "local.bf\n",
		"sub/local.bf":    "@",
		"local.bf":        "@",
		"deep/a/b/c/d.bf": "@",
		"deep/.bfcignore": "a/**/d.bf\n",
		"deep/a/b/c/e.bf": "@",
	})

	results, err := New(DefaultOptions()).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"deep/a/b/c/e.bf", "keep.tmp.bf", "local.bf", "sub/top.bf"}
	if got := paths(results); !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScannerMaxSize(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.bf": "@",
		"big.bf":   "12345678901234567890@",
	})

	opts := DefaultOptions()
	opts.MaxSize = 10
	results, err := New(opts).Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := paths(results); !reflect.DeepEqual(got, []string{"small.bf"}) {
		t.Errorf("Scan() = %v, want [small.bf]", got)
	}
}

func TestScannerMissingRoot(t *testing.T) {
	_, err := New(DefaultOptions()).Scan(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("expected an error for a missing root")
	}
}

func TestIsSource(t *testing.T) {
	s := New(DefaultOptions())
	tests := map[string]bool{
		"a.bf":        true,
		"a.B93":       true,
		"x.befunge":   true,
		"a.bf.txt":    false,
		"Makefile":    false,
		"dir/prog.bf": true,
	}
	for name, want := range tests {
		if got := s.IsSource(name); got != want {
			t.Errorf("IsSource(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestExpand(t *testing.T) {
	root := writeTree(t, map[string]string{
		"progs/b.bf":  "@",
		"progs/a.b93": "@",
		"single.txt":  "@",
		"empty/x.md":  "nothing",
	})
	s := New(DefaultOptions())

	got, err := s.Expand([]string{filepath.Join(root, "single.txt"), filepath.Join(root, "progs"), filepath.Join(root, "missing.bf")})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	want := []string{
		filepath.Join(root, "single.txt"),
		filepath.Join(root, "progs", "a.b93"),
		filepath.Join(root, "progs", "b.bf"),
		filepath.Join(root, "missing.bf"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand() = %v, want %v", got, want)
	}

	if _, err := s.Expand([]string{filepath.Join(root, "empty")}); err == nil {
		t.Error("expected an error for a directory without sources")
	}
}

func TestIgnoreRuleMatch(t *testing.T) {
	tests := []struct {
		base, pattern, path string
		isDir               bool
		want                bool
	}{
		{"", "*.bf", "a/b.bf", false, true},
		{"", "build/", "build", true, true},
		{"", "build/", "build", false, false},
		{"", "build/", "x/build/y.bf", false, true},
		{"", "/top.bf", "a/top.bf", false, false},
		{"", "a/b.bf", "a/b.bf", false, true},
		{"", "a/b.bf", "x/a/b.bf", false, false},
		{"sub", "x.bf", "sub/x.bf", false, true},
		{"sub", "x.bf", "x.bf", false, false},
		{"", "**/gen/*.bf", "a/b/gen/c.bf", false, true},
		{"", "p?.bf", "p1.bf", false, true},
		{"", "p[12].bf", "p3.bf", false, false},
	}
	for _, tt := range tests {
		r := parseIgnoreRule(tt.base, tt.pattern)
		if got := r.match(tt.path, tt.isDir); got != tt.want {
			t.Errorf("rule %q (base %q) match(%q, dir=%v) = %v, want %v", tt.pattern, tt.base, tt.path, tt.isDir, got, tt.want)
		}
	}
}
