package project

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// PackageName returns the package clause to use for a file generated into
// dir. Existing non-test Go files decide; otherwise the name is derived from
// the directory.
func PackageName(dir string) string {
	if name := existingPackage(dir); name != "" {
		return name
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return SanitizePackageName(filepath.Base(abs))
}

// existingPackage returns the package declared by the Go files in dir
func existingPackage(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".go") || strings.HasSuffix(n, "_test.go") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	for _, n := range names {
		f, err := parser.ParseFile(fset, filepath.Join(dir, n), nil, parser.PackageClauseOnly)
		if err != nil {
			continue
		}
		return f.Name.Name
	}
	return ""
}

// SanitizePackageName turns a directory name into a package name:
// "app-config" → "appconfig", "2fa" → "p2fa".
func SanitizePackageName(base string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	switch {
	case name == "":
		return "config"
	case unicode.IsDigit([]rune(name)[0]):
		return "p" + name
	case token.IsKeyword(name):
		return name + "pkg"
	}
	return name
}
