package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

var (
	// generatedHeader is the standard marker for machine-written Go files.
	generatedHeader = regexp.MustCompile(`^// Code generated .* DO NOT EDIT\.$`)
	// roostHeader marks files this tool owns.
	roostHeader = regexp.MustCompile(`^// Code generated by roost( from .+)?\. DO NOT EDIT\.$`)
)

// Format gofmts src and fixes its import block. Missing imports may be
// filled from anywhere the go command can see; Generate accepts only those
// from the standard library.
func Format(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return out, nil
}

// checkImports rejects imports the fixer added from outside the standard
// library. Those resolve from whatever the module cache holds, so they must
// be listed in spec.imports instead.
func checkImports(def *spec.Definition, content []byte, declared []importData) error {
	file, err := parser.ParseFile(token.NewFileSet(), "", content, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("failed to parse generated code: %w", err)
	}

	allowed := make(map[string]bool, len(declared))
	for _, imp := range declared {
		allowed[imp.Path] = true
	}

	var verrs spec.ValidationErrors
	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil || allowed[importPath] || standard(importPath) {
			continue
		}
		verr := spec.ValidationError{
			Field:      "spec.imports",
			Message:    fmt.Sprintf("package %s is used but not imported", importPath),
			Suggestion: fmt.Sprintf("add '%s' to spec.imports", importPath),
			Line:       def.Line("spec.imports"),
		}
		if loc, ok := usedBy(def, path.Base(importPath)); ok {
			verr.Field = loc.Path()
			verr.Line = def.Line(loc.LinePath())
		}
		verrs = append(verrs, verr)
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// standard reports whether importPath is in the standard library, whose
// first path element never contains a dot.
func standard(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

// usedBy finds the first field whose type or default selects from pkg.
func usedBy(def *spec.Definition, pkg string) (Location, bool) {
	for i, f := range def.Spec.Fields {
		for _, part := range []struct{ name, src string }{{"type", f.Type}, {"default", string(f.Default)}} {
			expr, err := parser.ParseExpr(part.src)
			if err != nil {
				continue
			}
			found := false
			ast.Inspect(expr, func(n ast.Node) bool {
				if sel, ok := n.(*ast.SelectorExpr); ok {
					if id, ok := sel.X.(*ast.Ident); ok && id.Name == pkg {
						found = true
					}
				}
				return !found
			})
			if found {
				return Location{Field: i, Part: part.name}, true
			}
		}
	}
	return Location{}, false
}

// formatFragment gofmts a list of declarations without touching imports.
func formatFragment(src []byte) ([]byte, error) {
	out, err := imports.Process("", src, &imports.Options{
		Fragment:   true,
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return out, nil
}

// IsGenerated reports whether content carries the standard generated-code
// header before its package clause.
func IsGenerated(content []byte) bool {
	return hasHeader(content, generatedHeader)
}

// IsRoostGenerated reports whether content was written by roost, and so may
// be regenerated without asking.
func IsRoostGenerated(content []byte) bool {
	return hasHeader(content, roostHeader)
}

func hasHeader(content []byte, re *regexp.Regexp) bool {
	for _, line := range bytes.Split(content, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if bytes.HasPrefix(line, []byte("package ")) {
			return false
		}
		if re.Match(line) {
			return true
		}
	}
	return false
}
