// Package typecheck compiles generated files against the package they are
// written into, before anything touches the disk.
//
// Spec validation can only check that a default is a well-formed expression.
// Whether `default: "fast"` fits `type: LogLevel`, or whether LogLevelInfo
// exists at all, is for the Go type checker to say. Check loads the target
// package with golang.org/x/tools/go/packages, overlaying the freshly
// generated sources, and returns the errors that land in them.
package typecheck

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/simonhull/firebird-suite/roost/internal/log"
)

// ErrSkipped reports that the package could not be loaded at all, for
// example because the directory is not inside a module yet.
var ErrSkipped = errors.New("type check skipped")

// Diagnostic is a type error located in a generated file.
type Diagnostic struct {
	File    string // absolute path of the generated file
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", filepath.Base(d.File), d.Line, d.Column, d.Message)
}

// Result is the outcome of checking one package directory.
type Result struct {
	Package     string         // import path that was loaded
	Diagnostics []Diagnostic   // errors inside the overlaid files, sorted
	Foreign     []string       // errors elsewhere in the package
	Types       *types.Package // the checked package, possibly incomplete
}

// OK reports whether the generated files compiled cleanly.
func (r *Result) OK() bool {
	return len(r.Diagnostics) == 0
}

// FieldTypes returns the field types of the struct typeName declares, or
// nil unless the package declares it as a struct with n fields. Fields whose
// type did not check are nil.
func (r *Result) FieldTypes(typeName string, n int) []types.Type {
	if r.Types == nil {
		return nil
	}
	obj, ok := r.Types.Scope().Lookup(typeName).(*types.TypeName)
	if !ok {
		return nil
	}
	st, ok := obj.Type().Underlying().(*types.Struct)
	if !ok || st.NumFields() != n {
		return nil
	}
	fields := make([]types.Type, n)
	for i := range n {
		t := st.Field(i).Type()
		if b, ok := t.(*types.Basic); ok && b.Kind() == types.Invalid {
			continue
		}
		fields[i] = t
	}
	return fields
}

// loadMode is the minimum needed for type errors.
const loadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo

// Check type checks the package in dir with overlay applied. Overlay keys
// are file paths (made absolute here); values are the file contents.
func Check(ctx context.Context, dir string, overlay map[string][]byte) (*Result, error) {
	logger := log.WithComponentFromContext(ctx, "typecheck")

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if info, err := os.Stat(absDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: directory %s does not exist yet", ErrSkipped, dir)
	}

	abs := make(map[string][]byte, len(overlay))
	for path, content := range overlay {
		p, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		abs[p] = content
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    loadMode,
		Dir:     absDir,
		Overlay: abs,
		Logf: func(format string, args ...any) {
			logger.Trace().Msgf(format, args...)
		},
	}

	logger.Debug().Str("dir", absDir).Int("files", len(abs)).Msg("loading package")
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrSkipped, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("%w: expected one package in %s, found %d", ErrSkipped, dir, len(pkgs))
	}

	pkg := pkgs[0]
	result := &Result{Package: pkg.PkgPath, Types: pkg.Types}

	for _, e := range pkg.Errors {
		if e.Kind == packages.ListError && len(pkg.CompiledGoFiles) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrSkipped, e.Msg)
		}

		file, line, col := splitPos(e.Pos)
		if file != "" {
			if absFile, err := filepath.Abs(file); err == nil {
				file = absFile
			}
		}
		if _, generated := abs[file]; generated {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				File:    file,
				Line:    line,
				Column:  col,
				Message: e.Msg,
			})
			continue
		}
		result.Foreign = append(result.Foreign, e.Error())
	}

	sort.SliceStable(result.Diagnostics, func(i, j int) bool {
		a, b := result.Diagnostics[i], result.Diagnostics[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	logger.Debug().
		Str("package", result.Package).
		Int("diagnostics", len(result.Diagnostics)).
		Int("foreign", len(result.Foreign)).
		Msg("type check finished")
	return result, nil
}

// splitPos parses "file:line:col" (or "file:line"); file may contain colons.
func splitPos(pos string) (file string, line, col int) {
	if pos == "" || pos == "-" {
		return "", 0, 0
	}

	rest := pos
	nums := make([]int, 0, 2)
	for len(nums) < 2 {
		i := strings.LastIndex(rest, ":")
		if i < 0 {
			break
		}
		n, err := strconv.Atoi(rest[i+1:])
		if err != nil {
			break
		}
		nums = append(nums, n)
		rest = rest[:i]
	}

	switch len(nums) {
	case 2:
		return rest, nums[1], nums[0]
	case 1:
		return rest, nums[0], 0
	}
	return pos, 0, 0
}
