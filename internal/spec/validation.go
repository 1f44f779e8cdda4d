package spec

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/simonhull/firebird-suite/roost/internal/naming"
)

// ValidationError represents a spec validation error with context
type ValidationError struct {
	Field      string // Field path (e.g., "spec.fields[0].name")
	Message    string // Error message
	Suggestion string // Helpful suggestion (optional)
	Line       int    // Line number in YAML (if available)
}

// Error returns a formatted error message
func (e *ValidationError) Error() string {
	var msg string
	if e.Line > 0 {
		msg = fmt.Sprintf("validation error at %s (line %d): %s", e.Field, e.Line, e.Message)
	} else {
		msg = fmt.Sprintf("validation error at %s: %s", e.Field, e.Message)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error returns all validation errors formatted with clear separation
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "found %d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&buf, "  %d. %s\n", i+1, err.Error())
	}
	return buf.String()
}

// validator accumulates errors for one definition
type validator struct {
	def  *Definition
	errs ValidationErrors
}

// add records an error; linePath is the dotted YAML path used for the line lookup.
func (v *validator) add(field, linePath, message, suggestion string) {
	v.errs = append(v.errs, ValidationError{
		Field:      field,
		Message:    message,
		Suggestion: suggestion,
		Line:       v.def.Line(linePath),
	})
}

// Validate validates a parsed spec. Every problem is reported, not just the first.
func Validate(def *Definition) error {
	v := &validator{def: def}

	if def.APIVersion == "" {
		v.add("apiVersion", "apiVersion", "apiVersion is required", "use 'v1'")
	} else if def.APIVersion != APIVersion {
		v.add("apiVersion", "apiVersion", fmt.Sprintf("invalid apiVersion '%s'", def.APIVersion), "use 'v1'")
	}

	if def.Kind == "" {
		v.add("kind", "kind", "kind is required", "use 'Config'")
	} else if def.Kind != Kind {
		v.add("kind", "kind", fmt.Sprintf("invalid kind '%s'", def.Kind), "use 'Config'")
	}

	v.topLevelName("name", "name", "type name", def.Name)
	v.topLevelName("spec.global", "spec.global", "global name", def.Spec.Global)

	if def.Name != "" && def.Spec.Global != "" {
		switch def.Spec.Global {
		case def.Name:
			v.add("spec.global", "spec.global",
				fmt.Sprintf("global name '%s' collides with the type name", def.Spec.Global),
				"type and accessor live in the same package scope; pick a different accessor name")
		case naming.Constructor(def.Name), naming.OnceVar(def.Name):
			v.add("spec.global", "spec.global",
				fmt.Sprintf("global name '%s' collides with a generated helper", def.Spec.Global),
				"pick a different accessor name")
		}
	}

	if pkg := def.Spec.Package; pkg != "" {
		if !token.IsIdentifier(pkg) || pkg == "_" {
			v.add("spec.package", "spec.package",
				fmt.Sprintf("package '%s' is not a valid package name", pkg),
				"use a short lower-case name like 'config'")
		}
	}

	for i, imp := range def.Spec.Imports {
		if _, _, err := ParseImport(imp); err != nil {
			v.add(fmt.Sprintf("spec.imports[%d]", i), fmt.Sprintf("spec.imports.%d", i), err.Error(),
				"use 'path' or 'alias path', e.g. 'time' or 'zl github.com/rs/zerolog'")
		}
	}

	v.fields()

	if len(v.errs) > 0 {
		return v.errs
	}
	return nil
}

// topLevelName checks the type and global identifiers
func (v *validator) topLevelName(field, linePath, what, value string) {
	switch {
	case value == "":
		v.add(field, linePath, fmt.Sprintf("%s is required", what), "")
	case value == "_":
		v.add(field, linePath, fmt.Sprintf("%s cannot be the blank identifier", what), "")
	case token.IsKeyword(value):
		v.add(field, linePath, fmt.Sprintf("%s '%s' is a Go keyword", what, value), "")
	case !token.IsIdentifier(value):
		v.add(field, linePath, fmt.Sprintf("%s '%s' is not a valid Go identifier", what, value),
			"use letters, digits and underscores, starting with a letter")
	case types.Universe.Lookup(value) != nil:
		v.add(field, linePath, fmt.Sprintf("%s '%s' shadows a predeclared identifier", what, value), "")
	}
}

// fields validates descriptors and their derived names
func (v *validator) fields() {
	fields := v.def.Spec.Fields
	if len(fields) == 0 {
		v.add("spec.fields", "spec.fields", "at least one field is required",
			"add fields as name/type/default entries")
		return
	}

	seenNames := make(map[string]int, len(fields))
	seenAccessors := make(map[string]int, len(fields))

	for i, f := range fields {
		fieldPath := fmt.Sprintf("spec.fields[%d]", i)
		linePath := fmt.Sprintf("spec.fields.%d", i)

		switch {
		case f.Name == "":
			v.add(fieldPath+".name", linePath+".name", "field name is required", "")
		case f.Name == "_" || !token.IsIdentifier(f.Name):
			v.add(fieldPath+".name", linePath+".name",
				fmt.Sprintf("field name '%s' is not a valid Go identifier", f.Name),
				"use snake_case or camelCase, e.g. 'log_level'")
		case !startsWithCasedLetter(naming.Accessor(f.Name)):
			v.add(fieldPath+".name", linePath+".name",
				fmt.Sprintf("field name '%s' must start with a letter that has an upper-case form", f.Name),
				"accessors are exported, so the name needs a cased first letter")
		default:
			if j, dup := seenNames[f.Name]; dup {
				v.add(fieldPath+".name", linePath+".name",
					fmt.Sprintf("duplicate field name '%s' (also spec.fields[%d])", f.Name, j), "")
			} else if j, dup := seenAccessors[naming.Accessor(f.Name)]; dup {
				v.add(fieldPath+".name", linePath+".name",
					fmt.Sprintf("field '%s' maps to accessor '%s', already used by '%s'",
						f.Name, naming.Accessor(f.Name), fields[j].Name),
					"rename one of the fields")
			}
			seenNames[f.Name] = i
			seenAccessors[naming.Accessor(f.Name)] = i
		}

		if strings.TrimSpace(f.Type) == "" {
			v.add(fieldPath+".type", linePath+".type", "field type is required", "")
		} else if err := checkTypeExpr(f.Type); err != nil {
			v.add(fieldPath+".type", linePath+".type",
				fmt.Sprintf("invalid Go type '%s': %v", f.Type, err),
				"use a type such as 'string', 'int', 'time.Duration' or '[]string'")
		} else if hasComment(f.Type) {
			v.add(fieldPath+".type", linePath+".type", "field type must not contain a comment",
				"put notes in the field's doc")
		}

		if strings.TrimSpace(string(f.Default)) == "" {
			v.add(fieldPath+".default", linePath+".default", "default is required",
				"every field needs a default expression")
		} else if _, err := parser.ParseExpr(string(f.Default)); err != nil {
			v.add(fieldPath+".default", linePath+".default",
				fmt.Sprintf("default is not a valid Go expression: %v", err),
				"quote plain strings in YAML, e.g. default: \"production\"")
		} else if hasComment(string(f.Default)) {
			v.add(fieldPath+".default", linePath+".default", "default must not contain a comment",
				"put notes in the field's doc")
		}
	}
}

// hasComment reports whether the Go source src contains a comment. A line
// comment in a default would swallow the code rendered after it.
func hasComment(src string) bool {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, []byte(src), nil, scanner.ScanComments)
	for {
		_, tok, _ := s.Scan()
		switch tok {
		case token.EOF:
			return false
		case token.COMMENT:
			return true
		}
	}
}

// checkTypeExpr ensures s parses as something that can name a type
func checkTypeExpr(s string) error {
	expr, err := parser.ParseExpr(s)
	if err != nil {
		return err
	}
	if !isTypeExpr(expr) {
		return fmt.Errorf("expression is not a type")
	}
	return nil
}

func isTypeExpr(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name != "_"
	case *ast.SelectorExpr:
		_, ok := t.X.(*ast.Ident)
		return ok
	case *ast.StarExpr:
		return isTypeExpr(t.X)
	case *ast.ParenExpr:
		return isTypeExpr(t.X)
	case *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType,
		*ast.StructType, *ast.InterfaceType:
		return true
	case *ast.IndexExpr:
		return isTypeExpr(t.X)
	case *ast.IndexListExpr:
		return isTypeExpr(t.X)
	}
	return false
}

func startsWithCasedLetter(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

// ParseImport splits an import entry ("path" or "alias path").
func ParseImport(entry string) (alias, path string, err error) {
	parts := strings.Fields(entry)
	switch len(parts) {
	case 1:
		path = parts[0]
	case 2:
		alias, path = parts[0], parts[1]
		if alias != "_" && alias != "." && !token.IsIdentifier(alias) {
			return "", "", fmt.Errorf("invalid import alias '%s'", alias)
		}
	default:
		return "", "", fmt.Errorf("invalid import '%s'", entry)
	}
	if strings.ContainsAny(path, "\"`\\") {
		return "", "", fmt.Errorf("import path '%s' must not be quoted", path)
	}
	return alias, path, nil
}
