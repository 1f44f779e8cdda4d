package spec

import (
	"fmt"
	"strings"
)

// InlineOptions carries the optional parts of an inline (flag-driven) spec.
type InlineOptions struct {
	Package string
	Output  string
	Doc     string
	Imports []string
}

// ParseFieldFlag parses a --field value of the form name:type=default.
//
// The value is split on the first ':' and then on the first '=' after it, so
// types may contain spaces (func() error) and defaults may contain anything.
// Defaults are taken verbatim: write "production" (with quotes) for a string.
func ParseFieldFlag(s string) (Field, error) {
	name, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Field{}, fmt.Errorf("field %q: expected name:type=default", s)
	}
	typ, def, ok := strings.Cut(rest, "=")
	if !ok {
		return Field{}, fmt.Errorf("field %q: missing '=default'", s)
	}

	f := Field{
		Name:    strings.TrimSpace(name),
		Type:    strings.TrimSpace(typ),
		Default: Expr(strings.TrimSpace(def)),
	}
	if f.Name == "" || f.Type == "" || f.Default == "" {
		return Field{}, fmt.Errorf("field %q: name, type and default are all required", s)
	}
	return f, nil
}

// FormatFieldFlag is the inverse of ParseFieldFlag.
func FormatFieldFlag(f Field) string {
	return fmt.Sprintf("%s:%s=%s", f.Name, f.Type, f.Default)
}

// Inline builds and validates a definition from command-line input, the
// flag form of a spec file.
func Inline(typeName, global string, fieldFlags []string, opts InlineOptions) (*Definition, error) {
	def := &Definition{
		APIVersion: APIVersion,
		Kind:       Kind,
		Name:       typeName,
		Spec: Spec{
			Global:  global,
			Package: opts.Package,
			Output:  opts.Output,
			Doc:     opts.Doc,
			Imports: opts.Imports,
		},
	}

	for _, flag := range fieldFlags {
		f, err := ParseFieldFlag(flag)
		if err != nil {
			return nil, err
		}
		def.Spec.Fields = append(def.Spec.Fields, f)
	}

	if err := Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

// Scaffold returns a starter definition for `roost init`. When no fields are
// given it adds a single example field.
func Scaffold(typeName, global string, fields []Field) *Definition {
	if len(fields) == 0 {
		fields = []Field{{
			Name:    "environment",
			Type:    "string",
			Default: Expr(`"development"`),
			Doc:     "Environment names the deployment this process runs in.",
		}}
	}
	return &Definition{
		APIVersion: APIVersion,
		Kind:       Kind,
		Name:       typeName,
		Spec: Spec{
			Global: global,
			Fields: fields,
		},
	}
}
