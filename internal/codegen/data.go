package codegen

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/simonhull/firebird-suite/roost/internal/naming"
	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

// defaultDocLimit caps how long a default may be and still be quoted in a
// getter's doc comment.
const defaultDocLimit = 40

// templateData is the view of a definition the templates render.
type templateData struct {
	Source      string
	Package     string
	Imports     []importData
	Type        string
	TypeDoc     string
	Global      string
	Constructor string
	OnceVar     string
	Receiver    string
	Fields      []fieldData
}

type importData struct {
	Alias string
	Path  string
}

type fieldData struct {
	Name     string
	Member   string
	Accessor string
	Type     string
	Default  string
	Doc      string
	Body     string // getter statements
	shape    shape
}

// buildData derives every generated name from def. The result depends only
// on def and target, which keeps output deterministic.
func buildData(def *spec.Definition, target Target) (*templateData, error) {
	data := &templateData{
		Source:      target.Source,
		Package:     target.Package,
		Type:        def.Name,
		Global:      def.Spec.Global,
		Constructor: naming.Constructor(def.Name),
		OnceVar:     naming.OnceVar(def.Name),
		Receiver:    receiver(def.Name),
	}

	data.TypeDoc = def.Spec.Doc
	if data.TypeDoc == "" {
		data.TypeDoc = fmt.Sprintf("%s holds process-wide configuration defaults.\nUse %s to obtain the shared instance; values are read-only.",
			def.Name, def.Spec.Global)
	}

	needs := map[string]bool{"sync": true}
	c := &copier{uses: needs}
	for i, f := range def.Spec.Fields {
		fd := fieldData{
			Name:     f.Name,
			Member:   naming.Member(f.Name),
			Accessor: naming.Accessor(f.Name),
			Type:     strings.TrimSpace(f.Type),
			Default:  strings.TrimSpace(f.Default.String()),
			shape:    shapeOfExpr(f.Type),
		}
		if i < len(target.FieldTypes) && target.FieldTypes[i] != nil {
			fd.shape = shapeOfType(target.FieldTypes[i])
		}
		fd.Body = c.body(data.Receiver+"."+fd.Member, fd.shape)
		fd.Doc = getterDoc(f, fd)
		data.Fields = append(data.Fields, fd)
	}

	seen := make(map[string]bool)
	for _, entry := range def.Spec.Imports {
		alias, path, err := spec.ParseImport(entry)
		if err != nil {
			return nil, err
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		data.Imports = append(data.Imports, importData{Alias: alias, Path: path})
	}
	for path := range needs {
		if !seen[path] {
			data.Imports = append(data.Imports, importData{Path: path})
		}
	}
	sort.Slice(data.Imports, func(i, j int) bool {
		return data.Imports[i].Path < data.Imports[j].Path
	})

	return data, nil
}

// getterDoc returns the doc comment text for a field's accessor.
func getterDoc(f spec.Field, fd fieldData) string {
	if f.Doc != "" {
		doc := strings.TrimSpace(f.Doc)
		if !strings.HasPrefix(doc, fd.Accessor+" ") {
			doc = fd.Accessor + " returns the " + f.Name + " setting. " + doc
		}
		return doc + copyNote(fd.shape)
	}

	doc := fmt.Sprintf("%s returns the %s setting", fd.Accessor, f.Name)
	if len(fd.Default) <= defaultDocLimit && !strings.ContainsAny(fd.Default, "\n") {
		doc += fmt.Sprintf(" (default %s)", fd.Default)
	}
	return doc + "." + copyNote(fd.shape)
}

// copyNote tells callers what they may do with a getter's result.
func copyNote(s shape) string {
	switch {
	case !s.needsCopy():
		return ""
	case s.deep():
		return "\nThe result is a copy and may be modified freely."
	}
	return "\nThe result is a copy, but the values it holds are shared and must not be modified."
}

// receiver is the method receiver name: the type's first letter, lower-cased.
func receiver(typeName string) string {
	r, _ := utf8.DecodeRuneInString(typeName)
	r = unicode.ToLower(r)
	if !unicode.IsLetter(r) {
		return "c"
	}
	return string(r)
}

// comment renders text as a // comment block.
func comment(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			lines[i] = "//"
		} else {
			lines[i] = "// " + line
		}
	}
	return strings.Join(lines, "\n")
}
