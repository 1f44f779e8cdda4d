package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"

	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

// Target describes where generated code will live.
type Target struct {
	Package  string // package clause of the output file
	Filename string // output file name, used by the import resolver
	Source   string // spec file named in the header; "" for inline specs

	// FieldTypes are the type checked types of the fields, in spec order,
	// when the target package could be loaded. Getters of named slice and
	// map types copy their values only when the types are known.
	FieldTypes []types.Type
}

// NeedsTypes reports whether some field of def uses a named type, whose
// getter can only be generated correctly from Target.FieldTypes.
func NeedsTypes(def *spec.Definition) bool {
	for _, f := range def.Spec.Fields {
		if namedTypes(f.Type) {
			return true
		}
	}
	return false
}

// Artifacts holds each generated declaration group on its own, formatted.
type Artifacts struct {
	TypeDef     []byte // the struct type
	Constructor []byte // zero-argument constructor applying the defaults
	Accessor    []byte // sync.OnceValue binding and the global accessor func
	Getters     []byte // one read-only method per field
}

// Location ties a line of generated code back to the spec entry that
// produced it.
type Location struct {
	Field int    // index into spec.fields, or -1 for top-level entries
	Part  string // "type" or "default" for fields; "name" or "spec.global" otherwise
}

// Path is the spec path of the location, e.g. "spec.fields[2].default".
func (l Location) Path() string {
	if l.Field < 0 {
		return l.Part
	}
	return fmt.Sprintf("spec.fields[%d].%s", l.Field, l.Part)
}

// LinePath is the dotted form used for YAML line lookups.
func (l Location) LinePath() string {
	if l.Field < 0 {
		return l.Part
	}
	return fmt.Sprintf("spec.fields.%d.%s", l.Field, l.Part)
}

// File is one generated Go source file.
type File struct {
	Filename  string
	Content   []byte
	Artifacts Artifacts

	locations map[int]Location
}

// Locate returns the spec field that produced the given line of Content.
func (f *File) Locate(line int) (Location, bool) {
	loc, ok := f.locations[line]
	return loc, ok
}

// Generator turns validated definitions into Go source.
type Generator struct {
	renderer *Renderer
}

// New creates a generator.
func New() *Generator {
	return &Generator{renderer: NewRenderer()}
}

// Generate renders def into a formatted Go file. The same definition and
// target always produce byte-identical output.
func (g *Generator) Generate(def *spec.Definition, target Target) (*File, error) {
	if def == nil {
		return nil, fmt.Errorf("nil definition")
	}
	if !token.IsIdentifier(target.Package) {
		return nil, fmt.Errorf("invalid target package '%s'", target.Package)
	}

	data, err := buildData(def, target)
	if err != nil {
		return nil, err
	}

	var artifacts Artifacts
	for _, part := range []struct {
		name string
		dst  *[]byte
	}{
		{"typedef", &artifacts.TypeDef},
		{"constructor", &artifacts.Constructor},
		{"accessor", &artifacts.Accessor},
		{"getters", &artifacts.Getters},
	} {
		src, err := g.renderer.Render(configTemplate, part.name, data)
		if err != nil {
			return nil, err
		}
		formatted, err := formatFragment(src)
		if err != nil {
			return nil, fmt.Errorf("%s for %s: %w", part.name, def.Name, err)
		}
		*part.dst = formatted
	}

	src, err := g.renderer.Render(configTemplate, "file", data)
	if err != nil {
		return nil, err
	}
	content, err := Format(target.Filename, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.Name, err)
	}
	if err := checkImports(def, content, data.Imports); err != nil {
		return nil, err
	}

	locations, err := locate(content, data)
	if err != nil {
		return nil, err
	}

	return &File{
		Filename:  target.Filename,
		Content:   content,
		Artifacts: artifacts,
		locations: locations,
	}, nil
}

// locate maps lines of the generated file to the spec entries that produced
// them: struct members and getters to the field's type, constructor entries
// to its default, and the remaining declarations to the type or global name.
func locate(content []byte, data *templateData) (map[int]Location, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", content, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated code: %w", err)
	}

	byMember := make(map[string]int, len(data.Fields))
	byAccessor := make(map[string]int, len(data.Fields))
	for i, f := range data.Fields {
		byMember[f.Member] = i
		byAccessor[f.Accessor] = i
	}

	locations := make(map[int]Location)
	mark := func(node ast.Node, loc Location) {
		from, to := fset.Position(node.Pos()).Line, fset.Position(node.End()).Line
		for line := from; line <= to; line++ {
			locations[line] = loc
		}
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, s := range d.Specs {
				if vs, ok := s.(*ast.ValueSpec); ok && len(vs.Names) == 1 && vs.Names[0].Name == data.OnceVar {
					mark(d, Location{Field: -1, Part: "spec.global"})
					continue
				}
				ts, ok := s.(*ast.TypeSpec)
				if !ok || ts.Name.Name != data.Type {
					continue
				}
				mark(d, Location{Field: -1, Part: "name"})
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				for _, field := range st.Fields.List {
					for _, name := range field.Names {
						if i, ok := byMember[name.Name]; ok {
							mark(field, Location{Field: i, Part: "type"})
						}
					}
				}
			}
		case *ast.FuncDecl:
			switch {
			case d.Recv != nil:
				if i, ok := byAccessor[d.Name.Name]; ok {
					mark(d, Location{Field: i, Part: "type"})
				}
			case d.Name.Name == data.Global:
				mark(d, Location{Field: -1, Part: "spec.global"})
			case d.Name.Name == data.Constructor:
				mark(d, Location{Field: -1, Part: "name"})
				ast.Inspect(d, func(n ast.Node) bool {
					kv, ok := n.(*ast.KeyValueExpr)
					if !ok {
						return true
					}
					if key, ok := kv.Key.(*ast.Ident); ok {
						if i, ok := byMember[key.Name]; ok {
							mark(kv, Location{Field: i, Part: "default"})
						}
					}
					return false
				})
			}
		}
	}
	return locations, nil
}

// Join concatenates the artifacts in file order. Useful for display.
func (a Artifacts) Join() []byte {
	return bytes.Join([][]byte{a.TypeDef, a.Constructor, a.Accessor, a.Getters}, []byte("\n"))
}
