package codegen

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

func TestCopyBodies(t *testing.T) {
	tests := []struct {
		typ  string
		body string
		deep bool
	}{
		{"int", "return c.v", true},
		{"time.Duration", "return c.v", false},
		{"*int", "return c.v", false},
		{"[3]int", "return c.v", true},
		{"struct{ A, B int }", "return c.v", true},
		{"[]string", "return slices.Clone(c.v)", true},
		{"[]*int", "return slices.Clone(c.v)", false},
		{"map[string]int", "return maps.Clone(c.v)", true},
		{"map[string]any", "return maps.Clone(c.v)", false},
		{"Peers", "return c.v", false},
		{
			"[][]int",
			"out := slices.Clone(c.v)\nfor i0 := range out {\nout[i0] = slices.Clone(out[i0])\n}\nreturn out",
			true,
		},
		{
			"map[string][]string",
			"out := maps.Clone(c.v)\nfor k0, v0 := range out {\nout[k0] = slices.Clone(v0)\n}\nreturn out",
			true,
		},
		{
			"[2][]int",
			"out := c.v\nfor i0 := range out {\nout[i0] = slices.Clone(out[i0])\n}\nreturn out",
			true,
		},
		{
			"map[string][][]int",
			"out := maps.Clone(c.v)\nfor k0, v0 := range out {\nv0 = slices.Clone(v0)\nfor i1 := range v0 {\nv0[i1] = slices.Clone(v0[i1])\n}\nout[k0] = v0\n}\nreturn out",
			true,
		},
		{
			"[]map[string][]byte",
			"out := slices.Clone(c.v)\nfor i0 := range out {\nout[i0] = maps.Clone(out[i0])\nfor k1, v1 := range out[i0] {\nout[i0][k1] = slices.Clone(v1)\n}\n}\nreturn out",
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			s := shapeOfExpr(tt.typ)
			c := &copier{uses: map[string]bool{}}
			body := c.body("c.v", s)
			assert.Equal(t, tt.body, body)
			if s.needsCopy() {
				assert.Equal(t, tt.deep, s.deep())
			}

			// The body must be valid Go inside a function.
			_, err := parser.ParseFile(token.NewFileSet(), "", "package p\nfunc f() {\n"+body+"\n}\n", 0)
			assert.NoError(t, err)
		})
	}
}

func checkTypes(t *testing.T, src string) *types.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, 0)
	require.NoError(t, err)
	pkg, err := (&types.Config{Importer: importer.Default()}).Check("p", fset, []*ast.File{f}, nil)
	require.NoError(t, err)
	return pkg
}

func TestShapeOfTypeFollowsNamedTypes(t *testing.T) {
	pkg := checkTypes(t, `package p

type Hosts []string
type Alias = Hosts
type Groups map[string]Hosts
type Point struct{ X, Y int }
type Handle struct{ p *int }
type Tree []Tree
type Level int
`)
	lookup := func(name string) types.Type { return pkg.Scope().Lookup(name).Type() }
	c := &copier{uses: map[string]bool{}}

	hosts := shapeOfType(lookup("Hosts"))
	assert.Equal(t, "return slices.Clone(c.v)", c.body("c.v", hosts))
	assert.True(t, hosts.deep())

	assert.Equal(t, "return slices.Clone(c.v)", c.body("c.v", shapeOfType(lookup("Alias"))))

	groups := shapeOfType(lookup("Groups"))
	assert.Equal(t,
		"out := maps.Clone(c.v)\nfor k0, v0 := range out {\nout[k0] = slices.Clone(v0)\n}\nreturn out",
		c.body("c.v", groups))
	assert.True(t, groups.deep())

	assert.Equal(t, shapeValue, shapeOfType(lookup("Point")).kind)
	assert.Equal(t, shapeShared, shapeOfType(lookup("Handle")).kind)
	assert.Equal(t, shapeValue, shapeOfType(lookup("Level")).kind)

	// Recursive types stop at the repeated name and share what is below it.
	tree := shapeOfType(lookup("Tree"))
	assert.Equal(t, shapeSlice, tree.kind)
	assert.False(t, tree.deep())

	assert.Equal(t, shapeSlice, shapeOfType(types.NewSlice(lookup("Point"))).kind)
	assert.True(t, shapeOfType(types.NewSlice(lookup("Point"))).deep())
}

func TestNeedsTypes(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{"int", false},
		{"[]string", false},
		{"map[string][]int", false},
		{"*Peers", false},
		{"func() Peers", false},
		{"Peers", true},
		{"[]Peers", true},
		{"map[string]time.Duration", true},
		{"Set[string]", true},
		{"struct{ P Peers }", true},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			def := &spec.Definition{Spec: spec.Spec{Fields: []spec.Field{{Name: "f", Type: tt.typ}}}}
			assert.Equal(t, tt.want, NeedsTypes(def))
		})
	}
}

func TestGenerateCopiesNestedAndNamedCollections(t *testing.T) {
	def := testDefinition()
	def.Spec.Fields = append(def.Spec.Fields,
		spec.Field{Name: "upstreams", Type: "Peers", Default: `Peers{"a"}`},
		spec.Field{Name: "groups", Type: "map[string][]string", Default: `map[string][]string{"admins": {"root"}}`},
		spec.Field{Name: "shard_weights", Type: "[][]int", Default: `[][]int{{1}}`},
		spec.Field{Name: "hooks", Type: "[]func()", Default: "nil"},
	)

	// Without field types the named slice cannot be copied.
	file := generate(t, def)
	content := string(file.Content)
	assert.Contains(t, content, "return a.upstreams")
	assert.Contains(t, content, "out := maps.Clone(a.groups)\n\tfor k0, v0 := range out {\n\t\tout[k0] = slices.Clone(v0)\n\t}\n\treturn out")
	assert.Contains(t, content, "out := slices.Clone(a.shardWeights)\n\tfor i0 := range out {\n\t\tout[i0] = slices.Clone(out[i0])\n\t}\n\treturn out")
	assert.Contains(t, content, "// Groups returns the groups setting")
	assert.Contains(t, content, "The result is a copy and may be modified freely.\nfunc (a *AppConfig) Groups() map[string][]string {")
	assert.Contains(t, content, "The result is a copy, but the values it holds are shared and must not be modified.\nfunc (a *AppConfig) Hooks() []func() {")

	pkg := checkTypes(t, "package p\ntype Peers []string\n")
	target := testTarget()
	target.FieldTypes = make([]types.Type, len(def.Spec.Fields))
	target.FieldTypes[7] = pkg.Scope().Lookup("Peers").Type()

	file, err := New().Generate(def, target)
	require.NoError(t, err)
	content = string(file.Content)
	assert.Contains(t, content, "return slices.Clone(a.upstreams)")
	assert.Contains(t, content, "The result is a copy and may be modified freely.\nfunc (a *AppConfig) Upstreams() Peers {")
	assert.Contains(t, content, "return maps.Clone(a.limits)")
}
