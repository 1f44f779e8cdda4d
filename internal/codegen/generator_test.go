package codegen

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

func testDefinition() *spec.Definition {
	return &spec.Definition{
		APIVersion: spec.APIVersion,
		Kind:       spec.Kind,
		Name:       "AppConfig",
		Spec: spec.Spec{
			Global:  "Config",
			Imports: []string{"time"},
			Fields: []spec.Field{
				{Name: "log_level", Type: "LogLevel", Default: "LogLevelInfo"},
				{Name: "buffer_capacity", Type: "int", Default: "1024"},
				{Name: "environment", Type: "string", Default: `"production"`},
				{Name: "timeout", Type: "time.Duration", Default: "5 * time.Second", Doc: "Timeout bounds outbound calls."},
				{Name: "allowed_hosts", Type: "[]string", Default: `[]string{"localhost"}`},
				{Name: "limits", Type: "map[string]int", Default: `map[string]int{"burst": 10}`},
				{Name: "type", Type: "string", Default: `"service"`},
			},
		},
	}
}

func testTarget() Target {
	return Target{Package: "appconfig", Filename: "app_config_gen.go", Source: "app.roost.yml"}
}

func generate(t *testing.T, def *spec.Definition) *File {
	t.Helper()
	file, err := New().Generate(def, testTarget())
	require.NoError(t, err)
	return file
}

func parse(t *testing.T, content []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", content, parser.ParseComments)
	require.NoError(t, err, "generated code must parse:\n%s", content)
	return f
}

func findFunc(f *ast.File, name string) *ast.FuncDecl {
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

func exprString(t *testing.T, e ast.Expr) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, printer.Fprint(&buf, token.NewFileSet(), e))
	return buf.String()
}

func TestGenerateHeaderAndPackage(t *testing.T) {
	file := generate(t, testDefinition())

	assert.True(t, bytes.HasPrefix(file.Content, []byte("// Code generated by roost from app.roost.yml. DO NOT EDIT.\n")))
	assert.True(t, IsRoostGenerated(file.Content))
	assert.Equal(t, "app_config_gen.go", file.Filename)

	f := parse(t, file.Content)
	assert.Equal(t, "appconfig", f.Name.Name)

	var paths []string
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		require.NoError(t, err)
		paths = append(paths, p)
	}
	assert.Equal(t, []string{"maps", "slices", "sync", "time"}, paths)
}

func TestGenerateTypeDefPreservesOrder(t *testing.T) {
	f := parse(t, generate(t, testDefinition()).Content)

	var st *ast.StructType
	ast.Inspect(f, func(n ast.Node) bool {
		if ts, ok := n.(*ast.TypeSpec); ok && ts.Name.Name == "AppConfig" {
			st, _ = ts.Type.(*ast.StructType)
			return false
		}
		return true
	})
	require.NotNil(t, st)

	type member struct{ Name, Type string }
	var got []member
	for _, field := range st.Fields.List {
		for _, name := range field.Names {
			got = append(got, member{name.Name, exprString(t, field.Type)})
		}
	}

	want := []member{
		{"logLevel", "LogLevel"},
		{"bufferCapacity", "int"},
		{"environment", "string"},
		{"timeout", "time.Duration"},
		{"allowedHosts", "[]string"},
		{"limits", "map[string]int"},
		{"type_", "string"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("struct members mismatch (-want +got):\n%s", diff)
	}
	for _, m := range got {
		assert.False(t, ast.IsExported(m.Name), "member %s must be unexported", m.Name)
	}
}

func TestGenerateConstructorAppliesDefaults(t *testing.T) {
	f := parse(t, generate(t, testDefinition()).Content)

	fn := findFunc(f, "newAppConfig")
	require.NotNil(t, fn)
	assert.Zero(t, fn.Type.Params.NumFields(), "constructor takes no arguments")

	var lit *ast.CompositeLit
	ast.Inspect(fn, func(n ast.Node) bool {
		if cl, ok := n.(*ast.CompositeLit); ok && lit == nil {
			lit = cl
			return false
		}
		return true
	})
	require.NotNil(t, lit)

	var keys, values []string
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		require.True(t, ok)
		keys = append(keys, exprString(t, kv.Key))
		values = append(values, exprString(t, kv.Value))
	}

	assert.Equal(t, []string{"logLevel", "bufferCapacity", "environment", "timeout", "allowedHosts", "limits", "type_"}, keys)
	assert.Equal(t, []string{
		"LogLevelInfo",
		"1024",
		`"production"`,
		"5 * time.Second",
		`[]string{"localhost"}`,
		`map[string]int{"burst": 10}`,
		`"service"`,
	}, values)
}

func TestGenerateGlobalAccessor(t *testing.T) {
	file := generate(t, testDefinition())
	f := parse(t, file.Content)

	assert.Contains(t, string(file.Content), "var appConfigOnce = sync.OnceValue(newAppConfig)")

	fn := findFunc(f, "Config")
	require.NotNil(t, fn)
	assert.Nil(t, fn.Recv)
	assert.Zero(t, fn.Type.Params.NumFields())
	require.Equal(t, 1, fn.Type.Results.NumFields())
	assert.Equal(t, "*AppConfig", exprString(t, fn.Type.Results.List[0].Type))
	assert.Contains(t, fn.Doc.Text(), "Every call returns the same instance")
}

func TestGenerateGetters(t *testing.T) {
	file := generate(t, testDefinition())
	f := parse(t, file.Content)

	getters := map[string]string{}
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil {
			continue
		}
		assert.Equal(t, "*AppConfig", exprString(t, fn.Recv.List[0].Type))
		getters[fn.Name.Name] = exprString(t, fn.Type.Results.List[0].Type)
	}

	assert.Equal(t, map[string]string{
		"LogLevel":       "LogLevel",
		"BufferCapacity": "int",
		"Environment":    "string",
		"Timeout":        "time.Duration",
		"AllowedHosts":   "[]string",
		"Limits":         "map[string]int",
		"Type":           "string",
	}, getters)

	content := string(file.Content)
	assert.Contains(t, content, "return slices.Clone(a.allowedHosts)")
	assert.Contains(t, content, "return maps.Clone(a.limits)")
	assert.Contains(t, content, "return a.logLevel")
	assert.Contains(t, content, "// LogLevel returns the log_level setting (default LogLevelInfo).")
	assert.Contains(t, content, "// Timeout bounds outbound calls.\nfunc (a *AppConfig) Timeout() time.Duration {")
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := generate(t, testDefinition())
	second := generate(t, testDefinition())

	g := New()
	third, err := g.Generate(testDefinition(), testTarget())
	require.NoError(t, err)
	fourth, err := g.Generate(testDefinition(), testTarget())
	require.NoError(t, err)

	assert.Equal(t, string(first.Content), string(second.Content))
	assert.Equal(t, string(first.Content), string(third.Content))
	assert.Equal(t, string(third.Content), string(fourth.Content))
	assert.Equal(t, first.Artifacts, second.Artifacts)
}

func TestGenerateArtifacts(t *testing.T) {
	a := generate(t, testDefinition()).Artifacts

	assert.Contains(t, string(a.TypeDef), "type AppConfig struct {")
	assert.Contains(t, string(a.Constructor), "func newAppConfig() *AppConfig {")
	assert.Contains(t, string(a.Accessor), "sync.OnceValue(newAppConfig)")
	assert.Contains(t, string(a.Accessor), "func Config() *AppConfig {")
	assert.Contains(t, string(a.Getters), "func (a *AppConfig) LogLevel() LogLevel {")

	for name, part := range map[string][]byte{
		"typedef": a.TypeDef, "constructor": a.Constructor, "accessor": a.Accessor, "getters": a.Getters,
	} {
		assert.NotContains(t, string(part), "package ", name)
	}
	assert.Contains(t, string(a.Join()), "type AppConfig struct")
}

func TestGenerateDocs(t *testing.T) {
	def := testDefinition()
	file := generate(t, def)
	assert.Contains(t, string(file.Content), "// AppConfig holds process-wide configuration defaults.")

	def.Spec.Doc = "AppConfig is the service configuration."
	file = generate(t, def)
	assert.Contains(t, string(file.Content), "// AppConfig is the service configuration.\ntype AppConfig struct")
}

func TestGenerateInlineHeader(t *testing.T) {
	file, err := New().Generate(testDefinition(), Target{Package: "appconfig", Filename: "x_gen.go"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("// Code generated by roost. DO NOT EDIT.\n")))
	assert.True(t, IsRoostGenerated(file.Content))
}

func TestGenerateRejectsBadTarget(t *testing.T) {
	_, err := New().Generate(testDefinition(), Target{Package: "app-config"})
	assert.ErrorContains(t, err, "invalid target package")

	_, err = New().Generate(nil, testTarget())
	assert.Error(t, err)
}

func TestLocate(t *testing.T) {
	file := generate(t, testDefinition())
	lines := strings.Split(string(file.Content), "\n")

	lineOf := func(needle string) int {
		for i, l := range lines {
			if strings.Contains(l, needle) {
				return i + 1
			}
		}
		t.Fatalf("%q not found in generated code", needle)
		return 0
	}

	loc, ok := file.Locate(lineOf("bufferCapacity: "))
	require.True(t, ok)
	assert.Equal(t, Location{Field: 1, Part: "default"}, loc)

	loc, ok = file.Locate(lineOf("\ttimeout "))
	require.True(t, ok)
	assert.Equal(t, Location{Field: 3, Part: "type"}, loc)

	loc, ok = file.Locate(lineOf("return slices.Clone(a.allowedHosts)"))
	require.True(t, ok)
	assert.Equal(t, Location{Field: 4, Part: "type"}, loc)

	loc, ok = file.Locate(lineOf("func Config() *AppConfig"))
	require.True(t, ok)
	assert.Equal(t, "spec.global", loc.Path())

	loc, ok = file.Locate(lineOf("type AppConfig struct"))
	require.True(t, ok)
	assert.Equal(t, Location{Field: -1, Part: "name"}, loc)
	assert.Equal(t, "name", loc.LinePath())

	loc, ok = file.Locate(lineOf("limits: "))
	require.True(t, ok)
	assert.Equal(t, "spec.fields[5].default", loc.Path())
	assert.Equal(t, "spec.fields.5.default", loc.LinePath())

	_, ok = file.Locate(lineOf("package appconfig"))
	assert.False(t, ok)
}

func TestIsGenerated(t *testing.T) {
	tests := []struct {
		name    string
		content string
		any     bool
		roost   bool
	}{
		{"roost", "// Code generated by roost from a.roost.yml. DO NOT EDIT.\n\npackage x\n", true, true},
		{"roost inline", "// Code generated by roost. DO NOT EDIT.\npackage x\n", true, true},
		{"stringer", "// Code generated by \"stringer -type=Level\"; DO NOT EDIT.\n\npackage x\n", true, false},
		{"sqlc", "// Code generated by sqlc. DO NOT EDIT.\n\npackage x\n", true, false},
		{"hand written", "package x\n\n// Code generated by roost. DO NOT EDIT.\n", false, false},
		{"build tag first", "//go:build linux\n\n// Code generated by roost. DO NOT EDIT.\n\npackage x\n", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.any, IsGenerated([]byte(tt.content)))
			assert.Equal(t, tt.roost, IsRoostGenerated([]byte(tt.content)))
		})
	}
}
