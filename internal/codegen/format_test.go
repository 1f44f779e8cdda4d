package codegen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

func TestStandard(t *testing.T) {
	assert.True(t, standard("strings"))
	assert.True(t, standard("net/http"))
	assert.True(t, standard("math/rand/v2"))
	assert.False(t, standard("github.com/google/uuid"))
	assert.False(t, standard("golang.org/x/sync/errgroup"))
	assert.False(t, standard("example.com"))
}

func TestCheckImportsRejectsUndeclaredModules(t *testing.T) {
	def := testDefinition()
	def.Spec.Fields = append(def.Spec.Fields, spec.Field{Name: "instance", Type: "string", Default: "uuid.NewString()"})

	content := []byte(`package appconfig

import (
	"slices"
	"time"

	"github.com/google/uuid"
)
`)
	declared := []importData{{Path: "slices"}, {Path: "time"}}

	err := checkImports(def, content, declared)
	var verrs spec.ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	require.Len(t, verrs, 1)
	assert.Equal(t, "spec.fields[7].default", verrs[0].Field)
	assert.Equal(t, "package github.com/google/uuid is used but not imported", verrs[0].Message)
	assert.Equal(t, "add 'github.com/google/uuid' to spec.imports", verrs[0].Suggestion)

	declared = append(declared, importData{Path: "github.com/google/uuid"})
	assert.NoError(t, checkImports(def, content, declared))
}

func TestCheckImportsFallsBackToImportsEntry(t *testing.T) {
	content := []byte("package appconfig\n\nimport \"example.com/extra\"\n")
	err := checkImports(testDefinition(), content, nil)

	var verrs spec.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "spec.imports", verrs[0].Field)
}

func TestUsedBy(t *testing.T) {
	def := testDefinition()

	loc, ok := usedBy(def, "time")
	require.True(t, ok)
	assert.Equal(t, Location{Field: 3, Part: "type"}, loc)

	_, ok = usedBy(def, "uuid")
	assert.False(t, ok)
}

func TestGenerateAddsStandardLibraryImports(t *testing.T) {
	def := testDefinition()
	def.Spec.Fields = append(def.Spec.Fields, spec.Field{Name: "banner", Type: "string", Default: `strings.ToUpper("roost")`})

	file := generate(t, def)
	imports := map[string]bool{}
	for _, imp := range parse(t, file.Content).Imports {
		imports[imp.Path.Value] = true
	}
	assert.True(t, imports[`"strings"`], "the fixer adds standard library imports")
}
