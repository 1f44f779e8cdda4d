package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"app.roost.yml",
		"internal/config/server.roost.yml",
		"internal/config/server_gen.go",
		"internal/config/README.md",
		"vendor/dep/dep.roost.yml",
		"node_modules/x/x.roost.yml",
		".git/hooks/h.roost.yml",
		"_examples/e/e.roost.yml",
		"testdata/fixture.roost.yml",
		"internal/.hidden.roost.yml",
	)

	specs, err := Find(root, Options{})
	require.NoError(t, err)

	rel := make([]string, 0, len(specs))
	for _, s := range specs {
		r, err := filepath.Rel(root, s)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{
		"app.roost.yml",
		"internal/config/server.roost.yml",
		"testdata/fixture.roost.yml",
	}, rel)
}

func TestFindExclude(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"a/one.roost.yml",
		"b/two.roost.yml",
		"c/testdata/three.roost.yml",
	)

	specs, err := Find(root, Options{Exclude: []string{"testdata", "b/"}})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, filepath.Join(root, "a", "one.roost.yml"), specs[0])
}

func TestFindPattern(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "config.yaml", "app.roost.yml")

	specs, err := Find(root, Options{Pattern: "*.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "config.yaml")}, specs)

	_, err = Find(root, Options{Pattern: "[unclosed"})
	assert.ErrorContains(t, err, "invalid discover pattern")
}

func TestFindMissingRoot(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestTree(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"a.roost.yml",
		"internal/config/x.roost.yml",
		"vendor/dep/x.go",
		".git/HEAD",
		"gen/out.go",
	)

	dirs, err := Tree(root, []string{"gen"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "internal"),
		filepath.Join(root, "internal", "config"),
	}, dirs)

	assert.False(t, Skipped(root, root, nil))
	assert.True(t, Skipped(root, filepath.Join(root, "vendor"), nil))
	assert.True(t, Skipped(root, filepath.Join(root, "gen"), []string{"gen"}))
	assert.False(t, Skipped(root, filepath.Join(root, "internal"), []string{"gen"}))
}
