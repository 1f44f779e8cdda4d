package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDetectModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module github.com/test/example\n\ngo 1.25\n")

	info, err := DetectModule(dir)
	require.NoError(t, err)
	assert.Equal(t, "github.com/test/example", info.Path)
	assert.Equal(t, "1.25", info.GoVersion)
	assert.Equal(t, dir, info.Root)
}

func TestDetectModuleNotFound(t *testing.T) {
	_, err := DetectModule(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoModule))
}

func TestDetectModuleInvalidSyntax(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "this is not valid go.mod syntax\nmodule\n")

	_, err := DetectModule(dir)
	assert.ErrorContains(t, err, "failed to parse go.mod")
}

func TestFindModuleWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/app\n\ngo 1.25\n")
	nested := filepath.Join(root, "internal", "config")
	require.NoError(t, os.MkdirAll(nested, 0755))

	info, err := FindModule(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", info.Path)

	importPath, err := info.ImportPath(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/internal/config", importPath)

	importPath, err = info.ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", importPath)

	_, err = info.ImportPath(filepath.Dir(root))
	assert.Error(t, err)
}

func TestPackageName(t *testing.T) {
	t.Run("existing package wins", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "app-config")
		writeFile(t, filepath.Join(dir, "settings.go"), "package settings\n")
		writeFile(t, filepath.Join(dir, "settings_test.go"), "package settings_test\n")
		assert.Equal(t, "settings", PackageName(dir))
	})

	t.Run("test files are ignored", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "appconfig")
		writeFile(t, filepath.Join(dir, "a_test.go"), "package other_test\n")
		assert.Equal(t, "appconfig", PackageName(dir))
	})

	t.Run("directory name is sanitized", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "App-Config")
		require.NoError(t, os.MkdirAll(dir, 0755))
		assert.Equal(t, "appconfig", PackageName(dir))
	})

	t.Run("missing directory", func(t *testing.T) {
		assert.Equal(t, "later", PackageName(filepath.Join(t.TempDir(), "later")))
	})
}

func TestSanitizePackageName(t *testing.T) {
	tests := map[string]string{
		"config":     "config",
		"app-config": "appconfig",
		"App_Config": "appconfig",
		"2fa":        "p2fa",
		"---":        "config",
		"type":       "typepkg",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizePackageName(in), "input %q", in)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "*.roost.yml", s.Discover.Pattern)
	assert.Empty(t, s.Discover.Exclude)
	assert.Equal(t, "_gen.go", s.Generate.Suffix)
	assert.True(t, s.Generate.Typecheck)
	assert.Zero(t, s.Generate.Workers)
	assert.Equal(t, 250*time.Millisecond, s.Watch.Debounce)
	assert.Empty(t, s.File)

	assert.Equal(t, s.Generate, DefaultSettings().Generate)
}

func TestLoadSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, SettingsFile), `
discover:
  exclude: [testdata, examples]
generate:
  suffix: .roost.go
  typecheck: false
  workers: 2
watch:
  debounce: 1s
`)

	s, err := LoadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"testdata", "examples"}, s.Discover.Exclude)
	assert.Equal(t, ".roost.go", s.Generate.Suffix)
	assert.False(t, s.Generate.Typecheck)
	assert.Equal(t, 2, s.Generate.Workers)
	assert.Equal(t, time.Second, s.Watch.Debounce)
	assert.Equal(t, filepath.Join(dir, SettingsFile), s.File)

	// The file itself can be passed too.
	s, err = LoadSettings(filepath.Join(dir, SettingsFile))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Generate.Workers)
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	t.Setenv("ROOST_GENERATE_WORKERS", "8")
	t.Setenv("ROOST_WATCH_DEBOUNCE", "2s")

	s, err := LoadSettings(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 8, s.Generate.Workers)
	assert.Equal(t, 2*time.Second, s.Watch.Debounce)
}

func TestLoadSettingsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, SettingsFile), "generate:\n  suffix: .txt\n  workers: -1\n")

	_, err := LoadSettings(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate.suffix '.txt' must end in .go")
	assert.Contains(t, err.Error(), "generate.workers must not be negative")

	writeFile(t, filepath.Join(dir, SettingsFile), "generate: [unclosed\n")
	_, err = LoadSettings(dir)
	assert.ErrorContains(t, err, "failed to read roost.yml")
}
