// Package testutil builds throwaway Go modules for roost tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// TestProject is a temporary Go module.
type TestProject struct {
	Root   string
	Module string
	t      *testing.T
}

// NewTestProject creates a temporary module with the given module path.
func NewTestProject(t *testing.T, module string) *TestProject {
	t.Helper()

	p := &TestProject{Root: t.TempDir(), Module: module, t: t}
	p.WriteFile("go.mod", "module "+module+"\n\ngo 1.21\n")
	return p
}

// Path joins rel onto the project root.
func (p *TestProject) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// WriteFile writes a file relative to the project root, creating directories.
func (p *TestProject) WriteFile(rel, content string) string {
	p.t.Helper()

	path := p.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		p.t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

// ReadFile reads a file relative to the project root.
func (p *TestProject) ReadFile(rel string) string {
	p.t.Helper()

	data, err := os.ReadFile(p.Path(rel))
	if err != nil {
		p.t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// FileExists reports whether rel exists under the root.
func (p *TestProject) FileExists(rel string) bool {
	_, err := os.Stat(p.Path(rel))
	return err == nil
}

// RequireGo skips tests that shell out to the go command, and isolates them
// from the caller's workspace.
func RequireGo(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
	t.Setenv("GOWORK", "off")
	t.Setenv("GOFLAGS", "-mod=mod")
}
