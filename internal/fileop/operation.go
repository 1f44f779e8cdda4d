package fileop

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Operation is a file system change that can be checked before it runs.
//
// Validate checks that the operation would succeed without performing it.
// force=true skips the existing-file check. Execute performs it and is only
// called after every operation in a batch validated.
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Description() string
}

// WriteFileOp writes a file atomically: readers see the old content or the
// new content, never a partial write.
type WriteFileOp struct {
	Path    string      // File path to write
	Content []byte      // File content (can be empty, must not be nil)
	Mode    fs.FileMode // File permissions (e.g., 0644)
}

// Validate implements Operation.
func (op *WriteFileOp) Validate(ctx context.Context, force bool) error {
	if op.Content == nil {
		return fmt.Errorf("content is nil for file: %s", op.Path)
	}

	if info, err := os.Stat(op.Path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", op.Path)
		}
		if !force {
			return fmt.Errorf("file already exists: %s", op.Path)
		}
	}

	// The nearest existing ancestor must be a directory.
	for dir := filepath.Dir(op.Path); ; dir = filepath.Dir(dir) {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("cannot create %s: %s is not a directory", op.Path, dir)
			}
			break
		}
		if parent := filepath.Dir(dir); parent == dir {
			break
		}
	}
	return ctx.Err()
}

// Execute implements Operation.
func (op *WriteFileOp) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(op.Path), 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", filepath.Dir(op.Path), err)
	}
	mode := op.Mode
	if mode == 0 {
		mode = 0644
	}
	if err := renameio.WriteFile(op.Path, op.Content, mode); err != nil {
		return fmt.Errorf("failed to write file %s: %w", op.Path, err)
	}
	return nil
}

// Description implements Operation.
func (op *WriteFileOp) Description() string {
	return fmt.Sprintf("Write %s (%d bytes)", op.Path, len(op.Content))
}
