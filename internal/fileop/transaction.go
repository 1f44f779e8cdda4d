package fileop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"
)

// Transaction is a set of file writes that land together or not at all.
type Transaction struct {
	ops       []*WriteFileOp
	committed bool
}

// backup is what a path held before the transaction touched it
type backup struct {
	path    string
	existed bool
	content []byte
	mode    fs.FileMode
}

// NewTransaction creates an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// AddFile stages a write; nothing touches the disk until Commit.
func (t *Transaction) AddFile(path string, content []byte, mode fs.FileMode) {
	t.ops = append(t.ops, &WriteFileOp{Path: path, Content: content, Mode: mode})
}

// Len returns the number of staged writes.
func (t *Transaction) Len() int {
	return len(t.ops)
}

// Commit writes every staged file. If any write fails the files already
// written are put back the way they were: previous contents are restored and
// newly created files are removed.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.committed {
		return fmt.Errorf("transaction already committed")
	}

	done := make([]backup, 0, len(t.ops))
	for _, op := range t.ops {
		b, err := snapshot(op.Path)
		if err != nil {
			return errors.Join(err, rollback(done))
		}
		if err := op.Execute(ctx); err != nil {
			return errors.Join(err, rollback(done))
		}
		done = append(done, b)
	}

	t.committed = true
	return nil
}

func snapshot(path string) (backup, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return backup{path: path}, nil
	}
	if err != nil {
		return backup{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return backup{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return backup{path: path, existed: true, content: content, mode: info.Mode().Perm()}, nil
}

// rollback undoes completed writes in reverse order
func rollback(done []backup) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		b := done[i]
		if b.existed {
			if err := renameio.WriteFile(b.path, b.content, b.mode); err != nil {
				errs = append(errs, fmt.Errorf("rollback of %s failed: %w", b.path, err))
			}
			continue
		}
		if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("rollback of %s failed: %w", b.path, err))
		}
	}
	return errors.Join(errs...)
}
