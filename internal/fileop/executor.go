package fileop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrCancelled is returned when the user cancels at a conflict prompt.
var ErrCancelled = errors.New("generation cancelled")

// ExecuteOptions configures execution behavior
type ExecuteOptions struct {
	DryRun   bool
	Resolver *Resolver // decides conflicts; nil refuses them
	Writer   io.Writer // where to report (defaults to os.Stdout)
}

// Summary lists what Apply did, by path.
type Summary struct {
	Written   []string
	Unchanged []string
	Skipped   []string
}

// Apply resolves conflicts, validates every write, then commits them in one
// transaction. Nothing is written unless every change validates.
func Apply(ctx context.Context, changes []Change, opts ExecuteOptions) (*Summary, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	resolver := opts.Resolver
	if resolver == nil {
		resolver = &Resolver{strategy: RefuseStrategy{}, out: opts.Writer}
	}

	summary := &Summary{}
	var ops []Operation
	var writes []*WriteFileOp
	stage := func(c Change, force bool) {
		op := &WriteFileOp{Path: c.Path, Content: c.Content, Mode: 0644}
		ops = append(ops, forced{op, force})
		writes = append(writes, op)
	}

	// Phase 1: decide
	for i := range changes {
		c := &changes[i]
		switch c.Action {
		case Unchanged:
			summary.Unchanged = append(summary.Unchanged, c.Path)
		case Create:
			stage(*c, false)
		case Update:
			stage(*c, true)
		case Conflict:
			res, err := resolver.ResolveConflict(c.Path, c.Existing, c.Content)
			if err != nil {
				return nil, err
			}
			switch res {
			case Overwrite:
				stage(*c, true)
			case Skip:
				c.Action = Skipped
				summary.Skipped = append(summary.Skipped, c.Path)
			default:
				return nil, ErrCancelled
			}
		case Skipped:
			summary.Skipped = append(summary.Skipped, c.Path)
		}
	}

	// Phase 2: validate all, then execute or report
	if err := Execute(ctx, ops, opts); err != nil {
		return nil, err
	}
	if opts.DryRun {
		return summary, nil
	}

	tx := NewTransaction()
	for _, op := range writes {
		tx.AddFile(op.Path, op.Content, op.Mode)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	for _, op := range writes {
		fmt.Fprintf(opts.Writer, "✓ %s\n", op.Description())
		summary.Written = append(summary.Written, op.Path)
	}
	return summary, nil
}

// Execute validates every operation and, in dry-run mode, reports them.
// Writes themselves go through a Transaction in Apply.
func Execute(ctx context.Context, ops []Operation, opts ExecuteOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	for _, op := range ops {
		if err := op.Validate(ctx, false); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	if opts.DryRun {
		for _, op := range ops {
			fmt.Fprintf(opts.Writer, "✓ [DRY RUN] %s\n", op.Description())
		}
	}
	return nil
}

// forced fixes the force flag an operation is validated with
type forced struct {
	Operation
	force bool
}

func (f forced) Validate(ctx context.Context, _ bool) error {
	return f.Operation.Validate(ctx, f.force)
}
