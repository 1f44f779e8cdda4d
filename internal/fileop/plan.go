package fileop

import (
	"bytes"
	"fmt"
	"os"

	"github.com/simonhull/firebird-suite/roost/internal/codegen"
)

// Action is what will happen to one output path.
type Action int

const (
	Create    Action = iota // path does not exist
	Update                  // path holds older roost output
	Unchanged               // path already holds exactly this content
	Conflict                // path holds a file roost did not write
	Skipped                 // conflict resolved by keeping the file
)

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Update:
		return "update"
	case Unchanged:
		return "unchanged"
	case Conflict:
		return "conflict"
	case Skipped:
		return "skipped"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Pending is generated content destined for Path.
type Pending struct {
	Path    string
	Content []byte
}

// Change is a planned write.
type Change struct {
	Path     string
	Content  []byte
	Existing []byte // nil when the file does not exist
	Action   Action
}

// Stale reports whether the file on disk differs from the generated content.
func (c Change) Stale() bool {
	return c.Action != Unchanged
}

// Diff renders the change as a unified diff.
func (c Change) Diff(opts *DiffOptions) string {
	return Diff(c.Path, c.Existing, c.Content, opts)
}

// Plan compares each pending file with what is on disk.
func Plan(pending []Pending) ([]Change, error) {
	changes := make([]Change, 0, len(pending))
	seen := make(map[string]bool, len(pending))

	for _, p := range pending {
		if seen[p.Path] {
			return nil, fmt.Errorf("two specs generate %s", p.Path)
		}
		seen[p.Path] = true

		c := Change{Path: p.Path, Content: p.Content}
		existing, err := os.ReadFile(p.Path)
		switch {
		case os.IsNotExist(err):
			c.Action = Create
		case err != nil:
			return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
		case bytes.Equal(existing, p.Content):
			c.Action, c.Existing = Unchanged, existing
		case codegen.IsRoostGenerated(existing):
			c.Action, c.Existing = Update, existing
		default:
			c.Action, c.Existing = Conflict, existing
		}
		changes = append(changes, c)
	}
	return changes, nil
}
