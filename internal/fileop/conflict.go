package fileop

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/firebird-suite/roost/internal/input"
	"github.com/simonhull/firebird-suite/roost/internal/output"
)

// ConflictResolution is what to do with a file roost did not write.
type ConflictResolution int

const (
	Skip ConflictResolution = iota
	Overwrite
	ShowDiff
	Cancel
)

func (r ConflictResolution) String() string {
	switch r {
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case ShowDiff:
		return "show diff"
	default:
		return "cancel"
	}
}

// ConflictStrategy decides a single conflict.
type ConflictStrategy interface {
	Resolve(path string, existing, newer []byte) (ConflictResolution, error)
}

// Resolver handles output paths that already hold hand-written code.
type Resolver struct {
	strategy    ConflictStrategy
	interactive bool
	out         io.Writer
}

var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
)

// NewResolver creates a conflict resolver from the --force, --skip and --diff
// flags. Without flags it asks the user, or fails when there is no terminal.
func NewResolver(force, skip, diff bool) (*Resolver, error) {
	return newResolver(force, skip, diff, input.IsInteractive(), output.Writer())
}

func newResolver(force, skip, diff, interactive bool, out io.Writer) (*Resolver, error) {
	set := 0
	for _, f := range []bool{force, skip, diff} {
		if f {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("--force, --skip and --diff cannot be combined")
	}

	r := &Resolver{interactive: interactive, out: out}
	switch {
	case force:
		r.strategy = ForceStrategy{}
	case skip:
		r.strategy = SkipStrategy{}
	case diff:
		r.strategy = &DiffStrategy{out: out, interactive: interactive}
	case interactive:
		r.strategy = InteractiveStrategy{}
	default:
		r.strategy = RefuseStrategy{}
	}
	return r, nil
}

// ResolveConflict returns the decision for path. Choosing "show diff" in the
// menu shows the diff and asks again.
func (r *Resolver) ResolveConflict(path string, existing, newer []byte) (ConflictResolution, error) {
	for {
		res, err := r.strategy.Resolve(path, existing, newer)
		if err != nil || res != ShowDiff {
			return res, err
		}
		if err := showDiff(r.out, path, existing, newer, r.interactive); err != nil {
			return Cancel, err
		}
	}
}

// ForceStrategy always overwrites.
type ForceStrategy struct{}

// Resolve implements ConflictStrategy.
func (ForceStrategy) Resolve(string, []byte, []byte) (ConflictResolution, error) {
	return Overwrite, nil
}

// SkipStrategy always keeps the existing file.
type SkipStrategy struct{}

// Resolve implements ConflictStrategy.
func (SkipStrategy) Resolve(string, []byte, []byte) (ConflictResolution, error) {
	return Skip, nil
}

// RefuseStrategy fails on any conflict. Used when nobody can be asked.
type RefuseStrategy struct{}

// Resolve implements ConflictStrategy.
func (RefuseStrategy) Resolve(path string, _, _ []byte) (ConflictResolution, error) {
	return Cancel, fmt.Errorf("%s exists and was not generated by roost; rerun with --force to overwrite or --skip to keep it", path)
}

// DiffStrategy shows the diff first. With a terminal it then asks; without
// one it keeps the existing file.
type DiffStrategy struct {
	out         io.Writer
	interactive bool
}

// Resolve implements ConflictStrategy.
func (s *DiffStrategy) Resolve(path string, existing, newer []byte) (ConflictResolution, error) {
	if err := showDiff(s.out, path, existing, newer, s.interactive); err != nil {
		return Cancel, err
	}
	if !s.interactive {
		return Skip, nil
	}
	return InteractiveStrategy{}.Resolve(path, existing, newer)
}

// InteractiveStrategy shows a menu with keyboard navigation.
type InteractiveStrategy struct{}

// Resolve implements ConflictStrategy.
func (InteractiveStrategy) Resolve(path string, _, _ []byte) (ConflictResolution, error) {
	fileInfo, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return Cancel, fmt.Errorf("failed to stat file: %w", err)
	}

	finalModel, err := tea.NewProgram(newConflictMenuModel(path, fileInfo)).Run()
	if err != nil {
		return Cancel, fmt.Errorf("failed to show menu: %w", err)
	}

	result := finalModel.(conflictMenuModel)
	if result.selected == nil {
		return Cancel, nil
	}
	return *result.selected, nil
}

// showDiff prints small diffs inline and pages large ones in a viewport
func showDiff(out io.Writer, path string, existing, newer []byte, interactive bool) error {
	diff := Diff(path, existing, newer, &DiffOptions{Color: interactive})

	if interactive && strings.Count(diff, "\n") > 20 {
		if _, err := tea.NewProgram(newDiffViewerModel(path, diff), tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("failed to show diff: %w", err)
		}
		return nil
	}

	_, err := fmt.Fprintln(out, diff)
	return err
}

// conflictMenuModel is the BubbleTea model for the conflict menu
type conflictMenuModel struct {
	path     string
	fileInfo os.FileInfo
	choices  []string
	cursor   int
	selected *ConflictResolution
}

func newConflictMenuModel(path string, fileInfo os.FileInfo) conflictMenuModel {
	return conflictMenuModel{
		path:     path,
		fileInfo: fileInfo,
		choices: []string{
			"Show diff and decide",
			"Skip (keep existing file)",
			"Overwrite (replace with generated code)",
			"Cancel generation",
		},
	}
}

func (m conflictMenuModel) Init() tea.Cmd {
	return nil
}

func (m conflictMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			resolution := mapChoiceToResolution(m.cursor)
			m.selected = &resolution
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m conflictMenuModel) View() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render("⚠️  Not a roost file: ") + titleStyle.Render(m.path) + "\n")
	if m.fileInfo != nil {
		b.WriteString(mutedStyle.Render("    Last modified: ") + formatRelativeTime(m.fileInfo.ModTime()) + "\n")
		b.WriteString(mutedStyle.Render("    Size: ") + formatFileSize(m.fileInfo.Size()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [q] Cancel") + "\n\n")

	for i, choice := range m.choices {
		if m.cursor == i {
			b.WriteString("    " + selectedStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString("      " + choice + "\n")
		}
	}
	return b.String()
}

// mapChoiceToResolution maps cursor position to resolution
func mapChoiceToResolution(cursor int) ConflictResolution {
	switch cursor {
	case 0:
		return ShowDiff
	case 1:
		return Skip
	case 2:
		return Overwrite
	default:
		return Cancel
	}
}

// diffViewerModel pages a long diff
type diffViewerModel struct {
	path     string
	diff     string
	viewport viewport.Model
	ready    bool
}

func newDiffViewerModel(path, diff string) diffViewerModel {
	return diffViewerModel{path: path, diff: diff}
}

func (m diffViewerModel) Init() tea.Cmd {
	return nil
}

func (m diffViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		const verticalMargin = 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, msg.Height-verticalMargin)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = msg.Height - verticalMargin
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffViewerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	title := fmt.Sprintf("─ Diff: %s ", m.path)
	top := title + strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(title)))
	footer := " [↑/↓/PgUp/PgDn] Scroll    [q] Return to menu "
	bottom := strings.Repeat("─", max(0, m.viewport.Width-lipgloss.Width(footer))) + footer

	return borderStyle.Render(top) + "\n" + m.viewport.View() + "\n" + borderStyle.Render(bottom) + "\n" +
		mutedStyle.Render(fmt.Sprintf(" %3.f%%", m.viewport.ScrollPercent()*100))
}

// formatRelativeTime formats a time as relative (e.g., "2 hours ago")
func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24/7), "week")
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/24/30), "month")
	default:
		return plural(int(d.Hours()/24/365), "year")
	}
}

// formatFileSize formats file size in human-readable format
func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
