package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/roost/internal/build"
	"github.com/simonhull/firebird-suite/roost/internal/discover"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/internal/project"
)

// loadSettings reads roost.yml from --config, or from the module root that
// contains dir, or from dir itself.
func loadSettings(cmd *cobra.Command, dir string) (*project.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = dir
		if mod, err := project.FindModule(dir); err == nil {
			path = mod.Root
		}
	}

	settings, err := project.LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if settings.File != "" {
		output.Verbose(fmt.Sprintf("Using settings from %s", settings.File))
	}
	return settings, nil
}

// specPaths expands arguments into spec files. Directories are searched
// recursively; with no arguments the working directory is searched.
func specPaths(args []string, settings *project.Settings) ([]string, error) {
	opts := discover.Options{
		Pattern: settings.Discover.Pattern,
		Exclude: settings.Discover.Exclude,
	}

	if len(args) == 0 {
		// Under go:generate only the current package's specs are wanted.
		if os.Getenv("GOFILE") != "" {
			matches, err := filepath.Glob(opts.Pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid discover pattern '%s': %w", opts.Pattern, err)
			}
			if len(matches) == 0 {
				return nil, nil
			}
			args = matches
		} else {
			args = []string{"."}
		}
	}

	var paths []string
	seen := make(map[string]bool)
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("spec %s: %w", arg, err)
		}

		found := []string{arg}
		if info.IsDir() {
			found, err = discover.Find(arg, opts)
			if err != nil {
				return nil, err
			}
		}
		for _, p := range found {
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, err
			}
			if !seen[abs] {
				seen[abs] = true
				paths = append(paths, abs)
			}
		}
	}
	return paths, nil
}

// displayPath shortens path relative to the working directory when possible.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// buildAll runs the build, showing a spinner while defaults are type checked.
func buildAll(ctx context.Context, b *build.Builder, jobs []build.Job, settings *project.Settings) ([]*build.Result, error) {
	if !settings.Generate.Typecheck {
		return b.Build(ctx, jobs)
	}
	var results []*build.Result
	err := output.Spin(fmt.Sprintf("Type checking %d spec(s)", len(jobs)), func() error {
		var err error
		results, err = b.Build(ctx, jobs)
		return err
	})
	return results, err
}
