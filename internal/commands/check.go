package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/simonhull/firebird-suite/roost/internal/build"
	"github.com/simonhull/firebird-suite/roost/internal/fileop"
	"github.com/simonhull/firebird-suite/roost/internal/output"
)

// CheckCmd verifies that generated files match their specs.
func CheckCmd() *cobra.Command {
	var noTypecheck, quiet bool

	cmd := &cobra.Command{
		Use:   "check [spec.roost.yml | dir]...",
		Short: "Fail when generated files are missing or out of date",
		Long: `Regenerate every spec in memory and compare with the files on disk.

Nothing is written. The command exits non-zero and prints a diff for each
file that is missing or differs, which makes it suitable for CI.

Examples:
  roost check
  roost check internal/config --quiet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			settings, err := loadSettings(cmd, wd)
			if err != nil {
				return err
			}
			if noTypecheck {
				settings.Generate.Typecheck = false
			}

			b := build.New(settings)
			jobs, err := collectJobs(ctx, b, &inlineFlags{}, args, settings)
			if err != nil {
				return err
			}
			results, err := buildAll(ctx, b, jobs, settings)
			if err != nil {
				return err
			}

			changes, err := fileop.Plan(build.Pending(results))
			if err != nil {
				return err
			}

			color := term.IsTerminal(int(os.Stdout.Fd()))
			stale := 0
			for _, c := range changes {
				if !c.Stale() {
					output.Verbose(fmt.Sprintf("%s is up to date", displayPath(c.Path)))
					continue
				}
				stale++
				added, removed := fileop.DiffStats(c.Diff(nil))
				switch c.Action {
				case fileop.Create:
					output.Warn(fmt.Sprintf("%s is missing", displayPath(c.Path)))
				case fileop.Conflict:
					output.Warn(fmt.Sprintf("%s exists but was not generated by roost", displayPath(c.Path)))
				default:
					output.Warn(fmt.Sprintf("%s is out of date (+%d -%d)", displayPath(c.Path), added, removed))
				}
				if !quiet {
					output.Raw(c.Diff(&fileop.DiffOptions{Color: color}))
				}
			}

			if stale > 0 {
				return fmt.Errorf("%d of %d file(s): %w; run roost generate", stale, len(changes), build.ErrStale)
			}
			output.Success(fmt.Sprintf("%d generated file(s) up to date", len(changes)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noTypecheck, "no-typecheck", false, "Skip type checking defaults against the package")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "List stale files without diffs")

	return cmd
}
