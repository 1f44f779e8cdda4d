package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/roost/internal/build"
	"github.com/simonhull/firebird-suite/roost/internal/fileop"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/internal/project"
	"github.com/simonhull/firebird-suite/roost/internal/watch"
)

// WatchCmd regenerates code whenever a spec changes.
func WatchCmd() *cobra.Command {
	var force, noTypecheck bool

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Regenerate whenever a spec changes",
		Long: `Generate every spec under dir (default: the working directory), then
watch for changes and regenerate until interrupted.

Changes to roost.yml reload the settings; new discovery or debounce
settings restart the watcher. A spec that fails to generate is reported and
watching continues.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			root, err := filepath.Abs(root)
			if err != nil {
				return err
			}

			settings, err := loadSettings(cmd, root)
			if err != nil {
				return err
			}
			resolver, err := fileop.NewResolver(force, !force, false)
			if err != nil {
				return err
			}

			run := func(ctx context.Context, settings *project.Settings) {
				if noTypecheck {
					settings.Generate.Typecheck = false
				}
				if err := regenerate(ctx, root, settings, resolver); err != nil {
					output.Error(err.Error())
				}
			}
			run(ctx, settings)

			output.Info(fmt.Sprintf("Watching %s for spec changes (Ctrl+C to stop)", displayPath(root)))
			for {
				restart := false
				wctx, stop := context.WithCancel(ctx)
				err := watch.New(root, watchOptions(settings)).Run(wctx, func(_ context.Context, changed []string) error {
					for _, path := range changed {
						output.Step(fmt.Sprintf("%s changed", displayPath(path)))
					}
					reloaded, err := loadSettings(cmd, root)
					if err != nil {
						output.Error(err.Error())
						return nil
					}
					run(ctx, reloaded)
					if !cmp.Equal(watchOptions(settings), watchOptions(reloaded), cmpopts.EquateEmpty()) {
						restart = true
						stop()
					}
					settings = reloaded
					return nil
				})
				stop()
				if err != nil || !restart || ctx.Err() != nil {
					return err
				}
				output.Info("Settings changed; watching with the new discovery settings")
			}
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite files roost did not generate (default: keep them)")
	cmd.Flags().BoolVar(&noTypecheck, "no-typecheck", false, "Skip type checking defaults against the package")

	return cmd
}

// watchOptions derives the watcher configuration from settings.
func watchOptions(settings *project.Settings) watch.Options {
	return watch.Options{
		Pattern:  settings.Discover.Pattern,
		Exclude:  settings.Discover.Exclude,
		Debounce: settings.Watch.Debounce,
		Also:     []string{project.SettingsFile},
	}
}

// regenerate builds every spec under root and writes what changed.
func regenerate(ctx context.Context, root string, settings *project.Settings, resolver *fileop.Resolver) error {
	paths, err := specPaths([]string{root}, settings)
	if err != nil {
		return err
	}
	b := build.New(settings)
	jobs, err := b.LoadSpecs(ctx, paths)
	if err != nil {
		return err
	}
	results, err := buildAll(ctx, b, jobs, settings)
	if err != nil {
		return err
	}
	return write(ctx, results, fileop.ExecuteOptions{Resolver: resolver, Writer: output.Writer()})
}
