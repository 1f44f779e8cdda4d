package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/roost/internal/build"
	"github.com/simonhull/firebird-suite/roost/internal/fileop"
	"github.com/simonhull/firebird-suite/roost/internal/log"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/internal/project"
	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

// inlineFlags is the flag form of a spec.
type inlineFlags struct {
	typeName string
	global   string
	fields   []string
	pkg      string
	output   string
	doc      string
	imports  []string
}

func (f *inlineFlags) set() bool {
	return f.typeName != "" || f.global != "" || len(f.fields) > 0
}

func (f *inlineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.typeName, "type", "", "Inline mode: struct type name")
	cmd.Flags().StringVar(&f.global, "global", "", "Inline mode: global accessor name")
	cmd.Flags().StringArrayVar(&f.fields, "field", nil, "Inline mode: field as name:type=default (repeatable, in order)")
	cmd.Flags().StringVar(&f.pkg, "package", "", "Inline mode: package clause (default: $GOPACKAGE or detected)")
	cmd.Flags().StringVar(&f.output, "output", "", "Inline mode: output file (default: <type>_gen.go)")
	cmd.Flags().StringVar(&f.doc, "doc", "", "Inline mode: doc comment for the type")
	cmd.Flags().StringArrayVar(&f.imports, "import", nil, "Inline mode: extra import as path or 'alias path' (repeatable)")
}

// jobs builds the inline definition, anchored in the working directory.
func (f *inlineFlags) jobs() ([]build.Job, error) {
	pkg := f.pkg
	if pkg == "" {
		pkg = os.Getenv("GOPACKAGE")
	}
	def, err := spec.Inline(f.typeName, f.global, f.fields, spec.InlineOptions{
		Package: pkg,
		Output:  f.output,
		Doc:     f.doc,
		Imports: f.imports,
	})
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return []build.Job{{Def: def, BaseDir: wd}}, nil
}

// GenerateCmd creates and returns the 'generate' command for code generation
func GenerateCmd() *cobra.Command {
	var force, skip, diff, dryRun, stdout, noTypecheck bool
	var inline inlineFlags

	cmd := &cobra.Command{
		Use:   "generate [spec.roost.yml | dir]...",
		Short: "Generate config singletons from specs",
		Long: `Generate Go config types from .roost.yml specs.

With no arguments every spec under the working directory is generated
(under go:generate, only the specs in the current package). Directories
are searched recursively.

Inline mode takes the spec from flags instead of a file:
  roost generate --type AppConfig --global Config \
      --field 'log_level:LogLevel=LogLevelInfo' \
      --field 'environment:string="production"'

Defaults are Go expressions. Generated defaults are type checked against
the target package; use --no-typecheck to skip that step.

Existing files that roost did not generate are never replaced silently:
use --force to overwrite, --skip to keep them, or --diff to compare.

Examples:
  roost generate
  roost generate internal/config/app.roost.yml
  roost generate --dry-run
  roost generate app.roost.yml --stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if inline.set() && len(args) > 0 {
				return fmt.Errorf("spec files and inline flags (--type, --global, --field) cannot be combined")
			}
			if stdout && (force || skip || diff || dryRun) {
				return fmt.Errorf("--stdout writes nothing; it cannot be combined with --force, --skip, --diff or --dry-run")
			}
			resolver, err := fileop.NewResolver(force, skip, diff)
			if err != nil {
				return err
			}

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

			output.Verbose(fmt.Sprintf("Generating (dry-run=%v, force=%v, typecheck=%v)", dryRun, force, settings.Generate.Typecheck))

			b := build.New(settings)
			jobs, err := collectJobs(ctx, b, &inline, args, settings)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				output.Warn("No specs found")
				return nil
			}

			results, err := buildAll(ctx, b, jobs, settings)
			if err != nil {
				return err
			}

			if stdout {
				for i, r := range results {
					if i > 0 {
						output.Raw("\n")
					}
					output.Raw(string(r.File.Content))
				}
				return nil
			}

			return write(ctx, results, fileop.ExecuteOptions{DryRun: dryRun, Resolver: resolver, Writer: output.Writer()})
		},
	}

	inline.register(cmd)
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite files roost did not generate")
	cmd.Flags().BoolVar(&skip, "skip", false, "Keep files roost did not generate")
	cmd.Flags().BoolVar(&diff, "diff", false, "Show a diff for files roost did not generate")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without writing")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print generated code instead of writing files")
	cmd.Flags().BoolVar(&noTypecheck, "no-typecheck", false, "Skip type checking defaults against the package")

	return cmd
}

// collectJobs returns the inline job or the jobs for every spec file.
func collectJobs(ctx context.Context, b *build.Builder, inline *inlineFlags, args []string, settings *project.Settings) ([]build.Job, error) {
	if inline.set() {
		return inline.jobs()
	}
	paths, err := specPaths(args, settings)
	if err != nil {
		return nil, err
	}
	logger := log.WithComponentFromContext(ctx, "commands")
	logger.Debug().Strs("specs", paths).Msg("specs found")
	return b.LoadSpecs(ctx, paths)
}

// write plans the results against the files on disk and applies them.
func write(ctx context.Context, results []*build.Result, opts fileop.ExecuteOptions) error {
	changes, err := fileop.Plan(build.Pending(results))
	if err != nil {
		return err
	}

	summary, err := fileop.Apply(ctx, changes, opts)
	if err != nil {
		return err
	}
	if opts.DryRun {
		return nil
	}

	for _, path := range summary.Unchanged {
		output.Verbose(fmt.Sprintf("%s (unchanged)", displayPath(path)))
	}
	for _, path := range summary.Skipped {
		output.Step(fmt.Sprintf("%s (skipped)", displayPath(path)))
	}

	parts := []string{fmt.Sprintf("%d written", len(summary.Written))}
	if n := len(summary.Unchanged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", n))
	}
	if n := len(summary.Skipped); n > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", n))
	}
	output.Success(fmt.Sprintf("Generated %d config type(s): %s", len(results), strings.Join(parts, ", ")))
	return nil
}
