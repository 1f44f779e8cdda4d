package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/firebird-suite/roost/internal/codegen"
	"github.com/simonhull/firebird-suite/roost/internal/log"
	"github.com/simonhull/firebird-suite/roost/internal/output"
	"github.com/simonhull/firebird-suite/roost/internal/spec"
	"github.com/simonhull/firebird-suite/roost/internal/typecheck"
)

// typecheck compiles each output directory with all of its generated files
// overlaid. With type checking enabled, errors in generated code become spec
// validation errors. Results whose specs use named types are rendered again
// from the checked field types.
func (b *Builder) typecheck(ctx context.Context, results []*Result) error {
	logger := log.WithComponentFromContext(ctx, "build")
	report := b.settings.Generate.Typecheck

	byDir := make(map[string][]*Result)
	for _, r := range results {
		dir := filepath.Dir(r.Path)
		byDir[dir] = append(byDir[dir], r)
	}
	dirs := make([]string, 0, len(byDir))
	for dir, group := range byDir {
		if report || slices.ContainsFunc(group, needsTypes) {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)

	var errs collector
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for _, dir := range dirs {
		group := byDir[dir]
		g.Go(func() error {
			overlay := make(map[string][]byte, len(group))
			for _, r := range group {
				overlay[r.Path] = r.File.Content
			}

			res, err := typecheck.Check(gctx, dir, overlay)
			if errors.Is(err, typecheck.ErrSkipped) {
				if report {
					logger.Warn().Err(err).Str("dir", dir).Msg("defaults not type checked")
					output.Verbose(fmt.Sprintf("Type check skipped for %s", dir))
				} else {
					logger.Warn().Err(err).Str("dir", dir).Msg("named field types not resolved")
				}
				return nil
			}
			if err != nil {
				return err
			}
			if len(res.Foreign) > 0 {
				logger.Debug().Strs("errors", res.Foreign).Str("package", res.Package).
					Msg("package has errors outside generated files")
			}

			for _, r := range group {
				if report {
					if err := diagnose(r, res.Diagnostics); err != nil {
						errs.add(err)
						continue
					}
				}
				if !needsTypes(r) {
					continue
				}
				fieldTypes := res.FieldTypes(r.Def.Name, len(r.Def.Spec.Fields))
				if fieldTypes == nil {
					logger.Warn().Str("type", r.Def.Name).Str("dir", dir).Msg("field types not resolved")
					continue
				}
				if err := b.render(r, fieldTypes); err != nil {
					errs.add(err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errs.err()
}

func needsTypes(r *Result) bool {
	return codegen.NeedsTypes(r.Def)
}

// diagnose maps the diagnostics that fall in r's file back to spec fields
func diagnose(r *Result, diags []typecheck.Diagnostic) error {
	abs, err := filepath.Abs(r.Path)
	if err != nil {
		abs = r.Path
	}

	var verrs spec.ValidationErrors
	seen := make(map[string]bool)
	for _, d := range diags {
		if d.File != abs {
			continue
		}

		verr := spec.ValidationError{
			Field:   "generated code",
			Message: fmt.Sprintf("type check: %s (%s)", d.Message, d.String()),
		}
		if loc, ok := r.File.Locate(d.Line); ok {
			verr.Field = loc.Path()
			verr.Line = r.Def.Line(loc.LinePath())
			switch {
			case loc.Field < 0:
				verr.Message = d.Message
				verr.Suggestion = "the name collides with a declaration in the package; pick another"
			case loc.Part == "default":
				f := r.Def.Spec.Fields[loc.Field]
				verr.Message = fmt.Sprintf("field '%s': %s", f.Name, d.Message)
				verr.Suggestion = fmt.Sprintf("the default must be assignable to %s; quote plain strings in YAML", f.Type)
			default:
				f := r.Def.Spec.Fields[loc.Field]
				verr.Message = fmt.Sprintf("field '%s': %s", f.Name, d.Message)
				verr.Suggestion = "check the type name and add its package to spec.imports"
			}
		}

		// One error per field part is enough; the rest are usually cascades.
		if seen[verr.Field] && verr.Field != "generated code" {
			continue
		}
		seen[verr.Field] = true
		verrs = append(verrs, verr)
	}

	if len(verrs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w", label(r.Def), verrs)
}
