// Package build runs the roost pipeline: parse specs, resolve where their
// code goes, generate it, and type check it against the target packages.
// Nothing here writes files; callers hand Results to package fileop.
package build

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/firebird-suite/roost/internal/codegen"
	"github.com/simonhull/firebird-suite/roost/internal/fileop"
	"github.com/simonhull/firebird-suite/roost/internal/log"
	"github.com/simonhull/firebird-suite/roost/internal/naming"
	"github.com/simonhull/firebird-suite/roost/internal/project"
	"github.com/simonhull/firebird-suite/roost/internal/spec"
)

// ErrStale is returned by check mode when generated files are missing or
// out of date.
var ErrStale = errors.New("generated files are out of date")

// Job is one definition to build. BaseDir anchors relative output paths; for
// spec files it is the spec's directory.
type Job struct {
	Def     *spec.Definition
	BaseDir string
}

// Result is the generated code for one definition.
type Result struct {
	Def     *spec.Definition
	Path    string // output file
	Package string
	File    *codegen.File
}

// Pending converts results into fileop input.
func Pending(results []*Result) []fileop.Pending {
	pending := make([]fileop.Pending, 0, len(results))
	for _, r := range results {
		pending = append(pending, fileop.Pending{Path: r.Path, Content: r.File.Content})
	}
	return pending
}

// Builder generates code for definitions.
type Builder struct {
	gen      *codegen.Generator
	settings *project.Settings
}

// New creates a builder. A nil settings uses the defaults.
func New(settings *project.Settings) *Builder {
	if settings == nil {
		settings = project.DefaultSettings()
	}
	return &Builder{gen: codegen.New(), settings: settings}
}

func (b *Builder) workers() int {
	if n := b.settings.Generate.Workers; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Resolve returns the output path and package clause for a job.
func (b *Builder) Resolve(job Job) (path, pkg string) {
	output := job.Def.Spec.Output
	if output == "" {
		output = naming.Snake(job.Def.Name) + b.settings.Generate.Suffix
	}
	path = output
	if !filepath.IsAbs(path) {
		path = filepath.Join(job.BaseDir, output)
	}

	pkg = job.Def.Spec.Package
	if pkg == "" {
		pkg = project.PackageName(filepath.Dir(path))
	}
	return filepath.Clean(path), pkg
}

// Generate builds one job without type checking. Getters of named slice and
// map types share their values until Build resolves those types.
func (b *Builder) Generate(job Job) (*Result, error) {
	path, pkg := b.Resolve(job)
	r := &Result{Def: job.Def, Path: path, Package: pkg}
	if err := b.render(r, nil); err != nil {
		return nil, err
	}
	return r, nil
}

// render generates r's file, using fieldTypes when they are known.
func (b *Builder) render(r *Result, fieldTypes []types.Type) error {
	file, err := b.gen.Generate(r.Def, codegen.Target{
		Package:    r.Package,
		Filename:   filepath.Base(r.Path),
		Source:     sourceName(r.Def),
		FieldTypes: fieldTypes,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", label(r.Def), err)
	}
	r.File = file
	return nil
}

// Build generates every job concurrently and, when enabled in the settings,
// type checks the output. Specs using named types are loaded against their
// package either way, so getters copy what the types really hold. Errors
// from all jobs are reported together.
func (b *Builder) Build(ctx context.Context, jobs []Job) ([]*Result, error) {
	logger := log.WithComponentFromContext(ctx, "build")
	start := time.Now()

	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = b.Generate(job)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := b.typecheck(ctx, results); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	logger.Debug().Int("specs", len(results)).Dur("took", time.Since(start)).Msg("build finished")
	return results, nil
}

// LoadSpecs parses spec files concurrently, reporting every bad file.
func (b *Builder) LoadSpecs(ctx context.Context, paths []string) ([]Job, error) {
	jobs := make([]Job, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers())
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			def, err := spec.Parse(path)
			if err != nil {
				errs[i] = err
				return nil
			}
			jobs[i] = Job{Def: def, BaseDir: filepath.Dir(path)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return jobs, nil
}

// sourceName is the spec file named in the generated header
func sourceName(def *spec.Definition) string {
	if def.Path == "" {
		return ""
	}
	return filepath.Base(def.Path)
}

// label identifies a definition in error messages
func label(def *spec.Definition) string {
	if def.Path != "" {
		return def.Path
	}
	return def.Name
}

// collector gathers per-result errors from concurrent checks
type collector struct {
	mu   sync.Mutex
	errs []error
}

func (c *collector) add(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

func (c *collector) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return errors.Join(c.errs...)
}
