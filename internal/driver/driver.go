// Package driver ties the analysis pipeline to the filesystem: it loads and
// parses files, assembles library structures from part directives, fans
// analysis out over a worker pool, and caches results on disk.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/elements"
	"loom/internal/options"
	"loom/internal/parser"
	"loom/internal/sema"
	"loom/internal/source"
)

// Driver runs analysis over files on disk. One Driver owns one file set and
// is used serially; AnalyzeAll gives each parallel job its own.
type Driver struct {
	fs       *source.FileSet
	ws       *Workspace
	opts     *options.Options
	analyzer *sema.Analyzer
	cache    *DiskCache

	units map[string]*sema.Unit
}

// New creates a driver. nil options mean the defaults.
func New(opts *options.Options) *Driver {
	if opts == nil {
		opts = options.Default()
	}
	fileSet := source.NewFileSet()
	ws := NewWorkspace(fileSet)
	return &Driver{
		fs:       fileSet,
		ws:       ws,
		opts:     opts,
		analyzer: sema.NewAnalyzer(ws, opts),
		units:    map[string]*sema.Unit{},
	}
}

// SetCache attaches a disk cache. Without one every run analyzes from
// scratch.
func (d *Driver) SetCache(c *DiskCache) { d.cache = c }

// FileSet returns the driver's file set, needed to render diagnostics.
func (d *Driver) FileSet() *source.FileSet { return d.fs }

// Analyzer returns the underlying analyzer, exposing timings.
func (d *Driver) Analyzer() *sema.Analyzer { return d.analyzer }

// unit loads and parses the file at path, reusing an earlier parse of the
// same file. Parser diagnostics land in the unit's bag.
func (d *Driver) unit(path string) (*sema.Unit, error) {
	file, ok := d.fs.GetByPath(path)
	if !ok {
		id, err := d.fs.Load(path)
		if err != nil {
			return nil, err
		}
		file = d.fs.Get(id)
	}
	if u, ok := d.units[file.Path]; ok {
		return u, nil
	}
	bag := diag.NewBag(d.opts.Analysis.MaxDiagnostics)
	tree := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	u := &sema.Unit{File: file, Tree: tree, Bag: bag}
	d.units[file.Path] = u
	return u, nil
}

// LoadLibrary assembles the library rooted at the defining file: part
// directives are resolved by configuration selection and linked when the
// target parses and declares itself a part of this library. Directives that
// fail to link stay in the structure for the analyzer to classify.
func (d *Driver) LoadLibrary(definingPath string) (*sema.Library, error) {
	u, err := d.unit(definingPath)
	if err != nil {
		return nil, err
	}
	lib := &sema.Library{Name: u.Tree.LibraryName, Defining: u}
	files := []elements.UnitFile{{ID: u.File.ID, Tree: u.Tree}}
	seen := map[string]bool{}
	for _, dir := range u.Tree.Directives {
		if dir.Kind != ast.DirPart {
			continue
		}
		uri := sema.SelectURI(dir, d.opts.Declared)
		entry := &sema.PartEntry{Directive: dir}
		if path, ok := d.ws.ResolveURI(u.File.Path, uri.Value); ok && !seen[path] {
			pu, err := d.unit(path)
			switch {
			case err != nil:
				// A missing target is the directive resolver's concern; only
				// read failures on an existing path are reported here.
				if !errors.Is(err, fs.ErrNotExist) {
					diag.ReportError(u.Reporter(), diag.IOLoadFileError, uri.Span(),
						fmt.Sprintf("cannot load %q: %v", uri.Value, err)).
						Emit()
				}
			case d.belongsTo(pu, u.File.Path, lib.Name):
				seen[path] = true
				entry.Unit = pu
				files = append(files, elements.UnitFile{ID: pu.File.ID, Tree: pu.Tree})
			}
		}
		lib.Parts = append(lib.Parts, entry)
	}
	lib.Element = elements.Build(lib.Name, u.File.ID, files)
	return lib, nil
}

// belongsTo reports whether the part's part-of header points back at the
// defining file, by URI or by library name.
func (d *Driver) belongsTo(part *sema.Unit, definingPath, libName string) bool {
	po := part.Tree.PartOf
	if po == nil {
		return false
	}
	if po.IsURI {
		back, ok := d.ws.ResolveURI(part.File.Path, po.URI)
		return ok && back == definingPath
	}
	return libName != "" && po.Name == libName
}

// AnalyzeFile analyzes the library containing the file at path. A part file
// with a URI part-of header redirects to its defining file; a part named
// only by library cannot be located and is an error.
func (d *Driver) AnalyzeFile(path string) (*sema.Result, error) {
	return d.analyzeFile(path, false)
}

func (d *Driver) analyzeFile(path string, redirected bool) (*sema.Result, error) {
	u, err := d.unit(path)
	if err != nil {
		return nil, err
	}
	if po := u.Tree.PartOf; po != nil {
		if po.IsURI && !redirected {
			if defining, ok := d.ws.ResolveURI(u.File.Path, po.URI); ok {
				return d.analyzeFile(defining, true)
			}
		}
		if po.IsURI {
			return nil, fmt.Errorf("%s: cannot locate the library of part %q", path, po.URI)
		}
		return nil, fmt.Errorf("%s is a part of library %q; analyze its defining file", path, po.Name)
	}

	lib, err := d.LoadLibrary(u.File.Path)
	if err != nil {
		return nil, err
	}
	key := libraryKey(lib, d.opts)
	if d.cache != nil {
		var payload Payload
		if hit, err := d.cache.Get(key, &payload); err == nil && hit {
			if res, ok := applyPayload(d.fs, lib, &payload); ok {
				return res, nil
			}
		}
	}
	res := d.analyzer.Analyze(lib)
	if d.cache != nil {
		// Best effort; a write failure only costs the next run a re-analysis.
		_ = d.cache.Put(key, payloadFor(d.fs, res))
	}
	return res, nil
}

// DiscoverFiles walks root for .lm files that can root a library, skipping
// part files and hidden directories. Returned paths are sorted slash paths.
func (d *Driver) DiscoverFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if p != root && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(entry.Name(), ".lm") {
			return nil
		}
		paths = append(paths, filepath.ToSlash(p))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	defining := paths[:0]
	for _, p := range paths {
		if tree, ok := d.ws.treeFor(p); ok && tree.PartOf == nil {
			defining = append(defining, p)
		}
	}
	return defining, nil
}

// RunResult is the outcome of one library in a batch run. FileSet is the
// job's own set; spans in Result resolve against it.
type RunResult struct {
	Path    string
	Result  *sema.Result
	FileSet *source.FileSet
	Err     error
}

// AnalyzeAll analyzes every library in parallel. Each job runs in its own
// driver since a file set is single-writer; the disk cache is shared.
// Per-library failures land in RunResult.Err so one broken file does not
// abort the batch; the returned error reports only context cancellation.
func (d *Driver) AnalyzeAll(ctx context.Context, paths []string, jobs int) ([]RunResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	results := make([]RunResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job := New(d.opts)
			job.cache = d.cache
			res, err := job.AnalyzeFile(path)
			results[i] = RunResult{Path: path, Result: res, FileSet: job.fs, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
