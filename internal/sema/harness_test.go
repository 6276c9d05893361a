package sema

import (
	gopath "path"
	"testing"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/elements"
	"loom/internal/options"
	"loom/internal/parser"
	"loom/internal/source"
)

// harness is an in-memory workspace for analyzer tests: virtual files,
// parsed trees, and a Library builder playing the driver's role.
type harness struct {
	t            *testing.T
	fs           *source.FileSet
	units        map[string]*Unit
	notGenerated map[string]bool
	declared     map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:            t,
		fs:           source.NewFileSet(),
		units:        map[string]*Unit{},
		notGenerated: map[string]bool{},
		declared:     map[string]string{},
	}
}

func (h *harness) add(path, src string) *Unit {
	h.t.Helper()
	id := h.fs.AddVirtual(path, []byte(src))
	file := h.fs.Get(id)
	bag := diag.NewBag(64)
	tree := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	u := &Unit{File: file, Tree: tree, Bag: bag}
	h.units[file.Path] = u
	return u
}

func (h *harness) ResolveURI(fromPath, uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	return gopath.Join(gopath.Dir(fromPath), uri), true
}

func (h *harness) Target(path string) (*TargetInfo, TargetState) {
	if h.notGenerated[path] {
		return nil, TargetNotGenerated
	}
	u, ok := h.units[path]
	if !ok {
		return nil, TargetMissing
	}
	info := &TargetInfo{
		Path:        path,
		PartOf:      u.Tree.PartOf,
		LibraryName: u.Tree.LibraryName,
		Version:     u.Tree.Version,
	}
	for _, decl := range u.Tree.Decls {
		info.Names = append(info.Names, decl.DeclName())
	}
	return info, TargetExists
}

// library assembles the Library structure for a defining file the way the
// driver does: part directives are pre-linked by naive URI resolution, and
// the element model merges the defining file with every linked part.
func (h *harness) library(definingPath string) *Library {
	h.t.Helper()
	u, ok := h.units[definingPath]
	if !ok {
		h.t.Fatalf("no unit at %q", definingPath)
	}
	lib := &Library{Name: u.Tree.LibraryName, Defining: u}
	files := []elements.UnitFile{{ID: u.File.ID, Tree: u.Tree}}
	seen := map[string]bool{}
	for _, d := range u.Tree.Directives {
		if d.Kind != ast.DirPart {
			continue
		}
		uri := SelectURI(d, h.declared)
		entry := &PartEntry{Directive: d}
		if path, ok := h.ResolveURI(definingPath, uri.Value); ok && !seen[path] {
			if pu, linked := h.units[path]; linked && h.belongsTo(pu, definingPath, lib.Name) {
				seen[path] = true
				entry.Unit = pu
				files = append(files, elements.UnitFile{ID: pu.File.ID, Tree: pu.Tree})
			}
		}
		lib.Parts = append(lib.Parts, entry)
	}
	lib.Element = elements.Build(lib.Name, u.File.ID, files)
	return lib
}

func (h *harness) belongsTo(part *Unit, definingPath, libName string) bool {
	po := part.Tree.PartOf
	if po == nil {
		return false
	}
	if po.IsURI {
		back, ok := h.ResolveURI(part.File.Path, po.URI)
		return ok && back == definingPath
	}
	return libName != "" && po.Name == libName
}

func (h *harness) analyzer(opts *options.Options) *Analyzer {
	if opts == nil {
		opts = options.Default()
	}
	if len(h.declared) > 0 {
		opts.Declared = h.declared
	}
	return NewAnalyzer(h, opts)
}

// analyze runs the full pipeline on the library at definingPath.
func (h *harness) analyze(definingPath string, opts *options.Options) *Result {
	h.t.Helper()
	lib := h.library(definingPath)
	return h.analyzer(opts).Analyze(lib)
}

func countCode(items []diag.Diagnostic, code diag.Code) int {
	n := 0
	for _, d := range items {
		if d.Code == code {
			n++
		}
	}
	return n
}

func findCode(items []diag.Diagnostic, code diag.Code) (diag.Diagnostic, bool) {
	for _, d := range items {
		if d.Code == code {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

func allDiagnostics(res *Result) []diag.Diagnostic {
	var all []diag.Diagnostic
	for _, f := range res.Files {
		all = append(all, f.Diagnostics...)
	}
	return all
}
