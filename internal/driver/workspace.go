package driver

import (
	gopath "path"
	"strings"
	"sync"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/parser"
	"loom/internal/sema"
	"loom/internal/source"
)

// Workspace backs directive resolution with the file set and the disk. Trees
// parsed for target inspection are cached by path; the parse is quiet since
// target files report through their own library's analysis.
type Workspace struct {
	fs *source.FileSet

	mu      sync.Mutex
	trees   map[string]*ast.File
	missing map[string]bool
}

// NewWorkspace wraps a file set.
func NewWorkspace(fs *source.FileSet) *Workspace {
	return &Workspace{
		fs:      fs,
		trees:   map[string]*ast.File{},
		missing: map[string]bool{},
	}
}

// FileSet returns the underlying file set.
func (w *Workspace) FileSet() *source.FileSet { return w.fs }

// ResolveURI implements sema.Workspace. URIs are relative slash paths; a
// scheme or an escape above the workspace root is unusable.
func (w *Workspace) ResolveURI(fromPath, uri string) (string, bool) {
	if uri == "" || strings.Contains(uri, "\\") || strings.ContainsAny(uri, " \t") {
		return "", false
	}
	if strings.Contains(uri, ":") {
		return "", false
	}
	joined := gopath.Join(gopath.Dir(fromPath), uri)
	if strings.HasPrefix(joined, "..") {
		return "", false
	}
	return joined, true
}

// Target implements sema.Workspace.
func (w *Workspace) Target(path string) (*sema.TargetInfo, sema.TargetState) {
	tree, ok := w.treeFor(path)
	if !ok {
		// A missing generated-source path gets the distinct not-generated
		// state so the fix (run the generator) is obvious.
		if strings.HasSuffix(path, ".g.lm") {
			return nil, sema.TargetNotGenerated
		}
		return nil, sema.TargetMissing
	}
	info := &sema.TargetInfo{
		Path:        path,
		PartOf:      tree.PartOf,
		LibraryName: tree.LibraryName,
		Version:     tree.Version,
	}
	for _, decl := range tree.Decls {
		info.Names = append(info.Names, decl.DeclName())
	}
	return info, sema.TargetExists
}

// treeFor returns the parsed tree at path, loading and parsing on first use.
func (w *Workspace) treeFor(path string) (*ast.File, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if tree, ok := w.trees[path]; ok {
		return tree, true
	}
	if w.missing[path] {
		return nil, false
	}
	file, ok := w.fs.GetByPath(path)
	if !ok {
		id, err := w.fs.Load(path)
		if err != nil {
			w.missing[path] = true
			return nil, false
		}
		file = w.fs.Get(id)
	}
	tree := parser.ParseFile(file, parser.Options{Reporter: diag.NopReporter{}})
	w.trees[path] = tree
	return tree, true
}
