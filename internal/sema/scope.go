package sema

import (
	"strings"

	"loom/internal/ast"
	"loom/internal/elements"
	"loom/internal/source"
)

// localVar is one function-local binding. Usage and assignment flags feed
// the hint passes after resolution.
type localVar struct {
	name     string
	loc      source.Span
	typ      *elements.Type
	mutable  bool
	used     bool
	assigned bool
}

// ElementName implements ast.Referent for locals.
func (lv *localVar) ElementName() string { return lv.name }

// scope is one lexical frame of the local scope chain.
type scope struct {
	parent *scope
	names  map[string]*localVar
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: map[string]*localVar{}}
}

// lookup walks the chain outward.
func (s *scope) lookup(name string) *localVar {
	for cur := s; cur != nil; cur = cur.parent {
		if lv, ok := cur.names[name]; ok {
			return lv
		}
	}
	return nil
}

// declare binds a local in this frame. Returns the previous binding of the
// same frame when the name is already taken.
func (s *scope) declare(lv *localVar) *localVar {
	if prev, ok := s.names[lv.name]; ok {
		return prev
	}
	s.names[lv.name] = lv
	return nil
}

// importedRef is the referent for names resolved through an import. The
// target library's elements are not materialized in this analysis; identity
// plus origin is enough for binding and hints.
type importedRef struct {
	Name string
	From string // target path of the providing import
}

func (r *importedRef) ElementName() string { return r.Name }

// importNamespace is the set of names one resolved import contributes to
// the library scope, after show filtering and privacy.
type importNamespace struct {
	directive *ast.Directive
	prefix    string
	names     map[string]bool
	used      bool
}

func (ns *importNamespace) has(name string) bool { return ns.names[name] }

// buildNamespaces creates one namespace per resolved import of the defining
// file. Unresolved imports contribute nothing; their diagnostics already
// explain why.
func buildNamespaces(lib *Library, ws Workspace) []*importNamespace {
	var namespaces []*importNamespace
	for _, d := range lib.Defining.Tree.Directives {
		if d.Kind != ast.DirImport || !d.IsResolved() {
			continue
		}
		info, state := ws.Target(d.TargetPath)
		if state != TargetExists {
			continue
		}
		ns := &importNamespace{
			directive: d,
			prefix:    d.Prefix,
			names:     map[string]bool{},
		}
		shown := map[string]bool{}
		for _, name := range d.Show {
			shown[name] = true
		}
		for _, name := range info.Names {
			if strings.HasPrefix(name, "_") {
				continue
			}
			if len(shown) > 0 && !shown[name] {
				continue
			}
			ns.names[name] = true
		}
		namespaces = append(namespaces, ns)
	}
	return namespaces
}
