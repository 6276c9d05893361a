package elements

import (
	"loom/internal/ast"
	"loom/internal/source"
)

// UnitFile pairs a parsed tree with its file identity.
type UnitFile struct {
	ID   source.FileID
	Tree *ast.File
}

// Build constructs the library element for a unit. Duplicate names keep the
// first declaration; the resolver reports the conflict when it binds the
// second one.
func Build(name string, definingFile source.FileID, files []UnitFile) *LibraryElement {
	lib := &LibraryElement{
		Name:         name,
		DefiningFile: definingFile,
		Declarations: make(map[string]*Element),
	}
	for _, f := range files {
		lib.Files = append(lib.Files, f.ID)
		for _, decl := range f.Tree.Decls {
			elem := buildDecl(lib, f.ID, decl, nil)
			if elem == nil {
				continue
			}
			if _, exists := lib.Declarations[elem.Name]; !exists {
				lib.Declarations[elem.Name] = elem
			}
			lib.Order = append(lib.Order, elem)
		}
	}
	linkSuperclasses(lib)
	return lib
}

func buildDecl(lib *LibraryElement, file source.FileID, decl ast.Decl, parent *Element) *Element {
	elem := &Element{
		Name:    decl.DeclName(),
		Loc:     decl.NameSpan(),
		File:    file,
		Library: lib,
		Parent:  parent,
		Decl:    decl,
	}
	switch d := decl.(type) {
	case *ast.ClassDecl:
		elem.Kind = ElemClass
		elem.Abstract = d.Abstract
		elem.SuperName = d.SuperName
		applyAnnotations(elem, d.Annotations)
		for _, m := range d.Members {
			if member := buildDecl(lib, file, m, elem); member != nil {
				elem.Members = append(elem.Members, member)
			}
		}
	case *ast.FnDecl:
		elem.Kind = ElemFunction
		applyAnnotations(elem, d.Annotations)
		for _, p := range d.Params {
			param := &Element{
				Kind:    ElemParameter,
				Name:    p.Name,
				Loc:     p.Span(),
				File:    file,
				Library: lib,
				Parent:  elem,
			}
			elem.Params = append(elem.Params, param)
		}
	case *ast.ConstDecl:
		elem.Kind = ElemConstant
		applyAnnotations(elem, d.Annotations)
	case *ast.VarDecl:
		elem.Kind = ElemVariable
		elem.Mutable = true
		applyAnnotations(elem, d.Annotations)
	default:
		return nil
	}
	return elem
}

func applyAnnotations(elem *Element, anns []*ast.Annotation) {
	for _, ann := range anns {
		switch ann.Name {
		case "deprecated":
			elem.Deprecated = true
		case "since":
			if len(ann.Args) == 1 {
				if lit, ok := ann.Args[0].(*ast.Literal); ok && lit.Kind == ast.LitString {
					elem.Since = lit.Value
				}
			}
		}
	}
}

func linkSuperclasses(lib *LibraryElement) {
	for _, elem := range lib.Order {
		if elem.Kind != ElemClass || elem.SuperName == "" {
			continue
		}
		if super, ok := lib.Declarations[elem.SuperName]; ok && super.Kind == ElemClass && super != elem {
			elem.Super = super
		}
	}
}
