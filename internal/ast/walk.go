package ast

// Walk traverses the tree rooted at n in source order, calling visit for
// every node. When visit returns false the node's children are skipped.
// Nil children are never visited.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch node := n.(type) {
	case *File:
		if node.PartOf != nil {
			Walk(node.PartOf, visit)
		}
		for _, d := range node.Directives {
			Walk(d, visit)
		}
		for _, d := range node.Decls {
			Walk(d, visit)
		}
	case *Directive:
		Walk(&node.URI, visit)
		for _, c := range node.Configurations {
			Walk(c, visit)
		}
	case *Configuration:
		Walk(&node.URI, visit)
	case *ClassDecl:
		walkAnnotations(node.Annotations, visit)
		for _, m := range node.Members {
			Walk(m, visit)
		}
	case *FnDecl:
		walkAnnotations(node.Annotations, visit)
		for _, p := range node.Params {
			Walk(p, visit)
		}
		if node.Body != nil {
			Walk(node.Body, visit)
		}
	case *Param:
		walkExpr(node.Default, visit)
	case *ConstDecl:
		walkAnnotations(node.Annotations, visit)
		walkExpr(node.Value, visit)
	case *VarDecl:
		walkAnnotations(node.Annotations, visit)
		walkExpr(node.Value, visit)
	case *Annotation:
		for _, a := range node.Args {
			walkExpr(a, visit)
		}
	case *Block:
		for _, s := range node.Stmts {
			Walk(s, visit)
		}
	case *ExprStmt:
		walkExpr(node.X, visit)
	case *BindStmt:
		walkExpr(node.Value, visit)
	case *ReturnStmt:
		walkExpr(node.Value, visit)
	case *IfStmt:
		walkExpr(node.Cond, visit)
		Walk(node.Then, visit)
		if node.Else != nil {
			Walk(node.Else, visit)
		}
	case *WhileStmt:
		walkExpr(node.Cond, visit)
		Walk(node.Body, visit)
	case *Unary:
		walkExpr(node.Operand, visit)
	case *Binary:
		walkExpr(node.Left, visit)
		walkExpr(node.Right, visit)
	case *Call:
		walkExpr(node.Callee, visit)
		for _, a := range node.Args {
			walkExpr(a, visit)
		}
	case *IsTest:
		walkExpr(node.Operand, visit)
	case *Assign:
		walkExpr(node.Target, visit)
		walkExpr(node.Value, visit)
	case *Paren:
		walkExpr(node.Inner, visit)
	}
}

func walkExpr(e Expr, visit func(Node) bool) {
	if e != nil {
		Walk(e, visit)
	}
}

func walkAnnotations(anns []*Annotation, visit func(Node) bool) {
	for _, a := range anns {
		Walk(a, visit)
	}
}
