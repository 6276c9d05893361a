package sema

import (
	"strings"
	"testing"

	"loom/internal/ast"
	"loom/internal/diag"
)

func TestAmbiguousImport(t *testing.T) {
	h := newHarness(t)
	h.add("a.lm", "library a;\nfn helper() {}\n")
	h.add("b.lm", "library b;\nfn helper() {}\n")
	h.add("lib.lm", `library app;
import "a.lm";
import "b.lm";
fn main() { helper(); }
`)

	res := h.analyze("lib.lm", nil)
	all := allDiagnostics(res)
	d, ok := findCode(all, diag.SemaAmbiguousImport)
	if !ok {
		t.Fatal("expected SemaAmbiguousImport")
	}
	if len(d.Notes) != 2 {
		t.Errorf("expected a note per providing import, got %d", len(d.Notes))
	}
	// Neither import may be flagged unused: removing either would change
	// the ambiguity.
	if n := countCode(all, diag.HintUnusedImport); n != 0 {
		t.Errorf("unexpected unused-import hints: %d", n)
	}
}

func TestSingleImportBindsName(t *testing.T) {
	h := newHarness(t)
	h.add("util.lm", "library util;\nfn helper() {}\nfn _secret() {}\n")
	h.add("lib.lm", `library app;
import "util.lm" show helper;
fn main() { helper(); }
`)

	res := h.analyze("lib.lm", nil)
	if all := allDiagnostics(res); len(all) != 0 {
		t.Errorf("unexpected diagnostics: %v", all)
	}
}

func TestPrefixedImport(t *testing.T) {
	h := newHarness(t)
	h.add("util.lm", "library util;\nfn helper() {}\n")
	h.add("lib.lm", `library app;
import "util.lm" as u;
fn main() { u.helper(); u.missing(); }
`)

	res := h.analyze("lib.lm", nil)
	all := allDiagnostics(res)
	d, ok := findCode(all, diag.SemaUnresolvedName)
	if !ok {
		t.Fatal("expected SemaUnresolvedName for u.missing")
	}
	if !strings.Contains(d.Message, "missing") {
		t.Errorf("message = %q", d.Message)
	}
	if n := countCode(all, diag.HintUnusedImport); n != 0 {
		t.Errorf("prefix was used; unexpected hints: %d", n)
	}
}

func TestUnresolvedNameDoesNotCascade(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nfn main() {\n  let x = missing + 1;\n  return x;\n}\n")

	res := h.analyze("lib.lm", nil)
	all := allDiagnostics(res)
	if n := countCode(all, diag.SemaUnresolvedName); n != 1 {
		t.Fatalf("expected exactly 1 unresolved name, got %d: %v", n, all)
	}
	// The binary op on the invalid operand must not add a type error.
	if n := countCode(all, diag.SemaTypeMismatch); n != 0 {
		t.Errorf("cascaded type errors: %v", all)
	}
}

func TestDuplicateTopLevelDeclaration(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nfn thing() {}\nvar thing = 1;\n")

	res := h.analyze("lib.lm", nil)
	d, ok := findCode(allDiagnostics(res), diag.SemaDuplicateDeclaration)
	if !ok {
		t.Fatal("expected SemaDuplicateDeclaration")
	}
	if len(d.Notes) != 1 {
		t.Errorf("expected note at first declaration, got %v", d.Notes)
	}
}

func TestFlowPromotionThroughIsTest(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
class Shape {}
class Circle extends Shape {}
fn f(s) {
  if (s is Circle) {
    let inside = s;
    return inside;
  }
  let outside = s;
  return outside;
}
`)

	res := h.analyze("lib.lm", nil)
	if errs := countCode(allDiagnostics(res), diag.SemaUnresolvedName); errs != 0 {
		t.Fatalf("unexpected resolution errors: %v", allDiagnostics(res))
	}

	types := bindValueTypes(res.Library.Defining.Tree)
	if got := types["inside"]; got != "Circle" {
		t.Errorf("inside the branch s should be promoted to Circle, got %q", got)
	}
	if got := types["outside"]; got != "dynamic" {
		t.Errorf("after the branch s should revert to dynamic, got %q", got)
	}
}

func TestAssignmentInvalidatesPromotion(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
class Shape {}
class Circle extends Shape {}
fn f(s, other) {
  if (s is Circle) {
    s = other;
    let after = s;
    return after;
  }
  return s;
}
`)

	res := h.analyze("lib.lm", nil)
	types := bindValueTypes(res.Library.Defining.Tree)
	if got := types["after"]; got == "Circle" {
		t.Errorf("promotion must not survive assignment, got %q", got)
	}
}

func TestKindChangingOverrideRejected(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
class Base {
  fn describe() {}
}
class Child extends Base {
  var describe = 1;
}
`)

	res := h.analyze("lib.lm", nil)
	d, ok := findCode(allDiagnostics(res), diag.SemaInvalidOverride)
	if !ok {
		t.Fatal("expected SemaInvalidOverride")
	}
	if len(d.Notes) != 1 {
		t.Errorf("expected a note at the inherited member, got %v", d.Notes)
	}
}

// bindValueTypes maps each let/var binding name to the static type of its
// initializer.
func bindValueTypes(tree *ast.File) map[string]string {
	types := map[string]string{}
	ast.Walk(tree, func(n ast.Node) bool {
		if bind, ok := n.(*ast.BindStmt); ok && bind.Value != nil {
			if typ := bind.Value.StaticType(); typ != nil {
				types[bind.Name] = typ.TypeString()
			}
		}
		return true
	})
	return types
}

func TestLegacyVersionDisablesNullSafety(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "// @loom=1.0\nlibrary app;\nfn f() {\n  let x = 1;\n  return x;\n}\n")

	res := h.analyze("lib.lm", nil)
	var nullSafe *bool
	ast.Walk(res.Library.Defining.Tree, func(n ast.Node) bool {
		if lit, ok := n.(*ast.Literal); ok {
			if typ := lit.StaticType(); typ != nil {
				v := typ.NullSafe()
				nullSafe = &v
			}
		}
		return true
	})
	if nullSafe == nil {
		t.Fatal("no typed literal found")
	}
	if *nullSafe {
		t.Error("types under a 1.x override must not be null safe")
	}
}

func TestAbstractInstantiation(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
abstract class Shape {}
fn main() {
  let s = Shape();
  return s;
}
`)

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.SemaAbstractInstantiation); n != 1 {
		t.Errorf("expected 1 abstract instantiation error, got %v", allDiagnostics(res))
	}
}

func TestArgumentCount(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
fn f(a, b = 2) {
  return a + b;
}
fn main() {
  f(1);
  f(1, 2);
  f(1, 2, 3);
  f();
}
`)

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.SemaArgumentCount); n != 2 {
		t.Errorf("expected 2 argument count errors, got %v", allDiagnostics(res))
	}
}

func TestExtendsNonClass(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nvar base = 1;\nclass Child extends base {}\n")

	res := h.analyze("lib.lm", nil)
	if _, ok := findCode(allDiagnostics(res), diag.SemaExtendsNonClass); !ok {
		t.Errorf("expected SemaExtendsNonClass, got %v", allDiagnostics(res))
	}
}

func TestInvalidConditionType(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nfn f() {\n  if (1 + 2) {\n    return 1;\n  }\n  return 0;\n}\n")

	res := h.analyze("lib.lm", nil)
	if _, ok := findCode(allDiagnostics(res), diag.SemaInvalidCondition); !ok {
		t.Errorf("expected SemaInvalidCondition, got %v", allDiagnostics(res))
	}
}
