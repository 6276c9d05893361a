package lint

import (
	"testing"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/parser"
	"loom/internal/source"
)

func lintSnippet(t *testing.T, src string, rules []string) []diag.Diagnostic {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.lm", []byte(src))
	file := fs.Get(id)
	tree := parser.ParseFile(file, parser.Options{Reporter: diag.NopReporter{}})

	bag := diag.NewBag(32)
	runner := &Runner{Rules: Enabled(rules), PropagatePanics: true}
	runner.Run(tree, file, diag.BagReporter{Bag: bag})
	return bag.Items()
}

func TestAvoidEmptyBlocks(t *testing.T) {
	src := `fn f(x) {
  if (x > 0) {}
  while (x > 0) {
    x = x - 1;
  }
}
`
	items := lintSnippet(t, src, []string{"avoid_empty_blocks"})
	if len(items) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(items), items)
	}
	if items[0].Rule != "avoid_empty_blocks" || items[0].Code != diag.LintAvoidEmptyBlocks {
		t.Errorf("finding = %+v", items[0])
	}
}

func TestPreferLetBindings(t *testing.T) {
	src := `fn f() {
  var a = 1;
  var b = 2;
  b = b + 1;
  return a + b;
}
`
	items := lintSnippet(t, src, []string{"prefer_let_bindings"})
	if len(items) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(items), items)
	}
	if items[0].Message != "'a' is never reassigned; declare it with 'let'" {
		t.Errorf("message = %q", items[0].Message)
	}
}

func TestUpperCaseConstants(t *testing.T) {
	src := "const maxSize = 10;\nconst MAX_LEN = 20;\nconst _RETRIES = 3;\n"
	items := lintSnippet(t, src, []string{"upper_case_constants"})
	if len(items) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(items), items)
	}
	if items[0].Rule != "upper_case_constants" {
		t.Errorf("rule = %q", items[0].Rule)
	}
}

type panicRule struct{}

func (panicRule) Name() string    { return "panic_rule" }
func (panicRule) Code() diag.Code { return diag.LintAvoidEmptyBlocks }
func (panicRule) Check(*ast.File, *source.File, diag.Reporter) {
	panic("rule exploded")
}

func TestRunnerRecoversPanics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.lm", []byte("fn f() {}\n"))
	file := fs.Get(id)
	tree := parser.ParseFile(file, parser.Options{Reporter: diag.NopReporter{}})

	bag := diag.NewBag(8)
	runner := &Runner{Rules: []Rule{panicRule{}}}
	runner.Run(tree, file, diag.BagReporter{Bag: bag}) // must not panic
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %v", bag.Items())
	}

	runner.PropagatePanics = true
	defer func() {
		if recover() == nil {
			t.Error("expected propagated panic")
		}
	}()
	runner.Run(tree, file, diag.BagReporter{Bag: bag})
}

func TestEnabledSkipsUnknown(t *testing.T) {
	rules := Enabled([]string{"avoid_empty_blocks", "no_such_rule"})
	if len(rules) != 1 || rules[0].Name() != "avoid_empty_blocks" {
		t.Errorf("enabled = %v", rules)
	}
}
