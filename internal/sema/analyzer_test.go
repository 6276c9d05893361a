package sema

import (
	"strings"
	"testing"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/options"
)

func TestCleanLibraryEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.add("geometry.lm", `library geometry;
part "shapes.lm";

const SCALE = 2;

fn area(r) {
  return r * r * 3;
}
`)
	h.add("shapes.lm", `part of geometry;

class Shape {
  var size = 1;
}

fn scaled(r) {
  return area(r) * SCALE;
}
`)

	res := h.analyze("geometry.lm", nil)
	for _, f := range res.Files {
		if len(f.Diagnostics) != 0 {
			t.Errorf("%s: unexpected diagnostics: %v", f.Unit.File.Path, f.Diagnostics)
		}
	}
	if res.HasErrors() {
		t.Error("clean library reported errors")
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 file results, got %d", len(res.Files))
	}
	if !res.Library.Defining.Tree.Directives[0].IsResolved() {
		t.Error("part directive not resolved")
	}
}

func TestLanguageVersionMismatch(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\npart \"piece.lm\";\n")
	h.add("piece.lm", "// @loom=1.4\npart of app;\n")

	res := h.analyze("lib.lm", nil)
	var found diag.Diagnostic
	ok := false
	for _, d := range res.Files[0].Diagnostics {
		if d.Code == diag.DirLanguageVersionMismatch {
			found, ok = d, true
		}
	}
	if !ok {
		t.Fatalf("expected version mismatch on the library file, got %v", allDiagnostics(res))
	}
	if !strings.Contains(found.Message, "piece.lm") || !strings.Contains(found.Message, "1.4") {
		t.Errorf("message must name the part and its version, got %q", found.Message)
	}
	if found.Primary.File != res.Library.Defining.File.ID {
		t.Error("mismatch must be reported on the library file")
	}
}

func TestMatchingVersionOverrides(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "// @loom=1.4\nlibrary app;\npart \"piece.lm\";\n")
	h.add("piece.lm", "// @loom=1.4\npart of app;\n")

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.DirLanguageVersionMismatch); n != 0 {
		t.Errorf("matching overrides flagged: %v", allDiagnostics(res))
	}
}

func TestHintsToggle(t *testing.T) {
	src := `library app;
fn main() {
  let unused = 1;
  return 0;
}
`
	h := newHarness(t)
	h.add("lib.lm", src)
	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.HintUnusedLocal); n != 1 {
		t.Errorf("expected unused-local hint: %v", allDiagnostics(res))
	}

	h2 := newHarness(t)
	h2.add("lib.lm", src)
	opts := options.Default()
	opts.Analysis.Hints = false
	res = h2.analyze("lib.lm", opts)
	if n := countCode(allDiagnostics(res), diag.HintUnusedLocal); n != 0 {
		t.Errorf("hints disabled but emitted: %v", allDiagnostics(res))
	}
}

func TestUnusedImportHint(t *testing.T) {
	h := newHarness(t)
	h.add("util.lm", "library util;\nfn helper() {}\n")
	h.add("lib.lm", "library app;\nimport \"util.lm\";\nfn main() { return 0; }\n")

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.HintUnusedImport); n != 1 {
		t.Errorf("expected unused-import hint: %v", allDiagnostics(res))
	}
}

func TestUsageInPartSuppressesHint(t *testing.T) {
	h := newHarness(t)
	h.add("util.lm", "library util;\nfn helper() {}\n")
	h.add("piece.lm", "part of app;\nfn run() { helper(); }\n")
	h.add("lib.lm", `library app;
import "util.lm";
part "piece.lm";
fn main() { run(); }
`)

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.HintUnusedImport); n != 0 {
		t.Errorf("import used by a part was flagged: %v", allDiagnostics(res))
	}
}

func TestDeadCodeAndTodoHints(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
// TODO: tighten the bound
fn f() {
  return 1;
  return 2;
}
`)

	res := h.analyze("lib.lm", nil)
	all := allDiagnostics(res)
	if n := countCode(all, diag.HintDeadCode); n != 1 {
		t.Errorf("expected dead-code hint: %v", all)
	}
	if n := countCode(all, diag.HintTodo); n != 1 {
		t.Errorf("expected TODO hint: %v", all)
	}
}

func TestDeprecatedAndSinceHints(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
@deprecated
fn old() {}

@since("2.5")
fn fresh() {}

fn main() {
  old();
  fresh();
}
`)
	opts := options.Default()
	opts.Analysis.SDK = "2.0"

	res := h.analyze("lib.lm", opts)
	all := allDiagnostics(res)
	if n := countCode(all, diag.HintDeprecatedUse); n != 1 {
		t.Errorf("expected deprecation hint: %v", all)
	}
	if n := countCode(all, diag.HintSdkVersionTooLow); n != 1 {
		t.Errorf("expected since-gating hint: %v", all)
	}
}

func TestDiagnosticsSortedAndDeduped(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
fn f() {
  missing();
  return 0;
}
fn g() {
  missing();
  return 0;
}
`)

	res := h.analyze("lib.lm", nil)
	diags := res.Files[0].Diagnostics
	if len(diags) < 2 {
		t.Fatalf("expected 2 diagnostics, got %v", diags)
	}
	for i := 1; i < len(diags); i++ {
		if diags[i].Primary.Start < diags[i-1].Primary.Start {
			t.Error("diagnostics not ordered by position")
		}
	}
}

func TestLintStageEmitsRuleFindings(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nconst bad_name = 1;\nfn f(x) {\n  if (x > 0) {}\n  return bad_name;\n}\n")
	opts := options.Default()
	opts.Analysis.Lints = []string{"avoid_empty_blocks", "upper_case_constants"}

	res := h.analyze("lib.lm", opts)
	all := allDiagnostics(res)
	if n := countCode(all, diag.LintAvoidEmptyBlocks); n != 1 {
		t.Errorf("expected empty-block finding: %v", all)
	}
	if n := countCode(all, diag.LintUpperCaseConsts); n != 1 {
		t.Errorf("expected constant-name finding: %v", all)
	}
	for _, d := range all {
		if d.Code == diag.LintAvoidEmptyBlocks && d.Rule != "avoid_empty_blocks" {
			t.Errorf("lint diagnostic missing rule name: %+v", d)
		}
	}
}

func TestAnalyzeForCompletionNarrow(t *testing.T) {
	h := newHarness(t)
	src := `library app;
fn first() {
  return 1;
}
fn second(x) {
  return x + 1;
}
`
	u := h.add("lib.lm", src)
	lib := h.library("lib.lm")
	an := h.analyzer(nil)

	offset := uint32(strings.Index(src, "x + 1"))
	got := an.AnalyzeForCompletion(lib, u.File.ID, offset)
	if got == nil || got.Decl == nil {
		t.Fatal("expected an enclosing declaration")
	}
	if got.Decl.DeclName() != "second" {
		t.Errorf("enclosing decl = %q", got.Decl.DeclName())
	}
	// The narrow resolution binds references inside the chosen declaration.
	bound := false
	ast.Walk(got.Decl, func(n ast.Node) bool {
		if ident, ok := n.(*ast.Ident); ok && ident.Name == "x" && ident.Ref != nil {
			bound = true
		}
		return true
	})
	if !bound {
		t.Error("parameter reference not bound")
	}
	// Completion must not leak diagnostics into the unit's bag.
	if u.Bag.Len() != 0 {
		t.Errorf("completion polluted the bag: %v", u.Bag.Items())
	}
}

func TestAnalyzeForCompletionFallsBack(t *testing.T) {
	h := newHarness(t)
	u := h.add("lib.lm", "library app;\n\nfn f() {\n  return 1;\n}\n")
	lib := h.library("lib.lm")
	an := h.analyzer(nil)

	// Offset on the blank line between the header and the declaration.
	got := an.AnalyzeForCompletion(lib, u.File.ID, 13)
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.Decl != nil {
		t.Errorf("expected whole-file fallback, got %q", got.Decl.DeclName())
	}
}

func TestTimingsCollected(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nfn main() { return 0; }\n")
	opts := options.Default()
	opts.Analysis.Timings = true
	opts.Analysis.Lints = []string{"avoid_empty_blocks"}

	an := h.analyzer(opts)
	an.Analyze(h.library("lib.lm"))
	if an.Timer() == nil {
		t.Fatal("timer not created")
	}
	report := an.Timer().Report()
	names := map[string]bool{}
	for _, p := range report.Phases {
		names[p.Name] = true
	}
	for _, want := range []string{"directives", "resolve", "constants", "hints", "lints", "versions", "ignores"} {
		if !names[want] {
			t.Errorf("missing phase %q in %v", want, names)
		}
	}
	if _, ok := an.RuleTimings()["avoid_empty_blocks"]; !ok {
		t.Error("missing per-rule timing")
	}
}
