package sema

import (
	"testing"

	"loom/internal/diag"
)

func TestConstCycleContainment(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
const A = B + 1;
const B = C + 1;
const C = A + 1;
const D = 40 + 2;
const E = A + 1;
`)

	res := h.analyze("lib.lm", nil)
	all := allDiagnostics(res)
	// Exactly one diagnostic per cycle participant.
	if n := countCode(all, diag.SemaConstCycle); n != 3 {
		t.Fatalf("expected 3 cycle diagnostics, got %d: %v", n, all)
	}
	// D is independent and must evaluate silently; E depends on the broken
	// cycle but adds no noise of its own.
	for _, d := range all {
		if d.Code != diag.SemaConstCycle {
			t.Errorf("unexpected diagnostic: %+v", d)
		}
	}
}

func TestConstSelfReference(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nconst X = X + 1;\n")

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.SemaConstCycle); n != 1 {
		t.Errorf("expected 1 cycle diagnostic, got %v", allDiagnostics(res))
	}
}

func TestConstDependencyOrderIsIrrelevant(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
const FIRST = SECOND * 2;
const SECOND = 21;
`)

	res := h.analyze("lib.lm", nil)
	if all := allDiagnostics(res); len(all) != 0 {
		t.Errorf("forward reference should evaluate cleanly: %v", all)
	}
}

func TestConstNotConstant(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
var counter = 0;
const BAD = counter + 1;
`)

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.SemaConstNotConstant); n != 1 {
		t.Errorf("expected 1 not-constant diagnostic, got %v", allDiagnostics(res))
	}
}

func TestConstDivisionByZero(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nconst X = 1 / 0;\nconst Y = 4 % (2 - 2);\n")

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.SemaConstDivisionByZero); n != 2 {
		t.Errorf("expected 2 division diagnostics, got %v", allDiagnostics(res))
	}
}

func TestConstTargetsBeyondDeclarations(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
var limit = 9;
fn f(x = limit) {
  return x;
}
`)

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.SemaConstNotConstant); n != 1 {
		t.Errorf("parameter defaults are constant targets, got %v", allDiagnostics(res))
	}
}

func TestConstConstructorInvocation(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", `library app;
class Point {}
const ORIGIN = const Point();
fn f() {
  return const Point();
}
`)

	res := h.analyze("lib.lm", nil)
	if all := allDiagnostics(res); len(all) != 0 {
		t.Errorf("const constructor should evaluate cleanly: %v", all)
	}
}

func TestInterpolatedStringNotConstant(t *testing.T) {
	h := newHarness(t)
	h.add("lib.lm", "library app;\nconst NAME = \"pre_${x}\";\n")

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.SemaConstNotConstant); n != 1 {
		t.Errorf("expected 1 not-constant diagnostic, got %v", allDiagnostics(res))
	}
}
