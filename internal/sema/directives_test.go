package sema

import (
	"strings"
	"testing"

	"loom/internal/ast"
	"loom/internal/diag"
)

func TestSelectURIConfigurations(t *testing.T) {
	h := newHarness(t)
	u := h.add("lib.lm", `import "io.lm"
  if (declared.platform == "web") "io_web.lm"
  if (declared.native) "io_native.lm";
`)
	d := u.Tree.Directives[0]

	if got := SelectURI(d, nil).Value; got != "io.lm" {
		t.Errorf("no declared variables: selected %q", got)
	}
	if got := SelectURI(d, map[string]string{"platform": "web"}).Value; got != "io_web.lm" {
		t.Errorf("platform=web: selected %q", got)
	}
	if got := SelectURI(d, map[string]string{"native": "true"}).Value; got != "io_native.lm" {
		t.Errorf("bare truthy form: selected %q", got)
	}
	if got := SelectURI(d, map[string]string{"native": "false"}).Value; got != "io.lm" {
		t.Errorf("non-matching value: selected %q", got)
	}
	// First matching configuration wins.
	both := map[string]string{"platform": "web", "native": "true"}
	if got := SelectURI(d, both).Value; got != "io_web.lm" {
		t.Errorf("both matching: selected %q", got)
	}
}

func TestConfigurationSelectionDrivesResolution(t *testing.T) {
	h := newHarness(t)
	h.add("io_web.lm", "library io_web;\nfn fetch() {}\n")
	h.add("lib.lm", `library app;
import "io.lm" if (declared.platform == "web") "io_web.lm";
`)
	h.declared["platform"] = "web"

	res := h.analyze("lib.lm", nil)
	d := res.Library.Defining.Tree.Directives[0]
	if d.SelectedURI != "io_web.lm" || d.Status != ast.DirectiveResolved {
		t.Errorf("directive = selected %q status %v", d.SelectedURI, d.Status)
	}
	// The default target does not exist, but the selected one does: no
	// existence diagnostic may appear.
	if n := countCode(allDiagnostics(res), diag.DirUriDoesNotExist); n != 0 {
		t.Errorf("unexpected existence diagnostics: %d", n)
	}
}

func TestDirectiveClassification(t *testing.T) {
	h := newHarness(t)
	h.add("part_only.lm", "part of app;\n")
	h.notGenerated["gen.lm"] = true
	u := h.add("lib.lm", `library app;
import "lib_${x}.lm";
import "missing.lm";
import "gen.lm";
import "part_only.lm";
part "part_only.lm";
`)

	res := h.analyze("lib.lm", nil)
	directives := u.Tree.Directives
	want := []ast.DirectiveStatus{
		ast.DirectiveUriWithInterpolation,
		ast.DirectiveUriDoesNotExist,
		ast.DirectiveUriNotGenerated,
		ast.DirectiveWrongKind,
		ast.DirectiveResolved,
	}
	for i, status := range want {
		if directives[i].Status != status {
			t.Errorf("directive %d: status %v, want %v", i, directives[i].Status, status)
		}
		if directives[i].Status == ast.DirectivePending {
			t.Errorf("directive %d left pending", i)
		}
		if directives[i].SelectedURI == "" {
			t.Errorf("directive %d has no selected URI", i)
		}
	}

	all := allDiagnostics(res)
	for _, code := range []diag.Code{
		diag.DirUriWithInterpolation,
		diag.DirUriDoesNotExist,
		diag.DirUriHasNotBeenGenerated,
		diag.DirImportOfNonLibrary,
	} {
		if n := countCode(all, code); n != 1 {
			t.Errorf("code %s: %d diagnostics, want 1", code.ID(), n)
		}
	}
}

func TestExportOfNonLibrary(t *testing.T) {
	h := newHarness(t)
	h.add("part_only.lm", "part of app;\n")
	h.add("lib.lm", "library app;\nexport \"part_only.lm\";\npart \"part_only.lm\";\n")

	res := h.analyze("lib.lm", nil)
	if n := countCode(allDiagnostics(res), diag.DirExportOfNonLibrary); n != 1 {
		t.Errorf("export of part: %d diagnostics, want 1", n)
	}
}

func TestPartOfDifferentLibraryNamesBoth(t *testing.T) {
	h := newHarness(t)
	h.add("stray.lm", "part of other.lib;\n")
	h.add("lib.lm", "library app.core;\npart \"stray.lm\";\n")

	res := h.analyze("lib.lm", nil)
	d, ok := findCode(allDiagnostics(res), diag.DirPartOfDifferentLibrary)
	if !ok {
		t.Fatal("expected DirPartOfDifferentLibrary")
	}
	if !strings.Contains(d.Message, "other.lib") || !strings.Contains(d.Message, "app.core") {
		t.Errorf("message must name both libraries, got %q", d.Message)
	}
}

func TestPartOfUnnamedLibrary(t *testing.T) {
	h := newHarness(t)
	h.add("piece.lm", "part of app;\n")
	h.add("lib.lm", "part \"piece.lm\";\n")

	res := h.analyze("lib.lm", nil)
	d, ok := findCode(allDiagnostics(res), diag.DirPartOfUnnamedLibrary)
	if !ok {
		t.Fatal("expected DirPartOfUnnamedLibrary")
	}
	if !strings.Contains(d.Message, "app") {
		t.Errorf("message must name the declared library, got %q", d.Message)
	}
}

func TestPartOfByURI(t *testing.T) {
	h := newHarness(t)
	h.add("piece.lm", "part of \"lib.lm\";\nfn helper() {}\n")
	h.add("lib.lm", "library app;\npart \"piece.lm\";\nfn main() { helper(); }\n")

	res := h.analyze("lib.lm", nil)
	if all := allDiagnostics(res); len(all) != 0 {
		t.Errorf("unexpected diagnostics: %v", all)
	}
	if !res.Library.Defining.Tree.Directives[0].IsResolved() {
		t.Error("uri part-of should resolve")
	}
}

func TestDuplicatePart(t *testing.T) {
	h := newHarness(t)
	h.add("piece.lm", "part of app;\n")
	h.add("lib.lm", "library app;\npart \"piece.lm\";\npart \"piece.lm\";\n")

	res := h.analyze("lib.lm", nil)
	d, ok := findCode(allDiagnostics(res), diag.DirDuplicatePart)
	if !ok {
		t.Fatal("expected DirDuplicatePart")
	}
	if d.Severity != diag.SevWarning {
		t.Errorf("duplicate part severity = %v", d.Severity)
	}
	if len(d.Notes) == 0 {
		t.Error("expected a note pointing at the first inclusion")
	}
	// Both directives still resolve; duplication does not block resolution.
	for i, dir := range res.Library.Defining.Tree.Directives {
		if !dir.IsResolved() {
			t.Errorf("directive %d not resolved: %v", i, dir.Status)
		}
	}
}
