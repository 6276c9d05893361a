package ui

import (
	"strings"
	"testing"

	"loom/internal/diag"
	"loom/internal/source"
)

func TestRenderPlain(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("lib.lm", []byte("library app;\nfn main() { missing(); }\n"))

	start := uint32(strings.Index("library app;\nfn main() { missing(); }\n", "missing"))
	d := diag.NewError(diag.SemaUnresolvedName,
		source.Span{File: id, Start: start, End: start + 7},
		"undefined name 'missing'")

	r := NewRenderer(false, 80)
	out := r.Render(fs, d)
	if !strings.Contains(out, "lib.lm:2:13") {
		t.Errorf("missing location in %q", out)
	}
	if !strings.Contains(out, "error [SEM3001]: undefined name 'missing'") {
		t.Errorf("missing header in %q", out)
	}
	if !strings.Contains(out, "^~~~~~~") {
		t.Errorf("missing caret underline in %q", out)
	}
}

func TestRenderNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("lib.lm", []byte("fn f() {}\nfn f() {}\n"))

	d := diag.NewError(diag.SemaDuplicateDeclaration,
		source.Span{File: id, Start: 13, End: 14},
		"'f' is already declared").
		WithNote(source.Span{File: id, Start: 3, End: 4}, "first declared here")

	out := NewRenderer(false, 80).Render(fs, d)
	if !strings.Contains(out, "note: lib.lm:1:4: first declared here") {
		t.Errorf("missing note in %q", out)
	}
}

func TestSummary(t *testing.T) {
	r := NewRenderer(false, 80)
	if got := r.Summary(0, 0, 0); got != "no issues found\n" {
		t.Errorf("clean summary = %q", got)
	}
	got := r.Summary(2, 1, 3)
	for _, want := range []string{"2 error(s)", "1 warning(s)", "3 hint(s)"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary %q missing %q", got, want)
		}
	}
}

func TestTruncateNarrowWidth(t *testing.T) {
	long := strings.Repeat("x", 60)
	got := truncate(long, 20)
	if len(got) > 20 {
		t.Errorf("truncated to %d columns: %q", len(got), got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
}
