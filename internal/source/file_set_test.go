package source

import (
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("lib.lm", []byte("library a;"), 0)
	if id1 != 0 {
		t.Errorf("expected first FileID to be 0, got %d", id1)
	}
	id2 := fs.Add("lib.lm", []byte("library b;"), 0)
	if id2 != 1 {
		t.Errorf("expected second FileID to be 1, got %d", id2)
	}

	latest, ok := fs.GetByPath("lib.lm")
	if !ok {
		t.Fatal("expected file to exist after Add")
	}
	if latest.ID != id2 {
		t.Errorf("expected latest ID %d, got %d", id2, latest.ID)
	}
	if string(fs.Get(id1).Content) != "library a;" {
		t.Errorf("old version content changed: %q", fs.Get(id1).Content)
	}
}

func TestLineStarts(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.lm", []byte("a\nbb\n"))
	file := fs.Get(id)

	expected := []uint32{0, 2, 5}
	if len(file.LineStarts) != len(expected) {
		t.Fatalf("expected %d line starts, got %d", len(expected), len(file.LineStarts))
	}
	for i, want := range expected {
		if file.LineStarts[i] != want {
			t.Errorf("LineStarts[%d] = %d, want %d", i, file.LineStarts[i], want)
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("expected FileVirtual flag to be set")
	}
}

func TestLineOfAndPosition(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.lm", []byte("one\ntwo\nthree"))
	file := fs.Get(id)

	cases := []struct {
		offset uint32
		line   uint32
		col    uint32
	}{
		{0, 1, 1},
		{2, 1, 3},
		{4, 2, 1},
		{6, 2, 3},
		{8, 3, 1},
		{12, 3, 5},
	}
	for _, tc := range cases {
		pos := file.Position(tc.offset)
		if pos.Line != tc.line || pos.Col != tc.col {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", tc.offset, pos.Line, pos.Col, tc.line, tc.col)
		}
	}
}

func TestLineText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.lm", []byte("one\ntwo\nthree\n"))
	file := fs.Get(id)

	if got := file.Line(1); got != "one" {
		t.Errorf("Line(1) = %q", got)
	}
	if got := file.Line(3); got != "three" {
		t.Errorf("Line(3) = %q", got)
	}
	if got := file.Line(99); got != "" {
		t.Errorf("Line(99) = %q, want empty", got)
	}
}

func TestResolveSpan(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.lm", []byte("ab\ncd\n"))
	start, end := fs.Resolve(Span{File: id, Start: 3, End: 5})
	if start.Line != 2 || start.Col != 1 {
		t.Errorf("start = %d:%d, want 2:1", start.Line, start.Col)
	}
	if end.Line != 2 || end.Col != 3 {
		t.Errorf("end = %d:%d, want 2:3", end.Line, end.Col)
	}
}
