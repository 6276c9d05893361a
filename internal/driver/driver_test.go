package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"loom/internal/diag"
	"loom/internal/options"
	"loom/internal/sema"
)

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLibraryLinksParts(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "geometry.lm", "library geometry;\npart \"shapes.lm\";\nfn area(r) { return r * r; }\n")
	writeFile(t, dir, "shapes.lm", "part of geometry;\nfn scaled(r) { return area(r) * 2; }\n")

	d := New(nil)
	got, err := d.LoadLibrary(lib)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "geometry" {
		t.Errorf("library name = %q", got.Name)
	}
	if len(got.Parts) != 1 || got.Parts[0].Unit == nil {
		t.Fatalf("part not linked: %+v", got.Parts)
	}
	if len(got.Units()) != 2 {
		t.Errorf("expected 2 units, got %d", len(got.Units()))
	}
}

func TestLoadLibraryReportsUnreadablePart(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "app.lm", "library app;\npart \"piece.lm\";\nfn main() { return 0; }\n")
	// A directory at the part's path exists but cannot be read as a file.
	if err := os.Mkdir(filepath.Join(dir, "piece.lm"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := New(nil).LoadLibrary(lib)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Parts) != 1 || got.Parts[0].Unit != nil {
		t.Fatalf("part should stay unlinked: %+v", got.Parts)
	}
	found := false
	for _, item := range got.Defining.Bag.Items() {
		if item.Code == diag.IOLoadFileError {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a load diagnostic, got %v", got.Defining.Bag.Items())
	}
}

func TestAnalyzeFileCleanLibrary(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "app.lm", "library app;\nfn main() { return 0; }\n")

	res, err := New(nil).AnalyzeFile(lib)
	if err != nil {
		t.Fatal(err)
	}
	if res.HasErrors() {
		t.Errorf("clean library reported errors: %v", res.Files)
	}
}

func TestAnalyzeFileRedirectsFromPart(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.lm", "library app;\npart \"piece.lm\";\nfn main() { return run(); }\n")
	piece := writeFile(t, dir, "piece.lm", "part of \"app.lm\";\nfn run() { return 1; }\n")

	res, err := New(nil).AnalyzeFile(piece)
	if err != nil {
		t.Fatal(err)
	}
	if got := filepath.Base(res.Library.Defining.File.Path); got != "app.lm" {
		t.Errorf("redirect landed on %q", got)
	}
	if len(res.Files) != 2 {
		t.Errorf("expected both units analyzed, got %d", len(res.Files))
	}
}

func TestAnalyzeFilePartByNameErrors(t *testing.T) {
	dir := t.TempDir()
	piece := writeFile(t, dir, "piece.lm", "part of app;\nfn run() { return 1; }\n")

	if _, err := New(nil).AnalyzeFile(piece); err == nil {
		t.Fatal("expected an error for a part named only by library")
	}
}

func TestDiscoverFilesSkipsParts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.lm", "library app;\npart \"piece.lm\";\n")
	writeFile(t, dir, "piece.lm", "part of app;\n")
	writeFile(t, dir, "nested/util.lm", "library util;\n")
	writeFile(t, dir, ".hidden/skipped.lm", "library skipped;\n")
	writeFile(t, dir, "notes.txt", "not a source file")

	paths, err := New(nil).DiscoverFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("discovered %v", paths)
	}
	if filepath.Base(paths[0]) != "app.lm" || filepath.Base(paths[1]) != "util.lm" {
		t.Errorf("unexpected discovery order: %v", paths)
	}
}

func TestWorkspaceTargetStates(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "util.lm", "library util;\nfn helper() {}\n")

	d := New(nil)
	info, state := d.ws.Target(filepath.ToSlash(lib))
	if state != sema.TargetExists || info == nil {
		t.Fatalf("existing file: state=%v info=%v", state, info)
	}
	if info.LibraryName != "util" || len(info.Names) != 1 || info.Names[0] != "helper" {
		t.Errorf("target info = %+v", info)
	}

	if _, state := d.ws.Target(filepath.ToSlash(filepath.Join(dir, "gone.lm"))); state != sema.TargetMissing {
		t.Errorf("missing file: state=%v", state)
	}
	if _, state := d.ws.Target(filepath.ToSlash(filepath.Join(dir, "gen.g.lm"))); state != sema.TargetNotGenerated {
		t.Errorf("missing generated file: state=%v", state)
	}
}

func TestResolveURIRejectsUnusable(t *testing.T) {
	d := New(nil)
	for _, uri := range []string{"", "http://example.com/x.lm", "a\\b.lm", "../../escape.lm"} {
		if _, ok := d.ws.ResolveURI("proj/lib.lm", uri); ok {
			t.Errorf("uri %q accepted", uri)
		}
	}
	if path, ok := d.ws.ResolveURI("proj/lib.lm", "sub/part.lm"); !ok || path != "proj/sub/part.lm" {
		t.Errorf("relative uri resolved to %q, %v", path, ok)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := Digest{1, 2, 3}
	put := &Payload{
		Schema:  cacheSchemaVersion,
		Library: "app",
		Files: []cachedFile{{
			Path:  "app.lm",
			Diags: []cachedDiag{{Severity: 3, Code: 3001, Message: "unresolved name", Start: 10, End: 17}},
		}},
	}
	if err := cache.Put(key, put); err != nil {
		t.Fatal(err)
	}

	var got Payload
	hit, err := cache.Get(key, &got)
	if err != nil || !hit {
		t.Fatalf("get: hit=%v err=%v", hit, err)
	}
	if got.Library != "app" || len(got.Files) != 1 || len(got.Files[0].Diags) != 1 {
		t.Errorf("payload = %+v", got)
	}
	if got.Files[0].Diags[0].Message != "unresolved name" {
		t.Errorf("diag = %+v", got.Files[0].Diags[0])
	}

	if hit, _ := cache.Get(Digest{9}, &got); hit {
		t.Error("unexpected hit for an unknown key")
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if hit, _ := cache.Get(key, &got); hit {
		t.Error("entry survived DropAll")
	}
}

func TestAnalyzeFileReusesCachedDiagnostics(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "app.lm", "library app;\nfn main() { missing(); }\n")
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := New(nil)
	first.SetCache(cache)
	res1, err := first.AnalyzeFile(lib)
	if err != nil {
		t.Fatal(err)
	}
	if n := countCode(res1, diag.SemaUnresolvedName); n != 1 {
		t.Fatalf("expected the unresolved name, got %v", res1.Files)
	}

	// A fresh driver with the same cache replays the stored diagnostics.
	second := New(nil)
	second.SetCache(cache)
	res2, err := second.AnalyzeFile(lib)
	if err != nil {
		t.Fatal(err)
	}
	if n := countCode(res2, diag.SemaUnresolvedName); n != 1 {
		t.Fatalf("cached run lost the diagnostic: %v", res2.Files)
	}
	d1 := res1.Files[0].Diagnostics[0]
	d2 := res2.Files[0].Diagnostics[0]
	if d1.Message != d2.Message || d1.Primary.Start != d2.Primary.Start {
		t.Errorf("cached diagnostic drifted: %+v vs %+v", d1, d2)
	}

	// Editing the file changes the key and forces a re-analysis.
	writeFile(t, dir, "app.lm", "library app;\nfn main() { return 0; }\n")
	third := New(nil)
	third.SetCache(cache)
	res3, err := third.AnalyzeFile(lib)
	if err != nil {
		t.Fatal(err)
	}
	if n := countCode(res3, diag.SemaUnresolvedName); n != 0 {
		t.Errorf("stale cache entry replayed: %v", res3.Files)
	}
}

func TestOptionsFingerprintDeterministic(t *testing.T) {
	a := options.Default()
	a.Declared = map[string]string{"io": "native", "ui": "web"}
	a.Analysis.Lints = []string{"b", "a"}

	b := options.Default()
	b.Declared = map[string]string{"ui": "web", "io": "native"}
	b.Analysis.Lints = []string{"a", "b"}

	if optionsFingerprint(a) != optionsFingerprint(b) {
		t.Error("fingerprint depends on declaration order")
	}
	b.Analysis.SDK = "3.0"
	if optionsFingerprint(a) == optionsFingerprint(b) {
		t.Error("fingerprint ignores the SDK version")
	}
}

func TestAnalyzeAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.lm", "library one;\nfn main() { return 0; }\n")
	writeFile(t, dir, "two.lm", "library two;\nfn main() { missing(); }\n")

	d := New(nil)
	paths, err := d.DiscoverFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	results, err := d.AnalyzeAll(context.Background(), paths, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.Path, r.Err)
		}
	}
	if results[0].Result.HasErrors() {
		t.Error("one.lm should be clean")
	}
	if !results[1].Result.HasErrors() {
		t.Error("two.lm should report the unresolved name")
	}
}

func countCode(res *sema.Result, code diag.Code) int {
	n := 0
	for _, f := range res.Files {
		for _, d := range f.Diagnostics {
			if d.Code == code {
				n++
			}
		}
	}
	return n
}
