package options

import "testing"

func TestParseFull(t *testing.T) {
	data := []byte(`
[analysis]
hints = false
lints = ["avoid_empty_blocks", "upper_case_constants"]
sdk = "2.3"
unignorable = ["SEM3001"]
max_diagnostics = 64
timings = true

[declared]
platform = "web"
native = "true"
`)
	opts, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Analysis.Hints {
		t.Error("hints should be disabled")
	}
	if len(opts.Analysis.Lints) != 2 || opts.Analysis.Lints[0] != "avoid_empty_blocks" {
		t.Errorf("lints = %v", opts.Analysis.Lints)
	}
	if maj, min := opts.SDKVersion(); maj != 2 || min != 3 {
		t.Errorf("sdk = %d.%d", maj, min)
	}
	if opts.Analysis.MaxDiagnostics != 64 {
		t.Errorf("max diagnostics = %d", opts.Analysis.MaxDiagnostics)
	}
	if opts.Declared["platform"] != "web" {
		t.Errorf("declared = %v", opts.Declared)
	}
	set := opts.UnignorableSet()
	if _, ok := set["sem3001"]; !ok {
		t.Errorf("unignorable set = %v", set)
	}
}

func TestParseDefaults(t *testing.T) {
	opts, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !opts.Analysis.Hints {
		t.Error("hints should default to enabled")
	}
	if maj, min := opts.SDKVersion(); maj != 2 || min != 0 {
		t.Errorf("default sdk = %d.%d", maj, min)
	}
	if opts.Analysis.MaxDiagnostics != 256 {
		t.Errorf("default max diagnostics = %d", opts.Analysis.MaxDiagnostics)
	}
	if opts.UnignorableSet() != nil {
		t.Error("expected nil unignorable set")
	}
}

func TestParseVersionFallback(t *testing.T) {
	if maj, min := ParseVersion("garbage", 2, 0); maj != 2 || min != 0 {
		t.Errorf("fallback = %d.%d", maj, min)
	}
	if maj, min := ParseVersion("1.7", 2, 0); maj != 1 || min != 7 {
		t.Errorf("parsed = %d.%d", maj, min)
	}
}
