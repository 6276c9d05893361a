package sema

import (
	"time"

	"loom/internal/diag"
	"loom/internal/lint"
	"loom/internal/observ"
	"loom/internal/options"
	"loom/internal/source"
)

// Analyzer drives the full semantic pipeline for libraries sharing one
// workspace and option set. Per-file derived state (suppression comments)
// is cached by file identity; a new file version gets a new FileID and
// therefore a fresh entry. An Analyzer is used from one goroutine; batch
// runs give each worker its own.
type Analyzer struct {
	ws         Workspace
	opts       *options.Options
	timer      *observ.Timer
	lintRunner *lint.Runner

	ignores     map[source.FileID]*IgnoreInfo
	ruleTimings map[string]time.Duration
}

// NewAnalyzer creates an analyzer over the workspace with the given options.
// nil options mean the defaults.
func NewAnalyzer(ws Workspace, opts *options.Options) *Analyzer {
	if opts == nil {
		opts = options.Default()
	}
	a := &Analyzer{
		ws:          ws,
		opts:        opts,
		ignores:     map[source.FileID]*IgnoreInfo{},
		ruleTimings: map[string]time.Duration{},
	}
	if opts.Analysis.Timings {
		a.timer = observ.NewTimer()
	}
	a.lintRunner = &lint.Runner{
		Rules:           lint.Enabled(opts.Analysis.Lints),
		PropagatePanics: opts.Analysis.PropagateLintPanics,
	}
	if opts.Analysis.Timings {
		a.lintRunner.OnTiming = a.recordRuleTiming
	}
	return a
}

func (a *Analyzer) recordRuleTiming(rule string, elapsed time.Duration) {
	a.ruleTimings[rule] += elapsed
}

// Timer returns the phase timer, nil unless timings are enabled.
func (a *Analyzer) Timer() *observ.Timer { return a.timer }

// RuleTimings returns the accumulated per-rule lint wall time.
func (a *Analyzer) RuleTimings() map[string]time.Duration {
	out := make(map[string]time.Duration, len(a.ruleTimings))
	for rule, d := range a.ruleTimings {
		out[rule] = d
	}
	return out
}

// Options returns the analyzer's options.
func (a *Analyzer) Options() *options.Options { return a.opts }

// FileResult pairs a unit with its final, filtered diagnostics.
type FileResult struct {
	Unit        *Unit
	Diagnostics []diag.Diagnostic
}

// Result is the outcome of analyzing one library.
type Result struct {
	Library *Library
	Files   []FileResult
}

// HasErrors reports whether any file kept an error after filtering.
func (r *Result) HasErrors() bool {
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			if d.Severity >= diag.SevError {
				return true
			}
		}
	}
	return false
}

// Analyze runs the complete pipeline over the library: directive resolution,
// two-pass name and type resolution, constant evaluation, the ordered
// diagnostic stages, and the terminal ignore filter.
func (a *Analyzer) Analyze(lib *Library) *Result {
	sdkMajor, sdkMinor := a.opts.SDKVersion()
	rs := newResolution(lib, a.ws, sdkMajor, sdkMinor)

	p := &pipeline{timer: a.timer}
	p.add("directives", func() {
		resolver := &DirectiveResolver{Workspace: a.ws, Declared: a.opts.Declared}
		resolver.Resolve(lib)
	})
	p.add("resolve", func() {
		rs.bindDeclarations()
		for _, u := range lib.Units() {
			rs.resolveUnit(u)
		}
	})
	p.add("constants", func() {
		newConstEvaluator(rs).run()
	})
	if a.opts.Analysis.Hints {
		p.add("hints", func() {
			h := newHintPass(rs, sdkMajor, sdkMinor)
			for _, u := range lib.Units() {
				h.run(u)
			}
		})
	}
	if len(a.lintRunner.Rules) > 0 {
		p.add("lints", func() {
			for _, u := range lib.Units() {
				a.lintRunner.Run(u.Tree, u.File, u.Reporter())
			}
		})
	}
	p.add("versions", func() {
		checkVersionConsistency(lib)
	})
	p.add("ignores", func() {
		a.finishUnits(lib)
	})
	p.run()

	result := &Result{Library: lib}
	for _, u := range lib.Units() {
		result.Files = append(result.Files, FileResult{
			Unit:        u,
			Diagnostics: u.Bag.Items(),
		})
	}
	return result
}

// finishUnits validates ignore comments against the accumulated diagnostics
// and then applies the filter as the terminal step.
func (a *Analyzer) finishUnits(lib *Library) {
	unignorable := a.opts.UnignorableSet()
	for _, u := range lib.Units() {
		info := a.ignoreInfo(u)
		u.Bag.Sort()
		u.Bag.Dedup()
		validateIgnores(u.File, info, u.Bag.Items(), unignorable, u.Reporter())
		u.Bag.Sort()
		u.Bag.Replace(FilterIgnored(u.File, info, u.Bag.Items(), unignorable))
	}
}

// ignoreInfo returns the unit's parsed suppression comments, computing them
// on first use.
func (a *Analyzer) ignoreInfo(u *Unit) *IgnoreInfo {
	if info, ok := a.ignores[u.File.ID]; ok {
		return info
	}
	info := ParseIgnores(u.File, u.Tree.Comments)
	a.ignores[u.File.ID] = info
	return info
}
