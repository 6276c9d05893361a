package sema

import (
	"fmt"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/observ"
)

// pipeline runs named stages in a fixed order, timing each one. Stage order
// is the contract of the diagnostic pass runner: verify, hints, lints,
// version consistency, ignore validation, then the terminal filter.
type pipeline struct {
	timer  *observ.Timer
	stages []stage
}

type stage struct {
	name string
	run  func()
}

func (p *pipeline) add(name string, run func()) {
	p.stages = append(p.stages, stage{name: name, run: run})
}

func (p *pipeline) run() {
	for _, s := range p.stages {
		idx := -1
		if p.timer != nil {
			idx = p.timer.Begin(s.name)
		}
		s.run()
		if p.timer != nil {
			p.timer.End(idx, "")
		}
	}
}

// checkVersionConsistency compares each part's language version override
// against the defining file's. Parts inherit the library's version; a
// conflicting override splits the library's semantics and is an error on
// the including directive.
func checkVersionConsistency(lib *Library) {
	reporter := lib.Defining.Reporter()
	libVersion := lib.Defining.Tree.Version
	for _, entry := range lib.Parts {
		if entry.Unit == nil {
			continue
		}
		partVersion := entry.Unit.Tree.Version
		if sameVersion(libVersion, partVersion) {
			continue
		}
		diag.ReportError(reporter, diag.DirLanguageVersionMismatch, entry.Directive.URI.Span(),
			fmt.Sprintf("part %q uses language version %s but the library uses %s",
				entry.Directive.SelectedURI, formatVersion(partVersion), formatVersion(libVersion))).
			Emit()
	}
}

func sameVersion(a, b *ast.LanguageVersion) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Major == b.Major && a.Minor == b.Minor
}

func formatVersion(v *ast.LanguageVersion) string {
	if v == nil {
		return "the default"
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
