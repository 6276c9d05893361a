// Package lint holds the style rule registry and the isolation harness that
// runs enabled rules over a parsed file. Rules see the resolved tree but
// never mutate it; each appends diagnostics through the shared reporter.
package lint

import (
	"fmt"
	"os"
	"sort"
	"time"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/source"
)

// Rule is one style check. Check visits a single file and reports findings
// with the rule's code and name attached.
type Rule interface {
	Name() string
	Code() diag.Code
	Check(tree *ast.File, file *source.File, reporter diag.Reporter)
}

var registry = map[string]Rule{}

// Register adds a rule to the global registry. Duplicate names panic; rule
// registration happens in init functions where a duplicate is a programming
// error.
func Register(r Rule) {
	if _, exists := registry[r.Name()]; exists {
		panic(fmt.Sprintf("lint: duplicate rule %q", r.Name()))
	}
	registry[r.Name()] = r
}

// All returns every registered rule sorted by name.
func All() []Rule {
	rules := make([]Rule, 0, len(registry))
	for _, r := range registry {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name() < rules[j].Name() })
	return rules
}

// Enabled resolves rule names to rules, preserving registry order. Unknown
// names are skipped.
func Enabled(names []string) []Rule {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var rules []Rule
	for _, r := range All() {
		if want[r.Name()] {
			rules = append(rules, r)
		}
	}
	return rules
}

// Runner executes a fixed rule list over files. A panicking rule is recovered
// and skipped for that file unless PropagatePanics is set, so one broken rule
// cannot take down the whole analysis.
type Runner struct {
	Rules           []Rule
	PropagatePanics bool
	// OnTiming, when set, receives the elapsed wall time of every rule run.
	OnTiming func(rule string, elapsed time.Duration)
}

// Run applies every rule to the file in registry order.
func (rn *Runner) Run(tree *ast.File, file *source.File, reporter diag.Reporter) {
	for _, rule := range rn.Rules {
		rn.runOne(rule, tree, file, reporter)
	}
}

func (rn *Runner) runOne(rule Rule, tree *ast.File, file *source.File, reporter diag.Reporter) {
	if !rn.PropagatePanics {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "lint: rule %s panicked: %v\n", rule.Name(), r)
			}
		}()
	}
	start := time.Now()
	rule.Check(tree, file, reporter)
	if rn.OnTiming != nil {
		rn.OnTiming(rule.Name(), time.Since(start))
	}
}

// report emits a lint finding with the rule identity attached.
func report(r Rule, reporter diag.Reporter, span source.Span, msg string) {
	diag.NewReportBuilder(reporter, diag.SevInfo, r.Code(), span, msg).
		WithRule(r.Name()).
		Emit()
}
