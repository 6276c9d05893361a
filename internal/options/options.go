// Package options loads analysis configuration from loom.toml. The analyzer
// treats the loaded struct as immutable for the lifetime of one analysis.
package options

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Options is the root of a loom.toml file.
type Options struct {
	Analysis Analysis `toml:"analysis"`
	// Declared maps configuration-variable names to their values for
	// conditional directive selection. Absent variables select nothing.
	Declared map[string]string `toml:"declared"`
}

// Analysis configures which diagnostic stages run and how.
type Analysis struct {
	// Hints toggles the hint stage. Verify, lints, and ignore validation are
	// not affected.
	Hints bool `toml:"hints"`
	// Lints lists enabled lint rule names. Empty disables the lint stage.
	Lints []string `toml:"lints"`
	// SDK is the "MAJOR.MINOR" language version analysis assumes for files
	// without a version override.
	SDK string `toml:"sdk"`
	// Unignorable lists diagnostic codes or rule names that ignore comments
	// must not suppress.
	Unignorable []string `toml:"unignorable"`
	// MaxDiagnostics bounds the per-file diagnostic count.
	MaxDiagnostics int `toml:"max_diagnostics"`
	// Timings enables per-phase and per-rule timing collection.
	Timings bool `toml:"timings"`
	// PropagateLintPanics disables the per-rule panic recovery. Used by
	// tests that want a failing rule to fail loudly.
	PropagateLintPanics bool `toml:"propagate_lint_panics"`
}

// Default returns the options used when no loom.toml is present.
func Default() *Options {
	return &Options{
		Analysis: Analysis{
			Hints:          true,
			SDK:            "2.0",
			MaxDiagnostics: 256,
		},
		Declared: map[string]string{},
	}
}

// Load reads and decodes path. A missing file yields the defaults.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read options: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data over the defaults.
func Parse(data []byte) (*Options, error) {
	opts := Default()
	if err := toml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	if opts.Declared == nil {
		opts.Declared = map[string]string{}
	}
	if opts.Analysis.MaxDiagnostics <= 0 {
		opts.Analysis.MaxDiagnostics = 256
	}
	return opts, nil
}

// SDKVersion parses the configured SDK version. Malformed values fall back
// to the default.
func (o *Options) SDKVersion() (major, minor int) {
	return ParseVersion(o.Analysis.SDK, 2, 0)
}

// ParseVersion parses "MAJOR.MINOR", returning the fallback on any defect.
func ParseVersion(s string, defMajor, defMinor int) (major, minor int) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 2)
	if len(parts) != 2 {
		return defMajor, defMinor
	}
	maj, err1 := strconv.Atoi(parts[0])
	min, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || maj < 0 || min < 0 {
		return defMajor, defMinor
	}
	return maj, min
}

// UnignorableSet returns the unignorable entries as a lower-cased set.
func (o *Options) UnignorableSet() map[string]struct{} {
	if len(o.Analysis.Unignorable) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(o.Analysis.Unignorable))
	for _, key := range o.Analysis.Unignorable {
		set[strings.ToLower(strings.TrimSpace(key))] = struct{}{}
	}
	return set
}
