package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"loom/internal/diag"
	"loom/internal/driver"
	"loom/internal/options"
	"loom/internal/sema"
	"loom/internal/source"
	"loom/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file.lm|directory>",
	Short: "Analyze a loom library or every library under a directory",
	Long:  `Analyze runs the full semantic pipeline and prints the filtered diagnostics. A directory argument analyzes every library file found under it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("config", "loom.toml", "path to the options file")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers for directory analysis (0=auto)")
	analyzeCmd.Flags().Bool("disk-cache", false, "reuse analysis results across runs")
	analyzeCmd.Flags().StringSlice("lints", nil, "lint rules to enable (overrides the config)")
	analyzeCmd.Flags().Bool("no-hints", false, "disable the hint stage")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	renderer, err := newRenderer(cmd)
	if err != nil {
		return err
	}

	d := driver.New(opts)
	if enableCache, _ := cmd.Flags().GetBool("disk-cache"); enableCache {
		cache, err := driver.OpenDiskCache("loom")
		if err != nil {
			return fmt.Errorf("open disk cache: %w", err)
		}
		d.SetCache(cache)
	}

	path := args[0]
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}

	errors, warnings, hints := 0, 0, 0
	if !st.IsDir() {
		res, err := d.AnalyzeFile(path)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		printResult(renderer, d.FileSet(), res, &errors, &warnings, &hints)
		if opts.Analysis.Timings && !quiet {
			if timer := d.Analyzer().Timer(); timer != nil {
				fmt.Fprint(os.Stdout, timer.Summary())
			}
			timings := d.Analyzer().RuleTimings()
			rules := make([]string, 0, len(timings))
			for rule := range timings {
				rules = append(rules, rule)
			}
			sort.Strings(rules)
			for _, rule := range rules {
				fmt.Fprintf(os.Stdout, "  rule %-19s %7.2f ms\n", rule, float64(timings[rule].Microseconds())/1000)
			}
		}
	} else {
		jobs, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return err
		}
		paths, err := d.DiscoverFiles(path)
		if err != nil {
			return fmt.Errorf("discover files: %w", err)
		}
		results, err := d.AnalyzeAll(cmd.Context(), paths, jobs)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", r.Path, r.Err)
				errors++
				continue
			}
			printResult(renderer, r.FileSet, r.Result, &errors, &warnings, &hints)
		}
	}

	if !quiet {
		fmt.Fprint(os.Stdout, renderer.Summary(errors, warnings, hints))
	}
	if errors > 0 {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // diagnostics already printed
	}
	return nil
}

func printResult(r *ui.Renderer, fs *source.FileSet, res *sema.Result, errors, warnings, hints *int) {
	for _, f := range res.Files {
		for _, d := range f.Diagnostics {
			switch d.Severity {
			case diag.SevError:
				*errors++
			case diag.SevWarning:
				*warnings++
			case diag.SevHint:
				*hints++
			}
			fmt.Fprint(os.Stdout, r.Render(fs, d))
		}
	}
}

// loadOptions reads the config file and layers the CLI overrides on top.
func loadOptions(cmd *cobra.Command) (*options.Options, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	opts, err := options.Load(configPath)
	if err != nil {
		return nil, err
	}
	if maxDiags, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err == nil && maxDiags > 0 {
		opts.Analysis.MaxDiagnostics = maxDiags
	}
	if timings, err := cmd.Root().PersistentFlags().GetBool("timings"); err == nil && timings {
		opts.Analysis.Timings = true
	}
	if lints, err := cmd.Flags().GetStringSlice("lints"); err == nil && len(lints) > 0 {
		opts.Analysis.Lints = lints
	}
	if noHints, err := cmd.Flags().GetBool("no-hints"); err == nil && noHints {
		opts.Analysis.Hints = false
	}
	return opts, nil
}

func newRenderer(cmd *cobra.Command) (*ui.Renderer, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return nil, err
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
	return ui.NewRenderer(useColor, terminalWidth(os.Stdout)), nil
}
