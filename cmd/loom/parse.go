package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/diag"
	"loom/internal/parser"
	"loom/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file.lm>",
	Short: "Parse a loom source file and print its structure",
	Long:  `Parse prints the header, directives, and top-level declarations of one file along with any syntax diagnostics. No semantic analysis runs.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	renderer, err := newRenderer(cmd)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	id, err := fs.Load(args[0])
	if err != nil {
		return fmt.Errorf("load file: %w", err)
	}
	file := fs.Get(id)

	bag := diag.NewBag(256)
	tree := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})

	out := cmd.OutOrStdout()
	switch {
	case tree.PartOf != nil && tree.PartOf.IsURI:
		fmt.Fprintf(out, "part of %q\n", tree.PartOf.URI)
	case tree.PartOf != nil:
		fmt.Fprintf(out, "part of %s\n", tree.PartOf.Name)
	case tree.LibraryName != "":
		fmt.Fprintf(out, "library %s\n", tree.LibraryName)
	default:
		fmt.Fprintln(out, "unnamed library")
	}
	if v := tree.Version; v != nil {
		fmt.Fprintf(out, "language version %d.%d\n", v.Major, v.Minor)
	}
	for _, dir := range tree.Directives {
		fmt.Fprintf(out, "  %s %q", dir.Kind, dir.URI.Value)
		if dir.Prefix != "" {
			fmt.Fprintf(out, " as %s", dir.Prefix)
		}
		if len(dir.Configurations) > 0 {
			fmt.Fprintf(out, " (+%d configurations)", len(dir.Configurations))
		}
		fmt.Fprintln(out)
	}
	for _, decl := range tree.Decls {
		pos := file.Position(decl.Span().Start)
		fmt.Fprintf(out, "  %s:%d %s\n", file.Path, pos.Line, decl.DeclName())
	}

	bag.Sort()
	for _, d := range bag.Items() {
		fmt.Fprint(out, renderer.Render(fs, d))
	}
	if bag.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}
