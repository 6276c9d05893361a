package sema

import (
	"strings"

	"loom/internal/ast"
	"loom/internal/diag"
	"loom/internal/source"
)

// IgnoreEntry is one code or rule name mentioned by a suppression comment.
type IgnoreEntry struct {
	// Key is the lower-cased diagnostic code or lint rule name.
	Key  string
	Span source.Span
	// Line is the 1-based line the entry suppresses, 0 for whole-file
	// entries.
	Line uint32
}

// IgnoreInfo is the parsed suppression state of one file. It is computed
// once per file version and shared by filtering and validation.
type IgnoreInfo struct {
	byLine map[uint32][]IgnoreEntry
	file   []IgnoreEntry
}

// Empty reports whether the file carries no suppressions at all.
func (info *IgnoreInfo) Empty() bool {
	return info == nil || (len(info.byLine) == 0 && len(info.file) == 0)
}

// Entries returns every entry, whole-file first, for validation.
func (info *IgnoreInfo) Entries() []IgnoreEntry {
	if info == nil {
		return nil
	}
	out := append([]IgnoreEntry(nil), info.file...)
	for _, entries := range info.byLine {
		out = append(out, entries...)
	}
	return out
}

// ParseIgnores extracts `ignore:` and `ignore_for_file:` comments. A leading
// comment (alone on its line) suppresses the next line; a trailing comment
// suppresses its own line.
func ParseIgnores(file *source.File, comments []*ast.Comment) *IgnoreInfo {
	info := &IgnoreInfo{byLine: map[uint32][]IgnoreEntry{}}
	for _, c := range comments {
		text := strings.TrimSpace(c.Text)
		switch {
		case strings.HasPrefix(text, "ignore_for_file:"):
			keys := strings.TrimPrefix(text, "ignore_for_file:")
			for _, key := range splitKeys(keys) {
				info.file = append(info.file, IgnoreEntry{Key: key, Span: c.Span()})
			}
		case strings.HasPrefix(text, "ignore:"):
			keys := strings.TrimPrefix(text, "ignore:")
			line := targetLine(file, c)
			for _, key := range splitKeys(keys) {
				entry := IgnoreEntry{Key: key, Span: c.Span(), Line: line}
				info.byLine[line] = append(info.byLine[line], entry)
			}
		}
	}
	return info
}

func splitKeys(s string) []string {
	var keys []string
	for _, part := range strings.Split(s, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// targetLine decides which line an ignore comment governs: its own when code
// precedes it on the line, the next otherwise.
func targetLine(file *source.File, c *ast.Comment) uint32 {
	line := file.LineOf(c.Span().Start)
	lineStart := file.LineStarts[line-1]
	prefix := string(file.Content[lineStart:c.Span().Start])
	if strings.TrimSpace(prefix) == "" {
		return line + 1
	}
	return line
}

// FilterIgnored drops suppressed diagnostics. Pure: the input slice is never
// mutated and no state is touched, so the result is reproducible from the
// diagnostics and the file's suppression comments alone. Unignorable keys
// never match.
func FilterIgnored(file *source.File, info *IgnoreInfo, diags []diag.Diagnostic, unignorable map[string]struct{}) []diag.Diagnostic {
	if info.Empty() || len(diags) == 0 {
		return diags
	}
	kept := make([]diag.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if suppressed(file, info, d, unignorable) {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func suppressed(file *source.File, info *IgnoreInfo, d diag.Diagnostic, unignorable map[string]struct{}) bool {
	key := strings.ToLower(d.IgnoreKey())
	if _, blocked := unignorable[key]; blocked {
		return false
	}
	for _, entry := range info.file {
		if entry.Key == key {
			return true
		}
	}
	if d.Primary.File != file.ID {
		return false
	}
	line := file.LineOf(d.Primary.Start)
	for _, entry := range info.byLine[line] {
		if entry.Key == key {
			return true
		}
	}
	return false
}

// validateIgnores reports suppression comments that name unignorable codes
// and comments that match none of the file's diagnostics. Runs against the
// pre-filter diagnostic list so a suppressed diagnostic still counts as a
// match.
func validateIgnores(file *source.File, info *IgnoreInfo, diags []diag.Diagnostic, unignorable map[string]struct{}, reporter diag.Reporter) {
	if info.Empty() {
		return
	}
	keysAt := map[uint32]map[string]bool{}
	fileKeys := map[string]bool{}
	for _, d := range diags {
		// Validation diagnostics themselves never satisfy an ignore.
		if d.Code == diag.IgnUnnecessaryIgnore || d.Code == diag.IgnUnignorableCode {
			continue
		}
		key := strings.ToLower(d.IgnoreKey())
		fileKeys[key] = true
		if d.Primary.File != file.ID {
			continue
		}
		line := file.LineOf(d.Primary.Start)
		if keysAt[line] == nil {
			keysAt[line] = map[string]bool{}
		}
		keysAt[line][key] = true
	}
	for _, entry := range info.file {
		validateEntry(entry, fileKeys[entry.Key], unignorable, reporter)
	}
	for _, entries := range info.byLine {
		for _, entry := range entries {
			validateEntry(entry, keysAt[entry.Line][entry.Key], unignorable, reporter)
		}
	}
}

func validateEntry(entry IgnoreEntry, matched bool, unignorable map[string]struct{}, reporter diag.Reporter) {
	if _, blocked := unignorable[entry.Key]; blocked {
		diag.ReportWarning(reporter, diag.IgnUnignorableCode, entry.Span,
			"'"+entry.Key+"' cannot be suppressed with an ignore comment").
			Emit()
		return
	}
	if !matched {
		diag.ReportHint(reporter, diag.IgnUnnecessaryIgnore, entry.Span,
			"no diagnostic matches '"+entry.Key+"' here").
			Emit()
	}
}
