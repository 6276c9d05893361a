// Package ui renders diagnostics and summaries for terminal output.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"loom/internal/diag"
	"loom/internal/source"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	pathStyle    = lipgloss.NewStyle().Bold(true)
	codeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	caretStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Renderer formats diagnostics. With Color disabled every style collapses to
// plain text; Width bounds excerpt lines for narrow terminals.
type Renderer struct {
	Color bool
	Width int
}

// NewRenderer returns a renderer with an 80-column fallback width.
func NewRenderer(colorEnabled bool, width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{Color: colorEnabled, Width: width}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.Color {
		return text
	}
	return s.Render(text)
}

func severityStyle(sev diag.Severity) lipgloss.Style {
	switch sev {
	case diag.SevError:
		return errorStyle
	case diag.SevWarning:
		return warningStyle
	case diag.SevHint:
		return hintStyle
	default:
		return infoStyle
	}
}

func severityLabel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	case diag.SevHint:
		return "hint"
	default:
		return "info"
	}
}

// Render formats one diagnostic with its source excerpt and notes.
func (r *Renderer) Render(fs *source.FileSet, d diag.Diagnostic) string {
	var b strings.Builder
	file := fs.Get(d.Primary.File)
	pos := file.Position(d.Primary.Start)

	label := r.style(severityStyle(d.Severity), severityLabel(d.Severity))
	location := r.style(pathStyle, fmt.Sprintf("%s:%d:%d", file.Path, pos.Line, pos.Col))
	key := d.IgnoreKey()
	b.WriteString(fmt.Sprintf("%s %s %s: %s\n", location, label, r.style(codeStyle, "["+key+"]"), d.Message))

	b.WriteString(r.excerpt(file, d.Primary))
	for _, note := range d.Notes {
		noteFile := fs.Get(note.Span.File)
		notePos := noteFile.Position(note.Span.Start)
		b.WriteString(r.style(noteStyle,
			fmt.Sprintf("  note: %s:%d:%d: %s\n", noteFile.Path, notePos.Line, notePos.Col, note.Msg)))
	}
	return b.String()
}

// excerpt shows the first line of the span with a caret underline.
func (r *Renderer) excerpt(file *source.File, span source.Span) string {
	pos := file.Position(span.Start)
	line := file.Line(pos.Line)
	if line == "" {
		return ""
	}
	text := truncate(strings.ReplaceAll(line, "\t", "    "), r.Width-8)

	underlineLen := int(span.Len())
	lineRemainder := len(line) - int(pos.Col) + 1
	if underlineLen > lineRemainder {
		underlineLen = lineRemainder
	}
	if underlineLen < 1 {
		underlineLen = 1
	}
	prefix := strings.Repeat(" ", displayWidth(line[:pos.Col-1]))
	caret := "^" + strings.Repeat("~", underlineLen-1)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %4d | %s\n", pos.Line, text))
	b.WriteString(fmt.Sprintf("       | %s%s\n", prefix, r.style(caretStyle, caret)))
	return b.String()
}

// Summary renders the closing count line for one run.
func (r *Renderer) Summary(errors, warnings, hints int) string {
	if errors == 0 && warnings == 0 && hints == 0 {
		return r.style(hintStyle, "no issues found") + "\n"
	}
	parts := make([]string, 0, 3)
	if errors > 0 {
		parts = append(parts, r.style(errorStyle, fmt.Sprintf("%d error(s)", errors)))
	}
	if warnings > 0 {
		parts = append(parts, r.style(warningStyle, fmt.Sprintf("%d warning(s)", warnings)))
	}
	if hints > 0 {
		parts = append(parts, r.style(hintStyle, fmt.Sprintf("%d hint(s)", hints)))
	}
	return strings.Join(parts, ", ") + "\n"
}

func displayWidth(s string) int {
	return runewidth.StringWidth(strings.ReplaceAll(s, "\t", "    "))
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
