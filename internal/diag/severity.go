package diag

// Severity orders diagnostics from least to most severe. Comparisons use the
// numeric order (SevError > SevWarning).
type Severity uint8

const (
	SevInfo Severity = iota
	SevHint
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevHint:
		return "hint"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	default:
		return "unknown"
	}
}
