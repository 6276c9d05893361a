package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about how a source file was loaded.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, overlay).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	FileRenormalizedNFC
)

// File captures content and derived metadata for a single source file.
type File struct {
	ID    FileID
	Path  string
	Content []byte
	// LineStarts holds the byte offset of the first character of every line.
	// LineStarts[0] is always 0; length equals the number of lines.
	LineStarts []uint32
	Hash  [32]byte
	Flags FileFlags
}

// LineCol is a human-readable position in a source file (both 1-based).
type LineCol struct {
	Line uint32
	Col  uint32
}
