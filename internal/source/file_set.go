package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sort"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// FileSet manages a collection of source files and resolves spans to
// line/column positions. A FileSet is owned by a single analysis and is not
// safe for concurrent mutation.
type FileSet struct {
	files   []File
	index   map[string]FileID // normalized path -> latest id
	baseDir string
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase creates a FileSet with a base directory for relative paths.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// BaseDir returns the base directory, falling back to the working directory.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fs.baseDir
}

// SetBaseDir sets the base directory for relative paths.
func (fs *FileSet) SetBaseDir(dir string) {
	fs.baseDir = dir
}

// Add stores normalized content, computes line starts and the content hash,
// and returns a fresh FileID. Adding the same path twice creates a new
// version; the path index always points at the latest one.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if !norm.NFC.IsNormal(content) {
		content = norm.NFC.Bytes(content)
		flags |= FileRenormalizedNFC
	}
	hash := sha256.Sum256(content)
	normalizedPath := normalizePath(path)

	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:         id,
		Path:       normalizedPath,
		Content:    content,
		LineStarts: buildLineStarts(content),
		Hash:       hash,
		Flags:      flags,
	})
	fs.index[normalizedPath] = id
	return id
}

// Load reads a file from disk, strips BOM, normalizes CRLF, and calls Add.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file with the FileVirtual flag.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file for the given ID.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// Has reports whether the ID is valid in this set.
func (fs *FileSet) Has(id FileID) bool {
	return int(id) < len(fs.files)
}

// GetByPath returns the latest version of the file at path, if loaded.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fs.index[normalizePath(path)]; ok {
		return &fs.files[id], true
	}
	return nil, false
}

// Len returns the number of stored files.
func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Resolve converts a span into start/end line-column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return f.Position(span.Start), f.Position(span.End)
}

// LineOf returns the 1-based line containing the byte offset.
func (f *File) LineOf(offset uint32) uint32 {
	// First line start past the offset; the offset's line is the one before.
	idx := sort.Search(len(f.LineStarts), func(i int) bool {
		return f.LineStarts[i] > offset
	})
	line, err := safecast.Conv[uint32](idx)
	if err != nil {
		panic(fmt.Errorf("line number overflow: %w", err))
	}
	return line
}

// Position converts a byte offset into a 1-based line/column pair.
func (f *File) Position(offset uint32) LineCol {
	line := f.LineOf(offset)
	start := f.LineStarts[line-1]
	return LineCol{Line: line, Col: offset - start + 1}
}

// Line returns the text of the 1-based line without its terminator, or ""
// when the line does not exist.
func (f *File) Line(lineNum uint32) string {
	if lineNum == 0 || int(lineNum) > len(f.LineStarts) {
		return ""
	}
	start := f.LineStarts[lineNum-1]
	end, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	if int(lineNum) < len(f.LineStarts) {
		end = f.LineStarts[lineNum] - 1 // drop the '\n'
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	return len(f.LineStarts)
}
