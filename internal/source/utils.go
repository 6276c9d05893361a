package source

import (
	"bytes"
	"fmt"
	"path/filepath"

	"fortio.org/safecast"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func removeBOM(content []byte) ([]byte, bool) {
	if bytes.HasPrefix(content, utf8BOM) {
		return content[len(utf8BOM):], true
	}
	return content, false
}

func normalizeCRLF(content []byte) ([]byte, bool) {
	if !bytes.Contains(content, []byte("\r\n")) {
		return content, false
	}
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")), true
}

// buildLineStarts records the byte offset of every line start. Offset 0 is
// always a line start, and every byte after a '\n' starts a new line.
func buildLineStarts(content []byte) []uint32 {
	starts := make([]uint32, 1, 16)
	for i, b := range content {
		if b == '\n' {
			offset, err := safecast.Conv[uint32](i + 1)
			if err != nil {
				panic(fmt.Errorf("line offset overflow: %w", err))
			}
			starts = append(starts, offset)
		}
	}
	return starts
}

func normalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// RelativePath rebases path onto baseDir.
func RelativePath(path, baseDir string) (string, error) {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// AbsolutePath resolves path to an absolute form.
func AbsolutePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// BaseName returns the final path element.
func BaseName(path string) string {
	return filepath.Base(path)
}
