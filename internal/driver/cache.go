package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"loom/internal/diag"
	"loom/internal/options"
	"loom/internal/sema"
	"loom/internal/source"
)

// Increment when the payload format changes.
const cacheSchemaVersion uint16 = 1

// Digest identifies cached analysis results. It covers the content hashes of
// every file of a library plus the options fingerprint, so any edit or
// configuration change misses.
type Digest [sha256.Size]byte

// DiskCache stores per-library analysis results on disk. Safe for concurrent
// use; a nil cache is a valid no-op.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// cachedNote is a diagnostic note with its file referenced by path, since
// file IDs do not survive across runs.
type cachedNote struct {
	Path       string
	Start, End uint32
	Msg        string
}

type cachedDiag struct {
	Severity   uint8
	Code       uint16
	Rule       string
	Message    string
	Start, End uint32
	Notes      []cachedNote
}

type cachedFile struct {
	Path  string
	Hash  Digest
	Diags []cachedDiag
}

// Payload is one library's cached analysis: the final filtered diagnostics
// per file. Trees are cheap to reparse, so only diagnostics are stored.
type Payload struct {
	Schema  uint16
	Library string
	Files   []cachedFile
}

// OpenDiskCache initializes a cache under the XDG cache directory.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes a cache at an explicit directory. Tests use
// this to avoid touching the user's cache.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "libs", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload, replacing any previous entry
// atomically.
func (c *DiskCache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. The first return is false on a clean miss.
func (c *DiskCache) Get(key Digest, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// libraryKey computes the cache key for a library under the given options.
func libraryKey(lib *sema.Library, opts *options.Options) Digest {
	h := sha256.New()
	fmt.Fprintf(h, "schema=%d\n", cacheSchemaVersion)
	h.Write([]byte(optionsFingerprint(opts)))
	for _, u := range lib.Units() {
		fmt.Fprintf(h, "%s\n", u.File.Path)
		h.Write(u.File.Hash[:])
	}
	var key Digest
	h.Sum(key[:0])
	return key
}

// optionsFingerprint folds every option that can change analysis output into
// a stable string. Map entries are sorted so the fingerprint is
// deterministic.
func optionsFingerprint(opts *options.Options) string {
	lints := append([]string(nil), opts.Analysis.Lints...)
	sort.Strings(lints)
	unignorable := append([]string(nil), opts.Analysis.Unignorable...)
	sort.Strings(unignorable)
	declared := make([]string, 0, len(opts.Declared))
	for name, value := range opts.Declared {
		declared = append(declared, name+"="+value)
	}
	sort.Strings(declared)
	return fmt.Sprintf("sdk=%s hints=%t max=%d lints=%v unignorable=%v declared=%v",
		opts.Analysis.SDK, opts.Analysis.Hints, opts.Analysis.MaxDiagnostics,
		lints, unignorable, declared)
}

// payloadFor converts an analysis result into its cacheable form.
func payloadFor(fs *source.FileSet, res *sema.Result) *Payload {
	payload := &Payload{Schema: cacheSchemaVersion, Library: res.Library.Name}
	for _, f := range res.Files {
		cf := cachedFile{Path: f.Unit.File.Path, Hash: Digest(f.Unit.File.Hash)}
		for _, d := range f.Diagnostics {
			cd := cachedDiag{
				Severity: uint8(d.Severity),
				Code:     uint16(d.Code),
				Rule:     d.Rule,
				Message:  d.Message,
				Start:    d.Primary.Start,
				End:      d.Primary.End,
			}
			for _, note := range d.Notes {
				cd.Notes = append(cd.Notes, cachedNote{
					Path:  fs.Get(note.Span.File).Path,
					Start: note.Span.Start,
					End:   note.Span.End,
					Msg:   note.Msg,
				})
			}
			cf.Diags = append(cf.Diags, cd)
		}
		payload.Files = append(payload.Files, cf)
	}
	return payload
}

// applyPayload replays cached diagnostics into the freshly parsed units,
// replacing whatever the parser reported (the cached list already includes
// it). Returns false when the payload does not line up with the library,
// which forces a normal analysis.
func applyPayload(fs *source.FileSet, lib *sema.Library, payload *Payload) (*sema.Result, bool) {
	units := lib.Units()
	if len(payload.Files) != len(units) {
		return nil, false
	}
	byPath := make(map[string]*sema.Unit, len(units))
	for _, u := range units {
		byPath[u.File.Path] = u
	}
	res := &sema.Result{Library: lib}
	for _, cf := range payload.Files {
		u, ok := byPath[cf.Path]
		if !ok || Digest(u.File.Hash) != cf.Hash {
			return nil, false
		}
		diags := make([]diag.Diagnostic, 0, len(cf.Diags))
		for _, cd := range cf.Diags {
			d := diag.Diagnostic{
				Severity: diag.Severity(cd.Severity),
				Code:     diag.Code(cd.Code),
				Rule:     cd.Rule,
				Message:  cd.Message,
				Primary:  source.Span{File: u.File.ID, Start: cd.Start, End: cd.End},
			}
			for _, note := range cd.Notes {
				noteFile, ok := fs.GetByPath(note.Path)
				if !ok {
					continue
				}
				d.Notes = append(d.Notes, diag.Note{
					Span: source.Span{File: noteFile.ID, Start: note.Start, End: note.End},
					Msg:  note.Msg,
				})
			}
			diags = append(diags, d)
		}
		u.Bag.Replace(diags)
	}
	for _, u := range units {
		res.Files = append(res.Files, sema.FileResult{Unit: u, Diagnostics: u.Bag.Items()})
	}
	return res, true
}
