// Package fileio opens harness inputs with transparent decompression and
// writes outputs atomically (temp file + rename) so a failed run never leaves
// a partial file behind.
package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading. Files ending in .gz, .zst or .lz4 are
// decompressed on the fly.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		return &readCloser{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, f.Close}}, nil
	case ".lz4":
		return &readCloser{Reader: lz4.NewReader(f), closers: []func() error{f.Close}}, nil
	default:
		return f, nil
	}
}

// DefaultMaxLineBytes bounds a single line when the caller passes no limit.
// Ground-truth lines can be as long as the longest posting list in the corpus.
const DefaultMaxLineBytes = 16 << 20

// rename is swapped out in tests.
var rename = os.Rename

// ReadLines returns every line of path without its terminator. A trailing
// newline at EOF does not produce an extra empty line. maxLineBytes <= 0
// means DefaultMaxLineBytes.
func ReadLines(path string, maxLineBytes int) ([]string, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var lines []string
	scanner := NewScanner(rc, maxLineBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

// NewScanner returns a line scanner that accepts lines up to maxLineBytes,
// or DefaultMaxLineBytes when maxLineBytes <= 0.
func NewScanner(r io.Reader, maxLineBytes int) *bufio.Scanner {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	scanner := bufio.NewScanner(r)
	if maxLineBytes > bufio.MaxScanTokenSize {
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	}
	return scanner
}

// AtomicFile buffers writes into a temp file next to its final path. Nothing
// is visible at the final path until Commit succeeds.
type AtomicFile struct {
	*bufio.Writer
	f         *os.File
	finalPath string
	backup    string
	synced    bool
	done      bool
}

// Create opens a temp file in the directory of path.
func Create(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	return &AtomicFile{Writer: bufio.NewWriter(f), f: f, finalPath: path}, nil
}

// Path returns the final destination of the file.
func (a *AtomicFile) Path() string { return a.finalPath }

// Commit flushes, syncs and renames the temp file onto the final path.
func (a *AtomicFile) Commit() error {
	if a.done {
		return fmt.Errorf("%s already finalized", a.finalPath)
	}
	if err := a.sync(); err != nil {
		a.Abort()
		return err
	}
	if err := rename(a.f.Name(), a.finalPath); err != nil {
		a.Abort()
		return fmt.Errorf("renaming %s: %w", a.finalPath, err)
	}
	a.done = true
	return nil
}

// CommitAll finalizes files as a group: either every file lands on its final
// path or every final path keeps what it held before. All files are flushed
// and synced before the first rename; a rename failure restores the files
// already replaced from their backups.
func CommitAll(files ...*AtomicFile) error {
	abortAll := func() {
		for _, f := range files {
			f.Abort()
		}
	}
	for _, f := range files {
		if f.done {
			abortAll()
			return fmt.Errorf("%s already finalized", f.finalPath)
		}
		if err := f.sync(); err != nil {
			abortAll()
			return err
		}
	}
	for i, f := range files {
		if err := f.swap(); err != nil {
			for _, prev := range files[:i] {
				prev.restore()
			}
			abortAll()
			return err
		}
	}
	for _, f := range files {
		f.done = true
		if f.backup != "" {
			os.Remove(f.backup)
		}
	}
	return nil
}

func (a *AtomicFile) sync() error {
	if a.synced {
		return nil
	}
	if err := a.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", a.finalPath, err)
	}
	if err := a.f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", a.finalPath, err)
	}
	if err := a.f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", a.finalPath, err)
	}
	a.synced = true
	return nil
}

// swap moves an existing regular file at the final path aside, then renames
// the temp file into place.
func (a *AtomicFile) swap() error {
	info, err := os.Lstat(a.finalPath)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("renaming %s: destination is a directory", a.finalPath)
	case err == nil:
		a.backup = a.f.Name() + ".bak"
		if err := rename(a.finalPath, a.backup); err != nil {
			a.backup = ""
			return fmt.Errorf("backing up %s: %w", a.finalPath, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("checking %s: %w", a.finalPath, err)
	}
	if err := rename(a.f.Name(), a.finalPath); err != nil {
		a.restore()
		return fmt.Errorf("renaming %s: %w", a.finalPath, err)
	}
	return nil
}

// restore undoes swap: the previous file comes back, or the final path is
// removed if nothing was there.
func (a *AtomicFile) restore() {
	if a.backup == "" {
		os.Remove(a.finalPath)
		return
	}
	rename(a.backup, a.finalPath)
	a.backup = ""
}

// Abort discards the temp file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	if !a.synced {
		a.f.Close()
	}
	os.Remove(a.f.Name())
}
