// Package corpus reads the flat keyword corpus: line i describes keyword i as
// "<ignored>,<doc>,<doc>,...". Any malformed line aborts the read.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/docset"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/fileio"
)

// Record is one parsed corpus line.
type Record struct {
	Keyword int
	DocIDs  []string
}

// LineError reports the zero-based corpus line that could not be parsed.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("corpus line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() []error {
	return []error{apperrors.ErrMalformedCorpus, e.Err}
}

var (
	errQuoted     = errors.New("quoted fields are not supported")
	errWhitespace = errors.New("document id contains whitespace")
)

// Options controls parsing.
type Options struct {
	// ValidateDocID, when set, must accept every document id.
	ValidateDocID func(string) error
	MaxLineBytes  int
}

// OptionsFor derives parsing options from the generator config.
func OptionsFor(cfg config.GenerateConfig) Options {
	opts := Options{MaxLineBytes: cfg.MaxLineBytes}
	if cfg.DocIDEncoding == config.DocIDHex {
		opts.ValidateDocID = func(id string) error {
			_, err := docset.ParseID(id)
			return err
		}
	}
	return opts
}

// ParseLine parses line n. The first field is ignored and empty fields are
// dropped; duplicates are kept and collapse in the index.
func ParseLine(n int, line string, opts Options) (Record, error) {
	if strings.ContainsRune(line, '"') {
		return Record{}, &LineError{Line: n, Err: errQuoted}
	}
	_, rest, _ := strings.Cut(strings.TrimSpace(line), docset.Separator)
	docs := docset.Tokens(rest)
	for _, doc := range docs {
		if strings.ContainsFunc(doc, unicode.IsSpace) {
			return Record{}, &LineError{Line: n, Err: fmt.Errorf("%w: %q", errWhitespace, doc)}
		}
		if opts.ValidateDocID != nil {
			if err := opts.ValidateDocID(doc); err != nil {
				return Record{}, &LineError{Line: n, Err: err}
			}
		}
	}
	return Record{Keyword: n, DocIDs: docs}, nil
}

// Read parses every line of r in order and hands each record to fn.
func Read(r io.Reader, opts Options, fn func(Record) error) error {
	scanner := fileio.NewScanner(r, opts.MaxLineBytes)
	n := 0
	for scanner.Scan() {
		rec, err := ParseLine(n, scanner.Text(), opts)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return &LineError{Line: n, Err: err}
	}
	return nil
}

// ReadFile is Read over a (possibly compressed) file.
func ReadFile(path string, opts Options, fn func(Record) error) error {
	rc, err := fileio.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	return Read(rc, opts, fn)
}
