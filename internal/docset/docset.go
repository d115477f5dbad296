// Package docset is the single codec for a line that encodes a set of
// document identifiers: comma separated tokens, empty tokens ignored. The
// test generator writes ground truth with Format and the evaluator reads both
// ground truth and candidate output with Parse.
package docset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
)

// Separator delimits document identifiers within one line.
const Separator = ","

// TokenError reports a token that is not a base-16 integer.
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("invalid document id %q: %v", e.Token, e.Err)
}

func (e *TokenError) Unwrap() error { return apperrors.ErrInvalidToken }

// Set is an immutable set of numeric document identifiers.
type Set struct {
	bm *roaring64.Bitmap
}

// New returns a set holding ids.
func New(ids ...uint64) Set {
	return Set{bm: roaring64.BitmapOf(ids...)}
}

func (s Set) Len() int {
	if s.bm == nil {
		return 0
	}
	return int(s.bm.GetCardinality())
}

func (s Set) Contains(id uint64) bool {
	return s.bm != nil && s.bm.Contains(id)
}

// IDs returns the members in ascending order.
func (s Set) IDs() []uint64 {
	if s.bm == nil {
		return nil
	}
	return s.bm.ToArray()
}

// Equal reports whether both sets have exactly the same members.
func (s Set) Equal(o Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	return slices.Equal(s.IDs(), o.IDs())
}

// Hex renders the members in ascending numeric order as 0x-prefixed
// lowercase hex strings.
func (s Set) Hex() []string {
	ids := s.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "0x" + strconv.FormatUint(id, 16)
	}
	return out
}

// Tokens splits a line into its non-empty tokens. Surrounding whitespace and
// the line terminator are dropped.
func Tokens(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := strings.Split(line, Separator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseID decodes one base-16 token. An optional 0x prefix is accepted.
func ParseID(token string) (uint64, error) {
	digits := strings.TrimSpace(token)
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits = digits[2:]
	}
	id, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, &TokenError{Token: token, Err: err}
	}
	return id, nil
}

// Parse decodes a line into a set. Order and duplicates are irrelevant; an
// empty line is the empty set. The first undecodable token aborts the line
// with a *TokenError.
func Parse(line string) (Set, error) {
	bm := roaring64.New()
	for _, tok := range Tokens(line) {
		id, err := ParseID(tok)
		if err != nil {
			return Set{}, err
		}
		bm.Add(id)
	}
	return Set{bm: bm}, nil
}

// Format joins document identifiers in their natural (lexicographic) order,
// without a trailing separator. ids is not modified.
func Format(ids []string) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return strings.Join(sorted, Separator)
}
