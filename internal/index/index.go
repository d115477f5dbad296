// Package index holds both directions of the keyword/document relation built
// from a corpus and enumerates the keyword pairs worth querying.
package index

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/corpus"
)

// Pair is an unordered keyword pair stored canonically with A < B.
type Pair struct {
	A int
	B int
}

// NewPair canonicalizes (a, b) so that the smaller id comes first.
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) String() string {
	return fmt.Sprintf("%d,%d", p.A, p.B)
}

func comparePairs(x, y Pair) int {
	if c := cmp.Compare(x.A, y.A); c != 0 {
		return c
	}
	return cmp.Compare(x.B, y.B)
}

// Index maps keyword -> posting list and document -> keywords. It is built
// once per run and is not safe for concurrent mutation.
type Index struct {
	postings    []map[string]struct{}
	docKeywords map[string]*roaring.Bitmap
}

func New() *Index {
	return &Index{
		docKeywords: make(map[string]*roaring.Bitmap),
	}
}

// Add records that keyword contains every id in docIDs. Duplicates collapse.
func (x *Index) Add(keyword int, docIDs []string) {
	for len(x.postings) <= keyword {
		x.postings = append(x.postings, make(map[string]struct{}))
	}
	posting := x.postings[keyword]
	for _, doc := range docIDs {
		posting[doc] = struct{}{}
		kws, ok := x.docKeywords[doc]
		if !ok {
			kws = roaring.New()
			x.docKeywords[doc] = kws
		}
		kws.Add(uint32(keyword))
	}
}

// Build reads a corpus file and returns the fully built index.
func Build(path string, opts corpus.Options) (*Index, error) {
	x := New()
	err := corpus.ReadFile(path, opts, func(r corpus.Record) error {
		x.Add(r.Keyword, r.DocIDs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building index from %s: %w", path, err)
	}
	return x, nil
}

func (x *Index) KeywordCount() int { return len(x.postings) }

func (x *Index) DocumentCount() int { return len(x.docKeywords) }

// PostingSize returns the number of distinct documents for keyword, or 0 for
// an unknown keyword.
func (x *Index) PostingSize(keyword int) int {
	if keyword < 0 || keyword >= len(x.postings) {
		return 0
	}
	return len(x.postings[keyword])
}

// Postings returns the sorted posting list of keyword.
func (x *Index) Postings(keyword int) []string {
	if keyword < 0 || keyword >= len(x.postings) {
		return nil
	}
	docs := make([]string, 0, len(x.postings[keyword]))
	for doc := range x.postings[keyword] {
		docs = append(docs, doc)
	}
	slices.Sort(docs)
	return docs
}

// Keywords returns the sorted keyword ids whose posting list contains doc.
func (x *Index) Keywords(doc string) []int {
	kws, ok := x.docKeywords[doc]
	if !ok {
		return nil
	}
	out := make([]int, 0, kws.GetCardinality())
	it := kws.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Intersect returns the sorted documents shared by keywords a and b. The
// shorter posting list drives the scan.
func (x *Index) Intersect(a, b int) []string {
	if a < 0 || b < 0 || a >= len(x.postings) || b >= len(x.postings) {
		return nil
	}
	short, long := x.postings[a], x.postings[b]
	if len(long) < len(short) {
		short, long = long, short
	}
	var out []string
	for doc := range short {
		if _, ok := long[doc]; ok {
			out = append(out, doc)
		}
	}
	slices.Sort(out)
	return out
}

// IsValid reports whether p is canonical, names two distinct keywords with
// different posting sizes, and has a non-empty intersection.
func (x *Index) IsValid(p Pair) bool {
	if p.A >= p.B || p.A < 0 || p.B >= len(x.postings) {
		return false
	}
	if x.PostingSize(p.A) == x.PostingSize(p.B) {
		return false
	}
	short, long := x.postings[p.A], x.postings[p.B]
	if len(long) < len(short) {
		short, long = long, short
	}
	for doc := range short {
		if _, ok := long[doc]; ok {
			return true
		}
	}
	return false
}

// ValidPairs enumerates every pair of keywords that co-occur in at least one
// document and whose posting lists differ in size. Enumeration is driven by
// the document -> keywords direction, so each pair has a non-empty
// intersection by construction. The result is deduplicated and sorted.
func (x *Index) ValidPairs() []Pair {
	seen := make(map[Pair]struct{})
	for _, kws := range x.docKeywords {
		ids := kws.ToArray()
		for i := 0; i < len(ids); i++ {
			sizeA := len(x.postings[ids[i]])
			for j := i + 1; j < len(ids); j++ {
				if sizeA == len(x.postings[ids[j]]) {
					continue
				}
				seen[NewPair(int(ids[i]), int(ids[j]))] = struct{}{}
			}
		}
	}
	pairs := make([]Pair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, comparePairs)
	return pairs
}
