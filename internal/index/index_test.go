package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
)

// K0={A,B}, K1={A,C}, K2={A,B,C}
func threeKeywords() *Index {
	x := New()
	x.Add(0, []string{"A", "B"})
	x.Add(1, []string{"A", "C"})
	x.Add(2, []string{"A", "B", "C"})
	return x
}

func TestAddBuildsBothDirections(t *testing.T) {
	x := threeKeywords()
	assert.Equal(t, 3, x.KeywordCount())
	assert.Equal(t, 3, x.DocumentCount())
	assert.Equal(t, []string{"A", "B", "C"}, x.Postings(2))
	assert.Equal(t, []int{0, 1, 2}, x.Keywords("A"))
	assert.Equal(t, []int{0, 2}, x.Keywords("B"))
	assert.Nil(t, x.Keywords("Z"))
	assert.Nil(t, x.Postings(9))
	assert.Equal(t, 0, x.PostingSize(-1))
}

func TestAddCollapsesDuplicates(t *testing.T) {
	x := New()
	x.Add(0, []string{"a", "a", "b"})
	x.Add(2, []string{"b"})
	assert.Equal(t, 2, x.PostingSize(0))
	assert.Equal(t, 0, x.PostingSize(1), "skipped keyword still occupies its position")
	assert.Equal(t, 3, x.KeywordCount())
}

func TestValidPairs(t *testing.T) {
	x := threeKeywords()
	pairs := x.ValidPairs()
	assert.Equal(t, []Pair{{0, 2}, {1, 2}}, pairs)
	for _, p := range pairs {
		assert.True(t, x.IsValid(p), p.String())
		assert.NotEqual(t, x.PostingSize(p.A), x.PostingSize(p.B))
		assert.NotEmpty(t, x.Intersect(p.A, p.B))
	}
	assert.False(t, x.IsValid(Pair{0, 1}), "equal posting sizes")
	assert.False(t, x.IsValid(Pair{2, 0}), "non canonical")
}

func TestValidPairsSkipsDisjointKeywords(t *testing.T) {
	x := New()
	x.Add(0, []string{"a"})
	x.Add(1, []string{"b", "c"})
	x.Add(2, []string{"c", "d", "e"})
	assert.Equal(t, []Pair{{1, 2}}, x.ValidPairs())
	assert.False(t, x.IsValid(Pair{0, 1}), "sizes differ but nothing shared")
}

func TestValidPairsDeduplicatesAcrossDocuments(t *testing.T) {
	x := New()
	x.Add(0, []string{"a", "b", "c"})
	x.Add(1, []string{"a", "b"})
	assert.Equal(t, []Pair{{0, 1}}, x.ValidPairs())
}

func TestIntersect(t *testing.T) {
	x := threeKeywords()
	assert.Equal(t, []string{"A", "B"}, x.Intersect(0, 2))
	assert.Equal(t, []string{"A", "C"}, x.Intersect(2, 1))
	assert.Equal(t, []string{"A"}, x.Intersect(0, 1))
	assert.Nil(t, x.Intersect(0, 7))
}

func TestNewPair(t *testing.T) {
	assert.Equal(t, Pair{3, 9}, NewPair(9, 3))
	assert.Equal(t, "3,9", NewPair(3, 9).String())
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db6k.dat")
	require.NoError(t, os.WriteFile(path, []byte("9,A,B\n9,A,C\n9,A,B,C\n"), 0o644))

	x, err := Build(path, corpus.Options{})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{0, 2}, {1, 2}}, x.ValidPairs())

	bad := filepath.Join(dir, "bad.dat")
	require.NoError(t, os.WriteFile(bad, []byte("9,A\n9,\"B\"\n"), 0o644))
	_, err = Build(bad, corpus.Options{})
	assert.ErrorIs(t, err, apperrors.ErrMalformedCorpus)
}
