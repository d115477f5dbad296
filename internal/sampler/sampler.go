// Package sampler draws keyword pairs uniformly without replacement and turns
// them into test cases (query + ground truth) written as two aligned files.
package sampler

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/docset"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/index"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/fileio"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/logger"
)

// TestCase is a sampled pair with its expected answer.
type TestCase struct {
	Pair     index.Pair
	Expected []string
}

// Result summarizes one generation run.
type Result struct {
	ValidPairs int
	Requested  int
	Drawn      int
	Cases      []TestCase
}

// NewRand returns a PCG-backed source for seed. Equal seeds give equal
// samples over equal inputs.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample returns min(n, len(pairs)) distinct elements of pairs chosen
// uniformly at random. pairs is not modified.
func Sample(pairs []index.Pair, n int, rng *rand.Rand) []index.Pair {
	if n > len(pairs) {
		n = len(pairs)
	}
	if n <= 0 {
		return nil
	}
	pool := slices.Clone(pairs)
	// Partial Fisher-Yates: the first n slots end up holding the sample.
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// Generator samples test cases from a built index.
type Generator struct {
	idx    *index.Index
	rng    *rand.Rand
	logger *slog.Logger
}

func NewGenerator(idx *index.Index, rng *rand.Rand) *Generator {
	return &Generator{
		idx:    idx,
		rng:    rng,
		logger: logger.WithComponent("sampler"),
	}
}

// Generate enumerates valid pairs, samples up to n of them and materializes
// each intersection. A pair whose intersection turns out empty is skipped and
// does not count as emitted.
func (g *Generator) Generate(n int) Result {
	pairs := g.idx.ValidPairs()
	drawn := Sample(pairs, n, g.rng)
	res := Result{
		ValidPairs: len(pairs),
		Requested:  n,
		Drawn:      len(drawn),
		Cases:      make([]TestCase, 0, len(drawn)),
	}
	if len(drawn) < n {
		g.logger.Warn("fewer valid pairs than requested",
			"requested", n,
			"available", len(pairs),
		)
	}
	for _, p := range drawn {
		common := g.idx.Intersect(p.A, p.B)
		if len(common) == 0 {
			g.logger.Warn("skipping pair with empty intersection", "pair", p.String())
			continue
		}
		res.Cases = append(res.Cases, TestCase{Pair: p, Expected: common})
	}
	g.logger.Info("test cases generated",
		"valid_pairs", res.ValidPairs,
		"requested", res.Requested,
		"drawn", res.Drawn,
		"emitted", len(res.Cases),
	)
	return res
}

// Write stores cases as a query file and a ground-truth file, line i of
// one aligned with line i of the other. Either both files are replaced or
// neither is; on failure any previous outputs at those paths are kept.
func Write(queryPath, groundTruthPath string, cases []TestCase) error {
	queries, err := fileio.Create(queryPath)
	if err != nil {
		return err
	}
	defer queries.Abort()
	truth, err := fileio.Create(groundTruthPath)
	if err != nil {
		return err
	}
	defer truth.Abort()

	for _, tc := range cases {
		if _, err := queries.WriteString(tc.Pair.String() + "\n"); err != nil {
			return fmt.Errorf("writing %s: %w", queries.Path(), err)
		}
		if _, err := truth.WriteString(docset.Format(tc.Expected) + "\n"); err != nil {
			return fmt.Errorf("writing %s: %w", truth.Path(), err)
		}
	}
	return fileio.CommitAll(truth, queries)
}

// ParseQuery decodes an "a,b" query line.
func ParseQuery(line string) (index.Pair, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(line), ",")
	if !ok {
		return index.Pair{}, fmt.Errorf("query %q: expected two keyword ids", line)
	}
	ka, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return index.Pair{}, fmt.Errorf("query %q: %w", line, err)
	}
	kb, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return index.Pair{}, fmt.Errorf("query %q: %w", line, err)
	}
	return index.Pair{A: ka, B: kb}, nil
}

// ReadQueries loads a query file written by Write.
func ReadQueries(path string) ([]index.Pair, error) {
	lines, err := fileio.ReadLines(path, 0)
	if err != nil {
		return nil, err
	}
	pairs := make([]index.Pair, 0, len(lines))
	for i, line := range lines {
		p, err := ParseQuery(line)
		if err != nil {
			return nil, fmt.Errorf("line %d of %s: %w", i, path, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
