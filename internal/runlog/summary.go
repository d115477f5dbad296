// Package runlog records a summary of every generator and evaluator run and
// fans it out to the optional sinks (Postgres history, Redis latest-run
// cache, Kafka event stream).
package runlog

import (
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/evaluator"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/sampler"
)

type Kind string

const (
	KindGenerate Kind = "generate"
	KindEvaluate Kind = "evaluate"
)

// Summary is the persisted record of one run.
type Summary struct {
	RunID      string           `json:"run_id"`
	Kind       Kind             `json:"kind"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Generate   *GenerateSummary `json:"generate,omitempty"`
	Evaluate   *EvaluateSummary `json:"evaluate,omitempty"`
}

type GenerateSummary struct {
	CorpusPath string `json:"corpus_path"`
	Seed       uint64 `json:"seed"`
	Keywords   int    `json:"keywords"`
	Documents  int    `json:"documents"`
	ValidPairs int    `json:"valid_pairs"`
	Requested  int    `json:"requested"`
	Drawn      int    `json:"drawn"`
	Emitted    int    `json:"emitted"`
}

type EvaluateSummary struct {
	ExpectedPath  string `json:"expected_path"`
	ActualPath    string `json:"actual_path"`
	ExpectedLines int    `json:"expected_lines"`
	ActualLines   int    `json:"actual_lines"`
	Total         int    `json:"total"`
	Correct       int    `json:"correct"`
	Invalid       int    `json:"invalid"`
	// Accuracy is nil when no line was scored.
	Accuracy      *float64 `json:"accuracy,omitempty"`
	Truncated     bool     `json:"truncated"`
	MismatchLines []int    `json:"mismatch_lines,omitempty"`
}

func newRunID(kind Kind, at time.Time) string {
	return fmt.Sprintf("%s-%d", kind, at.UnixNano())
}

// NewGenerateSummary captures a finished generation run.
func NewGenerateSummary(started time.Time, corpusPath string, seed uint64, keywords, documents int, res sampler.Result) Summary {
	return Summary{
		RunID:      newRunID(KindGenerate, started),
		Kind:       KindGenerate,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Generate: &GenerateSummary{
			CorpusPath: corpusPath,
			Seed:       seed,
			Keywords:   keywords,
			Documents:  documents,
			ValidPairs: res.ValidPairs,
			Requested:  res.Requested,
			Drawn:      res.Drawn,
			Emitted:    len(res.Cases),
		},
	}
}

// NewEvaluateSummary captures a finished evaluation run.
func NewEvaluateSummary(started time.Time, expectedPath, actualPath string, rep *evaluator.Report) Summary {
	es := &EvaluateSummary{
		ExpectedPath:  expectedPath,
		ActualPath:    actualPath,
		ExpectedLines: rep.ExpectedLines,
		ActualLines:   rep.ActualLines,
		Total:         rep.Total,
		Correct:       rep.Correct,
		Invalid:       rep.Invalid,
		Truncated:     rep.Truncated(),
	}
	if pct, ok := rep.Accuracy(); ok {
		es.Accuracy = &pct
	}
	for _, m := range rep.Mismatches {
		es.MismatchLines = append(es.MismatchLines, m.Line)
	}
	return Summary{
		RunID:      newRunID(KindEvaluate, started),
		Kind:       KindEvaluate,
		StartedAt:  started.UTC(),
		FinishedAt: time.Now().UTC(),
		Evaluate:   es,
	}
}
