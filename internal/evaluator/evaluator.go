// Package evaluator scores a candidate output stream against ground truth.
// Lines are correlated by position; each line is parsed into a document set
// and compared independently, so one bad line never stops the rest.
package evaluator

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/docset"
	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/fileio"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/logger"
)

// Verdict is the outcome for one aligned line pair.
type Verdict int

const (
	Correct Verdict = iota
	Incorrect
	// Invalid lines could not be parsed on at least one side and count as
	// incorrect.
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Mismatch is one incorrect line with both sides rendered as sorted hex.
type Mismatch struct {
	Line     int
	Verdict  Verdict
	Expected []string
	Actual   []string
}

// Options controls alignment.
type Options struct {
	// StrictLineCount turns a line-count mismatch into an error instead of
	// scoring the common prefix.
	StrictLineCount bool
	// MaxLineBytes bounds one input line; <= 0 means
	// fileio.DefaultMaxLineBytes.
	MaxLineBytes int
}

// Evaluator compares expected and actual line streams.
type Evaluator struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options) *Evaluator {
	return &Evaluator{
		opts:   opts,
		logger: logger.WithComponent("evaluator"),
	}
}

// Evaluate scores actual against expected line by line. Without strict
// alignment the comparison covers min(len(expected), len(actual)) lines and
// the report records both raw counts.
func (e *Evaluator) Evaluate(expected, actual []string) (*Report, error) {
	rep := &Report{
		ExpectedLines: len(expected),
		ActualLines:   len(actual),
	}
	if rep.Truncated() {
		if e.opts.StrictLineCount {
			return nil, apperrors.Newf(apperrors.ErrLineCountMismatch, apperrors.ExitFailure,
				"expected %d lines, actual %d lines", len(expected), len(actual))
		}
		e.logger.Warn("line count mismatch, scoring common prefix",
			"expected_lines", len(expected),
			"actual_lines", len(actual),
		)
	}
	rep.Total = min(len(expected), len(actual))
	for i := 0; i < rep.Total; i++ {
		v, m := compareLine(i, expected[i], actual[i])
		switch v {
		case Correct:
			rep.Correct++
			continue
		case Invalid:
			rep.Invalid++
		}
		rep.Mismatches = append(rep.Mismatches, m)
	}
	e.logger.Info("evaluation finished",
		"total", rep.Total,
		"correct", rep.Correct,
		"invalid", rep.Invalid,
	)
	return rep, nil
}

// EvaluateFiles reads both files (compressed inputs allowed) and evaluates
// them.
func (e *Evaluator) EvaluateFiles(expectedPath, actualPath string) (*Report, error) {
	expected, err := fileio.ReadLines(expectedPath, e.opts.MaxLineBytes)
	if err != nil {
		return nil, fmt.Errorf("reading expected output: %w", err)
	}
	actual, err := fileio.ReadLines(actualPath, e.opts.MaxLineBytes)
	if err != nil {
		return nil, fmt.Errorf("reading actual output: %w", err)
	}
	return e.Evaluate(expected, actual)
}

func compareLine(n int, expectedLine, actualLine string) (Verdict, Mismatch) {
	exp, expErr := docset.Parse(expectedLine)
	act, actErr := docset.Parse(actualLine)
	if expErr == nil && actErr == nil && exp.Equal(act) {
		return Correct, Mismatch{}
	}
	m := Mismatch{
		Line:     n,
		Verdict:  Incorrect,
		Expected: render(exp, expErr),
		Actual:   render(act, actErr),
	}
	if expErr != nil || actErr != nil {
		m.Verdict = Invalid
	}
	return m.Verdict, m
}

func render(s docset.Set, err error) []string {
	if err != nil {
		return []string{fmt.Sprintf("<invalid: %v>", err)}
	}
	return s.Hex()
}
