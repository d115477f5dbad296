package evaluator

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/index"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/sampler"
	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
)

func TestEvaluateMixed(t *testing.T) {
	rep, err := New(Options{}).Evaluate([]string{"1,2", "3"}, []string{"2,1", "3,4"})
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.Correct)
	assert.Equal(t, 1, rep.Incorrect())
	pct, ok := rep.Accuracy()
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 1e-9)

	want := []Mismatch{{Line: 1, Verdict: Incorrect, Expected: []string{"0x3"}, Actual: []string{"0x3", "0x4"}}}
	if diff := cmp.Diff(want, rep.Mismatches); diff != "" {
		t.Errorf("Diff: (-want +got)\n%s", diff)
	}

	var out bytes.Buffer
	require.NoError(t, rep.Render(&out))
	assert.Equal(t, `Expected lines: 2
Actual lines:   2
Correct: 1/2 (50.00%)

Incorrect Cases:
Line 1:
  Expected: 0x3
  Actual  : 0x3, 0x4
`, out.String())
}

func TestEvaluateRoundTrip(t *testing.T) {
	expected := []string{"0000000a,0000000b", "0000001f", "", "00000002,00000010"}
	actual := []string{"0000000b,0000000a,", "1f,", "", "0x10,0x2,2"}
	rep, err := New(Options{}).Evaluate(expected, actual)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Correct)
	assert.Empty(t, rep.Mismatches)

	var out bytes.Buffer
	require.NoError(t, rep.Render(&out))
	assert.Contains(t, out.String(), "Correct: 4/4 (100.00%)")
	assert.Contains(t, out.String(), "All outputs matched the expected results!")
	assert.NotContains(t, out.String(), "WARNING")
}

func TestEvaluateTokenOrderDoesNotMatter(t *testing.T) {
	e := New(Options{})
	a, err := e.Evaluate([]string{"1,2,3"}, []string{"3,2,1"})
	require.NoError(t, err)
	b, err := e.Evaluate([]string{"1,2,3"}, []string{"1,2,3"})
	require.NoError(t, err)
	assert.Equal(t, a.Correct, b.Correct)
}

func TestEvaluateTruncates(t *testing.T) {
	rep, err := New(Options{}).Evaluate([]string{"1", "2", "3", "4"}, []string{"1", "5"})
	require.NoError(t, err)
	assert.True(t, rep.Truncated())
	assert.Equal(t, 4, rep.ExpectedLines)
	assert.Equal(t, 2, rep.ActualLines)
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.Correct)

	var out bytes.Buffer
	require.NoError(t, rep.Render(&out))
	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "Expected lines: 4", lines[0])
	assert.Equal(t, "Actual lines:   2", lines[1])
	assert.Equal(t, "WARNING: line count mismatch (expected 4, actual 2); only the first 2 lines were scored", lines[2])
	assert.Equal(t, "Correct: 1/2 (50.00%)", lines[3])
}

func TestEvaluateStrictLineCount(t *testing.T) {
	_, err := New(Options{StrictLineCount: true}).Evaluate([]string{"1", "2"}, []string{"1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLineCountMismatch)

	rep, err := New(Options{StrictLineCount: true}).Evaluate([]string{"1"}, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Correct)
}

func TestEvaluateInvalidTokenIsLocal(t *testing.T) {
	rep, err := New(Options{}).Evaluate(
		[]string{"1", "2", "3"},
		[]string{"1", "zz,2", "3"},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Correct)
	assert.Equal(t, 1, rep.Invalid)
	require.Len(t, rep.Mismatches, 1)
	m := rep.Mismatches[0]
	assert.Equal(t, 1, m.Line)
	assert.Equal(t, Invalid, m.Verdict)
	assert.Equal(t, []string{"0x2"}, m.Expected)
	require.Len(t, m.Actual, 1)
	assert.True(t, strings.HasPrefix(m.Actual[0], "<invalid: "), m.Actual[0])

	var out bytes.Buffer
	require.NoError(t, rep.Render(&out))
	assert.Contains(t, out.String(), "Invalid lines: 1")
}

func TestEvaluateInvalidExpectedLineNeverMatches(t *testing.T) {
	rep, err := New(Options{}).Evaluate([]string{"q"}, []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Correct)
	assert.Equal(t, 1, rep.Invalid)
}

func TestEvaluateNoData(t *testing.T) {
	rep, err := New(Options{}).Evaluate(nil, []string{"1"})
	require.NoError(t, err)
	_, ok := rep.Accuracy()
	assert.False(t, ok)

	var out bytes.Buffer
	require.NoError(t, rep.Render(&out))
	assert.Contains(t, out.String(), "Correct: 0/0 (no data)")
	assert.Contains(t, out.String(), "No data")
	assert.NotContains(t, out.String(), "NaN")
	assert.NotContains(t, out.String(), "All outputs matched")
}

func TestEvaluateFiles(t *testing.T) {
	dir := t.TempDir()
	exp := filepath.Join(dir, "exp_output.txt")
	act := filepath.Join(dir, "res_id.csv")
	require.NoError(t, os.WriteFile(exp, []byte("0000000a,0000000b\n0000000c\n"), 0o644))
	require.NoError(t, os.WriteFile(act, []byte("0000000b,0000000a,\n0000000d,\n"), 0o644))

	rep, err := New(Options{}).EvaluateFiles(exp, act)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.Correct)
	assert.Equal(t, []Mismatch{{Line: 1, Verdict: Incorrect, Expected: []string{"0xc"}, Actual: []string{"0xd"}}}, rep.Mismatches)

	_, err = New(Options{}).EvaluateFiles(exp, filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestEvaluateFilesLongGroundTruthLine(t *testing.T) {
	ids := make([]string, 9000)
	for i := range ids {
		ids[i] = fmt.Sprintf("%08x", i+1)
	}
	idx := index.New()
	idx.Add(0, ids)
	idx.Add(1, append(slices.Clone(ids), "ffffffff"))
	res := sampler.NewGenerator(idx, sampler.NewRand(1)).Generate(1)
	require.Len(t, res.Cases, 1)

	dir := t.TempDir()
	queries := filepath.Join(dir, "input.txt")
	truth := filepath.Join(dir, "exp_output.txt")
	require.NoError(t, sampler.Write(queries, truth, res.Cases))
	info, err := os.Stat(truth)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(64*1024))

	rep, err := New(Options{}).EvaluateFiles(truth, truth)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Total)
	assert.Equal(t, 1, rep.Correct)

	_, err = New(Options{MaxLineBytes: 1024}).EvaluateFiles(truth, truth)
	assert.Error(t, err)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "correct", Correct.String())
	assert.Equal(t, "incorrect", Incorrect.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "verdict(9)", Verdict(9).String())
}
