package evaluator

import (
	"fmt"
	"io"
	"strings"
)

// Report aggregates one evaluation run.
type Report struct {
	ExpectedLines int
	ActualLines   int
	Total         int
	Correct       int
	Invalid       int
	Mismatches    []Mismatch
}

// Truncated reports whether the inputs had different line counts.
func (r *Report) Truncated() bool {
	return r.ExpectedLines != r.ActualLines
}

// Incorrect counts every line that did not match, invalid ones included.
func (r *Report) Incorrect() int {
	return r.Total - r.Correct
}

// Accuracy returns 100*correct/total. ok is false when nothing was scored.
func (r *Report) Accuracy() (pct float64, ok bool) {
	if r.Total == 0 {
		return 0, false
	}
	return 100 * float64(r.Correct) / float64(r.Total), true
}

// Render writes the human-readable report.
func (r *Report) Render(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Expected lines: %d\n", r.ExpectedLines)
	fmt.Fprintf(&b, "Actual lines:   %d\n", r.ActualLines)
	if r.Truncated() {
		fmt.Fprintf(&b, "WARNING: line count mismatch (expected %d, actual %d); only the first %d lines were scored\n",
			r.ExpectedLines, r.ActualLines, r.Total)
	}

	pct, ok := r.Accuracy()
	if !ok {
		b.WriteString("Correct: 0/0 (no data)\n")
		b.WriteString("No data: there were no lines to compare.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "Correct: %d/%d (%.2f%%)\n", r.Correct, r.Total, pct)
	if r.Invalid > 0 {
		fmt.Fprintf(&b, "Invalid lines: %d\n", r.Invalid)
	}

	if len(r.Mismatches) == 0 {
		b.WriteString("All outputs matched the expected results!\n")
	} else {
		b.WriteString("\nIncorrect Cases:\n")
		for _, m := range r.Mismatches {
			fmt.Fprintf(&b, "Line %d:\n", m.Line)
			fmt.Fprintf(&b, "  Expected: %s\n", strings.Join(m.Expected, ", "))
			fmt.Fprintf(&b, "  Actual  : %s\n", strings.Join(m.Actual, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
