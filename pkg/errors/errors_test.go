package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitFailure},
		{"app error", New(ErrLineCountMismatch, ExitMismatches, "3 vs 2"), ExitMismatches},
		{"wrapped app error", fmt.Errorf("evaluating: %w", Newf(ErrIncorrectLines, 7, "%d lines", 3)), 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", Newf(ErrInvalidConfig, ExitFailure, "sample size %d", -1))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.EqualError(t, err, "outer: invalid config: sample size -1")
}
