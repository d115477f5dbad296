package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/evaluator"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/runlog"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/sampler"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/harness.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitFailure)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		if apperrors.ExitCode(err) != apperrors.ExitMismatches {
			slog.Error("evaluation failed", "error", err)
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

// run scores the configured files and prints the report to out. A completed
// run with incorrect lines returns an error carrying ExitMismatches.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	started := time.Now()
	m := metrics.New()
	ev := cfg.Evaluate

	rep, err := evaluator.New(evaluator.Options{
		StrictLineCount: ev.StrictLineCount,
		MaxLineBytes:    ev.MaxLineBytes,
	}).EvaluateFiles(ev.ExpectedPath, ev.ActualPath)
	if err != nil {
		return err
	}
	m.ObservePhase("evaluate", started)
	m.EvalLinesTotal.WithLabelValues(evaluator.Correct.String()).Add(float64(rep.Correct))
	m.EvalLinesTotal.WithLabelValues(evaluator.Incorrect.String()).Add(float64(rep.Incorrect() - rep.Invalid))
	m.EvalLinesTotal.WithLabelValues(evaluator.Invalid.String()).Add(float64(rep.Invalid))
	if pct, ok := rep.Accuracy(); ok {
		m.EvalAccuracy.Set(pct)
	}

	sinks := runlog.Open(ctx, cfg)
	defer sinks.Close()

	fmt.Fprintln(out, "=== Evaluation ===")
	fmt.Fprintf(out, "Expected file:  %s\n", ev.ExpectedPath)
	fmt.Fprintf(out, "Actual file:    %s\n", ev.ActualPath)
	if ev.QueryPath != "" {
		checkQueries(out, ev.QueryPath, rep.ExpectedLines)
	}
	if prev := sinks.Previous(ctx, runlog.KindEvaluate); prev != nil && prev.Evaluate != nil {
		printPrevious(out, prev)
	}
	if err := rep.Render(out); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if err := m.Export(ctx, cfg.Metrics); err != nil {
		slog.Warn("metrics export failed", "error", err)
	}
	if err := sinks.Publish(ctx, runlog.NewEvaluateSummary(started, ev.ExpectedPath, ev.ActualPath, rep)); err != nil {
		slog.Warn("run summary not fully recorded", "error", err)
	}

	if rep.Incorrect() > 0 {
		return apperrors.Newf(apperrors.ErrIncorrectLines, apperrors.ExitMismatches,
			"%d of %d lines incorrect", rep.Incorrect(), rep.Total)
	}
	return nil
}

// checkQueries warns when the query file and the ground truth are not the
// same length, which means they come from different generator runs.
func checkQueries(out io.Writer, path string, expectedLines int) {
	pairs, err := sampler.ReadQueries(path)
	if err != nil {
		slog.Warn("query file not checked", "path", path, "error", err)
		return
	}
	if len(pairs) != expectedLines {
		fmt.Fprintf(out, "WARNING: query file %s has %d lines, ground truth has %d\n", path, len(pairs), expectedLines)
	}
}

func printPrevious(out io.Writer, prev *runlog.Summary) {
	if prev.Evaluate.Accuracy == nil {
		fmt.Fprintf(out, "Previous run:   %s (no data)\n", prev.RunID)
		return
	}
	fmt.Fprintf(out, "Previous run:   %s (%.2f%%)\n", prev.RunID, *prev.Evaluate.Accuracy)
}
