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

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/internal/index"
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
		slog.Error("test case generation failed", "error", err)
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	started := time.Now()
	m := metrics.New()
	gen := cfg.Generate

	seed := gen.Seed
	if seed == 0 {
		seed = uint64(started.UnixNano())
	}
	slog.Info("starting test case generation",
		"corpus", gen.CorpusPath,
		"sample_size", gen.SampleSize,
		"seed", seed,
	)

	buildStart := time.Now()
	idx, err := index.Build(gen.CorpusPath, corpus.OptionsFor(gen))
	if err != nil {
		return err
	}
	m.ObservePhase("build", buildStart)
	m.KeywordsTotal.Set(float64(idx.KeywordCount()))
	m.DocumentsTotal.Set(float64(idx.DocumentCount()))
	slog.Info("index built",
		"keywords", idx.KeywordCount(),
		"documents", idx.DocumentCount(),
	)

	sampleStart := time.Now()
	res := sampler.NewGenerator(idx, sampler.NewRand(seed)).Generate(gen.SampleSize)
	m.ObservePhase("sample", sampleStart)
	m.ValidPairsTotal.Set(float64(res.ValidPairs))

	if err := sampler.Write(gen.QueryPath, gen.GroundTruthPath, res.Cases); err != nil {
		return fmt.Errorf("writing test cases: %w", err)
	}
	m.TestCasesEmitted.Add(float64(len(res.Cases)))
	m.ObservePhase("total", started)

	printReport(out, gen, seed, idx, res)

	summary := runlog.NewGenerateSummary(started, gen.CorpusPath, seed, idx.KeywordCount(), idx.DocumentCount(), res)
	finish(ctx, cfg, m, summary)
	return nil
}

// finish publishes side outputs. Failures here are logged only; the test
// files are already written.
func finish(ctx context.Context, cfg *config.Config, m *metrics.Metrics, summary runlog.Summary) {
	if err := m.Export(ctx, cfg.Metrics); err != nil {
		slog.Warn("metrics export failed", "error", err)
	}
	sinks := runlog.Open(ctx, cfg)
	defer sinks.Close()
	if err := sinks.Publish(ctx, summary); err != nil {
		slog.Warn("run summary not fully recorded", "error", err)
	}
}

func printReport(w io.Writer, gen config.GenerateConfig, seed uint64, idx *index.Index, res sampler.Result) {
	fmt.Fprintln(w, "=== Test Case Generation ===")
	fmt.Fprintf(w, "Corpus:       %s\n", gen.CorpusPath)
	fmt.Fprintf(w, "Keywords:     %d\n", idx.KeywordCount())
	fmt.Fprintf(w, "Documents:    %d\n", idx.DocumentCount())
	fmt.Fprintf(w, "Valid pairs:  %d\n", res.ValidPairs)
	fmt.Fprintf(w, "Seed:         %d\n", seed)
	fmt.Fprintf(w, "Requested:    %d\n", res.Requested)
	if res.Drawn < res.Requested {
		fmt.Fprintf(w, "NOTE: only %d valid pairs available; sampled all of them\n", res.Drawn)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Generated %d pairs in %s and %s.\n", len(res.Cases), gen.QueryPath, gen.GroundTruthPath)
}
