// Package metrics defines the Prometheus collectors recorded by one harness
// run. Runs are batch jobs, so the registry is exported once at the end,
// either as a node-exporter textfile or to a Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/config"
)

// Metrics holds all Prometheus collectors for a run.
type Metrics struct {
	registry         *prometheus.Registry
	KeywordsTotal    prometheus.Gauge
	DocumentsTotal   prometheus.Gauge
	ValidPairsTotal  prometheus.Gauge
	TestCasesEmitted prometheus.Counter
	EvalLinesTotal   *prometheus.CounterVec
	EvalAccuracy     prometheus.Gauge
	PhaseDuration    *prometheus.GaugeVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		KeywordsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "harness_keywords_total",
				Help: "Keywords (corpus lines) read by the index builder.",
			},
		),
		DocumentsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "harness_documents_total",
				Help: "Distinct documents seen by the index builder.",
			},
		),
		ValidPairsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "harness_valid_pairs_total",
				Help: "Valid keyword pairs available for sampling.",
			},
		),
		TestCasesEmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "harness_testcases_emitted_total",
				Help: "Test cases written to the query and ground-truth files.",
			},
		),
		EvalLinesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harness_eval_lines_total",
				Help: "Scored lines by verdict (correct, incorrect, invalid).",
			},
			[]string{"verdict"},
		),
		EvalAccuracy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "harness_eval_accuracy_percent",
				Help: "Percentage of scored lines that matched the ground truth.",
			},
		),
		PhaseDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harness_run_duration_seconds",
				Help: "Wall time spent per run phase.",
			},
			[]string{"phase"},
		),
	}

	m.registry.MustRegister(
		m.KeywordsTotal,
		m.DocumentsTotal,
		m.ValidPairsTotal,
		m.TestCasesEmitted,
		m.EvalLinesTotal,
		m.EvalAccuracy,
		m.PhaseDuration,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePhase records the time elapsed since start for phase.
func (m *Metrics) ObservePhase(phase string, start time.Time) {
	m.PhaseDuration.WithLabelValues(phase).Set(time.Since(start).Seconds())
}

// Export writes the registry to every destination configured in cfg. It is a
// no-op when metrics are disabled.
func (m *Metrics) Export(ctx context.Context, cfg config.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(cfg.TextfilePath, m.registry); err != nil {
			return fmt.Errorf("writing metrics textfile: %w", err)
		}
	}
	if cfg.PushgatewayURL != "" {
		err := push.New(cfg.PushgatewayURL, cfg.Job).
			Gatherer(m.registry).
			PushContext(ctx)
		if err != nil {
			return fmt.Errorf("pushing metrics: %w", err)
		}
	}
	return nil
}
