package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/conjunctive-search-harness/pkg/config"
)

func TestCollectors(t *testing.T) {
	m := New()
	m.ValidPairsTotal.Set(12)
	m.EvalLinesTotal.WithLabelValues("correct").Add(3)
	m.ObservePhase("build", time.Now().Add(-time.Second))

	assert.Equal(t, 12.0, testutil.ToFloat64(m.ValidPairsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EvalLinesTotal.WithLabelValues("correct")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.PhaseDuration.WithLabelValues("build")), 1.0)

	// Each run owns its registry, so a second New must not panic on
	// duplicate registration.
	assert.NotPanics(t, func() { New() })
}

func TestExportDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.prom")
	require.NoError(t, New().Export(context.Background(), config.MetricsConfig{TextfilePath: path}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestExportTextfile(t *testing.T) {
	m := New()
	m.TestCasesEmitted.Add(5)
	path := filepath.Join(t.TempDir(), "harness.prom")
	require.NoError(t, m.Export(context.Background(), config.MetricsConfig{Enabled: true, TextfilePath: path}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "harness_testcases_emitted_total 5")
}

func TestExportPushgateway(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/metrics/job/harness") {
			hits.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := New().Export(context.Background(), config.MetricsConfig{Enabled: true, PushgatewayURL: srv.URL, Job: "harness"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
