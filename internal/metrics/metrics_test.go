package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveSync([]contracts.SyncOutcome{
		{Code: "600000", Status: contracts.SyncUpdated},
		{Code: "000001", Status: contracts.SyncUpdated},
		{Code: "000002", Status: contracts.SyncFailed},
	})

	s := contracts.NewRunSummary("run", time.Now(), []string{"golden_cross", "macd_cross"})
	s.StartedAt = time.Unix(1_700_000_000, 0)
	s.Elapsed = 3 * time.Second
	s.Counts["golden_cross"] = 2
	s.Skipped = []contracts.InstrumentIssue{{Code: "000002", Reason: contracts.SkipStale}}
	s.Failed = []contracts.InstrumentIssue{{Code: "000003", Strategy: "macd_cross", Reason: "boom"}}
	m.ObserveScan(s)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncOutcomes.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncOutcomes.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Signals.WithLabelValues("golden_cross")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SignalsLastRun.WithLabelValues("macd_cross")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Skipped.WithLabelValues(contracts.SkipStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StrategyFailures.WithLabelValues("macd_cross")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RunDuration))
	assert.Equal(t, 1_700_000_003.0, testutil.ToFloat64(m.LastRunTimestamp))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Runs.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scanner_runs_total 1")
}

func TestPush(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.Runs.Inc()

	require.NoError(t, m.Push(context.Background(), srv.URL))
	assert.True(t, strings.HasPrefix(path, "/metrics/job/"+jobName), path)
	assert.NotEmpty(t, body)

	assert.NoError(t, m.Push(context.Background(), ""), "no gateway configured")
}
