package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wz-hub/a-stock-scanner/internal/api/handlers"
	"github.com/wz-hub/a-stock-scanner/internal/contracts"
	"github.com/wz-hub/a-stock-scanner/internal/data/repos"
	"github.com/wz-hub/a-stock-scanner/internal/metrics"
	"github.com/wz-hub/a-stock-scanner/internal/s2_signals"
	"github.com/wz-hub/a-stock-scanner/pkg/database/dbtest"
	"github.com/wz-hub/a-stock-scanner/pkg/logger"
)

func day(s string) time.Time {
	d, err := contracts.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestRouter(t *testing.T) (http.Handler, *repos.RunRepository) {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)
	log := logger.Nop()

	signals := repos.NewSignalRepository(db)
	runs := repos.NewRunRepository(db)

	for _, sig := range []contracts.Signal{
		{InstrumentCode: "600000", ScanDate: day("2024-03-14"), StrategyName: "golden_cross"},
		{InstrumentCode: "600000", ScanDate: day("2024-03-15"), StrategyName: "macd_cross"},
		{InstrumentCode: "000001", ScanDate: day("2024-03-15"), StrategyName: "golden_cross"},
	} {
		require.NoError(t, signals.Upsert(ctx, sig))
	}

	summary := contracts.NewRunSummary("run-abc", day("2024-03-15"), []string{"golden_cross"})
	summary.StartedAt = time.Now()
	require.NoError(t, runs.SaveRun(ctx, summary))

	enabled, err := s2_signals.NewRegistry([]string{"golden_cross", "macd_cross"})
	require.NoError(t, err)

	m := metrics.New()
	m.Runs.Inc()

	return NewRouter(Handlers{
		Health:     handlers.NewHealthHandler(db),
		Signals:    handlers.NewSignalHandler(signals, log),
		Runs:       handlers.NewRunHandler(runs, log),
		Strategies: handlers.NewStrategyHandler(enabled),
		Metrics:    m.Handler(),
	}, log), runs
}

func get(t *testing.T, h http.Handler, url string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, get(t, router, "/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSignalsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		url    string
		status int
		want   []string // code/strategy in order
	}{
		{"all newest first", "/api/signals", 200, []string{"000001/golden_cross", "600000/macd_cross", "600000/golden_cross"}},
		{"by date", "/api/signals?date=2024-03-15", 200, []string{"000001/golden_cross", "600000/macd_cross"}},
		{"by strategy", "/api/signals?strategy=golden_cross", 200, []string{"000001/golden_cross", "600000/golden_cross"}},
		{"by code and range", "/api/signals?code=600000&from=2024-03-01&to=2024-03-14", 200, []string{"600000/golden_cross"}},
		{"limit", "/api/signals?limit=1", 200, []string{"000001/golden_cross"}},
		{"no match", "/api/signals?code=999999", 200, []string{}},
		{"bad date", "/api/signals?date=15-03-2024", 400, nil},
		{"bad limit", "/api/signals?limit=-3", 400, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp handlers.SignalsResponse
			require.Equal(t, tt.status, get(t, router, tt.url, &resp))
			if tt.status != 200 {
				return
			}
			got := []string{}
			for _, s := range resp.Signals {
				got = append(got, s.InstrumentCode+"/"+s.StrategyName)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), resp.Count)
		})
	}
}

func TestRunsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	var list struct {
		Count int                   `json:"count"`
		Runs  []contracts.RunRecord `json:"runs"`
	}
	require.Equal(t, http.StatusOK, get(t, router, "/api/runs", &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "run-abc", list.Runs[0].RunID)

	var run contracts.RunRecord
	require.Equal(t, http.StatusOK, get(t, router, "/api/runs/run-abc", &run))
	require.NotNil(t, run.Summary)
	assert.Equal(t, []string{"golden_cross"}, run.Summary.Strategies)

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/runs/missing", nil))
}

func TestStrategiesEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	var list []handlers.StrategyInfo
	require.Equal(t, http.StatusOK, get(t, router, "/api/strategies", &list))
	require.Len(t, list, 5)

	enabled := map[string]bool{}
	for _, s := range list {
		enabled[s.Name] = s.Enabled
	}
	assert.True(t, enabled["golden_cross"])
	assert.True(t, enabled["macd_cross"])
	assert.False(t, enabled["volume_break"])
}

func TestMetricsAndNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scanner_runs_total 1")

	assert.Equal(t, http.StatusNotFound, get(t, router, "/api/nope", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/signals", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"the query API is read-only"}`, rec.Body.String())
}
