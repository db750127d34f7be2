package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/wz-hub/a-stock-scanner/internal/contracts"
)

const jobName = "a_stock_scanner"

// Metrics holds the scanner's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	SyncOutcomes     *prometheus.CounterVec // labels: status
	Signals          *prometheus.CounterVec // labels: strategy
	SignalsLastRun   *prometheus.GaugeVec   // labels: strategy
	Skipped          *prometheus.CounterVec // labels: reason
	StrategyFailures *prometheus.CounterVec // labels: strategy
	RunDuration      prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
	Runs             prometheus.Counter
}

// New registers and returns all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SyncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_sync_outcomes_total",
			Help: "History sync outcomes per instrument",
		}, []string{"status"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_signals_total",
			Help: "Signals fired per strategy",
		}, []string{"strategy"}),
		SignalsLastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanner_signals_last_run",
			Help: "Signals fired per strategy in the most recent scan",
		}, []string{"strategy"}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_skipped_instruments_total",
			Help: "Instruments skipped by the scan",
		}, []string{"reason"}),
		StrategyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_strategy_failures_total",
			Help: "Strategy evaluations that errored or panicked",
		}, []string{"strategy"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_last_run_duration_seconds",
			Help: "Wall time of the most recent scan",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_last_run_timestamp_seconds",
			Help: "Unix time the most recent scan finished",
		}),
		Runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_runs_total",
			Help: "Completed scans",
		}),
	}

	m.registry.MustRegister(
		m.SyncOutcomes,
		m.Signals,
		m.SignalsLastRun,
		m.Skipped,
		m.StrategyFailures,
		m.RunDuration,
		m.LastRunTimestamp,
		m.Runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry for tests and the API
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSync records synchronizer outcomes
func (m *Metrics) ObserveSync(outcomes []contracts.SyncOutcome) {
	for _, o := range outcomes {
		m.SyncOutcomes.WithLabelValues(string(o.Status)).Inc()
	}
}

// ObserveScan records a finished scan
func (m *Metrics) ObserveScan(summary *contracts.RunSummary) {
	for strategy, n := range summary.Counts {
		m.Signals.WithLabelValues(strategy).Add(float64(n))
		m.SignalsLastRun.WithLabelValues(strategy).Set(float64(n))
	}
	for _, s := range summary.Skipped {
		m.Skipped.WithLabelValues(s.Reason).Inc()
	}
	for _, f := range summary.Failed {
		m.StrategyFailures.WithLabelValues(f.Strategy).Inc()
	}
	m.RunDuration.Set(summary.Elapsed.Seconds())
	m.LastRunTimestamp.Set(float64(summary.StartedAt.Add(summary.Elapsed).Unix()))
	m.Runs.Inc()
}

// Push sends the current values to a Prometheus pushgateway
func (m *Metrics) Push(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := push.New(url, jobName).
		Gatherer(m.registry).
		PushContext(pctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
