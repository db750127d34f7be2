package contracts

import (
	"sort"
	"time"
)

// SyncStatus is the outcome class of one instrument's synchronization
type SyncStatus string

const (
	SyncUpdated SyncStatus = "updated"
	SyncNoOp    SyncStatus = "noop"
	SyncFailed  SyncStatus = "failed"
)

// SyncOutcome reports what happened to one instrument during sync
type SyncOutcome struct {
	Code     string     `json:"code"`
	Status   SyncStatus `json:"status"`
	Bars     int        `json:"bars"`
	Attempts int        `json:"attempts"`
	Reason   string     `json:"reason,omitempty"`
}

// Skip reasons recorded by the scan orchestrator
const (
	SkipStale     = "stale"
	SkipNoHistory = "no_history"
	SkipCancelled = "cancelled"
)

// InstrumentIssue is a per-instrument skip or failure entry
type InstrumentIssue struct {
	Code     string `json:"code"`
	Strategy string `json:"strategy,omitempty"`
	Reason   string `json:"reason"`
}

// RunSummary is the result of one scan over the registry
// ⭐ SSOT: the only scan report handed to notifier, API and metrics
type RunSummary struct {
	RunID        string            `json:"run_id"`
	ScanDate     time.Time         `json:"scan_date"`
	StartedAt    time.Time         `json:"started_at"`
	Elapsed      time.Duration     `json:"elapsed"`
	Instruments  int               `json:"instruments"`
	Scanned      int               `json:"scanned"`
	Strategies   []string          `json:"strategies"`
	ParamsHash   string            `json:"params_hash,omitempty"`
	Counts       map[string]int    `json:"counts"`
	Signals      []Signal          `json:"signals"`
	Skipped      []InstrumentIssue `json:"skipped"`
	Failed       []InstrumentIssue `json:"failed"`
	SyncFailures []InstrumentIssue `json:"sync_failures,omitempty"`
}

// NewRunSummary pre-populates a zero count for every strategy
func NewRunSummary(runID string, scanDate time.Time, strategies []string) *RunSummary {
	counts := make(map[string]int, len(strategies))
	for _, name := range strategies {
		counts[name] = 0
	}
	return &RunSummary{
		RunID:      runID,
		ScanDate:   DateOnly(scanDate),
		Strategies: append([]string(nil), strategies...),
		Counts:     counts,
		Signals:    []Signal{},
		Skipped:    []InstrumentIssue{},
		Failed:     []InstrumentIssue{},
	}
}

// TotalSignals returns the number of fired signals
func (s *RunSummary) TotalSignals() int {
	total := 0
	for _, n := range s.Counts {
		total += n
	}
	return total
}

// HasFailures reports whether any instrument failed to sync or evaluate
func (s *RunSummary) HasFailures() bool {
	return len(s.Failed) > 0 || len(s.SyncFailures) > 0
}

// TopSignals returns up to n signals of one strategy, strongest first
func (s *RunSummary) TopSignals(strategy string, n int) []Signal {
	var out []Signal
	for _, sig := range s.Signals {
		if sig.StrategyName == strategy {
			out = append(out, sig)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Payload.Magnitude != out[j].Payload.Magnitude {
			return out[i].Payload.Magnitude > out[j].Payload.Magnitude
		}
		return out[i].InstrumentCode < out[j].InstrumentCode
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Normalize sorts every list by instrument code for stable output
func (s *RunSummary) Normalize() {
	SortSignals(s.Signals)
	for _, issues := range [][]InstrumentIssue{s.Skipped, s.Failed, s.SyncFailures} {
		sort.SliceStable(issues, func(i, j int) bool {
			if issues[i].Code != issues[j].Code {
				return issues[i].Code < issues[j].Code
			}
			return issues[i].Strategy < issues[j].Strategy
		})
	}
}

// RunRecord is a persisted summary row
type RunRecord struct {
	RunID        string        `json:"run_id"`
	ScanDate     time.Time     `json:"scan_date"`
	StartedAt    time.Time     `json:"started_at"`
	Elapsed      time.Duration `json:"elapsed"`
	TotalSignals int           `json:"total_signals"`
	Summary      *RunSummary   `json:"summary,omitempty"`
}

// Notification statuses
const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// NotificationRecord tracks what was pushed for a scan date per channel
type NotificationRecord struct {
	ScanDate time.Time `json:"scan_date"`
	Channel  string    `json:"channel"`
	Status   string    `json:"status"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}
