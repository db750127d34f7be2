package scheduler

import (
	"context"
	"sync"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: scheduled work is declared through this interface only
type Job interface {
	Name() string

	// Run executes the job once; a returned error triggers a retry
	Run(ctx context.Context) error

	// Schedule returns a standard five-field cron expression
	// Examples: "30 15 * * 1-5", "@daily"
	Schedule() string
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

const historyLimit = 100

// JobHistory keeps the most recent results of one job
type JobHistory struct {
	mu      sync.RWMutex
	results []JobResult
}

// Add appends a result, dropping the oldest past historyLimit
func (h *JobHistory) Add(result JobResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append(h.results, result)
	if len(h.results) > historyLimit {
		h.results = append([]JobResult(nil), h.results[len(h.results)-historyLimit:]...)
	}
}

// Len returns the number of kept results
func (h *JobHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.results)
}

// Latest returns up to n results, oldest first
func (h *JobHistory) Latest(n int) []JobResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > len(h.results) {
		n = len(h.results)
	}
	return append([]JobResult{}, h.results[len(h.results)-n:]...)
}

// Last returns the newest result
func (h *JobHistory) Last() (JobResult, bool) {
	latest := h.Latest(1)
	if len(latest) == 0 {
		return JobResult{}, false
	}
	return latest[0], true
}

// Failures counts failed results
func (h *JobHistory) Failures() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, r := range h.results {
		if !r.Success {
			n++
		}
	}
	return n
}

// SuccessRate returns the share of successful results (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	total := h.Len()
	if total == 0 {
		return 0
	}
	return float64(total-h.Failures()) / float64(total)
}

// lastOutcome returns the start times of the newest success and failure
func (h *JobHistory) lastOutcome() (success, failure *time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.results) - 1; i >= 0 && (success == nil || failure == nil); i-- {
		start := h.results[i].StartTime
		if h.results[i].Success && success == nil {
			success = &start
		} else if !h.results[i].Success && failure == nil {
			failure = &start
		}
	}
	return success, failure
}
