package catalog

import (
	"sync"
	"time"
)

// RegenerationStatus is the outcome of regenerating one category in one store
type RegenerationStatus string

const (
	RegenerationSucceeded RegenerationStatus = "success"
	RegenerationFailed    RegenerationStatus = "failed"
)

// RegenerationResult reports one (category, store) unit
type RegenerationResult struct {
	CategoryID int64
	StoreID    int64
	Status     RegenerationStatus
	Rewrites   int
	Err        error
}

// Succeeded returns true when the rewrites were written
func (r RegenerationResult) Succeeded() bool {
	return r.Status == RegenerationSucceeded
}

// RegenerationReport aggregates the results of one batch.
// Completed is set once every store was processed, even if items failed.
type RegenerationReport struct {
	CategoryIDs []int64
	Purged      []int64
	Results     []RegenerationResult
	Completed   bool
	StartedAt   time.Time
	FinishedAt  time.Time

	mu sync.Mutex
}

func newRegenerationReport(ids []int64) *RegenerationReport {
	return &RegenerationReport{
		CategoryIDs: ids,
		Purged:      []int64{},
		Results:     []RegenerationResult{},
		StartedAt:   time.Now(),
	}
}

func (r *RegenerationReport) add(result RegenerationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, result)
}

// Failures returns the failed units
func (r *RegenerationReport) Failures() []RegenerationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []RegenerationResult{}
	for _, res := range r.Results {
		if !res.Succeeded() {
			out = append(out, res)
		}
	}
	return out
}

// SucceededCount returns the number of units whose rewrites were written
func (r *RegenerationReport) SucceededCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.Results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}

// Duration returns how long the batch ran
func (r *RegenerationReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
