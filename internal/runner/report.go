package runner

import "time"

// RebuildStatus is the outcome of one notebook rebuild attempt.
type RebuildStatus string

const (
	StatusSuccess RebuildStatus = "success"
	StatusFailed  RebuildStatus = "failed"
)

// Rebuild describes one attempted notebook re-execution within a pass.
type Rebuild struct {
	Notebook string
	Digest   string
	Duration time.Duration
	Status   RebuildStatus
	Error    string
}

// Report summarizes a rebuild pass. A pass that aborts early still carries
// every rebuild attempted up to the failure.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Discovered int
	Stale      int
	Rebuilds   []Rebuild
}

// Rebuilt returns the number of notebooks that executed successfully.
func (r *Report) Rebuilt() int {
	n := 0
	for _, rb := range r.Rebuilds {
		if rb.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// Duration returns the wall-clock duration of the pass.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
