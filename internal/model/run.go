package model

import (
	"time"
)

// RunOutcome is the terminal outcome of one pipeline run.
type RunOutcome int

const (
	// OutcomeCompleted means the source was drained normally.
	OutcomeCompleted RunOutcome = iota + 1
	// OutcomeCompletedWithProviderThrottle means the search provider stopped
	// the stream early. Partial results were still written.
	OutcomeCompletedWithProviderThrottle
	// OutcomeAuthenticationFailed means the source could not be opened. No
	// output was written.
	OutcomeAuthenticationFailed
)

// String implements fmt.Stringer.
func (o RunOutcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCompletedWithProviderThrottle:
		return "completed_with_provider_throttle"
	case OutcomeAuthenticationFailed:
		return "authentication_failed"
	default:
		return "unknown"
	}
}

// ParseRunOutcome is the inverse of RunOutcome.String.
func ParseRunOutcome(s string) RunOutcome {
	for _, o := range []RunOutcome{OutcomeCompleted, OutcomeCompletedWithProviderThrottle, OutcomeAuthenticationFailed} {
		if o.String() == s {
			return o
		}
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler.
func (o RunOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *RunOutcome) UnmarshalText(b []byte) error {
	*o = ParseRunOutcome(string(b))
	return nil
}

// Counters tracks how posts were handled during streaming.
type Counters struct {
	Examined int `json:"examined"`
	Embedded int `json:"embedded"`
	Geocoded int `json:"geocoded"`
}

// Resolved is the number of posts that produced an entry.
func (c Counters) Resolved() int {
	return c.Embedded + c.Geocoded
}

// WriteReport is the result of one output writer.
type WriteReport struct {
	Format string
	Path   string
	Rows   int
	Err    error
}

// OK reports whether the writer finished without error.
func (r WriteReport) OK() bool {
	return r.Err == nil
}

// RunResult is what a pipeline run hands back to its caller.
type RunResult struct {
	Outcome  RunOutcome
	Counters Counters
	Entries  int
	Writes   []WriteReport
	Err      error // set for OutcomeAuthenticationFailed, or the error that ended streaming
}

// WriteFailures returns the reports of writers that failed.
func (r *RunResult) WriteFailures() []WriteReport {
	var failed []WriteReport
	for _, w := range r.Writes {
		if !w.OK() {
			failed = append(failed, w)
		}
	}
	return failed
}

// RunState is the pipeline state persisted with a run record.
type RunState string

const (
	RunStateIdle           RunState = "idle"
	RunStateAuthenticating RunState = "authenticating_source"
	RunStateStreaming      RunState = "streaming"
	RunStateDraining       RunState = "draining"
	RunStateWriting        RunState = "writing_outputs"
	RunStateDone           RunState = "done"
	RunStateFailed         RunState = "failed"
)

// Terminal reports whether no further transition can follow.
func (s RunState) Terminal() bool {
	return s == RunStateDone || s == RunStateFailed
}

// RunRecord is the persisted summary of a run.
type RunRecord struct {
	ID        string     `json:"id"`
	Query     string     `json:"query"`
	Backend   string     `json:"backend"`
	State     RunState   `json:"state"`
	Outcome   RunOutcome `json:"outcome,omitempty"`
	Counters  Counters   `json:"counters"`
	Entries   int        `json:"entries"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
