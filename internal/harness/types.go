package harness

import "github.com/roach88/wherekit/internal/criteria"

// TraceEvent records one applied step and the filter right after it.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op"`
	Detail string `json:"detail,omitempty"`
	Where  string `json:"where"`
	Depth  int    `json:"depth"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expectations match.
	Pass bool `json:"pass"`

	// Where is the rendered filter text after the last step.
	Where string `json:"where"`

	// SQL and Params are the compiled WHERE body and its arguments.
	SQL    string `json:"sql"`
	Params []any  `json:"params"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Criteria is the built filter, for callers that go on to evaluate it.
	Criteria *criteria.Criteria `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Params: []any{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace event.
func (r *Result) AddTrace(seq int64, op, detail, where string, depth int) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    seq,
		Op:     op,
		Detail: detail,
		Where:  where,
		Depth:  depth,
	})
}
