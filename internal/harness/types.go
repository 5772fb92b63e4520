package harness

import "github.com/roach88/cqdecomp/internal/pipeline"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Decomposition is the pipeline result the assertions ran against.
	Decomposition *pipeline.Result `json:"decomposition"`
}

// NewResult creates a new passing result.
func NewResult(res *pipeline.Result) *Result {
	return &Result{
		Pass:          true,
		Errors:        []string{},
		Decomposition: res,
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
