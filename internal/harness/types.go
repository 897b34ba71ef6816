package harness

import "github.com/roach88/schemastore/internal/ir"

// StepRecord is one executed scenario step, as captured in golden files.
type StepRecord struct {
	Op      string `json:"op"`
	Address string `json:"address,omitempty"`
	Result  string `json:"result,omitempty"` // address returned by follow or load_base
	Value   any    `json:"value,omitempty"`  // value returned by resolve or fetch
	Error   string `json:"error,omitempty"`  // ir error code, when the step failed as expected
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion matched.
	Pass bool `json:"pass"`

	// Steps records every executed step in order.
	Steps []StepRecord `json:"steps"`

	// Builds lists the address of every builder call, in call order.
	Builds []string `json:"builds"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Snapshot is the final engine state.
	Snapshot ir.Snapshot `json:"-"`

	// DirURI is the file URI the scenario's files were written under, empty
	// when it had none. The directory is removed when Run returns.
	DirURI string `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepRecord{},
		Builds: []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step record.
func (r *Result) AddStep(step StepRecord) {
	r.Steps = append(r.Steps, step)
}
