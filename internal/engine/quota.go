package engine

import "github.com/roach88/schemastore/internal/ir"

// buildBudget counts builds within one Process call and enforces the
// engine's max-builds limit.
//
// Each address is built at most once, so a finite document set always
// terminates. The budget catches builders that keep inventing new
// addresses (for example by queueing ever-longer pointers).
type buildBudget struct {
	maxBuilds int // 0 means unlimited
	current   int
}

func newBuildBudget(maxBuilds int) *buildBudget {
	return &buildBudget{maxBuilds: maxBuilds}
}

// Check validates that one more build fits the budget and counts it.
// Returns a QuotaError when it does not.
func (b *buildBudget) Check() error {
	if b.maxBuilds > 0 && b.current >= b.maxBuilds {
		return ir.NewQuotaError(b.current+1, b.maxBuilds)
	}
	b.current++
	return nil
}

// Current returns the number of builds counted.
func (b *buildBudget) Current() int {
	return b.current
}
