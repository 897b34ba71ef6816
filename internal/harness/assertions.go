package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/schemastore/internal/engine"
	"github.com/roach88/schemastore/internal/ir"
	"github.com/roach88/schemastore/internal/testutil"
)

// AssertionContext is the final state assertions are evaluated against.
type AssertionContext struct {
	Engine  *engine.Engine
	Fetcher *testutil.MapFetcher

	// Builds lists the address of every builder call in call order.
	Builds []string
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Builds   []string // Builder calls for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Builds) > 0 {
		fmt.Fprintf(&buf, "\nBuilds:\n")
		for i, addr := range e.Builds {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, addr)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failures.
// Unknown assertion types are reported as failures.
func EvaluateAssertions(actx *AssertionContext, assertions []Assertion) []error {
	var errs []error
	for _, a := range assertions {
		if err := evaluateAssertion(actx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func evaluateAssertion(actx *AssertionContext, a Assertion) error {
	switch a.Type {
	case AssertBuilt:
		return assertBuilt(actx, a)
	case AssertNotQueued:
		return assertNotQueued(actx, a)
	case AssertBuildCount:
		return assertBuildCount(actx, a)
	case AssertUnbuiltCount:
		return assertUnbuiltCount(actx, a)
	case AssertIdentifier:
		return assertIdentifier(actx, a)
	case AssertReference:
		return assertReference(actx, a)
	case AssertFetchCount:
		return assertFetchCount(actx, a)
	case AssertBuildOrder:
		return assertBuildOrder(actx, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertBuilt checks that every listed address has a recorded result.
func assertBuilt(actx *AssertionContext, a Assertion) error {
	for _, raw := range a.Addresses {
		addr, err := ir.ParseAddress(raw)
		if err != nil {
			return err
		}
		if !actx.Engine.IsBuilt(addr) {
			return &AssertionError{
				Type:     AssertBuilt,
				Expected: fmt.Sprintf("%s built", addr),
				Actual:   "not built",
				Builds:   actx.Builds,
			}
		}
	}
	return nil
}

// assertNotQueued checks that no listed address was ever queued.
func assertNotQueued(actx *AssertionContext, a Assertion) error {
	unbuilt := make(map[ir.Address]bool)
	for _, addr := range actx.Engine.Unbuilt() {
		unbuilt[addr] = true
	}
	for _, raw := range a.Addresses {
		addr, err := ir.ParseAddress(raw)
		if err != nil {
			return err
		}
		if actx.Engine.IsBuilt(addr) || unbuilt[addr] {
			return &AssertionError{
				Type:     AssertNotQueued,
				Expected: fmt.Sprintf("%s never queued", addr),
				Actual:   "queued",
				Builds:   actx.Builds,
			}
		}
	}
	return nil
}

// assertBuildCount checks the builder ran exactly Count times for Address.
func assertBuildCount(actx *AssertionContext, a Assertion) error {
	addr, err := ir.ParseAddress(a.Address)
	if err != nil {
		return err
	}
	want := addr.String()

	count := 0
	for _, b := range actx.Builds {
		if b == want {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertBuildCount,
			Expected: fmt.Sprintf("%d builds of %s", a.Count, want),
			Actual:   fmt.Sprintf("%d builds", count),
			Builds:   actx.Builds,
		}
	}
	return nil
}

func assertUnbuiltCount(actx *AssertionContext, a Assertion) error {
	if n := len(actx.Engine.Unbuilt()); n != a.Count {
		return &AssertionError{
			Type:     AssertUnbuiltCount,
			Expected: fmt.Sprintf("%d unbuilt", a.Count),
			Actual:   fmt.Sprintf("%d unbuilt", n),
		}
	}
	return nil
}

func assertIdentifier(actx *AssertionContext, a Assertion) error {
	id, target, err := parsePair(a)
	if err != nil {
		return err
	}
	got, ok := actx.Engine.Identifiers().Lookup(id)
	if !ok || got != target {
		actual := "unbound"
		if ok {
			actual = got.String()
		}
		return &AssertionError{
			Type:     AssertIdentifier,
			Expected: fmt.Sprintf("%s bound to %s", id, target),
			Actual:   actual,
		}
	}
	return nil
}

func assertReference(actx *AssertionContext, a Assertion) error {
	source, target, err := parsePair(a)
	if err != nil {
		return err
	}
	got, ok := actx.Engine.References().Target(source)
	if !ok || got != target {
		actual := "no reference"
		if ok {
			actual = got.String()
		}
		return &AssertionError{
			Type:     AssertReference,
			Expected: fmt.Sprintf("%s references %s", source, target),
			Actual:   actual,
		}
	}
	return nil
}

// assertFetchCount checks how often an in-memory document was fetched.
func assertFetchCount(actx *AssertionContext, a Assertion) error {
	if n := actx.Fetcher.Calls(a.Address); n != a.Count {
		return &AssertionError{
			Type:     AssertFetchCount,
			Expected: fmt.Sprintf("%d fetches of %s", a.Count, a.Address),
			Actual:   fmt.Sprintf("%d fetches", n),
		}
	}
	return nil
}

// assertBuildOrder checks addresses were first built in the given order.
// Builds don't need to be consecutive.
func assertBuildOrder(actx *AssertionContext, a Assertion) error {
	positions := make(map[string]int)
	for i, b := range actx.Builds {
		if _, seen := positions[b]; !seen {
			positions[b] = i + 1 // 1-indexed for readability
		}
	}

	want := make([]string, len(a.Addresses))
	for i, raw := range a.Addresses {
		addr, err := ir.ParseAddress(raw)
		if err != nil {
			return err
		}
		want[i] = addr.String()
		if positions[want[i]] == 0 {
			return &AssertionError{
				Type:     AssertBuildOrder,
				Expected: fmt.Sprintf("all addresses built: %v", a.Addresses),
				Actual:   fmt.Sprintf("missing build: %s", want[i]),
				Builds:   actx.Builds,
			}
		}
	}

	for i := 1; i < len(want); i++ {
		prev, curr := want[i-1], want[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertBuildOrder,
				Expected: fmt.Sprintf("builds in order: %v", want),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Builds: actx.Builds,
			}
		}
	}
	return nil
}

func parsePair(a Assertion) (ir.Address, ir.Address, error) {
	from, err := ir.ParseAddress(a.Address)
	if err != nil {
		return ir.Address{}, ir.Address{}, err
	}
	to, err := ir.ParseAddress(a.Target)
	if err != nil {
		return ir.Address{}, ir.Address{}, err
	}
	return from, to, nil
}

// valuesEqual compares an expected scenario value with an engine value by
// their canonical JSON encodings, so YAML integers match decoded numbers.
func valuesEqual(expected, actual any) (bool, error) {
	want, err := ir.ToValue(expected)
	if err != nil {
		return false, fmt.Errorf("expected value: %w", err)
	}
	wantJSON, err := ir.MarshalCanonical(want)
	if err != nil {
		return false, err
	}
	gotJSON, err := ir.MarshalCanonical(actual)
	if err != nil {
		return false, err
	}
	return bytes.Equal(wantJSON, gotJSON), nil
}
