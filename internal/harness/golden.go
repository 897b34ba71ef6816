package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/schemastore/internal/ir"
)

// GoldenSnapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
// Builder results and document contents are left out; digests and build
// order carry that information.
type GoldenSnapshot struct {
	ScenarioName string
	Session      string
	Steps        []StepRecord
	Builds       []string
	Snapshot     ir.Snapshot
}

// toCanonicalMap converts a GoldenSnapshot to a map[string]any for canonical
// JSON serialization. The files directory URI is folded back to its
// placeholder so golden files are stable across machines.
func (s *GoldenSnapshot) toCanonicalMap(dirURI string) map[string]any {
	collapse := func(v string) string {
		if dirURI == "" {
			return v
		}
		return strings.ReplaceAll(v, dirURI, DirPlaceholder)
	}

	steps := make([]any, len(s.Steps))
	for i, step := range s.Steps {
		m := map[string]any{"op": step.Op}
		if step.Address != "" {
			m["address"] = step.Address
		}
		if step.Result != "" {
			m["result"] = step.Result
		}
		if step.Value != nil {
			m["value"] = step.Value
		}
		if step.Error != "" {
			m["error"] = step.Error
		}
		steps[i] = m
	}

	bindings := func(entries []ir.BindingEntry) []any {
		out := make([]any, len(entries))
		for i, b := range entries {
			out[i] = map[string]any{"from": collapse(b.From), "to": collapse(b.To)}
		}
		return out
	}

	builds := make([]any, len(s.Builds))
	for i, b := range s.Builds {
		builds[i] = b
	}

	built := make([]any, len(s.Snapshot.Built))
	for i, b := range s.Snapshot.Built {
		built[i] = map[string]any{"address": collapse(b.Address), "seq": b.Seq}
	}

	unbuilt := make([]any, len(s.Snapshot.Unbuilt))
	for i, u := range s.Snapshot.Unbuilt {
		unbuilt[i] = collapse(u)
	}

	documents := make([]any, len(s.Snapshot.Documents))
	for i, d := range s.Snapshot.Documents {
		documents[i] = collapse(d.URI)
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"session":       s.Session,
		"steps":         steps,
		"builds":        builds,
		"built":         built,
		"unbuilt":       unbuilt,
		"documents":     documents,
		"identifiers":   bindings(s.Snapshot.Identifiers),
		"references":    bindings(s.Snapshot.References),
	}
}

// RunWithGolden executes a scenario and compares its outcome against a golden
// file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarshalGolden renders result as the canonical JSON stored in golden files.
func MarshalGolden(scenarioName string, result *Result) ([]byte, error) {
	snapshot := GoldenSnapshot{
		ScenarioName: scenarioName,
		Session:      result.Snapshot.Session,
		Steps:        result.Steps,
		Builds:       result.Builds,
		Snapshot:     result.Snapshot,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap(result.DirURI))
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalGolden(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
