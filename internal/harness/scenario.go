package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// Scenarios drive an engine through a sequence of steps over a fixed set of
// documents and assert on the resulting index and build state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Documents maps absolute URIs to raw document text served in memory.
	Documents map[string]string `yaml:"documents,omitempty"`

	// Files maps slash-separated relative paths to content written into a
	// fresh temporary directory. The directory's file URI replaces the
	// {{dir}} placeholder anywhere in steps, rewrites and assertions.
	Files map[string]string `yaml:"files,omitempty"`

	// Base is the value installed by a load_base step.
	Base any `yaml:"base,omitempty"`

	// Rewrites are prefix rewrite rules in "from=to" form.
	Rewrites []string `yaml:"rewrites,omitempty"`

	// Builder selects the build callback: "schema" (default) compiles
	// schemas, "value" returns the resolved value unchanged.
	Builder string `yaml:"builder,omitempty"`

	// StrictIDs rejects duplicate $id declarations.
	StrictIDs bool `yaml:"strict_ids,omitempty"`

	// MaxBuilds caps builds per process step. Zero keeps the engine default.
	MaxBuilds int `yaml:"max_builds,omitempty"`

	// Persist writes the final snapshot to a temporary store and reads it
	// back before assertions run.
	Persist bool `yaml:"persist,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final engine state.
	Assertions []Assertion `yaml:"assertions"`

	// Session is an optional fixed session id for deterministic golden
	// output. Defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`
}

// Step is a single engine operation.
type Step struct {
	// Op is one of load_base, load_resources, follow, resolve, fetch, process.
	Op string `yaml:"op"`

	// Address is the address or URI the step operates on. Empty means the
	// base document.
	Address string `yaml:"address,omitempty"`

	// Expect optionally checks the step outcome.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected step outcome.
type Expect struct {
	// Address is the expected address returned by follow or load_base.
	Address string `yaml:"address,omitempty"`

	// Value is the expected value returned by resolve or fetch.
	Value any `yaml:"value,omitempty"`

	// Error is the expected error code. When set the step must fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates final engine state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "built": every address in Addresses is built
	// - "not_queued": no address in Addresses is built or unbuilt
	// - "build_count": the builder ran Count times for Address
	// - "unbuilt_count": exactly Count addresses remain unbuilt
	// - "identifier": identifier Address is bound to Target
	// - "reference": reference source Address targets Target
	//
	// An empty Address or Target denotes the base document.
	// - "fetch_count": in-memory URI Address was fetched Count times
	// - "build_order": Addresses were built in the given relative order
	Type string `yaml:"type"`

	Address   string   `yaml:"address,omitempty"`
	Addresses []string `yaml:"addresses,omitempty"`
	Target    string   `yaml:"target,omitempty"`
	Count     int      `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpLoadBase      = "load_base"
	OpLoadResources = "load_resources"
	OpFollow        = "follow"
	OpResolve       = "resolve"
	OpFetch         = "fetch"
	OpProcess       = "process"
)

// Assertion type constants.
const (
	AssertBuilt        = "built"
	AssertNotQueued    = "not_queued"
	AssertBuildCount   = "build_count"
	AssertUnbuiltCount = "unbuilt_count"
	AssertIdentifier   = "identifier"
	AssertReference    = "reference"
	AssertFetchCount   = "fetch_count"
	AssertBuildOrder   = "build_order"
)

// Builder names.
const (
	BuilderSchema = "schema"
	BuilderValue  = "value"
)

// DirPlaceholder is replaced by the file URI of the scenario's files
// directory.
const DirPlaceholder = "{{dir}}"

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	switch s.Builder {
	case "", BuilderSchema, BuilderValue:
	default:
		return fmt.Errorf("unknown builder %q", s.Builder)
	}
	if s.MaxBuilds < 0 {
		return fmt.Errorf("max_builds must not be negative")
	}
	for _, rule := range s.Rewrites {
		if !strings.Contains(rule, "=") {
			return fmt.Errorf("rewrite %q: expected from=to", rule)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(s, step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}
	return nil
}

func validateStep(s *Scenario, step Step) error {
	switch step.Op {
	case OpLoadBase:
		if s.Base == nil {
			return fmt.Errorf("load_base requires a base value")
		}
	case OpLoadResources:
		if len(s.Files) == 0 {
			return fmt.Errorf("load_resources requires files")
		}
	case OpFollow, OpResolve, OpProcess:
	case OpFetch:
		if step.Address == "" {
			return fmt.Errorf("fetch requires an address")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertBuilt, AssertNotQueued, AssertBuildOrder:
		if len(a.Addresses) == 0 {
			return fmt.Errorf("%s requires addresses", a.Type)
		}
	case AssertBuildCount, AssertFetchCount, AssertIdentifier:
		if a.Address == "" {
			return fmt.Errorf("%s requires an address", a.Type)
		}
	case AssertReference:
		// An empty address is the base document.
	case AssertUnbuiltCount:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
