package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/schemastore/internal/document"
	"github.com/roach88/schemastore/internal/engine"
	"github.com/roach88/schemastore/internal/ir"
	"github.com/roach88/schemastore/internal/schema"
	"github.com/roach88/schemastore/internal/store"
	"github.com/roach88/schemastore/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios against in-memory documents and a temporary file tree
// with a fixed session id.
type Harness struct {
	engine  *engine.Engine
	fetcher *testutil.MapFetcher
	logger  *slog.Logger
	dir     string // files directory, empty if the scenario has none
	dirURI  string
	base    any
	builds  []string // builder calls, unexpanded
	result  *Result
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Write scenario files to a fresh temporary directory
// 2. Create an engine over the in-memory and file documents
// 3. Execute steps in order, checking each expectation
// 4. Optionally persist the snapshot and read it back
// 5. Evaluate assertions against the final state
//
// A step that fails without expecting to stops execution; assertions are
// still evaluated. Returns an error only when the scenario could not be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	h := &Harness{
		fetcher: testutil.NewMapFetcher(scenario.Documents),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		base:    scenario.Base,
		result:  NewResult(),
	}

	if len(scenario.Files) > 0 {
		dir, err := os.MkdirTemp("", "schemastore-scenario-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create files directory: %w", err)
		}
		defer os.RemoveAll(dir)
		if err := writeFiles(dir, scenario.Files); err != nil {
			return nil, err
		}
		h.dir = dir
		h.dirURI, err = ir.FileURI(dir)
		if err != nil {
			return nil, err
		}
	}

	eng, err := h.newEngine(scenario)
	if err != nil {
		return nil, err
	}
	h.engine = eng

	for i, step := range scenario.Steps {
		if !h.runStep(ctx, i, step) {
			break
		}
	}

	if scenario.Persist && h.result.Pass {
		if err := h.persist(ctx); err != nil {
			h.result.AddError(err.Error())
		}
	}

	actx := &AssertionContext{Engine: eng, Fetcher: h.fetcher, Builds: h.builds}
	for _, err := range EvaluateAssertions(actx, h.expandAssertions(scenario.Assertions)) {
		h.result.AddError(err.Error())
	}

	h.result.DirURI = h.dirURI
	h.result.Snapshot, err = eng.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot engine: %w", err)
	}
	return h.result, nil
}

func (h *Harness) newEngine(scenario *Scenario) (*engine.Engine, error) {
	rules := make([]string, len(scenario.Rewrites))
	for i, rule := range scenario.Rewrites {
		rules[i] = h.expand(rule)
	}
	rewriters, err := document.ParseRewrites(rules)
	if err != nil {
		return nil, err
	}

	var inner engine.Builder = schema.Builder()
	if scenario.Builder == BuilderValue {
		inner = engine.BuilderFunc(func(ctx context.Context, e *engine.Engine, addr ir.Address) (any, error) {
			return e.Resolve(ctx, addr)
		})
	}
	counting := engine.BuilderFunc(func(ctx context.Context, e *engine.Engine, addr ir.Address) (any, error) {
		h.builds = append(h.builds, addr.String())
		h.result.Builds = append(h.result.Builds, h.collapse(addr.String()))
		return inner.Build(ctx, e, addr)
	})

	var fetcher document.Fetcher = h.fetcher
	if h.dir != "" {
		fetcher = document.FetcherFunc(h.fetch)
	}

	opts := []engine.Option{
		engine.WithFetcher(fetcher),
		engine.WithRewriters(rewriters...),
		engine.WithLogger(h.logger),
		engine.WithStrictIdentifiers(scenario.StrictIDs),
		engine.WithSessionGenerator(testutil.NewFixedSessionGenerator(scenario.Session)),
	}
	if scenario.MaxBuilds > 0 {
		opts = append(opts, engine.WithMaxBuilds(scenario.MaxBuilds))
	}
	return engine.New(counting, opts...), nil
}

// fetch serves file URIs from disk and everything else from memory.
func (h *Harness) fetch(ctx context.Context, uri string) ([]byte, error) {
	if ir.Scheme(uri) == "file" {
		return document.FileFetcher{}.Fetch(ctx, uri)
	}
	return h.fetcher.Fetch(ctx, uri)
}

// runStep executes one step and records it. Returns false when execution
// should stop.
func (h *Harness) runStep(ctx context.Context, i int, step Step) bool {
	rec := StepRecord{Op: step.Op, Address: step.Address}

	var (
		got   ir.Address
		value any
		err   error
	)
	switch step.Op {
	case OpLoadBase:
		got, err = h.engine.LoadBaseObject(ctx, h.scenarioBase())
		rec.Result = h.collapse(got.String())
	case OpLoadResources:
		err = h.engine.LoadResources(ctx, h.dir)
	case OpFollow:
		got, err = h.follow(ctx, step.Address)
		rec.Result = h.collapse(got.String())
	case OpResolve:
		var addr ir.Address
		addr, err = ir.ParseAddress(h.expand(step.Address))
		if err == nil {
			value, err = h.engine.Resolve(ctx, addr)
		}
		rec.Value = value
	case OpFetch:
		value, err = h.engine.Fetch(ctx, h.expand(step.Address))
		rec.Value = value
	case OpProcess:
		err = h.engine.Process(ctx)
	}

	if err != nil {
		rec.Result = ""
		rec.Value = nil
		rec.Error = string(ir.CodeOf(err))
	}
	h.result.AddStep(rec)

	return h.checkExpect(i, step, got, value, err)
}

func (h *Harness) follow(ctx context.Context, raw string) (ir.Address, error) {
	addr, err := ir.ParseAddress(h.expand(raw))
	if err != nil {
		return ir.Address{}, err
	}
	return h.engine.FollowAndQueue(ctx, addr)
}

func (h *Harness) checkExpect(i int, step Step, got ir.Address, value any, err error) bool {
	exp := step.Expect
	if exp != nil && exp.Error != "" {
		if err == nil {
			h.result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got success", i, step.Op, exp.Error))
			return false
		}
		if code := string(ir.CodeOf(err)); code != exp.Error {
			h.result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %s: %v", i, step.Op, exp.Error, code, err))
			return false
		}
		return true
	}
	if err != nil {
		h.result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Op, err))
		return false
	}
	if exp == nil {
		return true
	}

	if exp.Address != "" {
		want, perr := ir.ParseAddress(h.expand(exp.Address))
		if perr != nil {
			h.result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Op, perr))
			return false
		}
		if got != want {
			h.result.AddError(fmt.Sprintf("step %d (%s): expected address %s, got %s", i, step.Op, want, got))
		}
	}
	if exp.Value != nil {
		equal, cerr := valuesEqual(exp.Value, value)
		if cerr != nil {
			h.result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Op, cerr))
		} else if !equal {
			h.result.AddError(fmt.Sprintf("step %d (%s): value mismatch", i, step.Op))
		}
	}
	return true
}

// persist round-trips the engine snapshot through a temporary store.
func (h *Harness) persist(ctx context.Context) error {
	snap, err := h.engine.Snapshot()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "schemastore-store-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "snapshot.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.WriteSnapshot(ctx, snap); err != nil {
		return err
	}
	back, err := st.ReadSnapshot(ctx, snap.Session)
	if err != nil {
		return err
	}
	if len(back.Built) != len(snap.Built) || len(back.Unbuilt) != len(snap.Unbuilt) {
		return fmt.Errorf("persisted snapshot differs: built %d/%d, unbuilt %d/%d",
			len(back.Built), len(snap.Built), len(back.Unbuilt), len(snap.Unbuilt))
	}
	for i := range snap.Built {
		if back.Built[i].Address != snap.Built[i].Address || back.Built[i].Digest != snap.Built[i].Digest {
			return fmt.Errorf("persisted built entry %d differs: %s", i, back.Built[i].Address)
		}
	}
	return nil
}

func (h *Harness) expandAssertions(in []Assertion) []Assertion {
	out := make([]Assertion, len(in))
	for i, a := range in {
		a.Address = h.expand(a.Address)
		a.Target = h.expand(a.Target)
		if a.Addresses != nil {
			addrs := make([]string, len(a.Addresses))
			for j, s := range a.Addresses {
				addrs[j] = h.expand(s)
			}
			a.Addresses = addrs
		}
		out[i] = a
	}
	return out
}

// scenarioBase returns the base value with {{dir}} expanded in strings.
func (h *Harness) scenarioBase() any {
	return h.expandValue(h.base)
}

// expand replaces the files directory placeholder.
func (h *Harness) expand(s string) string {
	if h.dirURI == "" {
		return s
	}
	return strings.ReplaceAll(s, DirPlaceholder, h.dirURI)
}

// collapse is the inverse of expand, for golden output.
func (h *Harness) collapse(s string) string {
	if h.dirURI == "" {
		return s
	}
	return strings.ReplaceAll(s, h.dirURI, DirPlaceholder)
}

func (h *Harness) expandValue(v any) any {
	switch v := v.(type) {
	case string:
		return h.expand(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, x := range v {
			out[k] = h.expandValue(x)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = h.expandValue(x)
		}
		return out
	default:
		return v
	}
}

func writeFiles(dir string, files map[string]string) error {
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", rel, err)
		}
	}
	return nil
}
