package index

import (
	"fmt"
	"slices"
	"strings"
)

// CycleWarning describes a loop of pure $ref nodes found by static analysis.
//
// Such a loop has no concrete schema anywhere along it, so FollowAndQueue
// fails with a CycleError on any of its members.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path, first node repeated at the end
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles finds every loop in the reference graph.
//
// Nodes are $ref addresses. Each node has one edge: to its target after
// identifier translation, when that target is itself a $ref node. Strongly
// connected components of size > 1, and self-loops, are reported. Results
// are ordered by their smallest member so output is deterministic.
func AnalyzeCycles(ids *Identifiers, refs *References) []CycleWarning {
	if refs.Len() == 0 {
		return []CycleWarning{}
	}

	graph := buildReferenceGraph(ids, refs)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// referenceGraph maps a $ref address to the $ref addresses it leads to.
type referenceGraph map[string][]string

func buildReferenceGraph(ids *Identifiers, refs *References) referenceGraph {
	graph := make(referenceGraph)
	for _, b := range refs.All() {
		from := b.From.String()
		if graph[from] == nil {
			graph[from] = []string{}
		}
		target, _ := ids.Translate(b.To)
		if _, isRef := refs.Target(target); isRef {
			graph[from] = append(graph[from], target.String())
		}
	}
	return graph
}

func hasSelfLoop(node string, graph referenceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning, starting the path at
// the smallest member.
func cycleSCCToWarning(scc []string, graph referenceGraph) CycleWarning {
	start := slices.Min(scc)
	if len(scc) == 1 {
		return CycleWarning{
			Path:    []string{start, start},
			Message: fmt.Sprintf("Self-referencing $ref: %s → %s", start, start),
			Level:   "warning",
		}
	}

	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}
	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		next := ""
		for _, w := range graph[current] {
			if inSCC[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}

	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("$ref cycle: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}
