package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/smartscript/internal/ir"
)

// LinkWarning reports a suspicious link between rules of one set.
//
// Link problems are warnings, not errors: the engine logs a missing link
// and skips it, and a link cycle is cut by the recursion ceiling.
type LinkWarning struct {
	Set     string   `json:"set"`
	Path    []uint32 `json:"path"`    // Rule ids: [3] or a cycle [1, 2, 1]
	Code    string   `json:"code"`    // ErrMissingLink, ErrLinkKind, ErrLinkCycle
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeLinks checks the link graph of a rule set.
//
// The algorithm:
//  1. Every rule with a nonzero link is an edge rule -> linked rule
//  2. Edges to missing ids, or to rules whose event is not link, are reported
//  3. Tarjan's algorithm finds strongly connected components; each SCC of
//     size > 1, or a self-link, is a cycle
//
// Warnings are ordered by rule id.
func AnalyzeLinks(rs *ir.RuleSet) []LinkWarning {
	set := fmt.Sprintf("%s %d", rs.Source, rs.EntryOrGuid)
	byID := make(map[uint32]ir.Rule, len(rs.Rules))
	for _, r := range rs.Rules {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = r
		}
	}

	var warnings []LinkWarning
	graph := make(linkGraph)
	for _, r := range rs.Rules {
		if _, ok := graph[r.ID]; !ok {
			graph[r.ID] = nil
		}
		if r.Link == 0 {
			continue
		}
		target, ok := byID[r.Link]
		if !ok {
			warnings = append(warnings, LinkWarning{
				Set:     set,
				Path:    []uint32{r.ID, r.Link},
				Code:    ErrMissingLink,
				Message: fmt.Sprintf("rule %d links to missing rule %d", r.ID, r.Link),
				Level:   "warning",
			})
			continue
		}
		if target.Event.Type != ir.EventLink {
			warnings = append(warnings, LinkWarning{
				Set:     set,
				Path:    []uint32{r.ID, r.Link},
				Code:    ErrLinkKind,
				Message: fmt.Sprintf("rule %d links to rule %d whose event is %s, not link", r.ID, r.Link, target.Event.Type),
				Level:   "warning",
			})
		}
		graph[r.ID] = append(graph[r.ID], r.Link)
	}

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || slices.Contains(graph[scc[0]], scc[0]) {
			warnings = append(warnings, cycleWarning(set, scc, graph))
		}
	}

	slices.SortStableFunc(warnings, func(a, b LinkWarning) int {
		return int(a.Path[0]) - int(b.Path[0])
	})
	return warnings
}

// linkGraph maps rule id -> ids it links to.
type linkGraph map[uint32][]uint32

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending id order so results are deterministic.
func tarjanSCC(graph linkGraph) [][]uint32 {
	var (
		index   = 0
		stack   []uint32
		indices = make(map[uint32]int)
		lowlink = make(map[uint32]int)
		onStack = make(map[uint32]bool)
		sccs    [][]uint32
	)

	var strongConnect func(uint32)
	strongConnect = func(v uint32) {
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
			var scc []uint32
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]uint32, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// cycleWarning walks the cycle from the lowest id in the SCC.
func cycleWarning(set string, scc []uint32, graph linkGraph) LinkWarning {
	start := scc[0]
	path := []uint32{start}
	visited := map[uint32]bool{start: true}
	for cur := start; ; {
		next, ok := uint32(0), false
		for _, n := range graph[cur] {
			if slices.Contains(scc, n) && (!visited[n] || n == start) {
				next, ok = n, true
				break
			}
		}
		if !ok {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		visited[next] = true
		cur = next
	}

	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprint(id)
	}
	return LinkWarning{
		Set:     set,
		Path:    path,
		Code:    ErrLinkCycle,
		Message: fmt.Sprintf("link cycle: %s", strings.Join(parts, " -> ")),
		Level:   "warning",
	}
}
