package dictionary

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// DependencyGraph orders bound types by their owning to-one relationships.
// A type holding a to-one reference without mapped_by depends on the target.
type DependencyGraph struct {
	nodes []string
	edges map[string][]string // type -> dependencies
}

// NewDependencyGraph builds the graph over the given bindings. Targets that
// are not among them are ignored.
func NewDependencyGraph(bindings []*EntityBinding) *DependencyGraph {
	g := &DependencyGraph{edges: make(map[string][]string)}

	for _, b := range bindings {
		g.nodes = append(g.nodes, b.ExposedName)
	}
	slices.Sort(g.nodes)

	byType := make(map[reflect.Type]string, len(bindings))
	for _, b := range bindings {
		byType[b.EntityType] = b.ExposedName
	}

	for _, b := range bindings {
		for _, r := range b.relationships {
			if r.Cardinality != ToOne || r.MappedBy != "" {
				continue
			}
			target, ok := byType[r.Target]
			if !ok || target == b.ExposedName || slices.Contains(g.edges[b.ExposedName], target) {
				continue
			}
			g.edges[b.ExposedName] = append(g.edges[b.ExposedName], target)
		}
	}
	return g
}

// DetectCycles returns the dependency cycles in the graph
func (g *DependencyGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range g.edges[node] {
			if !visited[next] {
				dfs(next, path)
			} else if onStack[next] {
				start := slices.Index(path, next)
				if start >= 0 {
					cycles = append(cycles, slices.Clone(path[start:]))
				}
			}
		}
		onStack[node] = false
	}

	for _, node := range g.nodes {
		if !visited[node] {
			dfs(node, nil)
		}
	}
	return cycles
}

// TopologicalSort returns exposed names with dependencies first. Ties are
// broken alphabetically.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	outDegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string)
	for _, node := range g.nodes {
		outDegree[node] = len(g.edges[node])
		for _, dep := range g.edges[node] {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	var queue []string
	for _, node := range g.nodes {
		if outDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		var ready []string
		for _, dependent := range dependents[node] {
			outDegree[dependent]--
			if outDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		slices.Sort(ready)
		queue = append(queue, ready...)
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("circular dependency detected: %s", formatCycles(g.DetectCycles()))
	}
	return result, nil
}

// Dependencies returns the direct dependencies of a type
func (g *DependencyGraph) Dependencies(name string) []string {
	return slices.Clone(g.edges[name])
}

func formatCycles(cycles [][]string) string {
	parts := make([]string, len(cycles))
	for i, cycle := range cycles {
		parts[i] = strings.Join(append(slices.Clone(cycle), cycle[0]), " -> ")
	}
	return strings.Join(parts, "; ")
}

// DependencyOrder returns the exposed names of all bindings, each after the
// types it references through owning to-one relationships
func (d *Dictionary) DependencyOrder() ([]string, error) {
	return NewDependencyGraph(d.Bindings()).TopologicalSort()
}

// Stats summarizes the dictionary
type Stats struct {
	Bindings             int  `json:"bindings"`
	Attributes           int  `json:"attributes"`
	ComputedAttributes   int  `json:"computed_attributes"`
	Relationships        int  `json:"relationships"`
	Hooks                int  `json:"hooks"`
	BindingsWithHooks    int  `json:"bindings_with_hooks"`
	PendingTypes         int  `json:"pending_types"`
	CheckAliases         int  `json:"check_aliases"`
	CircularDependencies bool `json:"circular_dependencies"`
}

// Stats returns statistics about the dictionary
func (d *Dictionary) Stats() *Stats {
	bindings := d.Bindings()

	d.mu.RLock()
	pending := len(d.pending)
	d.mu.RUnlock()

	stats := &Stats{
		Bindings:     len(bindings),
		PendingTypes: pending,
		CheckAliases: d.checks.Len(),
	}
	for _, b := range bindings {
		stats.Attributes += len(b.attributes)
		stats.Relationships += len(b.relationships)
		for _, a := range b.attributes {
			if a.Computed {
				stats.ComputedAttributes++
			}
		}
		if n := b.HookCount(); n > 0 {
			stats.Hooks += n
			stats.BindingsWithHooks++
		}
	}
	stats.CircularDependencies = len(NewDependencyGraph(bindings).DetectCycles()) > 0
	return stats
}
