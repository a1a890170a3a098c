// Package shells implements the fourth pipeline stage: identifying
// weakly-connected components of low-degree pass-through vertices
// ("layered shell chains").
package shells

import (
	"sort"

	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/graphbuilder"
)

// Component is a weakly-connected component of potential-shell vertices
// with at least two members, pending ring-id assignment.
type Component struct {
	// RepresentativeID is the smallest member id, used to order
	// components deterministically before ring ids are assigned.
	RepresentativeID string
	Members          []string
}

// Result is the Shell-Chain Detector's output.
type Result struct {
	// Components are sorted by RepresentativeID ascending, the order
	// in which ring ids must be assigned (§5).
	Components []Component
	// Set reports whether a vertex is a potential-shell member of any
	// retained component, for the scorer's shell_chains membership test.
	Set map[string]bool
}

// isPotentialShell reports whether v meets the potential-shell
// predicate: in_degree >= 1, out_degree >= 1, and
// 2 <= in_degree+out_degree <= 3.
func isPotentialShell(g *graphbuilder.Graph, v string, cfg config.PipelineConfig) bool {
	in, out := g.InDegree(v), g.OutDegree(v)
	if in < 1 || out < 1 {
		return false
	}
	total := in + out
	return total >= cfg.ShellMinDegree && total <= cfg.ShellMaxDegree
}

// Detect finds weakly-connected components of potential-shell vertices.
func Detect(g *graphbuilder.Graph, cfg config.PipelineConfig) *Result {
	shells := make(map[string]bool)
	for _, v := range g.Vertices() {
		if isPotentialShell(g, v, cfg) {
			shells[v] = true
		}
	}

	uf := newUnionFind()
	for v := range shells {
		uf.add(v)
	}
	for v := range shells {
		for _, n := range g.Successors(v) {
			if shells[n] {
				uf.union(v, n)
			}
		}
		for _, n := range g.Predecessors(v) {
			if shells[n] {
				uf.union(v, n)
			}
		}
	}

	groups := make(map[string][]string)
	for v := range shells {
		root := uf.find(v)
		groups[root] = append(groups[root], v)
	}

	var components []Component
	set := make(map[string]bool)
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		for _, m := range members {
			set[m] = true
		}
		components = append(components, Component{
			RepresentativeID: members[0],
			Members:          members,
		})
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i].RepresentativeID < components[j].RepresentativeID
	})

	return &Result{Components: components, Set: set}
}

// unionFind is a minimal disjoint-set structure for computing weakly
// connected components over the induced subgraph of potential-shell
// vertices: a small purpose-built structure over that ad hoc subset,
// rather than a whole-graph library API coerced into a subgraph view.
type unionFind struct {
	parent map[string]string
	rank   map[string]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string), rank: make(map[string]int)}
}

func (u *unionFind) add(v string) {
	if _, ok := u.parent[v]; !ok {
		u.parent[v] = v
	}
}

func (u *unionFind) find(v string) string {
	root := v
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[v] != root {
		u.parent[v], v = root, u.parent[v]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
