// Package cycles implements the second pipeline stage: bounded
// enumeration of simple directed cycles of length 3 to 5.
//
// The DFS extends paths of any length, exactly like the source
// generator it mirrors — only retention is restricted to [min, max].
// A candidate cycle of any length, inside or outside the retained
// window, is counted against the shared budget the instant it closes.
package cycles

import (
	"context"

	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/graphbuilder"
	"github.com/aegisshield/forensics-engine/internal/mathutil"
)

const maxCycleLength = 5

// Cycle is one retained cycle, members in cycle order starting from its
// least vertex (the order the enumeration discovered it in).
type Cycle struct {
	Members   []string
	Length    int
	RiskScore float64
}

// Result is the Cycle Detector's output.
type Result struct {
	// Cycles are in discovery order; ring ids are later assigned in
	// this same order.
	Cycles []Cycle
	// ByNode maps an account id to the indices (into Cycles) of every
	// retained cycle it participates in.
	ByNode map[string][]int
	// BudgetExhausted reports whether enumeration stopped because it
	// hit the candidate budget rather than exhausting the graph.
	BudgetExhausted bool
}

// Detect enumerates bounded simple cycles over g. Any panic during
// enumeration is recovered and reported as a non-fatal degradation: the
// caller receives an empty Result and ok=false, and is expected to log
// the event rather than abort the pipeline (§7, AnalyticsDegraded).
func Detect(ctx context.Context, g *graphbuilder.Graph, cfg config.PipelineConfig) (result *Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result = &Result{ByNode: make(map[string][]int)}
			ok = false
		}
	}()

	if err := ctx.Err(); err != nil {
		return &Result{ByNode: make(map[string][]int)}, false
	}

	d := &detector{
		g:        g,
		cfg:      cfg,
		byNode:   make(map[string][]int),
		minLen:   cfg.CycleMinLength,
		maxLen:   min(cfg.CycleMaxLength, maxCycleLength),
		budget:   cfg.CycleBudget,
		visited:  make(map[string]bool),
	}

	vertices := g.Vertices()
	index := make(map[string]int, len(vertices))
	for i, v := range vertices {
		index[v] = i
	}
	d.index = index

	for i, v := range vertices {
		if d.examined >= d.budget {
			d.budgetExhausted = true
			break
		}
		d.visited[v] = true
		d.dfs(v, i, []string{v})
		d.visited[v] = false
	}

	return &Result{
		Cycles:          d.cycles,
		ByNode:          d.byNode,
		BudgetExhausted: d.budgetExhausted,
	}, true
}

type detector struct {
	g       *graphbuilder.Graph
	cfg     config.PipelineConfig
	index   map[string]int
	visited map[string]bool

	minLen int
	maxLen int
	budget int

	examined        int
	budgetExhausted bool
	cycles          []Cycle
	byNode          map[string][]int
}

// dfs extends path (which always starts and currently ends at the
// vertex being explored) looking for edges back to start. Only
// successors whose sorted index is >= startIdx are considered, the
// standard "least vertex" rule that ensures each simple cycle is
// discovered exactly once, rooted at its smallest member.
func (d *detector) dfs(start string, startIdx int, path []string) {
	if d.examined >= d.budget {
		d.budgetExhausted = true
		return
	}

	current := path[len(path)-1]
	for _, next := range d.g.Successors(current) {
		if d.examined >= d.budget {
			d.budgetExhausted = true
			return
		}

		nextIdx, known := d.index[next]
		if !known || nextIdx < startIdx {
			continue
		}

		if next == start {
			d.examined++
			length := len(path)
			if length >= d.minLen && length <= d.maxLen {
				d.retain(path)
			}
			continue
		}

		if d.visited[next] {
			continue
		}

		d.visited[next] = true
		d.dfs(start, startIdx, append(path, next))
		d.visited[next] = false
	}
}

func (d *detector) retain(path []string) {
	members := make([]string, len(path))
	copy(members, path)

	amounts := make([]float64, 0, len(members))
	for i, m := range members {
		next := members[(i+1)%len(members)]
		if attrs, ok := d.g.Edge(m, next); ok {
			amounts = append(amounts, attrs.Amount)
		}
	}

	avg := mathutil.Mean(amounts)
	variance := mathutil.Variance(amounts)

	consistencyBonus := 0.0
	if variance < d.cfg.CycleConsistencyRatio*avg {
		consistencyBonus = d.cfg.CycleConsistencyBonus
	}

	k := len(members)
	risk := mathutil.Round(60+5*float64(k)+consistencyBonus, 2)
	if risk > 100 {
		risk = 100
	}

	idx := len(d.cycles)
	d.cycles = append(d.cycles, Cycle{
		Members:   members,
		Length:    k,
		RiskScore: risk,
	})

	for _, m := range members {
		d.byNode[m] = append(d.byNode[m], idx)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
