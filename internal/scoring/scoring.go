// Package scoring implements the seventh and final pipeline stage: it
// combines every detector's evidence into a suspicion score per
// candidate account and builds the annotated graph view. The summary
// block is assembled by the pipeline package.
package scoring

import (
	"sort"

	"github.com/aegisshield/forensics-engine/internal/centrality"
	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/cycles"
	"github.com/aegisshield/forensics-engine/internal/graphbuilder"
	"github.com/aegisshield/forensics-engine/internal/mathutil"
	"github.com/aegisshield/forensics-engine/internal/model"
	"github.com/aegisshield/forensics-engine/internal/smurfing"
)

// Input bundles every upstream stage's output the scorer needs. It
// exists so Score's signature stays readable as the number of
// contributing stages grows.
type Input struct {
	Graph         *graphbuilder.Graph
	Config        config.PipelineConfig
	Cycles        []cycles.Cycle
	CyclesByNode  map[string][]int
	SmurfingTags  map[string]smurfing.Tag
	ShellSet      map[string]bool
	NodeRingMap   map[string]string
	Centrality    *centrality.Result
	Whitelisted   map[string]bool
}

// Score computes the suspicious-accounts list, sorted descending by
// suspicion score (ties broken by candidate-set insertion order).
func Score(in Input) []model.SuspiciousAccount {
	candidates := candidateSet(in)

	accounts := make([]model.SuspiciousAccount, 0, len(candidates))
	for _, v := range candidates {
		if in.Whitelisted[v] {
			continue
		}

		base := baseScore(in, v)
		betweenness := in.Centrality.Betweenness[v]

		score := base
		boosted := false
		if betweenness > in.Config.CentralityBridgeMin {
			score = mathutil.Clamp(base+in.Config.CentralityBoost, 0, 100)
			boosted = true
		}

		bridge := boosted && score > in.Config.CentralityBridgeScoreMin

		if score <= 0 {
			continue
		}

		accounts = append(accounts, model.SuspiciousAccount{
			AccountID:        v,
			SuspicionScore:   mathutil.Round(score, 2),
			DetectedPatterns: patternList(in, v, bridge),
			RingID:           ringIDOf(in, v),
			Centrality: model.Centrality{
				Degree:      mathutil.Round(in.Centrality.Degree[v], 4),
				Betweenness: mathutil.Round(betweenness, 4),
			},
		})
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].SuspicionScore > accounts[j].SuspicionScore
	})

	return accounts
}

func candidateSet(in Input) []string {
	seen := make(map[string]bool)
	var ordered []string
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			ordered = append(ordered, v)
		}
	}

	for _, v := range in.Graph.Vertices() {
		_, inCycle := in.CyclesByNode[v]
		tag, tagged := in.SmurfingTags[v]
		inShell := in.ShellSet[v]
		if inCycle || (tagged && (tag.FanIn || tag.FanOut)) || inShell {
			add(v)
		}
	}

	return ordered
}

func baseScore(in Input, v string) float64 {
	var subtotal float64

	if count := len(in.CyclesByNode[v]); count > 0 {
		subtotal += 50 + minFloat(30, 10*float64(count))
	}

	if in.ShellSet[v] {
		subtotal += 40
	}

	tag := in.SmurfingTags[v]
	if tag.FanOut {
		subtotal += 35
	}
	if tag.FanIn {
		if in.Graph.OutDegree(v) > 0 {
			subtotal += 30
		} else {
			subtotal -= 10
		}
	}

	if in.Graph.InDegree(v) > 5 && in.Graph.OutDegree(v) > 5 {
		subtotal += 15
	}

	return mathutil.Clamp(mathutil.Round(subtotal, 2), 0, 100)
}

func patternList(in Input, v string, bridge bool) []model.PatternTag {
	var tags []model.PatternTag
	seen := make(map[model.PatternTag]bool)
	push := func(t model.PatternTag) {
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}

	lengths := cycleLengths(in.Cycles, in.CyclesByNode[v])
	for _, k := range lengths {
		push(model.CycleLengthTag(k))
	}

	tag := in.SmurfingTags[v]
	if tag.FanIn {
		push(model.PatternSmurfingFanIn)
	}
	if tag.FanOut {
		push(model.PatternSmurfingFanOut)
	}
	if in.ShellSet[v] {
		push(model.PatternLayeredShell)
	}
	if bridge {
		push(model.PatternHighCentrality)
	}

	return tags
}

func cycleLengths(all []cycles.Cycle, indices []int) []int {
	seen := make(map[int]bool)
	var lengths []int
	for _, idx := range indices {
		k := all[idx].Length
		if !seen[k] {
			seen[k] = true
			lengths = append(lengths, k)
		}
	}
	sort.Ints(lengths)
	return lengths
}

func ringIDOf(in Input, v string) string {
	if id, ok := in.NodeRingMap[v]; ok {
		return id
	}
	return model.RingNone
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Graph assembles the annotated graph view (§4.7). ringEdges is the set
// of (source, target) pairs belonging to a retained cycle or connecting
// two members of the same smurfing ring.
func Graph(g *graphbuilder.Graph, accounts []model.SuspiciousAccount, cent *centrality.Result, ringEdges map[[2]string]bool) model.GraphView {
	scoreByID := make(map[string]float64, len(accounts))
	for _, a := range accounts {
		scoreByID[a.AccountID] = a.SuspicionScore
	}

	view := model.GraphView{}
	for _, v := range g.Vertices() {
		score, suspicious := scoreByID[v]
		view.Nodes = append(view.Nodes, model.GraphNode{
			ID:              v,
			InDegree:        g.InDegree(v),
			OutDegree:       g.OutDegree(v),
			Suspicious:      suspicious,
			Score:           score,
			CentralityScore: mathutil.Round(cent.Betweenness[v], 4),
		})

		for _, t := range g.Successors(v) {
			attrs, _ := g.Edge(v, t)
			view.Links = append(view.Links, model.GraphLink{
				Source:    v,
				Target:    t,
				Amount:    attrs.Amount,
				Timestamp: attrs.Timestamp,
				IsRing:    ringEdges[[2]string{v, t}],
			})
		}
	}

	return view
}

// RingEdgeSet builds the is_ring lookup: edges that are part of a
// retained cycle, plus edges directly connecting two members of the
// same smurfing ring.
func RingEdgeSet(g *graphbuilder.Graph, cyclesList []cycles.Cycle, smurfingRings []smurfing.Ring) map[[2]string]bool {
	edges := make(map[[2]string]bool)

	for _, c := range cyclesList {
		for i, m := range c.Members {
			next := c.Members[(i+1)%len(c.Members)]
			edges[[2]string{m, next}] = true
		}
	}

	for _, r := range smurfingRings {
		for _, a := range r.Members {
			for _, b := range r.Members {
				if a == b {
					continue
				}
				if g.HasEdge(a, b) {
					edges[[2]string{a, b}] = true
				}
			}
		}
	}

	return edges
}
