// Package graphbuilder implements the first stage of the forensic
// detection pipeline: collapsing a transaction batch, which may contain
// many transactions between the same two accounts, into one simple
// directed graph with at most one sender->receiver edge per pair.
package graphbuilder

import (
	"context"
	"fmt"
	"sort"

	"github.com/aegisshield/forensics-engine/internal/model"
)

// Graph is the directed simple graph the rest of the pipeline operates
// on. The vertex set and both adjacency directions are indexed here
// directly: every edge carries both an amount and a timestamp, and
// every later stage's query (degrees, successors, predecessors, edge
// lookup) is served straight from these maps, so there is no separate
// topology-only representation underneath.
type Graph struct {
	vertices map[string]struct{}
	out      map[string]map[string]model.EdgeAttrs
	in       map[string]map[string]model.EdgeAttrs
}

// Vertices returns every account id in the graph, sorted ascending.
// Several later stages (ring-id assignment, sampled centrality) require
// a deterministic vertex order; sorting once here means callers never
// have to re-derive it from a map.
func (g *Graph) Vertices() []string {
	ids := make([]string, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NumVertices returns the vertex count.
func (g *Graph) NumVertices() int {
	return len(g.vertices)
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	n := 0
	for _, m := range g.out {
		n += len(m)
	}
	return n
}

// HasVertex reports whether id is a known account.
func (g *Graph) HasVertex(id string) bool {
	_, ok := g.vertices[id]
	return ok
}

// OutDegree returns the number of distinct accounts id has sent to.
func (g *Graph) OutDegree(id string) int {
	return len(g.out[id])
}

// InDegree returns the number of distinct accounts id has received from.
func (g *Graph) InDegree(id string) int {
	return len(g.in[id])
}

// Successors returns the accounts id has sent to, sorted ascending.
func (g *Graph) Successors(id string) []string {
	return sortedKeys(g.out[id])
}

// Predecessors returns the accounts id has received from, sorted ascending.
func (g *Graph) Predecessors(id string) []string {
	return sortedKeys(g.in[id])
}

// Edge returns the attributes of the sender->receiver edge, if present.
func (g *Graph) Edge(sender, receiver string) (model.EdgeAttrs, bool) {
	attrs, ok := g.out[sender][receiver]
	return attrs, ok
}

// HasEdge reports whether a sender->receiver edge exists.
func (g *Graph) HasEdge(sender, receiver string) bool {
	_, ok := g.out[sender][receiver]
	return ok
}

func sortedKeys(m map[string]model.EdgeAttrs) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Build collapses a transaction batch into a simple directed graph. When
// multiple transactions share a (sender, receiver) pair, the later
// transaction (by position in records) replaces the earlier one's
// amount and timestamp entirely — last write wins, no averaging or
// accumulation.
func Build(ctx context.Context, records []model.TransactionRecord) (*Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := &Graph{
		vertices: make(map[string]struct{}),
		out:      make(map[string]map[string]model.EdgeAttrs),
		in:       make(map[string]map[string]model.EdgeAttrs),
	}

	for _, rec := range records {
		if rec.SenderID == "" || rec.ReceiverID == "" {
			return nil, fmt.Errorf("%w: transaction %q missing sender or receiver", model.ErrInvalidInput, rec.TransactionID)
		}

		g.addVertex(rec.SenderID)
		g.addVertex(rec.ReceiverID)

		// A self-transfer (sender == receiver) is a permitted edge per
		// the data model and counts toward both the vertex's in-degree
		// and out-degree, same as any other edge.
		attrs := model.EdgeAttrs{Amount: rec.Amount, Timestamp: rec.Timestamp}
		g.replaceEdge(rec.SenderID, rec.ReceiverID, attrs)
	}

	return g, nil
}

func (g *Graph) addVertex(id string) {
	g.vertices[id] = struct{}{}
}

func (g *Graph) replaceEdge(sender, receiver string, attrs model.EdgeAttrs) {
	if g.out[sender] == nil {
		g.out[sender] = make(map[string]model.EdgeAttrs)
	}
	if g.in[receiver] == nil {
		g.in[receiver] = make(map[string]model.EdgeAttrs)
	}

	g.out[sender][receiver] = attrs
	g.in[receiver][sender] = attrs
}
