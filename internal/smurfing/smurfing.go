// Package smurfing implements the third pipeline stage: detecting dense
// fan-in and fan-out stars within a temporal window.
package smurfing

import (
	"sort"
	"time"

	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/graphbuilder"
	"github.com/aegisshield/forensics-engine/internal/model"
)

// Tag records which side(s) of a smurfing star a vertex was tagged
// with. A vertex can carry both: a hub can be a fan-in sink for one set
// of senders and a fan-out source for another set of receivers at once.
type Tag struct {
	FanIn  bool
	FanOut bool
}

// Ring is a detected fan-in or fan-out star, pending ring-id assignment.
type Ring struct {
	Hub         string
	Members     []string // unique peers plus the hub, peers first
	FanOut      bool      // false = fan_in, true = fan_out
	RiskScore   float64
}

// Result is the Smurfing Detector's output.
type Result struct {
	Tags map[string]Tag
	// Rings are in discovery order: vertices visited in ascending id
	// order, fan-in checked before fan-out for each vertex.
	Rings []Ring
	// HubAssignment maps a ring's index (into Rings) to the node that
	// must always receive that ring id regardless of any prior
	// assignment (the hub).
	// PeerAssignment maps a ring's index to the peers that should only
	// receive the ring id if not already assigned to something else.
	HubAssignment  []string
	PeerAssignment [][]string
}

// Detect scans every vertex for fan-in and fan-out stars.
func Detect(g *graphbuilder.Graph, cfg config.PipelineConfig) *Result {
	res := &Result{Tags: make(map[string]Tag)}

	window := time.Duration(cfg.SmurfingWindowHours * float64(time.Hour))

	for _, v := range g.Vertices() {
		tag := res.Tags[v]

		if g.InDegree(v) >= cfg.SmurfingMinDegree {
			senders := g.Predecessors(v)
			if withinWindow(edgeTimestamps(g, senders, v, false), window) {
				tag.FanIn = true
				res.Tags[v] = tag

				members := uniqueWithHub(senders, v)
				if len(members) > cfg.SmurfingMinMembers {
					risk := cfg.SmurfingBaseRisk + float64(len(members))
					if risk > 100 {
						risk = 100
					}
					res.emit(v, senders, risk, false)
				}
			}
		}

		if g.OutDegree(v) >= cfg.SmurfingMinDegree {
			receivers := g.Successors(v)
			if withinWindow(edgeTimestamps(g, receivers, v, true), window) {
				tag.FanOut = true
				res.Tags[v] = tag

				members := uniqueWithHub(receivers, v)
				if len(members) > cfg.SmurfingMinMembers {
					risk := cfg.SmurfingBaseRisk + float64(len(members))
					if risk > 100 {
						risk = 100
					}
					res.emit(v, receivers, risk, true)
				}
			}
		}
	}

	return res
}

func (res *Result) emit(hub string, peers []string, risk float64, fanOut bool) {
	members := uniqueWithHub(peers, hub)
	res.Rings = append(res.Rings, Ring{
		Hub:       hub,
		Members:   members,
		FanOut:    fanOut,
		RiskScore: risk,
	})
	res.HubAssignment = append(res.HubAssignment, hub)

	peerCopy := make([]string, 0, len(peers))
	for _, p := range peers {
		if p != hub {
			peerCopy = append(peerCopy, p)
		}
	}
	res.PeerAssignment = append(res.PeerAssignment, peerCopy)
}

// edgeTimestamps collects the timestamps of the edges between hub and
// each peer. fromHub selects hub->peer edges (fan-out); otherwise
// peer->hub edges (fan-in) are used.
func edgeTimestamps(g *graphbuilder.Graph, peers []string, hub string, fromHub bool) []time.Time {
	ts := make([]time.Time, 0, len(peers))
	for _, p := range peers {
		var a model.EdgeAttrs
		var ok bool
		if fromHub {
			a, ok = g.Edge(hub, p)
		} else {
			a, ok = g.Edge(p, hub)
		}
		if ok {
			ts = append(ts, a.Timestamp)
		}
	}
	return ts
}

func withinWindow(timestamps []time.Time, window time.Duration) bool {
	if len(timestamps) == 0 {
		return false
	}
	sorted := make([]time.Time, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	span := sorted[len(sorted)-1].Sub(sorted[0])
	return span <= window
}

func uniqueWithHub(peers []string, hub string) []string {
	seen := make(map[string]bool, len(peers)+1)
	members := make([]string, 0, len(peers)+1)
	for _, p := range peers {
		if p == hub || seen[p] {
			continue
		}
		seen[p] = true
		members = append(members, p)
	}
	members = append(members, hub)
	return members
}
