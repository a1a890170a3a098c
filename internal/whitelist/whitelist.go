// Package whitelist implements the fifth pipeline stage: recognising
// payroll-like emitters and exempting them from the suspicious-accounts
// output.
package whitelist

import (
	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/graphbuilder"
)

// Compute returns the set of whitelisted vertices: those with
// out_degree > WhitelistMinOutDegree, zero in-degree, and outgoing
// edges spanning at most WhitelistMaxUniqueDays distinct calendar
// dates. Whitelisting only filters the final suspicious-accounts list;
// any ring the vertex was already assigned to is left untouched.
func Compute(g *graphbuilder.Graph, cfg config.PipelineConfig) map[string]bool {
	whitelisted := make(map[string]bool)

	for _, v := range g.Vertices() {
		if g.OutDegree(v) <= cfg.WhitelistMinOutDegree || g.InDegree(v) != 0 {
			continue
		}

		days := make(map[string]bool)
		for _, r := range g.Successors(v) {
			attrs, ok := g.Edge(v, r)
			if !ok {
				continue
			}
			days[attrs.Timestamp.Format("2006-01-02")] = true
		}

		if len(days) <= cfg.WhitelistMaxUniqueDays {
			whitelisted[v] = true
		}
	}

	return whitelisted
}
