// Package pipeline wires the seven detection stages into the single
// external operation the forensic detection pipeline exposes: Analyze.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aegisshield/forensics-engine/internal/centrality"
	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/cycles"
	"github.com/aegisshield/forensics-engine/internal/graphbuilder"
	"github.com/aegisshield/forensics-engine/internal/ingest"
	"github.com/aegisshield/forensics-engine/internal/mathutil"
	"github.com/aegisshield/forensics-engine/internal/metrics"
	"github.com/aegisshield/forensics-engine/internal/model"
	"github.com/aegisshield/forensics-engine/internal/scoring"
	"github.com/aegisshield/forensics-engine/internal/shells"
	"github.com/aegisshield/forensics-engine/internal/smurfing"
	"github.com/aegisshield/forensics-engine/internal/whitelist"
)

// Pipeline runs the forensic detection pipeline over one transaction
// batch per Analyze call. It holds no state between calls.
type Pipeline struct {
	cfg     config.PipelineConfig
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New builds a Pipeline with the given configuration. A nil logger
// falls back to slog.Default(); a nil metrics collector disables
// instrumentation.
func New(cfg config.PipelineConfig, logger *slog.Logger, m *metrics.Collector) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger, metrics: m}
}

// Analyze runs every stage in order and assembles the report (§2, §6).
func (p *Pipeline) Analyze(ctx context.Context, source ingest.Source) (*model.Report, error) {
	start := time.Now()
	runID := uuid.New().String()

	records, err := source.Records()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction source: %w", err)
	}

	p.logger.Info("starting forensic analysis", "run_id", runID, "transaction_count", len(records))

	g, err := graphbuilder.Build(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction graph: %w", err)
	}

	p.logger.Info("graph built", "vertices", g.NumVertices(), "edges", g.NumEdges())

	cycleResult, ok := cycles.Detect(ctx, g, p.cfg)
	if !ok {
		p.logger.Warn("cycle enumeration degraded, continuing with no retained cycles")
		if p.metrics != nil {
			p.metrics.RecordDegradation("cycles")
		}
	}
	if cycleResult.BudgetExhausted && p.metrics != nil {
		p.metrics.RecordCycleBudgetExhausted()
	}

	smurfingResult := smurfing.Detect(g, p.cfg)
	shellResult := shells.Detect(g, p.cfg)
	whitelisted := whitelist.Compute(g, p.cfg)

	centralityResult, ok := centrality.Compute(g, p.cfg)
	if !ok {
		p.logger.Warn("centrality computation degraded, continuing with all-zero centrality")
		if p.metrics != nil {
			p.metrics.RecordDegradation("centrality")
		}
	}

	nodeRingMap, rings := assignRings(cycleResult, smurfingResult, shellResult)

	accounts := scoring.Score(scoring.Input{
		Graph:        g,
		Config:       p.cfg,
		Cycles:       cycleResult.Cycles,
		CyclesByNode: cycleResult.ByNode,
		SmurfingTags: smurfingResult.Tags,
		ShellSet:     shellResult.Set,
		NodeRingMap:  nodeRingMap,
		Centrality:   centralityResult,
		Whitelisted:  whitelisted,
	})

	ringEdges := scoring.RingEdgeSet(g, cycleResult.Cycles, smurfingResult.Rings)
	graphView := scoring.Graph(g, accounts, centralityResult, ringEdges)

	elapsed := time.Since(start)

	report := &model.Report{
		RunID:              runID,
		SuspiciousAccounts: accounts,
		FraudRings:         rings,
		Summary: model.Summary{
			TotalAccountsAnalyzed:     g.NumVertices(),
			SuspiciousAccountsFlagged: len(accounts),
			FraudRingsDetected:        len(rings),
			ProcessingTimeSeconds:     mathutil.Round(elapsed.Seconds(), 2),
		},
		Graph: graphView,
	}

	if p.metrics != nil {
		p.metrics.RecordBatch(elapsed, len(accounts), rings)
	}

	p.logger.Info("forensic analysis complete",
		"run_id", runID,
		"suspicious_accounts", len(accounts),
		"fraud_rings", len(rings),
		"duration_seconds", report.Summary.ProcessingTimeSeconds)

	return report, nil
}

// assignRings accumulates ring candidates from every detector in the
// fixed traversal order required for deterministic ring ids (§5):
// cycles in discovery order, then smurfing rings (already produced in
// ascending-vertex-id, fan-in-before-fan-out order), then shell
// components in ascending representative-id order. The global counter
// is owned entirely here; no detector ever mints an id itself.
func assignRings(cr *cycles.Result, sr *smurfing.Result, shr *shells.Result) (map[string]string, []model.FraudRing) {
	nodeRingMap := make(map[string]string)
	var rings []model.FraudRing
	counter := 0

	nextID := func() string {
		counter++
		return fmt.Sprintf("RING_%03d", counter)
	}

	for _, c := range cr.Cycles {
		id := nextID()
		rings = append(rings, model.FraudRing{
			RingID:      id,
			Members:     c.Members,
			PatternType: model.RingPatternType(model.CycleLengthTag(c.Length)),
			RiskScore:   c.RiskScore,
		})
		for _, m := range c.Members {
			nodeRingMap[m] = id
		}
	}

	for i, r := range sr.Rings {
		id := nextID()
		patternType := model.RingSmurfingFanIn
		if r.FanOut {
			patternType = model.RingSmurfingFanOut
		}
		rings = append(rings, model.FraudRing{
			RingID:      id,
			Members:     r.Members,
			PatternType: patternType,
			RiskScore:   r.RiskScore,
		})

		nodeRingMap[sr.HubAssignment[i]] = id
		for _, peer := range sr.PeerAssignment[i] {
			if _, already := nodeRingMap[peer]; !already {
				nodeRingMap[peer] = id
			}
		}
	}

	for _, comp := range shr.Components {
		id := nextID()
		rings = append(rings, model.FraudRing{
			RingID:      id,
			Members:     comp.Members,
			PatternType: model.RingLayeredShell,
			RiskScore:   85.0,
		})
		for _, m := range comp.Members {
			nodeRingMap[m] = id
		}
	}

	return nodeRingMap, rings
}
