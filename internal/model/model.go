// Package model holds the data types shared by every stage of the
// forensic detection pipeline: the input transaction record, the graph
// it builds into, and the report the pipeline assembles at the end.
package model

import "time"

// TransactionRecord is one row of the input batch. All five fields are
// required; a missing one is a fatal InvalidInput error at ingestion.
type TransactionRecord struct {
	TransactionID string
	SenderID      string
	ReceiverID    string
	Amount        float64
	Timestamp     time.Time
}

// EdgeAttrs are the attributes carried by a directed sender->receiver
// edge. When two records share the same (sender, receiver) pair, the
// later record's attributes replace the earlier ones entirely.
type EdgeAttrs struct {
	Amount    float64
	Timestamp time.Time
}

// PatternTag is a sum type over the kinds of evidence a detector can pin
// to an account. Using a closed set of string constants instead of an
// inheritance hierarchy keeps the scorer's pattern-list construction a
// flat switch instead of a dispatch tree.
type PatternTag string

const (
	PatternCycleLength3   PatternTag = "cycle_length_3"
	PatternCycleLength4   PatternTag = "cycle_length_4"
	PatternCycleLength5   PatternTag = "cycle_length_5"
	PatternSmurfingFanIn  PatternTag = "smurfing_fan_in"
	PatternSmurfingFanOut PatternTag = "smurfing_fan_out"
	PatternLayeredShell   PatternTag = "layered_shell"
	PatternHighCentrality PatternTag = "high_centrality_bridge"
)

// CycleLengthTag returns the PatternTag for a cycle of the given length.
func CycleLengthTag(k int) PatternTag {
	switch k {
	case 3:
		return PatternCycleLength3
	case 4:
		return PatternCycleLength4
	case 5:
		return PatternCycleLength5
	default:
		return PatternTag("cycle_length_unknown")
	}
}

// RingPatternType identifies the structural pattern a fraud ring was
// detected under.
type RingPatternType string

const (
	RingCycleLength3   RingPatternType = "cycle_length_3"
	RingCycleLength4   RingPatternType = "cycle_length_4"
	RingCycleLength5   RingPatternType = "cycle_length_5"
	RingSmurfingFanIn  RingPatternType = "smurfing_fan_in"
	RingSmurfingFanOut RingPatternType = "smurfing_fan_out"
	RingLayeredShell   RingPatternType = "layered_shell_network"
)

// RingNone is the sentinel ring id for an account that was never
// assigned to a ring.
const RingNone = "RING_NONE"

// FraudRing is a detected cluster of accounts sharing a structural
// laundering pattern.
type FraudRing struct {
	RingID      string          `json:"ring_id"`
	Members     []string        `json:"members"`
	PatternType RingPatternType `json:"pattern_type"`
	RiskScore   float64         `json:"risk_score"`
}

// Centrality is the pair of rounded centrality measures attached to a
// suspicious account.
type Centrality struct {
	Degree      float64 `json:"degree"`
	Betweenness float64 `json:"betweenness"`
}

// SuspiciousAccount is one row of the pipeline's flagged-account output.
type SuspiciousAccount struct {
	AccountID        string       `json:"account_id"`
	SuspicionScore   float64      `json:"suspicion_score"`
	DetectedPatterns []PatternTag `json:"detected_patterns"`
	RingID           string       `json:"ring_id"`
	Centrality       Centrality   `json:"centrality"`
}

// GraphNode is one vertex of the annotated graph view.
type GraphNode struct {
	ID              string  `json:"id"`
	InDegree        int     `json:"in_degree"`
	OutDegree       int     `json:"out_degree"`
	Suspicious      bool    `json:"suspicious"`
	Score           float64 `json:"score"`
	CentralityScore float64 `json:"centrality_score"`
}

// GraphLink is one edge of the annotated graph view.
type GraphLink struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
	IsRing    bool      `json:"is_ring"`
}

// GraphView is the annotated graph returned alongside the report, ready
// to be handed to a visualization layer.
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// Summary is the headline statistics block of the report.
type Summary struct {
	TotalAccountsAnalyzed     int     `json:"total_accounts_analyzed"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"`
}

// Report is the single output of one Analyze call.
type Report struct {
	RunID              string              `json:"run_id"`
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []FraudRing         `json:"fraud_rings"`
	Summary            Summary             `json:"summary"`
	Graph              GraphView           `json:"_graph"`
}
