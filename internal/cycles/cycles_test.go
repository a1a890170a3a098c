package cycles

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/graphbuilder"
	"github.com/aegisshield/forensics-engine/internal/model"
)

func buildGraph(t *testing.T, records []model.TransactionRecord) *graphbuilder.Graph {
	t.Helper()
	g, err := graphbuilder.Build(context.Background(), records)
	require.NoError(t, err)
	return g
}

func TestDetectTriangleCycle(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []model.TransactionRecord{
		{TransactionID: "t1", SenderID: "A", ReceiverID: "B", Amount: 1000, Timestamp: base},
		{TransactionID: "t2", SenderID: "B", ReceiverID: "C", Amount: 1000, Timestamp: base.Add(time.Hour)},
		{TransactionID: "t3", SenderID: "C", ReceiverID: "A", Amount: 1000, Timestamp: base.Add(2 * time.Hour)},
	}
	g := buildGraph(t, records)

	result, ok := Detect(context.Background(), g, config.Default().Pipeline)
	require.True(t, ok)
	require.Len(t, result.Cycles, 1)

	c := result.Cycles[0]
	assert.Equal(t, 3, c.Length)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, c.Members)
	assert.Equal(t, 95.0, c.RiskScore)

	for _, v := range []string{"A", "B", "C"} {
		assert.Len(t, result.ByNode[v], 1)
	}
}

func TestDetectNoCycle(t *testing.T) {
	base := time.Now()
	records := []model.TransactionRecord{
		{TransactionID: "t1", SenderID: "A", ReceiverID: "B", Amount: 1, Timestamp: base},
		{TransactionID: "t2", SenderID: "B", ReceiverID: "C", Amount: 1, Timestamp: base},
	}
	g := buildGraph(t, records)

	result, ok := Detect(context.Background(), g, config.Default().Pipeline)
	require.True(t, ok)
	assert.Empty(t, result.Cycles)
	assert.False(t, result.BudgetExhausted)
}

func TestDetectBudgetRetainsAllDisjointCycles(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var records []model.TransactionRecord
	for i := 0; i < 200; i++ {
		a := fmt.Sprintf("c%d_a", i)
		b := fmt.Sprintf("c%d_b", i)
		c := fmt.Sprintf("c%d_c", i)
		d := fmt.Sprintf("c%d_d", i)
		records = append(records,
			model.TransactionRecord{TransactionID: a + "1", SenderID: a, ReceiverID: b, Amount: 10, Timestamp: base},
			model.TransactionRecord{TransactionID: a + "2", SenderID: b, ReceiverID: c, Amount: 10, Timestamp: base},
			model.TransactionRecord{TransactionID: a + "3", SenderID: c, ReceiverID: d, Amount: 10, Timestamp: base},
			model.TransactionRecord{TransactionID: a + "4", SenderID: d, ReceiverID: a, Amount: 10, Timestamp: base},
		)
	}
	g := buildGraph(t, records)

	result, ok := Detect(context.Background(), g, config.Default().Pipeline)
	require.True(t, ok)
	assert.Len(t, result.Cycles, 200)
	assert.False(t, result.BudgetExhausted)

	seen := make(map[string]bool)
	for _, c := range result.Cycles {
		assert.Equal(t, 4, c.Length)
		for _, m := range c.Members {
			assert.False(t, seen[m], "vertex %s should only appear once across disjoint cycles", m)
			seen[m] = true
		}
	}
	assert.Len(t, seen, 800)
}

func TestDetectLongCycleCountsAgainstBudgetButIsNotRetained(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// A 6-vertex cycle: outside the retained [3,5] window, but closing it
	// is still one examined candidate and must consume budget.
	records := []model.TransactionRecord{
		{TransactionID: "t1", SenderID: "A", ReceiverID: "B", Amount: 1, Timestamp: base},
		{TransactionID: "t2", SenderID: "B", ReceiverID: "C", Amount: 1, Timestamp: base},
		{TransactionID: "t3", SenderID: "C", ReceiverID: "D", Amount: 1, Timestamp: base},
		{TransactionID: "t4", SenderID: "D", ReceiverID: "E", Amount: 1, Timestamp: base},
		{TransactionID: "t5", SenderID: "E", ReceiverID: "F", Amount: 1, Timestamp: base},
		{TransactionID: "t6", SenderID: "F", ReceiverID: "A", Amount: 1, Timestamp: base},
	}
	g := buildGraph(t, records)

	cfg := config.Default().Pipeline
	cfg.CycleBudget = 1
	result, ok := Detect(context.Background(), g, cfg)
	require.True(t, ok)
	assert.Empty(t, result.Cycles, "length-6 cycle falls outside [min,max] and is never retained")
	assert.True(t, result.BudgetExhausted, "the length-6 candidate must still be examined and consume budget")
}

func TestDetectInconsistentAmountsNoBonus(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []model.TransactionRecord{
		{TransactionID: "t1", SenderID: "A", ReceiverID: "B", Amount: 10, Timestamp: base},
		{TransactionID: "t2", SenderID: "B", ReceiverID: "C", Amount: 10000, Timestamp: base},
		{TransactionID: "t3", SenderID: "C", ReceiverID: "A", Amount: 10, Timestamp: base},
	}
	g := buildGraph(t, records)

	result, ok := Detect(context.Background(), g, config.Default().Pipeline)
	require.True(t, ok)
	require.Len(t, result.Cycles, 1)
	assert.Equal(t, 75.0, result.Cycles[0].RiskScore) // 60 + 5*3 + 0
}
