package whitelist

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

func TestComputePayrollSuppression(t *testing.T) {
	day := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	var records []model.TransactionRecord
	for i := 0; i < 25; i++ {
		records = append(records, model.TransactionRecord{
			TransactionID: fmt.Sprintf("p%d", i),
			SenderID:      "P",
			ReceiverID:    fmt.Sprintf("E%d", i),
			Amount:        1500,
			Timestamp:     day.Add(time.Duration(i) * time.Minute),
		})
	}
	g, err := graphbuilder.Build(context.Background(), records)
	require.NoError(t, err)

	whitelisted := Compute(g, config.Default().Pipeline)
	assert.True(t, whitelisted["P"])
}

func TestComputeNotWhitelistedWithIncomingEdge(t *testing.T) {
	day := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	var records []model.TransactionRecord
	for i := 0; i < 25; i++ {
		records = append(records, model.TransactionRecord{
			TransactionID: fmt.Sprintf("p%d", i),
			SenderID:      "P",
			ReceiverID:    fmt.Sprintf("E%d", i),
			Amount:        1500,
			Timestamp:     day,
		})
	}
	records = append(records, model.TransactionRecord{
		TransactionID: "in1", SenderID: "X", ReceiverID: "P", Amount: 1, Timestamp: day,
	})
	g, err := graphbuilder.Build(context.Background(), records)
	require.NoError(t, err)

	whitelisted := Compute(g, config.Default().Pipeline)
	assert.False(t, whitelisted["P"])
}

func TestComputeNotWhitelistedWhenSpreadAcrossManyDays(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	var records []model.TransactionRecord
	for i := 0; i < 25; i++ {
		records = append(records, model.TransactionRecord{
			TransactionID: fmt.Sprintf("p%d", i),
			SenderID:      "P",
			ReceiverID:    fmt.Sprintf("E%d", i),
			Amount:        1500,
			Timestamp:     start.AddDate(0, 0, i),
		})
	}
	g, err := graphbuilder.Build(context.Background(), records)
	require.NoError(t, err)

	whitelisted := Compute(g, config.Default().Pipeline)
	assert.False(t, whitelisted["P"])
}
