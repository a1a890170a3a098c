// Package ingest supplies the Forensic Detection Pipeline with its one
// input abstraction: a Source of transaction records. How those records
// reach the process (a CSV upload, a message queue, a test fixture) is
// deliberately kept out of the core — the graph builder only ever needs
// an iterable of model.TransactionRecord.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aegisshield/forensics-engine/internal/model"
)

// Source produces the transaction records for one batch. Records returns
// the full batch, or a fatal InvalidInput/ParseError if the underlying
// data is malformed.
type Source interface {
	Records() ([]model.TransactionRecord, error)
}

// SliceSource is the in-memory Source implementation used by tests and
// by any caller that already has records in hand.
type SliceSource struct {
	Rows []model.TransactionRecord
}

// Records implements Source.
func (s SliceSource) Records() ([]model.TransactionRecord, error) {
	return s.Rows, nil
}

var requiredColumns = []string{"transaction_id", "sender_id", "receiver_id", "amount", "timestamp"}

// CSVSource reads transaction records from a CSV reader. It is the one
// concrete adapter for the abstract Source interface; everything else
// about tabular ingestion (encoding detection, streaming, schema
// evolution) is out of scope for this core.
type CSVSource struct {
	r io.Reader
}

// NewCSVSource wraps an io.Reader expected to contain a header row
// naming transaction_id, sender_id, receiver_id, amount, timestamp (in
// any order) followed by data rows.
func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{r: r}
}

// Records implements Source. Column order is header-driven; missing
// columns are a fatal model.ErrInvalidInput, and any cell that fails to
// parse as the expected type is a fatal model.ErrParseError.
func (s *CSVSource) Records() ([]model.TransactionRecord, error) {
	reader := csv.NewReader(s.r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty transaction source", model.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", model.ErrParseError, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", model.ErrInvalidInput, col)
		}
	}

	var records []model.TransactionRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read row: %v", model.ErrParseError, err)
		}

		rec, err := parseRow(row, index)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, index map[string]int) (model.TransactionRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	txID := get("transaction_id")
	sender := get("sender_id")
	receiver := get("receiver_id")

	if txID == "" || sender == "" || receiver == "" {
		return model.TransactionRecord{}, fmt.Errorf("%w: row missing required field", model.ErrInvalidInput)
	}

	amount, err := strconv.ParseFloat(get("amount"), 64)
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: amount %q: %v", model.ErrParseError, get("amount"), err)
	}

	ts, err := parseTimestamp(get("timestamp"))
	if err != nil {
		return model.TransactionRecord{}, fmt.Errorf("%w: timestamp %q: %v", model.ErrParseError, get("timestamp"), err)
	}

	return model.TransactionRecord{
		TransactionID: txID,
		SenderID:      sender,
		ReceiverID:    receiver,
		Amount:        amount,
		Timestamp:     ts,
	}, nil
}

// timestamp layouts accepted at ingestion, tried in order. Parsing once
// here and carrying time.Time through the pipeline means every later
// stage compares instants directly instead of re-parsing strings.
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
