// Command forensics runs the forensic detection pipeline once over a
// CSV transaction batch and prints the resulting report as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aegisshield/forensics-engine/internal/config"
	"github.com/aegisshield/forensics-engine/internal/ingest"
	"github.com/aegisshield/forensics-engine/internal/metrics"
	"github.com/aegisshield/forensics-engine/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	}))

	logger.Info("starting forensic detection pipeline", "environment", cfg.Environment)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <transactions.csv>\n", os.Args[0])
		os.Exit(1)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		logger.Error("failed to open transaction source", "path", os.Args[1], "error", err)
		os.Exit(1)
	}
	defer f.Close()

	collector := metrics.New()
	p := pipeline.New(cfg.Pipeline, logger, collector)

	report, err := p.Analyze(context.Background(), ingest.NewCSVSource(f))
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to encode report", "error", err)
		os.Exit(1)
	}
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
