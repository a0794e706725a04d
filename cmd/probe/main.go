package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/busmaybe/internal/probe"
	"github.com/okian/busmaybe/pkg/logger"
)

// Default configuration constants.
const (
	defaultRounds       = 5
	defaultDecisions    = 20
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 10 * time.Second
	defaultAuditWait    = 5 * time.Second
	defaultProbeTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:5000", "Base URL of the service")
		rounds     = flag.Int("rounds", defaultRounds, "Prediction rounds per stop/route pair")
		decisions  = flag.Int("decisions", defaultDecisions, "avoid_last decisions to check")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		auditWait  = flag.Duration("audit-wait", defaultAuditWait, "How long to wait for the audit log")
		outputFile = flag.String("output", "", "Write every prediction outcome to this JSON file")
		seed       = flag.Int64("seed", 0, "ETA generator seed (default: clock)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
	defer cancel()

	cfg := &probe.Config{
		BaseURL:    *baseURL,
		Rounds:     *rounds,
		Decisions:  *decisions,
		Workers:    *workers,
		Timeout:    *timeout,
		AuditWait:  *auditWait,
		OutputFile: *outputFile,
		Seed:       *seed,
		Verbose:    *verbose,
	}

	if _, err := probe.Run(ctx, cfg, logger.Named("probe")); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
