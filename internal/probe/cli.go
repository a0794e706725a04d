package probe

import (
	"os"
)

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`busmaybe probe
==============

Smoke-tests a running busmaybe service: health, every stop/route prediction
with and without ETAs, tier and percent consistency, meal idempotency,
avoid_last decisions and the prediction audit log.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:5000")
  -rounds int
        Prediction rounds per stop/route pair (default 5)
  -decisions int
        avoid_last decisions to check (default 20)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -audit-wait duration
        How long to wait for the audit log (default 5s)
  -output string
        Write every prediction outcome to this JSON file
  -seed int
        ETA generator seed (default: clock)
  -verbose
        Enable debug logging
  -help
        Show this help message

The decision check assumes nobody else is using the decision helper.
`)
}
