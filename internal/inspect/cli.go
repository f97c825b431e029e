package inspect

import (
	"io"
)

// ShowHelp prints usage information for the inspect tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `BRIA dataset inspector
======================

Prints the channels, sample rate and event table of a dataset written by the
acquisition service.

Usage:
  go run ./cmd/inspect [options] -file <dataset.edf>

Options:
  -file string
        Dataset file to read (required)
  -labels string
        Label to code mapping, e.g. "open_eye=1,closed_eye=2"
  -json
        Emit JSON instead of a table
  -no-color
        Disable colored output
  -help
        Show this help message

Examples:
  # Inspect the latest measurement
  go run ./cmd/inspect -file measure-2026-10-18_09-00-00.edf

  # Keep the codes used during acquisition
  go run ./cmd/inspect -file measure.edf -labels open_eye=1,closed_eye=2
`)
}
