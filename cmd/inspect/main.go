package main

import (
	"context"
	"flag"
	"os"

	"github.com/juraj-juraj/BRIA-project/internal/inspect"
	"github.com/juraj-juraj/BRIA-project/pkg/logger"
)

func main() {
	var (
		file    = flag.String("file", "", "Dataset file to read")
		labels  = flag.String("labels", "", "Label to code mapping, e.g. open_eye=1,closed_eye=2")
		asJSON  = flag.Bool("json", false, "Emit JSON instead of a table")
		noColor = flag.Bool("no-color", false, "Disable colored output")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		inspect.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	codes, err := inspect.ParseLabels(*labels)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	cfg := &inspect.Config{
		Path:    *file,
		Labels:  codes,
		JSON:    *asJSON,
		NoColor: *noColor,
	}
	if err := inspect.Run(context.Background(), cfg, os.Stdout); err != nil {
		os.Stderr.WriteString("Inspect failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
