package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
)

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)

	manifestPath := fs.String("manifest", "", "Manifest YAML file (required)")
	configPath := fs.String("config", "", "Config YAML file")
	outputDir := fs.String("out", "", "Directory holding the downloaded files")
	verbosity := fs.Int("verbosity", -1, "Verbosity level (0=quiet .. 3=debug)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: safeget validate [options]

Check every downloaded file against the SHA-256 hash in the manifest.
Files are only read; a mismatch is reported, never repaired.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -manifest is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *verbosity >= 0 {
		cfg.Verbosity = *verbosity
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitConfigError
	}

	m, err := manifest.Load(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	if err := m.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	ctx, cancel := signalContext()
	defer cancel()

	ctrl, log := buildController(cfg, m.Items)

	sum := ctrl.Validate(ctx)
	log.Infof(logging.LevelProgress, "validated %d, mismatched %d, no hash %d, missing %d",
		sum.Validated, sum.Mismatched, sum.NoHash, sum.Missing)

	if sum.Mismatched > 0 || sum.Missing > 0 || sum.Failed > 0 {
		return ExitValidationFailed
	}
	return ExitSuccess
}
