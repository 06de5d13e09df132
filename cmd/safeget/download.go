package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/safeget/safeget/internal/batch"
	"github.com/safeget/safeget/internal/config"
	"github.com/safeget/safeget/internal/fetcher"
	"github.com/safeget/safeget/internal/httpc"
	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
	"github.com/safeget/safeget/internal/progress"
)

func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ExitOnError)

	manifestPath := fs.String("manifest", "", "Manifest YAML file (required)")
	configPath := fs.String("config", "", "Config YAML file")
	outputDir := fs.String("out", "", "Output directory")
	baseURL := fs.String("base-url", "", "Base URL prepended to relative manifest entries")
	blockSize := fs.String("block-size", "", "Streaming block size, e.g. 4KB")
	workers := fs.Int("workers", 0, "Number of parallel downloads")
	verbosity := fs.Int("verbosity", -1, "Verbosity level (0=quiet .. 3=debug)")
	timeout := fs.Duration("timeout", 0, "Connection and response-header timeout")
	retryAttempts := fs.Int("retry-attempts", -1, "Max retries for an interrupted transfer")
	retryBackoff := fs.Duration("retry-backoff", 0, "Initial retry backoff")
	retryMaxBackoff := fs.Duration("retry-max-backoff", 0, "Max retry backoff")
	showProgress := fs.Bool("progress", false, "Show periodic transfer progress")
	validate := fs.Bool("validate", false, "Run the validation pass after downloading")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: safeget download [options]

Download every file listed in the manifest. Files already present at
their full size are skipped; partial files resume from where they left
off. Interrupting the run leaves partials resumable.

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
	if code := applyDownloadFlags(&cfg, *outputDir, *baseURL, *blockSize, *workers,
		*verbosity, *timeout, *retryAttempts, *retryBackoff, *retryMaxBackoff, *showProgress); code != ExitSuccess {
		return code
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
	m.Resolve(cfg.BaseURL)
	if err := m.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		return ExitGeneralError
	}

	ctx, cancel := signalContext()
	defer cancel()

	ctrl, log := buildController(cfg, m.Items)

	sum := ctrl.Download(ctx)
	log.Infof(logging.LevelProgress, "downloaded %d, resumed %d, skipped %d, failed %d",
		sum.Started, sum.Resumed, sum.Skipped, sum.Failed)
	if sum.Failed > 0 {
		return ExitDownloadFailed
	}
	if ctx.Err() != nil {
		return ExitGeneralError
	}

	if *validate {
		vsum := ctrl.Validate(ctx)
		log.Infof(logging.LevelProgress, "validated %d, mismatched %d, no hash %d, missing %d",
			vsum.Validated, vsum.Mismatched, vsum.NoHash, vsum.Missing)
		if vsum.Mismatched > 0 || vsum.Missing > 0 || vsum.Failed > 0 {
			return ExitValidationFailed
		}
	}

	return ExitSuccess
}

// applyDownloadFlags layers explicitly set flag values over cfg via
// Merge. Unset flags are zero values, which Merge ignores; verbosity and
// retry attempts use a -1 sentinel because zero is meaningful for them.
func applyDownloadFlags(cfg *config.Config, outputDir, baseURL, blockSize string,
	workers, verbosity int, timeout time.Duration,
	retryAttempts int, retryBackoff, retryMaxBackoff time.Duration, showProgress bool) int {

	override := config.Config{
		OutputDir: outputDir,
		BaseURL:   baseURL,
		Workers:   workers,
		Progress:  showProgress,
		Timeout:   timeout,
		Retry: config.RetryConfig{
			Backoff:    retryBackoff,
			MaxBackoff: retryMaxBackoff,
		},
	}
	if blockSize != "" {
		size, err := progress.ParseBytes(blockSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid block size: %v\n", err)
			return ExitInvalidArgs
		}
		override.BlockSize = size
	}

	*cfg = cfg.Merge(override)

	if verbosity >= 0 {
		cfg.Verbosity = verbosity
	}
	if retryAttempts >= 0 {
		cfg.Retry.Attempts = retryAttempts
	}
	return ExitSuccess
}

// buildController wires the HTTP client, fetcher and batch controller
// from an effective config.
func buildController(cfg config.Config, items []manifest.Item) (*batch.Controller, *logging.Logger) {
	log := logging.New(logging.Level(cfg.Verbosity), os.Stderr)

	clientOpts := httpc.DefaultOptions()
	clientOpts.Timeout = cfg.Timeout
	clientOpts.RetryAttempts = cfg.Retry.Attempts
	clientOpts.RetryBackoff = cfg.Retry.Backoff
	clientOpts.RetryMaxBackoff = cfg.Retry.MaxBackoff
	client := httpc.NewClient(clientOpts)

	f := fetcher.New(client, log, fetcher.Options{
		OutputDir:       cfg.OutputDir,
		BlockSize:       cfg.BlockSize,
		RetryAttempts:   cfg.Retry.Attempts,
		RetryBackoff:    cfg.Retry.Backoff,
		RetryMaxBackoff: cfg.Retry.MaxBackoff,
		ShowProgress:    cfg.Progress,
	})

	return batch.New(items, f, log, batch.Options{Workers: cfg.Workers}), log
}
