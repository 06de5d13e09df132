package main

import (
	"flag"
	"fmt"
	"os"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
	"github.com/safeget/safeget/internal/mirror"
	"github.com/safeget/safeget/internal/progress"
)

func runMirror(args []string) int {
	fs := flag.NewFlagSet("mirror", flag.ExitOnError)

	manifestPath := fs.String("manifest", "", "Manifest YAML file (required)")
	configPath := fs.String("config", "", "Config YAML file")
	outputDir := fs.String("out", "", "Directory holding the downloaded files")
	bucketURL := fs.String("bucket", "", "Destination bucket URL, e.g. s3://my-bucket (required)")
	prefix := fs.String("prefix", "", "Key prefix for uploaded objects")
	verbosity := fs.Int("verbosity", -1, "Verbosity level (0=quiet .. 3=debug)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: safeget mirror [options]

Upload the manifest's downloaded files to object storage. Local files
are only read. Items not yet downloaded are reported and skipped.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *manifestPath == "" || *bucketURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -manifest and -bucket are required")
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

	bucket, err := blob.OpenBucket(ctx, *bucketURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bucket.Close()

	log := logging.New(logging.Level(cfg.Verbosity), os.Stderr)

	sum := mirror.PushAll(ctx, bucket, m.Items, cfg.OutputDir, log, mirror.Options{Prefix: *prefix})
	log.Infof(logging.LevelProgress, "mirrored %d (%s), missing %d, failed %d",
		sum.Pushed, progress.FormatBytes(sum.Bytes), sum.Missing, sum.Failed)

	if sum.Failed > 0 {
		return ExitStorageError
	}
	return ExitSuccess
}
