package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/safeget/safeget/internal/config"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitConfigError      = 3
	ExitDownloadFailed   = 4
	ExitValidationFailed = 5
	ExitStorageError     = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "download":
		return runDownload(cmdArgs)
	case "validate":
		return runValidate(cmdArgs)
	case "extract":
		return runExtract(cmdArgs)
	case "mirror":
		return runMirror(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: safeget <command> [options]

Commands:
  download  Download the files listed in a manifest, resuming partials
  validate  Check downloaded files against their SHA-256 hashes
  extract   Decompress a gzip file in streaming chunks
  mirror    Upload downloaded files to object storage

Run 'safeget <command> -h' for command-specific help.`)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
// An interrupted download leaves partial files in place, resumable on
// the next run.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[safeget] Received interrupt, shutting down...")
		cancel()
	}()

	return ctx, cancel
}

// loadConfig builds the effective configuration: defaults, then the
// optional config file, then SAFEGET_ environment variables.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()

	if path != "" {
		fileCfg, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}
