package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/safeget/safeget/internal/extract"
	"github.com/safeget/safeget/internal/progress"
)

func runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)

	input := fs.String("in", "", "Gzip file to decompress (required)")
	output := fs.String("out", "", "Destination path (default: input without .gz)")
	chunkSize := fs.String("chunk-size", "1MB", "Decompression read chunk size")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: safeget extract [options]

Decompress a gzip file in streaming chunks so memory stays bounded for
large archives. The compressed input is left in place.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	dest := *output
	if dest == "" {
		trimmed, ok := strings.CutSuffix(*input, ".gz")
		if !ok {
			fmt.Fprintln(os.Stderr, "Error: -out is required when the input has no .gz suffix")
			return ExitInvalidArgs
		}
		dest = trimmed
	}

	chunkBytes, err := progress.ParseBytes(*chunkSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid chunk size: %v\n", err)
		return ExitInvalidArgs
	}

	if err := extract.Gunzip(*input, dest, chunkBytes); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	fmt.Fprintf(os.Stderr, "[safeget] extracted %s\n", dest)
	return ExitSuccess
}
