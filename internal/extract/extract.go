// Package extract decompresses downloaded gzip archives.
package extract

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// Gunzip decompresses the gzip file at src into dest, reading in chunks of
// chunkSize bytes so large archives never need to fit in memory. A
// chunkSize <= 0 defaults to 1 MiB. dest is truncated if it exists.
func Gunzip(src, dest string, chunkSize int64) error {
	if chunkSize <= 0 {
		chunkSize = 1 << 20
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("gzip %s: %w", src, err)
	}
	defer gz.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	buf := make([]byte, chunkSize)
	for {
		n, readErr := gz.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				out.Close()
				return fmt.Errorf("write %s: %w", dest, writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			return fmt.Errorf("read %s: %w", src, readErr)
		}
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}
