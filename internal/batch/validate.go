package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
)

// ValidationResult is the outcome of validating one item.
type ValidationResult int

const (
	// NoHashAvailable means the item carries no expected hash.
	NoHashAvailable ValidationResult = iota
	// Validated means the computed digest matched the expected hash.
	Validated
	// HashMismatch means the file is on disk but its digest differs.
	HashMismatch
	// FileMissing means there is no local file to validate.
	FileMissing
)

func (r ValidationResult) String() string {
	switch r {
	case NoHashAvailable:
		return "no hash available"
	case Validated:
		return "validated"
	case HashMismatch:
		return "hash mismatch"
	case FileMissing:
		return "file missing"
	default:
		return "unknown"
	}
}

// ValidationSummary counts the outcomes of one validation pass.
type ValidationSummary struct {
	Validated  int
	Mismatched int
	NoHash     int
	Missing    int
	Failed     int
}

// Validate runs the validation pass over every item, in order. Like the
// download pass, a single item never aborts it.
func (c *Controller) Validate(ctx context.Context) ValidationSummary {
	var sum ValidationSummary

	for _, item := range c.items {
		if ctx.Err() != nil {
			return sum
		}

		result, err := c.ValidateItem(ctx, item)
		if err != nil {
			sum.Failed++
			c.log.Warnf(logging.LevelProgress, "validation of %s failed: %v", item.FileName, err)
			continue
		}

		switch result {
		case Validated:
			sum.Validated++
		case HashMismatch:
			sum.Mismatched++
		case NoHashAvailable:
			sum.NoHash++
		case FileMissing:
			sum.Missing++
		}
	}

	return sum
}

// ValidateItem checks one item's file against its expected hash.
// The result is meaningful only when err is nil. The file is never
// modified or deleted, whatever the outcome.
func (c *Controller) ValidateItem(ctx context.Context, item manifest.Item) (ValidationResult, error) {
	if item.SHA256 == "" {
		c.log.Warnf(logging.LevelProgress, "no hash registered for %s, cannot validate", item.FileName)
		return NoHashAvailable, nil
	}

	path := c.f.DestPath(item.FileName)
	digest, err := hashFile(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		c.log.Warnf(logging.LevelProgress, "%s has not been downloaded, cannot validate", item.FileName)
		return FileMissing, nil
	}
	if err != nil {
		return NoHashAvailable, err
	}

	if digest != strings.ToLower(item.SHA256) {
		c.log.Warnf(logging.LevelProgress, "%s is corrupted: digest %s does not match expected %s",
			item.FileName, digest, item.SHA256)
		return HashMismatch, nil
	}

	c.log.Infof(logging.LevelProgress, "%s validated", item.FileName)
	return Validated, nil
}

// hashFile computes the lowercase hex SHA-256 digest of the file at path,
// reading in 1 MiB chunks so memory stays bounded.
func hashFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 1<<20)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("read %s: %w", path, readErr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
