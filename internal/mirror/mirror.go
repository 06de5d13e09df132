package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"gocloud.dev/blob"

	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
)

// Options configures a mirror pass.
type Options struct {
	// Prefix is prepended to every object key, e.g. "datasets/v2/".
	Prefix string
}

// Summary counts the outcomes of a mirror pass.
type Summary struct {
	Pushed  int
	Missing int
	Failed  int
	Bytes   int64
}

// Push uploads a single local file to the bucket under key. It returns the
// number of bytes written. A partially written object is deleted before the
// error is returned.
func Push(ctx context.Context, bucket *blob.Bucket, localPath, key string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("mirror: open %s: %w", localPath, err)
	}
	defer f.Close()

	w, err := bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("mirror: create writer for %s: %w", key, err)
	}

	written, err := io.Copy(w, f)
	if err != nil {
		w.Close()
		bucket.Delete(ctx, key)
		return written, fmt.Errorf("mirror: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		bucket.Delete(ctx, key)
		return written, fmt.Errorf("mirror: close writer for %s: %w", key, err)
	}

	return written, nil
}

// PushAll uploads every item's file from dir to the bucket, keyed by
// Prefix + FileName. Files that have not been downloaded are counted as
// missing; an upload failure is counted and logged but never aborts the
// pass.
func PushAll(ctx context.Context, bucket *blob.Bucket, items []manifest.Item, dir string, log *logging.Logger, opts Options) Summary {
	var sum Summary

	for _, item := range items {
		if ctx.Err() != nil {
			return sum
		}

		localPath := filepath.Join(dir, item.FileName)
		key := path.Join(opts.Prefix, item.FileName)

		n, err := Push(ctx, bucket, localPath, key)
		if errors.Is(err, os.ErrNotExist) {
			sum.Missing++
			log.Warnf(logging.LevelProgress, "%s has not been downloaded, cannot mirror", item.FileName)
			continue
		}
		if err != nil {
			sum.Failed++
			log.Warnf(logging.LevelProgress, "mirror of %s failed: %v", item.FileName, err)
			continue
		}

		sum.Pushed++
		sum.Bytes += n
		log.Infof(logging.LevelProgress, "mirrored %s to %s", item.FileName, key)
	}

	return sum
}
