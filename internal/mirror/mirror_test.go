package mirror

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"

	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
)

func openTestBucket(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })
	return bucket
}

func TestPush(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)

	data := []byte(strings.Repeat("m", 5000))
	dir := t.TempDir()
	local := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(local, data, 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := Push(ctx, bucket, local, "mirrored/data.bin")
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("expected %d bytes pushed, got %d", len(data), n)
	}

	got, err := bucket.ReadAll(ctx, "mirrored/data.bin")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("object content mismatch")
	}
}

func TestPushMissingFile(t *testing.T) {
	bucket := openTestBucket(t)

	_, err := Push(context.Background(), bucket, filepath.Join(t.TempDir(), "absent.bin"), "absent.bin")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestPushAll(t *testing.T) {
	ctx := context.Background()
	bucket := openTestBucket(t)
	log := logging.New(logging.LevelQuiet, &bytes.Buffer{})

	dir := t.TempDir()
	fileA := []byte("alpha")
	fileB := []byte("beta beta")
	os.WriteFile(filepath.Join(dir, "a.bin"), fileA, 0o644)
	os.WriteFile(filepath.Join(dir, "b.bin"), fileB, 0o644)

	items := []manifest.Item{
		{FileName: "a.bin"},
		{FileName: "b.bin"},
		{FileName: "never-downloaded.bin"},
	}

	sum := PushAll(ctx, bucket, items, dir, log, Options{Prefix: "drop"})
	if sum.Pushed != 2 || sum.Missing != 1 || sum.Failed != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if want := int64(len(fileA) + len(fileB)); sum.Bytes != want {
		t.Errorf("expected %d bytes, got %d", want, sum.Bytes)
	}

	got, err := bucket.ReadAll(ctx, "drop/b.bin")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, fileB) {
		t.Error("object content mismatch")
	}
}

func TestPushAllCancelled(t *testing.T) {
	bucket := openTestBucket(t)
	log := logging.New(logging.LevelQuiet, &bytes.Buffer{})

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.bin"), []byte("alpha"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := PushAll(ctx, bucket, []manifest.Item{{FileName: "a.bin"}}, dir, log, Options{})
	if sum.Pushed != 0 {
		t.Errorf("expected no pushes after cancel, got %+v", sum)
	}
}
