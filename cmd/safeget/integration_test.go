//go:build integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "gocloud.dev/blob/s3blob"

	"github.com/safeget/safeget/internal/testutils"
)

func TestCLIIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Generate test data
	files := []testutils.TestFile{
		{Name: "small.bin", Size: 64 * 1024},
		{Name: "large.bin", Size: 4 * 1024 * 1024},
	}
	for i := range files {
		files[i].Data = testutils.GenerateTestData(t, files[i].Size)
	}

	// Start HTTP server
	t.Log("Starting HTTP test server...")
	server := testutils.StartTestHTTPServer(t, files)
	defer server.Close()

	workDir := t.TempDir()
	outDir := filepath.Join(workDir, "downloads")
	manifestPath := testutils.WriteManifest(t, workDir, server.URL, files)

	t.Run("download", func(t *testing.T) {
		exitCode := runDownload([]string{
			"-manifest", manifestPath,
			"-out", outDir,
			"-workers", "2",
			"-block-size", "4KB",
			"-verbosity", "0",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("download failed with exit code %d", exitCode)
		}

		for _, f := range files {
			got, err := os.ReadFile(filepath.Join(outDir, f.Name))
			if err != nil {
				t.Fatalf("read %s: %v", f.Name, err)
			}
			if !bytes.Equal(got, f.Data) {
				t.Errorf("%s content mismatch", f.Name)
			}
		}
	})

	t.Run("download again skips", func(t *testing.T) {
		exitCode := runDownload([]string{
			"-manifest", manifestPath,
			"-out", outDir,
			"-verbosity", "0",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("second download failed with exit code %d", exitCode)
		}
	})

	t.Run("resume partial", func(t *testing.T) {
		// Truncate one file to a prefix, then re-run
		partial := filepath.Join(outDir, "large.bin")
		if err := os.Truncate(partial, 1024*1024); err != nil {
			t.Fatal(err)
		}

		exitCode := runDownload([]string{
			"-manifest", manifestPath,
			"-out", outDir,
			"-verbosity", "0",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("resume failed with exit code %d", exitCode)
		}

		got, err := os.ReadFile(partial)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, files[1].Data) {
			t.Error("resumed file content mismatch")
		}
	})

	t.Run("validate", func(t *testing.T) {
		exitCode := runValidate([]string{
			"-manifest", manifestPath,
			"-out", outDir,
			"-verbosity", "0",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("validate failed with exit code %d", exitCode)
		}
	})

	t.Run("validate detects corruption", func(t *testing.T) {
		target := filepath.Join(outDir, "small.bin")
		original, err := os.ReadFile(target)
		if err != nil {
			t.Fatal(err)
		}
		corrupted := append([]byte{}, original...)
		corrupted[0] ^= 0xff
		if err := os.WriteFile(target, corrupted, 0o644); err != nil {
			t.Fatal(err)
		}
		defer os.WriteFile(target, original, 0o644)

		exitCode := runValidate([]string{
			"-manifest", manifestPath,
			"-out", outDir,
			"-verbosity", "0",
		})
		if exitCode != ExitValidationFailed {
			t.Fatalf("expected exit code %d, got %d", ExitValidationFailed, exitCode)
		}
	})

	t.Run("mirror", func(t *testing.T) {
		t.Log("Starting Minio container...")
		minio := testutils.StartMinioContainer(t, ctx, "cli-test-bucket")
		defer func() {
			if err := minio.Close(ctx); err != nil {
				t.Logf("failed to terminate minio container: %v", err)
			}
		}()

		exitCode := runMirror([]string{
			"-manifest", manifestPath,
			"-out", outDir,
			"-bucket", minio.BucketURL,
			"-prefix", "mirrored",
			"-verbosity", "0",
		})
		if exitCode != ExitSuccess {
			t.Fatalf("mirror failed with exit code %d", exitCode)
		}

		bucket, err := minio.OpenBucket(ctx)
		if err != nil {
			t.Fatalf("open bucket: %v", err)
		}
		defer bucket.Close()

		got, err := bucket.ReadAll(ctx, "mirrored/small.bin")
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if !bytes.Equal(got, files[0].Data) {
			t.Error("mirrored object content mismatch")
		}
	})
}
