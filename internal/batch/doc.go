// Package batch drives the fetcher across a manifest of download items.
//
// The two passes are independent and can run in either order:
//
//	ctrl := batch.New(items, f, batch.Options{...})
//	dl := ctrl.Download(ctx)   // reconcile + transfer every item
//	vr := ctrl.Validate(ctx)   // hash-check every item
//
// Download uses a bounded worker pool. The default of one worker preserves
// strictly sequential ordering; with more workers a per-filename lock table
// guarantees that no two items ever write the same path concurrently. A
// single item's failure is reported as a warning and never aborts the pass.
//
// Validation computes SHA-256 over each file in 1 MiB reads, so memory
// stays bounded regardless of file size. A hash mismatch is reported and
// the file is left on disk untouched; remediation is the caller's call.
package batch
