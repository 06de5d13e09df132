// Package progress provides progress reporting for downloads.
//
// A Reporter tracks a single file transfer and periodically writes a
// human-readable status line with completion percentage, transfer speed,
// and ETA. Transfers that resume a partial file seed the reporter with the
// byte offset already on disk so the percentage reflects the whole file.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    FileName:     "model.tar.gz",
//	    TotalSize:    totalBytes,
//	    InitialBytes: resumeOffset,
//	    Output:       os.Stderr,
//	})
//
//	reporter.Start()
//	defer reporter.Stop()
//
//	// Update as chunks are written
//	reporter.Add(int64(n))
//
// # Output Format
//
//	[safeget] model.tar.gz: 45.2% | 1.13 GB / 2.50 GB | Speed: 12.1 MB/s | ETA: 1m 57s
package progress
