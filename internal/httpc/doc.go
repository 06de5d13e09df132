// Package httpc provides the HTTP client used for file downloads.
//
// This package handles:
//   - HEAD requests to probe the remote size
//   - Open-ended range requests for resuming partial files
//   - Retry with exponential backoff on transport and server errors
//   - Typed errors for non-retryable status codes
//
// Every call returns an explicit error; there are no sentinel "no response"
// values. Callers decide how to degrade (the fetcher, for example, treats a
// failed probe as an unknown remote size).
//
// # Usage
//
//	client := httpc.NewClient(httpc.Options{
//	    Timeout:       30 * time.Second,
//	    RetryAttempts: 5,
//	})
//
//	// Probe file metadata
//	info, err := client.Head(ctx, url)
//	// info.Size, info.ETag, info.AcceptsRanges
//
//	// Resume from byte 400
//	body, err := client.GetFrom(ctx, url, 400)
//	defer body.Close()
package httpc
