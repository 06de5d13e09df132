// Package fetcher transfers single files to disk with resume support.
//
// For each item the fetcher probes the remote size with a HEAD request,
// compares it with what is already on disk, and decides whether to start
// fresh, resume from the local byte offset with a range request, or skip
// the transfer entirely:
//
//	no local file          -> download from scratch
//	local size == remote   -> already complete, skip
//	local size != remote   -> resume from the local size
//
// The size comparison is a heuristic for completeness; a corrupted file of
// the right size passes it. Content integrity is the job of the separate
// validation pass in the batch package.
//
// A transport failure mid-stream is logged and retried from the current
// on-disk offset with the same backoff policy the HTTP client uses for
// establishing requests. An interrupted transfer always leaves the file in
// a state the next run can resume from.
package fetcher
