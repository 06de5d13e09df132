package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/safeget/safeget/internal/httpc"
	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
	"github.com/safeget/safeget/internal/progress"
)

// Options configures the fetcher.
type Options struct {
	// OutputDir is the directory files are written into.
	OutputDir string

	// BlockSize scales the streaming chunk size: each read from the
	// response body is up to 32 x BlockSize bytes.
	// Default: 1024
	BlockSize int64

	// RetryAttempts is how many times an interrupted transfer is
	// re-issued from the current on-disk offset. 0 disables mid-stream
	// retries; the transfer error then propagates to the caller.
	RetryAttempts int

	// RetryBackoff is the initial backoff between transfer retries.
	// Default: 1s
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff between transfer retries.
	// Default: 30s
	RetryMaxBackoff time.Duration

	// ShowProgress enables the per-file progress reporter.
	ShowProgress bool

	// ProgressOutput is where progress lines go. Default: os.Stderr
	ProgressOutput io.Writer
}

// Outcome describes what a reconcile decision did with an item.
type Outcome int

const (
	// OutcomeStarted means no local file existed and a fresh download ran.
	OutcomeStarted Outcome = iota
	// OutcomeResumed means a partial local file was appended to.
	OutcomeResumed
	// OutcomeSkipped means the local file already matched the remote size.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStarted:
		return "started"
	case OutcomeResumed:
		return "resumed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Fetcher downloads individual files.
type Fetcher struct {
	client *httpc.Client
	log    *logging.Logger
	opts   Options
}

// New creates a Fetcher. client and log must not be nil.
func New(client *httpc.Client, log *logging.Logger, opts Options) *Fetcher {
	if opts.BlockSize <= 0 {
		opts.BlockSize = 1024
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.RetryMaxBackoff == 0 {
		opts.RetryMaxBackoff = 30 * time.Second
	}
	if opts.ProgressOutput == nil {
		opts.ProgressOutput = os.Stderr
	}
	return &Fetcher{client: client, log: log, opts: opts}
}

// DestPath returns the destination path for a file name.
func (f *Fetcher) DestPath(name string) string {
	return filepath.Join(f.opts.OutputDir, name)
}

// Probe returns the advertised remote size for url, or 0 when the server
// omits content-length or the probe fails. A failed probe is not fatal:
// the transfer proceeds and the size mismatch is detected on the next run.
func (f *Fetcher) Probe(ctx context.Context, url string) int64 {
	info, err := f.client.Head(ctx, url)
	if err != nil {
		f.log.Infof(logging.LevelDebug, "probe %s failed: %v", url, err)
		return 0
	}
	return info.Size
}

// FetchItem reconciles the local file for item against the remote and
// transfers bytes if needed.
func (f *Fetcher) FetchItem(ctx context.Context, item manifest.Item) (Outcome, error) {
	dest := f.DestPath(item.FileName)
	remote := f.Probe(ctx, item.URL)

	fi, err := os.Stat(dest)
	if errors.Is(err, os.ErrNotExist) {
		f.log.Infof(logging.LevelProgress, "downloading %s", item.FileName)
		_, ferr := f.Fetch(ctx, item.URL, dest, -1)
		return OutcomeStarted, ferr
	}
	if err != nil {
		return OutcomeStarted, fmt.Errorf("stat %s: %w", dest, err)
	}

	local := fi.Size()
	if local == remote {
		f.log.Infof(logging.LevelProgress, "%s already downloaded", item.FileName)
		return OutcomeSkipped, nil
	}

	f.log.Infof(logging.LevelProgress, "%s is incomplete, resuming from byte %d", item.FileName, local)
	_, ferr := f.Fetch(ctx, item.URL, dest, local)
	return OutcomeResumed, ferr
}

// Fetch transfers url to dest, returning the number of bytes written.
// A negative resumeOffset truncates dest and downloads from scratch;
// otherwise dest is opened for append and the transfer starts at
// resumeOffset via an open-ended range request.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string, resumeOffset int64) (int64, error) {
	remote := f.Probe(ctx, url)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	var offset int64
	if resumeOffset >= 0 {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		offset = resumeOffset
	}

	file, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dest, err)
	}

	var reporter *progress.Reporter
	if f.opts.ShowProgress {
		reporter = progress.NewReporter(progress.Options{
			FileName:     filepath.Base(dest),
			TotalSize:    remote,
			InitialBytes: offset,
			Output:       f.opts.ProgressOutput,
		})
		reporter.Start()
	}

	written, err := f.transfer(ctx, url, dest, file, offset, reporter)

	if reporter != nil {
		reporter.Stop()
	}
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", dest, cerr)
	}

	// A fresh fetch that never received a byte leaves no file behind:
	// an empty leftover would reconcile as complete on a later pass
	// whenever the probe also fails.
	if err != nil && resumeOffset < 0 && written == 0 {
		os.Remove(dest)
	}

	return written, err
}

// transfer runs the retry loop around stream until the body is drained,
// the retry budget is spent, or the error is permanent.
func (f *Fetcher) transfer(ctx context.Context, url, dest string, file *os.File, offset int64, reporter *progress.Reporter) (int64, error) {
	var written int64
	for attempt := 0; ; attempt++ {
		n, err := f.stream(ctx, url, file, offset+written, reporter)
		written += n
		if err == nil {
			return written, nil
		}
		if attempt >= f.opts.RetryAttempts || ctx.Err() != nil || permanent(err) {
			return written, err
		}
		f.log.Warnf(logging.LevelWarning, "transfer of %s interrupted: %v (retrying from byte %d)",
			filepath.Base(dest), err, offset+written)
		if berr := httpc.Backoff(ctx, attempt+1, f.opts.RetryBackoff, f.opts.RetryMaxBackoff); berr != nil {
			return written, berr
		}
	}
}

// stream issues one content request starting at offset and copies the body
// to file in 32 x BlockSize chunks, returning the bytes written by this
// attempt.
func (f *Fetcher) stream(ctx context.Context, url string, file *os.File, offset int64, reporter *progress.Reporter) (int64, error) {
	var (
		body io.ReadCloser
		err  error
	)
	if offset > 0 {
		body, err = f.client.GetFrom(ctx, url, offset)
	} else {
		body, err = f.client.Get(ctx, url)
	}
	if err != nil {
		return 0, err
	}
	defer body.Close()

	buf := make([]byte, 32*f.opts.BlockSize)
	var written int64
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			nw, writeErr := file.Write(buf[:n])
			written += int64(nw)
			if reporter != nil {
				reporter.Add(int64(nw))
			}
			if writeErr != nil {
				return written, fmt.Errorf("write: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}
}

// permanent reports whether err cannot be fixed by retrying the transfer.
func permanent(err error) bool {
	return errors.Is(err, httpc.ErrNotFound) ||
		errors.Is(err, httpc.ErrForbidden) ||
		errors.Is(err, httpc.ErrUnauthorized) ||
		errors.Is(err, httpc.ErrRangeNotSupported)
}
