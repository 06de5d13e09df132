package batch

import (
	"context"
	"strings"
	"sync"

	"github.com/safeget/safeget/internal/extract"
	"github.com/safeget/safeget/internal/fetcher"
	"github.com/safeget/safeget/internal/logging"
	"github.com/safeget/safeget/internal/manifest"
)

// Options configures the batch controller.
type Options struct {
	// Workers is the number of parallel download workers.
	// Default: 1 (items are processed strictly in order).
	Workers int

	// ExtractChunkSize is the read chunk used when decompressing items
	// marked gunzip. Default: 1 MiB.
	ExtractChunkSize int64
}

// Controller owns the item list and drives downloads and validation.
type Controller struct {
	items []manifest.Item
	f     *fetcher.Fetcher
	log   *logging.Logger
	opts  Options
}

// New creates a Controller over items.
func New(items []manifest.Item, f *fetcher.Fetcher, log *logging.Logger, opts Options) *Controller {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ExtractChunkSize <= 0 {
		opts.ExtractChunkSize = 1 << 20
	}
	return &Controller{items: items, f: f, log: log, opts: opts}
}

// DownloadSummary counts the outcomes of one download pass.
type DownloadSummary struct {
	Started int
	Resumed int
	Skipped int
	Failed  int
}

// Download runs the reconcile-and-fetch pass over every item. One item's
// failure never aborts the pass; it is counted and logged as a warning.
func (c *Controller) Download(ctx context.Context) DownloadSummary {
	var (
		mu  sync.Mutex
		sum DownloadSummary
		wg  sync.WaitGroup
	)

	jobs := make(chan manifest.Item)
	locks := newNameLocks()

	for i := 0; i < c.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				// No two items may write the same path at once.
				unlock := locks.lock(item.FileName)
				outcome, err := c.downloadOne(ctx, item)
				unlock()

				mu.Lock()
				if err != nil {
					sum.Failed++
				} else {
					switch outcome {
					case fetcher.OutcomeStarted:
						sum.Started++
					case fetcher.OutcomeResumed:
						sum.Resumed++
					case fetcher.OutcomeSkipped:
						sum.Skipped++
					}
				}
				mu.Unlock()

				if err != nil {
					c.log.Warnf(logging.LevelProgress, "download of %s failed: %v", item.FileName, err)
				}
			}
		}()
	}

	for _, item := range c.items {
		select {
		case jobs <- item:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return sum
		}
	}
	close(jobs)
	wg.Wait()

	return sum
}

// downloadOne fetches a single item and, when requested, decompresses it.
func (c *Controller) downloadOne(ctx context.Context, item manifest.Item) (fetcher.Outcome, error) {
	outcome, err := c.f.FetchItem(ctx, item)
	if err != nil {
		return outcome, err
	}

	if item.Gunzip && outcome != fetcher.OutcomeSkipped {
		src := c.f.DestPath(item.FileName)
		dest, ok := strings.CutSuffix(src, ".gz")
		if !ok {
			c.log.Warnf(logging.LevelProgress, "%s is marked gunzip but has no .gz suffix, leaving as is", item.FileName)
			return outcome, nil
		}
		if err := extract.Gunzip(src, dest, c.opts.ExtractChunkSize); err != nil {
			return outcome, err
		}
		c.log.Infof(logging.LevelProgress, "extracted %s", item.FileName)
	}

	return outcome, nil
}

// nameLocks hands out one mutex per file name.
type nameLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newNameLocks() *nameLocks {
	return &nameLocks{m: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for name and returns its unlock func.
func (n *nameLocks) lock(name string) func() {
	n.mu.Lock()
	l, ok := n.m[name]
	if !ok {
		l = &sync.Mutex{}
		n.m[name] = l
	}
	n.mu.Unlock()

	l.Lock()
	return l.Unlock
}
