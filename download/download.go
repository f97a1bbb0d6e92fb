// Package download fetches batches of assets with bounded concurrency,
// per-item retry and optional per-host rate limiting.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/feedsnap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrency is the number of downloads in flight at once.
	DefaultConcurrency = 8
	// DefaultMaxRetries is the number of extra attempts after a transient failure.
	DefaultMaxRetries = 3
)

var _ feedsnap.Downloader = (*Downloader)(nil)

// Downloader fetches assets and hands them to an AssetWriter.
// A failed item never aborts the batch.
type Downloader struct {
	writer      feedsnap.AssetWriter
	limiter     feedsnap.DomainLimiter
	concurrency int
	maxRetries  int
	retryDelays []time.Duration
	logger      *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithConcurrency sets the maximum number of downloads in flight.
// Defaults to DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(d *Downloader) {
		d.concurrency = n
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
// Defaults to DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(d *Downloader) {
		d.maxRetries = n
	}
}

// WithRetryDelays sets the backoff between retries.
// Defaults to DefaultRetryDelays.
func WithRetryDelays(delays []time.Duration) Option {
	return func(d *Downloader) {
		d.retryDelays = delays
	}
}

// WithLimiter throttles requests per host.
func WithLimiter(l feedsnap.DomainLimiter) Option {
	return func(d *Downloader) {
		d.limiter = l
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader creates a Downloader writing through w.
func NewDownloader(w feedsnap.AssetWriter, opts ...Option) *Downloader {
	d := &Downloader{
		writer:      w,
		concurrency: DefaultConcurrency,
		maxRetries:  DefaultMaxRetries,
		retryDelays: DefaultRetryDelays(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.concurrency < 1 {
		d.concurrency = 1
	}
	if d.maxRetries < 0 {
		d.maxRetries = 0
	}
	return d
}

// DownloadAll downloads every ref into destDir as "{ordinal}{extension}".
// Outcomes are returned in input order. progress, if not nil, is called
// from a single goroutine once per ref as it reaches its outcome.
// The returned error is the context error when the batch was canceled.
func (d *Downloader) DownloadAll(ctx context.Context, fetcher feedsnap.Fetcher, refs []feedsnap.AssetReference, destDir string, progress feedsnap.DownloadProgressFunc) ([]feedsnap.DownloadOutcome, error) {
	total := len(refs)
	outcomes := make([]feedsnap.DownloadOutcome, total)
	if total == 0 {
		return outcomes, nil
	}

	type result struct {
		position int
		outcome  feedsnap.DownloadOutcome
	}
	resultCh := make(chan result, total)

	var g errgroup.Group
	g.SetLimit(d.concurrency)

	go func() {
		for i, ref := range refs {
			g.Go(func() error {
				resultCh <- result{position: i, outcome: d.download(ctx, fetcher, ref, destDir)}
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	var completed int
	for r := range resultCh {
		outcomes[r.position] = r.outcome
		completed++
		if progress != nil {
			progress(feedsnap.DownloadProgress{
				Completed: completed,
				Total:     total,
				Outcome:   r.outcome,
			})
		}
	}

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// download runs one ref to its terminal outcome.
func (d *Downloader) download(ctx context.Context, fetcher feedsnap.Fetcher, ref feedsnap.AssetReference, destDir string) feedsnap.DownloadOutcome {
	outcome := feedsnap.DownloadOutcome{Ref: ref}
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	fetch := func(ctx context.Context, rawURL string) ([]byte, error) {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx, hostOf(rawURL)); err != nil {
				return nil, err
			}
		}
		return fetcher.FetchBytes(ctx, rawURL)
	}
	onRetry := func(attempt int, err error) {
		d.logger.Warn("retrying download",
			"url", ref.URL,
			"ordinal", ref.Ordinal,
			"attempt", attempt,
			"max", d.maxRetries+1,
			"err", err,
		)
	}

	data, attempts, err := FetchWithRetry(ctx, ref.URL, fetch, d.maxRetries, d.retryDelays, onRetry)
	outcome.Attempts = attempts
	if err != nil {
		outcome.Err = err
		return outcome
	}

	path, err := d.writer.WriteAsset(ctx, destDir, ref.FileName(), data)
	if err != nil {
		outcome.Err = fmt.Errorf("writing %s: %w", ref.FileName(), err)
		return outcome
	}
	outcome.Path = path
	outcome.Bytes = len(data)
	outcome.Hash = computeHash(data)
	return outcome
}

func computeHash(data []byte) string {
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
