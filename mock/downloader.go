package mock

import (
	"context"

	"github.com/fwojciec/feedsnap"
)

var _ feedsnap.Downloader = (*Downloader)(nil)

// Downloader is a mock implementation of feedsnap.Downloader.
type Downloader struct {
	DownloadAllFn func(ctx context.Context, fetcher feedsnap.Fetcher, refs []feedsnap.AssetReference, destDir string, progress feedsnap.DownloadProgressFunc) ([]feedsnap.DownloadOutcome, error)
}

func (d *Downloader) DownloadAll(ctx context.Context, fetcher feedsnap.Fetcher, refs []feedsnap.AssetReference, destDir string, progress feedsnap.DownloadProgressFunc) ([]feedsnap.DownloadOutcome, error) {
	return d.DownloadAllFn(ctx, fetcher, refs, destDir, progress)
}

var _ feedsnap.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of feedsnap.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
