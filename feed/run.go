package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/feedsnap"
	"github.com/google/uuid"
)

// Runner downloads every image of a gallery: it loads the feed in a browser
// session, extracts the image references once, then hands them to the
// Downloader.
type Runner struct {
	Browser    feedsnap.Browser
	Extractor  feedsnap.AssetExtractor
	Downloader feedsnap.Downloader
	NewFetcher feedsnap.FetcherFactory
	Selectors  Selectors

	// MaxRestarts bounds how often a session that timed out is replaced
	// by a fresh browser. Zero means a timeout is fatal immediately.
	MaxRestarts int
	// AgeGateTimeout defaults to DefaultAgeGateTimeout.
	AgeGateTimeout time.Duration
	// SettleInterval defaults to DefaultSettleInterval.
	SettleInterval time.Duration
	// MaxClicks limits load-more clicks. Zero means no limit.
	MaxClicks int

	OnLoad     LoadProgressFunc
	OnDownload feedsnap.DownloadProgressFunc
	Logger     *slog.Logger
	Now        func() time.Time
}

// collected is what a browser session produces.
type collected struct {
	load     *LoadResult
	refs     []feedsnap.AssetReference
	identity feedsnap.Identity
}

// Run loads the gallery at url and downloads its images into destDir.
// Failed downloads are reported per item in Stats; the error is non-nil
// only when the run itself could not complete.
func (r *Runner) Run(ctx context.Context, url, destDir string) (*feedsnap.Stats, error) {
	start := r.now()
	stats := &feedsnap.Stats{
		RunID: uuid.NewString(),
		URL:   url,
	}
	logger := r.logger().With("run", stats.RunID)

	// One detector per run: the declared count survives session restarts.
	detector := &CompletionDetector{Selectors: r.Selectors}

	var c *collected
	for attempt := 0; ; attempt++ {
		var err error
		c, err = r.collect(ctx, url, detector, logger)
		if err == nil {
			break
		}
		if !feedsnap.IsTimeout(err) || attempt >= r.MaxRestarts {
			return nil, err
		}
		stats.Restarts++
		logger.Warn("page load timed out, restarting browser",
			"url", url,
			"attempt", attempt+1,
			"max", r.MaxRestarts,
			"err", err,
		)
	}

	stats.Items = len(c.refs)
	stats.Clicks = c.load.Clicks
	stats.Complete = c.load.Complete
	stats.LoadElapsed = c.load.Elapsed
	logger.Info("prepared downloads", "items", stats.Items, "complete", stats.Complete)

	fetcher, err := r.NewFetcher(c.identity)
	if err != nil {
		return nil, fmt.Errorf("creating fetcher: %w", err)
	}

	outcomes, err := r.Downloader.DownloadAll(ctx, fetcher, c.refs, destDir, r.OnDownload)
	stats.Outcomes = outcomes
	stats.Elapsed = r.now().Sub(start)
	if err != nil {
		return stats, err
	}
	return stats, nil
}

// collect runs one browser session: navigate, prepare the page, load the
// feed and extract the references.
func (r *Runner) collect(ctx context.Context, url string, detector *CompletionDetector, logger *slog.Logger) (*collected, error) {
	sess, err := r.Browser.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening browser: %w", err)
	}
	defer sess.Close()

	if err := sess.Navigate(ctx, url); err != nil {
		return nil, err
	}
	logger.Debug("page loaded", "url", url)

	if _, err := sess.TryClick(ctx, r.Selectors.AgeGate, r.ageGateTimeout()); err != nil {
		return nil, err
	}
	if err := feedsnap.Hide(ctx, sess, r.Selectors.Hidden...); err != nil {
		return nil, err
	}

	paginator := &Paginator{
		Driver: sess,
		Scroller: &Scroller{
			Driver:         sess,
			Selectors:      r.Selectors,
			SettleInterval: r.SettleInterval,
			Logger:         logger,
		},
		Detector:  detector,
		Selectors: r.Selectors,
		MaxClicks: r.MaxClicks,
		Progress:  r.OnLoad,
		Logger:    logger,
		Now:       r.Now,
	}
	load, err := paginator.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	pageURL, err := sess.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}
	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, err
	}
	refs, err := r.Extractor.ExtractAssets(html, pageURL, r.Selectors.Item)
	if err != nil {
		return nil, err
	}

	ua, err := feedsnap.UserAgent(ctx, sess)
	if err != nil {
		return nil, err
	}
	cookies, err := sess.Cookies(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return &collected{
		load: load,
		refs: refs,
		identity: feedsnap.Identity{
			UserAgent: ua,
			PageURL:   pageURL,
			Cookies:   cookies,
		},
	}, nil
}

func (r *Runner) ageGateTimeout() time.Duration {
	if r.AgeGateTimeout <= 0 {
		return DefaultAgeGateTimeout
	}
	return r.AgeGateTimeout
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return discardLogger()
	}
	return r.Logger
}
