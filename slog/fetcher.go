// Package slog provides logging decorators for feedsnap services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/feedsnap"
)

// Ensure LoggingFetcher implements feedsnap.Fetcher.
var _ feedsnap.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   feedsnap.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next feedsnap.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// FetchBytes logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) FetchBytes(ctx context.Context, url string) (data []byte, err error) {
	defer func(begin time.Time) {
		f.logger.Debug("fetch",
			"url", url,
			"bytes", len(data),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.FetchBytes(ctx, url)
}

// NewLoggingFetcherFactory wraps every Fetcher built by next.
func NewLoggingFetcherFactory(next feedsnap.FetcherFactory, logger *slog.Logger) feedsnap.FetcherFactory {
	return func(id feedsnap.Identity) (feedsnap.Fetcher, error) {
		f, err := next(id)
		if err != nil {
			return nil, err
		}
		logger.Debug("fetcher identity",
			"user_agent", id.UserAgent,
			"referer", id.PageURL,
			"cookies", len(id.Cookies),
		)
		return NewLoggingFetcher(f, logger), nil
	}
}
