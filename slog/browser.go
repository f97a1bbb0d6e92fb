package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/feedsnap"
)

// Ensure LoggingBrowser implements feedsnap.Browser.
var _ feedsnap.Browser = (*LoggingBrowser)(nil)

// LoggingBrowser wraps a Browser so that sessions and their page-level
// operations are logged.
type LoggingBrowser struct {
	next   feedsnap.Browser
	logger *slog.Logger
}

// NewLoggingBrowser creates a new LoggingBrowser.
func NewLoggingBrowser(next feedsnap.Browser, logger *slog.Logger) *LoggingBrowser {
	return &LoggingBrowser{next: next, logger: logger}
}

// Open logs the browser launch and wraps the session.
func (b *LoggingBrowser) Open(ctx context.Context) (sess feedsnap.Session, err error) {
	defer func(begin time.Time) {
		b.logger.Info("browser open",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())

	s, err := b.next.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &LoggingSession{Session: s, logger: b.logger}, nil
}

// Ensure LoggingSession implements feedsnap.Session.
var _ feedsnap.Session = (*LoggingSession)(nil)

// LoggingSession logs navigation, page snapshots and session shutdown.
// High-frequency calls such as Evaluate and QueryAll pass through unlogged.
type LoggingSession struct {
	feedsnap.Session
	logger *slog.Logger
}

// Navigate logs the URL being loaded and delegates to the wrapped session.
func (s *LoggingSession) Navigate(ctx context.Context, url string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("navigate",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Session.Navigate(ctx, url)
}

// TryClick logs whether the element was found and clicked.
func (s *LoggingSession) TryClick(ctx context.Context, selector string, timeout time.Duration) (clicked bool, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("try click",
			"selector", selector,
			"clicked", clicked,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Session.TryClick(ctx, selector, timeout)
}

// HTML logs the size of the document snapshot.
func (s *LoggingSession) HTML(ctx context.Context) (html string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("snapshot",
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Session.HTML(ctx)
}

// Close logs session shutdown.
func (s *LoggingSession) Close() (err error) {
	defer func() {
		s.logger.Debug("browser close", "err", err)
	}()
	return s.Session.Close()
}
