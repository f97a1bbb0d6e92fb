// Package chromedp implements feedsnap.Browser with chromedp.
package chromedp

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/fwojciec/feedsnap"
)

// DefaultTimeout bounds every page operation, navigation included.
const DefaultTimeout = 30 * time.Second

// Ensure Browser implements feedsnap.Browser at compile time.
var _ feedsnap.Browser = (*Browser)(nil)

// Browser starts a new Chrome process for every session.
type Browser struct {
	headless  bool
	blocked   []string
	timeout   time.Duration
	execPath  string
	userAgent string
}

// Option configures a Browser.
type Option func(*Browser)

// WithHeadless controls whether Chrome runs without a window. Defaults to true.
func WithHeadless(headless bool) Option {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithBlockedURLs fails every request matching one of the wildcard patterns.
func WithBlockedURLs(patterns ...string) Option {
	return func(b *Browser) {
		b.blocked = append(b.blocked, patterns...)
	}
}

// WithTimeout sets the per-operation timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Browser) {
		b.timeout = d
	}
}

// WithExecPath uses the Chrome binary at path.
func WithExecPath(path string) Option {
	return func(b *Browser) {
		b.execPath = path
	}
}

// WithUserAgent overrides the browser's user agent.
func WithUserAgent(ua string) Option {
	return func(b *Browser) {
		b.userAgent = ua
	}
}

// NewBrowser creates a new Browser.
func NewBrowser(opts ...Option) *Browser {
	b := &Browser{
		headless: true,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
	)
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}
	if b.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.userAgent))
	}
	return opts
}

// Open starts Chrome and attaches to its first tab.
func (b *Browser) Open(ctx context.Context) (feedsnap.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The browser outlives ctx; only its startup is bound to it.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), b.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	stop := context.AfterFunc(ctx, cancelAlloc)
	defer stop()

	s := &Session{
		tab:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     b.timeout,
	}

	if err := chromedp.Run(tabCtx); err != nil {
		_ = s.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	if len(b.blocked) > 0 {
		if err := s.block(b.blocked); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("blocking requests: %w", err)
		}
	}

	return s, nil
}

// block pauses requests matching patterns and fails them.
func (s *Session) block(patterns []string) error {
	chromedp.ListenTarget(s.tab, func(ev any) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		// Listeners must not block on the connection.
		go func() {
			_ = chromedp.Run(s.tab, fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient))
		}()
	})

	reqs := make([]*fetch.RequestPattern, len(patterns))
	for i, p := range patterns {
		reqs[i] = &fetch.RequestPattern{URLPattern: p}
	}
	return chromedp.Run(s.tab, fetch.Enable().WithPatterns(reqs))
}
