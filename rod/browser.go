// Package rod implements feedsnap.Browser with go-rod.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/feedsnap"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultTimeout bounds every page operation, navigation included.
const DefaultTimeout = 30 * time.Second

// Ensure Browser implements feedsnap.Browser at compile time.
var _ feedsnap.Browser = (*Browser)(nil)

// Browser launches a fresh Chrome process for every session, so a session
// that got stuck can be thrown away without affecting the next one.
type Browser struct {
	headless bool
	stealth  bool
	blocked  []string
	timeout  time.Duration
	bin      string
}

// Option configures a Browser.
type Option func(*Browser)

// WithHeadless controls whether Chrome runs without a window. Defaults to true.
func WithHeadless(headless bool) Option {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithStealth hides the usual automation fingerprints from the page.
func WithStealth(enabled bool) Option {
	return func(b *Browser) {
		b.stealth = enabled
	}
}

// WithBlockedURLs fails every request matching one of the wildcard patterns,
// e.g. "https://ads.example/*".
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

// WithBin uses the Chrome binary at path instead of the one rod finds.
func WithBin(path string) Option {
	return func(b *Browser) {
		b.bin = path
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

// Open launches Chrome and opens a blank page.
func (b *Browser) Open(ctx context.Context) (feedsnap.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(b.headless)
	if b.bin != "" {
		lnchr = lnchr.Bin(b.bin)
	}

	u, err := lnchr.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	s := &Session{
		browser:  browser,
		launcher: lnchr,
		timeout:  b.timeout,
	}

	if len(b.blocked) > 0 {
		router := browser.HijackRequests()
		for _, pattern := range b.blocked {
			err := router.Add(pattern, "", func(h *rod.Hijack) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			})
			if err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("blocking %s: %w", pattern, err)
			}
		}
		go router.Run()
		s.router = router
	}

	var page *rod.Page
	if b.stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	s.page = page

	return s, nil
}
