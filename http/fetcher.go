// Package http provides an HTTP implementation of feedsnap.Fetcher for
// downloading assets outside the browser while presenting the browser's
// identity.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/fwojciec/feedsnap"
	"golang.org/x/net/publicsuffix"
)

// DefaultFetchTimeout is the default timeout for one HTTP request.
const DefaultFetchTimeout = 30 * time.Second

// Ensure Fetcher implements feedsnap.Fetcher at compile time.
var _ feedsnap.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves asset bytes over HTTP. Failures are classified:
// network errors, timeouts, 408, 429 and 5xx are ETRANSIENT; 404 and 410
// are ENOTFOUND; bad URLs and other statuses are EINVALID.
type Fetcher struct {
	client    *http.Client
	transport http.RoundTripper
	timeout   time.Duration
	identity  feedsnap.Identity
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithIdentity makes requests carry the page's user agent, its URL as
// referer and its cookies.
func WithIdentity(id feedsnap.Identity) Option {
	return func(f *Fetcher) {
		f.identity = id
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.identity.UserAgent = ua
	}
}

// WithTransport replaces the transport built by NewTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) {
		f.transport = rt
	}
}

// NewFetcher creates a new HTTP Fetcher.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.transport == nil {
		f.transport = NewTransport()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	if len(f.identity.Cookies) > 0 {
		u, err := url.Parse(f.identity.PageURL)
		if err != nil || u.Host == "" {
			return nil, feedsnap.Errorf(feedsnap.EINVALID, "invalid page URL %q for cookies", f.identity.PageURL)
		}
		jar.SetCookies(u, f.identity.Cookies)
	}

	f.client = &http.Client{
		Transport: f.transport,
		Timeout:   f.timeout,
		Jar:       jar,
	}
	return f, nil
}

// NewFetcherFactory returns a feedsnap.FetcherFactory that builds a
// Fetcher with opts and the given identity.
func NewFetcherFactory(opts ...Option) feedsnap.FetcherFactory {
	return func(id feedsnap.Identity) (feedsnap.Fetcher, error) {
		all := append(append([]Option{}, opts...), WithIdentity(id))
		return NewFetcher(all...)
	}
}

// FetchBytes retrieves the body at rawURL.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, feedsnap.Errorf(feedsnap.EINVALID, "invalid asset URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, feedsnap.Errorf(feedsnap.EINVALID, "building request for %s: %v", rawURL, err)
	}
	if f.identity.UserAgent != "" {
		req.Header.Set("User-Agent", f.identity.UserAgent)
	}
	if f.identity.PageURL != "" {
		req.Header.Set("Referer", f.identity.PageURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, feedsnap.Errorf(feedsnap.ETRANSIENT, "fetching %s: %v", rawURL, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, rawURL); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}
		return nil, feedsnap.Errorf(feedsnap.ETRANSIENT, "reading %s: %v", rawURL, err)
	}
	return body, nil
}

func classifyStatus(code int, rawURL string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return feedsnap.Errorf(feedsnap.ENOTFOUND, "HTTP %d for %s", code, rawURL)
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
		return feedsnap.Errorf(feedsnap.ETRANSIENT, "HTTP %d for %s", code, rawURL)
	default:
		return feedsnap.Errorf(feedsnap.EINVALID, "HTTP %d for %s", code, rawURL)
	}
}
