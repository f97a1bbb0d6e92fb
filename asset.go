package feedsnap

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AssetReference is a downloadable item discovered on the page.
type AssetReference struct {
	// URL is absolute.
	URL string
	// Ordinal is the 0-based position of the item in document order.
	// It names the output file.
	Ordinal int
}

// FileName returns the output file name, "{ordinal}{extension}".
func (r AssetReference) FileName() string {
	return fmt.Sprintf("%d%s", r.Ordinal, Extension(r.URL))
}

// Extension returns the extension of the last path segment of rawURL,
// including the dot. A segment without a dot, or whose only dot is its
// first character, has no extension.
func Extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := p[strings.LastIndex(p, "/")+1:]
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return ""
	}
	return name[i:]
}

// DownloadOutcome is the terminal result for one AssetReference.
type DownloadOutcome struct {
	Ref AssetReference
	// Path is the written file; empty on failure.
	Path     string
	Attempts int
	Bytes    int
	// Hash is the xxhash of the content in hex; empty on failure.
	Hash string
	Err  error
}

// Success reports whether the asset was written.
func (o DownloadOutcome) Success() bool {
	return o.Err == nil
}

// DownloadProgress reports that one asset reached a terminal outcome.
type DownloadProgress struct {
	Completed int
	Total     int
	Outcome   DownloadOutcome
}

// DownloadProgressFunc is called once per completed asset. Calls are serialized.
type DownloadProgressFunc func(DownloadProgress)

// Fetcher retrieves the raw bytes at a URL.
// Failures worth retrying are reported with code ETRANSIENT.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Identity carries the browser identity an HTTP client should present
// so that image hosts treat it like the page that referenced them.
type Identity struct {
	UserAgent string
	PageURL   string
	Cookies   []*http.Cookie
}

// FetcherFactory builds a Fetcher presenting the given identity.
type FetcherFactory func(Identity) (Fetcher, error)

// AssetExtractor finds asset references in a loaded document.
type AssetExtractor interface {
	// ExtractAssets returns one reference per element matching selector,
	// in document order, resolved against pageURL. An element without a
	// source is an EINVALID error.
	ExtractAssets(html, pageURL, selector string) ([]AssetReference, error)
}

// AssetWriter stores downloaded content.
type AssetWriter interface {
	// WriteAsset writes data to name inside dir and returns the file path.
	WriteAsset(ctx context.Context, dir, name string, data []byte) (string, error)
}

// Downloader fetches a batch of assets into a directory.
type Downloader interface {
	// DownloadAll returns one outcome per ref, in input order, after every
	// ref reached a terminal outcome. The error is non-nil only when the
	// batch itself could not complete.
	DownloadAll(ctx context.Context, fetcher Fetcher, refs []AssetReference, destDir string, progress DownloadProgressFunc) ([]DownloadOutcome, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	Wait(ctx context.Context, domain string) error
}
