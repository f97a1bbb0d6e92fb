// Package feed drives an infinite-scroll gallery page until every item has
// loaded. It scrolls to the bottom, waits for lazily loaded images, clicks
// the "load more" trigger and decides when the feed is exhausted.
package feed

import (
	"io"
	"log/slog"
	"time"
)

// Selectors locates the parts of a gallery page.
type Selectors struct {
	// Item matches one image per gallery item.
	Item string
	// Loading matches the indicator shown while a page of items loads.
	Loading string
	// LoadMore matches the trigger that appends the next page of items.
	LoadMore string
	// Heading holds the title ending in the item count, e.g. "Gallery 37P".
	Heading string
	// AgeGate matches the confirmation button of the interstitial.
	AgeGate string
	// Hidden elements are hidden before loading starts.
	Hidden []string
}

// DefaultSelectors returns the selectors of the supported gallery site.
func DefaultSelectors() Selectors {
	return Selectors{
		Item:     "p.item-image img",
		Loading:  "div.pagination-loading",
		LoadMore: "div.ias_trigger",
		Heading:  "h1.focusbox-title",
		AgeGate:  "#agree-over18",
		Hidden: []string{
			"div.line_03",
			"div.excerpts-article",
			"footer.footer",
		},
	}
}

// LoaderSuffix marks an image whose src still points at the loading animation.
const LoaderSuffix = ".gif"

// DefaultSettleInterval is how long to wait between checks for pending images.
const DefaultSettleInterval = 500 * time.Millisecond

// DefaultAgeGateTimeout bounds the wait for the age confirmation button.
const DefaultAgeGateTimeout = 5 * time.Second

// DefaultMaxRestarts is the number of browser restarts after a page-load timeout.
const DefaultMaxRestarts = 3

// DefaultBlockedHosts returns the ad and analytics hosts that slow the
// gallery down without contributing content.
func DefaultBlockedHosts() []string {
	return []string{
		"tianji.viagle.com",
		"www.googletagmanager.com",
		"platform-api.sharethis.com",
		"js.juicyads.com",
		"a.magsrv.com",
		"poweredby.jads.co",
		"a.pemsrv.com",
		"js.wpnsrv.com",
		"static.cloudflareinsights.com",
		"stats.viagle.com",
		"www.clarity.ms",
		"y.clarity.ms",
		"go.mnaspm.com",
		"go.xxxviijmp.com",
		"stripchat.com",
		"www.google-analytics.com",
		"img.strpst.com",
		"video.ktkjmp.com",
		"creative.mnaspm.com",
		"assets.strpst.com",
		"s3t3d2y8.afcdn.net",
		"u.clarity.ms",
		"s.pemsrv.com",
		"pm.w55c.net",
		"ml314.com",
		"match.360yield.com",
		"platfrom-cdn.sharethis.com",
		"sync.sharethis.com",
		"ups.analytics.com",
		"bcp.crwdcntrl.net",
		"ups.analytics.yahoo.com",
		"match.adsrvr.org",
		"ps.eyeota.net",
		"px.ads.linkedin.com",
		"cms.analytics.yahoo.com",
		"t.sharethis.com",
		"l.sharethis.com",
		"count-server.sharethis.com",
	}
}

// BlockPatterns turns hosts into URL patterns matching every request to them.
func BlockPatterns(hosts []string) []string {
	patterns := make([]string, 0, len(hosts))
	for _, h := range hosts {
		patterns = append(patterns, "https://"+h+"/*")
	}
	return patterns
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
