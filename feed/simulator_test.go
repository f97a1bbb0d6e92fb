package feed_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/feedsnap"
	"github.com/fwojciec/feedsnap/feed"
)

// simFeed simulates a gallery page with an infinite-scroll feed. Items are
// revealed in batches: the first on load, the rest one per click on the
// load-more trigger. New items show the loader image until enough waits
// have passed.
type simFeed struct {
	mu sync.Mutex

	sel     feed.Selectors
	pageURL string
	heading string
	batches []int
	// settleWaits is how many waits a new item needs before its src is real.
	settleWaits int

	viewport   float64
	itemHeight float64

	revealed     int
	items        []int // remaining waits per item
	loadingWaits int
	scrollY      float64
	clicks       int
	waits        int
	hidden       []string
	closed       bool
}

func newSimFeed(heading string, batches ...int) *simFeed {
	f := &simFeed{
		sel:         feed.DefaultSelectors(),
		pageURL:     "https://gallery.example/album/42",
		heading:     heading,
		batches:     batches,
		settleWaits: 2,
		viewport:    800,
		itemHeight:  300,
	}
	f.reveal()
	return f
}

// reveal appends the next batch. Must be called with mu held or before use.
func (f *simFeed) reveal() {
	if f.revealed >= len(f.batches) {
		return
	}
	for i := 0; i < f.batches[f.revealed]; i++ {
		f.items = append(f.items, f.settleWaits)
	}
	f.revealed++
	f.loadingWaits = 1
}

func (f *simFeed) maxScroll() float64 {
	height := 200 + float64(len(f.items))*f.itemHeight
	return max(0, height-f.viewport)
}

func (f *simFeed) clamp(y float64) float64 {
	return min(max(0, y), f.maxScroll())
}

func (f *simFeed) src(i int) string {
	if f.items[i] > 0 {
		return "/static/loading.gif"
	}
	return fmt.Sprintf("/img/%d.jpg", i)
}

func (f *simFeed) Navigate(context.Context, string) error { return nil }

func (f *simFeed) CurrentURL(context.Context) (string, error) { return f.pageURL, nil }

func (f *simFeed) Evaluate(_ context.Context, res any, fn string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result any
	switch fn {
	case feedsnap.MaxScrollScript:
		result = f.maxScroll()
	case feedsnap.VerticalPositionScript:
		result = f.scrollY
	case feedsnap.ScrollToScript:
		f.scrollY = f.clamp(args[0].(float64))
	case feedsnap.ScrollByScript:
		f.scrollY = f.clamp(f.scrollY + args[0].(float64))
	case feedsnap.UserAgentScript:
		result = "feedsnap-sim/1.0"
	case feedsnap.HideScript:
		f.hidden = append(f.hidden, args[0].(string))
	default:
		return fmt.Errorf("unexpected script %q", fn)
	}

	if res == nil {
		return nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, res)
}

func (f *simFeed) QueryAll(_ context.Context, selector string) ([]feedsnap.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch selector {
	case f.sel.Item:
		els := make([]feedsnap.Element, len(f.items))
		for i := range f.items {
			els[i] = &simItem{feed: f, index: i}
		}
		return els, nil
	case f.sel.LoadMore:
		if f.revealed < len(f.batches) {
			return []feedsnap.Element{&simTrigger{feed: f}}, nil
		}
		return nil, nil
	case f.sel.Heading:
		if f.heading == "" {
			return nil, nil
		}
		return []feedsnap.Element{&simText{text: f.heading}}, nil
	}
	return nil, nil
}

func (f *simFeed) QueryVisible(_ context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if selector == f.sel.Loading {
		return f.loadingWaits > 0, nil
	}
	return false, nil
}

func (f *simFeed) TryClick(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}

func (f *simFeed) HTML(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var b strings.Builder
	b.WriteString(`<html><body>`)
	fmt.Fprintf(&b, `<h1 class="focusbox-title">%s</h1>`, f.heading)
	for i := range f.items {
		fmt.Fprintf(&b, `<p class="item-image"><img src="%s"></p>`, f.src(i))
	}
	b.WriteString(`</body></html>`)
	return b.String(), nil
}

func (f *simFeed) Cookies(context.Context, string) ([]*http.Cookie, error) {
	return []*http.Cookie{{Name: "over18", Value: "1"}}, nil
}

func (f *simFeed) Wait(context.Context, time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.waits++
	if f.loadingWaits > 0 {
		f.loadingWaits--
	}
	for i := range f.items {
		if f.items[i] > 0 {
			f.items[i]--
		}
	}
	return nil
}

func (f *simFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *simFeed) Clicks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clicks
}

func (f *simFeed) ItemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type simItem struct {
	feed  *simFeed
	index int
}

func (e *simItem) Attribute(_ context.Context, name string) (*string, error) {
	e.feed.mu.Lock()
	defer e.feed.mu.Unlock()

	if name != "src" {
		return nil, nil
	}
	src := e.feed.src(e.index)
	return &src, nil
}

func (e *simItem) InnerText(context.Context) (string, error) { return "", nil }

func (e *simItem) Click(context.Context) error { return nil }

func (e *simItem) Visible(context.Context) (bool, error) { return true, nil }

type simTrigger struct {
	feed *simFeed
}

func (e *simTrigger) Attribute(context.Context, string) (*string, error) { return nil, nil }

func (e *simTrigger) InnerText(context.Context) (string, error) { return "Load more", nil }

func (e *simTrigger) Click(context.Context) error {
	e.feed.mu.Lock()
	defer e.feed.mu.Unlock()

	e.feed.clicks++
	e.feed.reveal()
	return nil
}

func (e *simTrigger) Visible(context.Context) (bool, error) { return true, nil }

type simText struct {
	text string
}

func (e *simText) Attribute(context.Context, string) (*string, error) { return nil, nil }

func (e *simText) InnerText(context.Context) (string, error) { return e.text, nil }

func (e *simText) Click(context.Context) error { return nil }

func (e *simText) Visible(context.Context) (bool, error) { return true, nil }
