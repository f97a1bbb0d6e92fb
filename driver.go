package feedsnap

import (
	"context"
	"net/http"
	"time"
)

// Driver controls a single loaded document in a browser.
// Implementations translate operation timeouts into ETIMEOUT errors.
// A Driver is not safe for concurrent use; callers serialize DOM operations.
type Driver interface {
	// Navigate loads url and waits for the document to finish loading.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the URL of the loaded document.
	CurrentURL(ctx context.Context) (string, error)

	// Evaluate calls the JavaScript function expression fn with args and
	// decodes its JSON result into res. res may be nil.
	Evaluate(ctx context.Context, res any, fn string, args ...any) error

	// QueryAll returns the elements currently matching selector.
	// It does not wait for elements to appear.
	QueryAll(ctx context.Context, selector string) ([]Element, error)

	// QueryVisible reports whether the first element matching selector
	// exists and is visible.
	QueryVisible(ctx context.Context, selector string) (bool, error)

	// TryClick waits up to timeout for selector to appear and clicks it.
	// It returns false without error when the element never showed up.
	TryClick(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)

	// Cookies returns the cookies the browser would send to url.
	Cookies(ctx context.Context, url string) ([]*http.Cookie, error)

	// Wait pauses for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error
}

// Element is a handle to a DOM element.
type Element interface {
	// Attribute returns the attribute value, or nil if it is absent.
	Attribute(ctx context.Context, name string) (*string, error)
	InnerText(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	Visible(ctx context.Context) (bool, error)
}

// Session is a Driver bound to a running browser.
// Close must be called when the Session is no longer needed.
type Session interface {
	Driver
	Close() error
}

// Browser launches browser sessions. Each session is a fresh browser
// process, so a failed session can be discarded and replaced.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

// Scripts evaluated through Driver.Evaluate. They are function expressions
// so that implementations can pass arguments separately.
const (
	ScrollToScript         = `(y) => window.scrollTo(0, y)`
	ScrollByScript         = `(dy) => window.scrollBy(0, dy)`
	MaxScrollScript        = `() => Math.max(0, document.documentElement.scrollHeight - window.innerHeight)`
	VerticalPositionScript = `() => window.scrollY`
	UserAgentScript        = `() => navigator.userAgent`
	HideScript             = `(sel) => document.querySelectorAll(sel).forEach((e) => { e.style.display = 'none' })`
)

// ScrollTo scrolls the document to vertical offset y.
func ScrollTo(ctx context.Context, d Driver, y float64) error {
	return d.Evaluate(ctx, nil, ScrollToScript, y)
}

// ScrollBy scrolls the document vertically by dy.
func ScrollBy(ctx context.Context, d Driver, dy float64) error {
	return d.Evaluate(ctx, nil, ScrollByScript, dy)
}

// MaxScroll returns the largest vertical offset the document can scroll to.
func MaxScroll(ctx context.Context, d Driver) (float64, error) {
	var y float64
	if err := d.Evaluate(ctx, &y, MaxScrollScript); err != nil {
		return 0, err
	}
	return y, nil
}

// VerticalPosition returns the current vertical scroll offset.
func VerticalPosition(ctx context.Context, d Driver) (float64, error) {
	var y float64
	if err := d.Evaluate(ctx, &y, VerticalPositionScript); err != nil {
		return 0, err
	}
	return y, nil
}

// UserAgent returns the browser's user agent string.
func UserAgent(ctx context.Context, d Driver) (string, error) {
	var ua string
	if err := d.Evaluate(ctx, &ua, UserAgentScript); err != nil {
		return "", err
	}
	return ua, nil
}

// Hide sets display:none on every element matching each selector.
func Hide(ctx context.Context, d Driver, selectors ...string) error {
	for _, sel := range selectors {
		if err := d.Evaluate(ctx, nil, HideScript, sel); err != nil {
			return err
		}
	}
	return nil
}

// FirstVisible returns the first visible element matching selector,
// or nil if there is none.
func FirstVisible(ctx context.Context, d Driver, selector string) (Element, error) {
	els, err := d.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		visible, err := el.Visible(ctx)
		if err != nil {
			return nil, err
		}
		if visible {
			return el, nil
		}
	}
	return nil, nil
}
