package chromedp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/fwojciec/feedsnap"
)

// Ensure Session implements feedsnap.Session at compile time.
var _ feedsnap.Session = (*Session)(nil)

// Scripts backing element handles. Elements are addressed by selector and
// index, so a handle goes stale when the document reorders its matches.
const (
	countScript     = `(sel) => document.querySelectorAll(sel).length`
	attributeScript = `(sel, i, name) => { const e = document.querySelectorAll(sel)[i]; if (!e) throw new Error('element is gone'); return e.getAttribute(name) }`
	textScript      = `(sel, i) => { const e = document.querySelectorAll(sel)[i]; if (!e) throw new Error('element is gone'); return e.innerText }`
	clickScript     = `(sel, i) => { const e = document.querySelectorAll(sel)[i]; if (!e) throw new Error('element is gone'); e.scrollIntoView({block: 'center'}); e.click() }`
	visibleScript   = `(sel, i) => { const e = document.querySelectorAll(sel)[i]; if (!e) return false; const s = getComputedStyle(e); return s.display !== 'none' && s.visibility !== 'hidden' && e.getClientRects().length > 0 }`
)

// Session drives the first tab of a dedicated Chrome process.
type Session struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	closed      atomic.Bool
}

// run executes actions on the tab, limited by the operation timeout and
// canceled together with ctx.
func (s *Session) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.runFor(ctx, s.timeout, op, actions...)
}

func (s *Session) runFor(ctx context.Context, d time.Duration, op string, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.tab, d)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(tctx, actions...); err != nil {
		return translate(ctx, op, err)
	}
	return nil
}

func (s *Session) check(ctx context.Context) error {
	if s.closed.Load() {
		return feedsnap.Errorf(feedsnap.EINVALID, "session is closed")
	}
	return ctx.Err()
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, "navigate", chromedp.Navigate(url))
}

// CurrentURL returns the URL of the page after redirects.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, "location", chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

// Evaluate calls fn with JSON-encoded args and decodes the result into res.
func (s *Session) Evaluate(ctx context.Context, res any, fn string, args ...any) error {
	expr, err := callExpression(fn, args...)
	if err != nil {
		return err
	}
	var raw []byte
	if err := s.run(ctx, "evaluate", chromedp.Evaluate(expr, &raw)); err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if err := json.Unmarshal(raw, res); err != nil {
		return feedsnap.Errorf(feedsnap.EINTERNAL, "decoding result of %s: %v", fn, err)
	}
	return nil
}

// callExpression renders fn applied to args as a JavaScript expression.
func callExpression(fn string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", feedsnap.Errorf(feedsnap.EINVALID, "encoding argument %d: %v", i, err)
		}
		encoded[i] = string(b)
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

// QueryAll returns handles to the elements currently matching selector.
func (s *Session) QueryAll(ctx context.Context, selector string) ([]feedsnap.Element, error) {
	var n int
	if err := s.Evaluate(ctx, &n, countScript, selector); err != nil {
		return nil, err
	}
	result := make([]feedsnap.Element, n)
	for i := range n {
		result[i] = &element{s: s, selector: selector, index: i}
	}
	return result, nil
}

// QueryVisible reports whether the first match of selector is visible.
func (s *Session) QueryVisible(ctx context.Context, selector string) (bool, error) {
	return (&element{s: s, selector: selector}).Visible(ctx)
}

// TryClick waits up to timeout for selector to be visible and clicks it.
func (s *Session) TryClick(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	err := s.runFor(ctx, timeout, "wait for "+selector, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if feedsnap.IsTimeout(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.run(ctx, "click "+selector, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return false, err
	}
	return true, nil
}

// HTML returns the serialized document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, "html", chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Cookies returns the cookies the page would send to url.
func (s *Session) Cookies(ctx context.Context, url string) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, "cookies", chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs([]string{url}).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return ConvertCookies(cookies), nil
}

// Wait pauses for d or until ctx is done.
func (s *Session) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close shuts the browser down. Close is safe to call multiple times.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := chromedp.Cancel(s.tab)
	s.cancelTab()
	s.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ConvertCookies turns CDP cookies into net/http cookies.
func ConvertCookies(cookies []*network.Cookie) []*http.Cookie {
	result := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		result = append(result, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return result
}

// translate maps chromedp errors to feedsnap errors. A deadline or
// cancellation while the caller's context is still live is the operation
// timeout.
func translate(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return feedsnap.Errorf(feedsnap.ETIMEOUT, "%s timed out: %v", op, err)
	}
	return feedsnap.Errorf(feedsnap.EINTERNAL, "%s: %v", op, err)
}

// element is a handle addressed by selector and match index.
type element struct {
	s        *Session
	selector string
	index    int
}

func (e *element) Attribute(ctx context.Context, name string) (*string, error) {
	var v *string
	if err := e.s.Evaluate(ctx, &v, attributeScript, e.selector, e.index, name); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *element) InnerText(ctx context.Context) (string, error) {
	var text string
	if err := e.s.Evaluate(ctx, &text, textScript, e.selector, e.index); err != nil {
		return "", err
	}
	return text, nil
}

func (e *element) Click(ctx context.Context) error {
	return e.s.Evaluate(ctx, nil, clickScript, e.selector, e.index)
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	var visible bool
	if err := e.s.Evaluate(ctx, &visible, visibleScript, e.selector, e.index); err != nil {
		return false, err
	}
	return visible, nil
}
