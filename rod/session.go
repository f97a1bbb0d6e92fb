package rod

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fwojciec/feedsnap"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Session implements feedsnap.Session at compile time.
var _ feedsnap.Session = (*Session)(nil)

// Session drives one page of a dedicated Chrome process.
// Every operation runs under the Browser's timeout; running out of it is
// reported as ETIMEOUT.
type Session struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	router   *rod.HijackRouter
	page     *rod.Page
	timeout  time.Duration
	closed   atomic.Bool
}

// op returns the page bound to ctx and limited by the operation timeout.
// The returned cancel func must be called when the operation is done.
func (s *Session) op(ctx context.Context) (*rod.Page, context.CancelFunc, error) {
	if err := s.check(ctx); err != nil {
		return nil, nil, err
	}
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.page.Context(tctx), cancel, nil
}

func (s *Session) check(ctx context.Context) error {
	if s.closed.Load() {
		return feedsnap.Errorf(feedsnap.EINVALID, "session is closed")
	}
	return ctx.Err()
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p, cancel, err := s.op(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	if err := p.Navigate(url); err != nil {
		return translate(ctx, "navigate", err)
	}
	if err := p.WaitLoad(); err != nil {
		return translate(ctx, "wait load", err)
	}
	return nil
}

// CurrentURL returns the URL of the page after redirects.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	p, cancel, err := s.op(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	info, err := p.Info()
	if err != nil {
		return "", translate(ctx, "page info", err)
	}
	return info.URL, nil
}

// Evaluate calls fn with args in the page and decodes the result into res.
func (s *Session) Evaluate(ctx context.Context, res any, fn string, args ...any) error {
	p, cancel, err := s.op(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	obj, err := p.Eval(fn, args...)
	if err != nil {
		return translate(ctx, "evaluate", err)
	}
	if res == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(obj.Value.JSON("", "")), res); err != nil {
		return feedsnap.Errorf(feedsnap.EINTERNAL, "decoding result of %s: %v", fn, err)
	}
	return nil
}

// QueryAll returns the elements currently matching selector without waiting.
func (s *Session) QueryAll(ctx context.Context, selector string) ([]feedsnap.Element, error) {
	p, cancel, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	els, err := p.Elements(selector)
	if err != nil {
		return nil, translate(ctx, "query", err)
	}
	result := make([]feedsnap.Element, len(els))
	for i, el := range els {
		result[i] = &element{el: el, timeout: s.timeout}
	}
	return result, nil
}

// QueryVisible reports whether the first match of selector is visible.
func (s *Session) QueryVisible(ctx context.Context, selector string) (bool, error) {
	p, cancel, err := s.op(ctx)
	if err != nil {
		return false, err
	}
	defer cancel()
	has, el, err := p.Has(selector)
	if err != nil {
		return false, translate(ctx, "query", err)
	}
	if !has {
		return false, nil
	}
	visible, err := el.Visible()
	if err != nil {
		return false, translate(ctx, "visible", err)
	}
	return visible, nil
}

// TryClick waits up to timeout for selector and clicks it.
func (s *Session) TryClick(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	el, err := s.page.Context(wctx).Element(selector)
	cancel()
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return false, nil
		}
		return false, translate(ctx, "wait for "+selector, err)
	}
	if err := (&element{el: el, timeout: s.timeout}).Click(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// HTML returns the serialized document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	p, cancel, err := s.op(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	html, err := p.HTML()
	if err != nil {
		return "", translate(ctx, "html", err)
	}
	return html, nil
}

// Cookies returns the cookies the page would send to url.
func (s *Session) Cookies(ctx context.Context, url string) ([]*http.Cookie, error) {
	p, cancel, err := s.op(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	cookies, err := p.Cookies([]string{url})
	if err != nil {
		return nil, translate(ctx, "cookies", err)
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

// Close releases browser resources. Close is safe to call multiple times.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if s.router != nil {
		_ = s.router.Stop()
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	return err
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (s *Session) LauncherPID() int {
	if s.launcher == nil {
		return 0
	}
	return s.launcher.PID()
}

// ConvertCookies turns CDP cookies into net/http cookies.
func ConvertCookies(cookies []*proto.NetworkCookie) []*http.Cookie {
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

// translate maps rod errors to feedsnap errors. A deadline hit while the
// caller's context is still live is the operation timeout.
func translate(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return feedsnap.Errorf(feedsnap.ETIMEOUT, "%s timed out: %v", op, err)
	}
	return feedsnap.Errorf(feedsnap.EINTERNAL, "%s: %v", op, err)
}

// element adapts rod.Element. Each call is bound to the caller's context.
type element struct {
	el      *rod.Element
	timeout time.Duration
}

func (e *element) bind(ctx context.Context) (*rod.Element, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	return e.el.Context(tctx), cancel
}

func (e *element) Attribute(ctx context.Context, name string) (*string, error) {
	el, cancel := e.bind(ctx)
	defer cancel()
	v, err := el.Attribute(name)
	if err != nil {
		return nil, translate(ctx, "attribute "+name, err)
	}
	return v, nil
}

func (e *element) InnerText(ctx context.Context) (string, error) {
	el, cancel := e.bind(ctx)
	defer cancel()
	text, err := el.Text()
	if err != nil {
		return "", translate(ctx, "text", err)
	}
	return text, nil
}

func (e *element) Click(ctx context.Context) error {
	el, cancel := e.bind(ctx)
	defer cancel()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return translate(ctx, "click", err)
	}
	return nil
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	el, cancel := e.bind(ctx)
	defer cancel()
	visible, err := el.Visible()
	if err != nil {
		return false, translate(ctx, "visible", err)
	}
	return visible, nil
}
