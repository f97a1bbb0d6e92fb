package mock

import (
	"context"
	"net/http"
	"time"

	"github.com/fwojciec/feedsnap"
)

var _ feedsnap.Driver = (*Driver)(nil)

// Driver is a mock implementation of feedsnap.Driver.
type Driver struct {
	NavigateFn     func(ctx context.Context, url string) error
	CurrentURLFn   func(ctx context.Context) (string, error)
	EvaluateFn     func(ctx context.Context, res any, fn string, args ...any) error
	QueryAllFn     func(ctx context.Context, selector string) ([]feedsnap.Element, error)
	QueryVisibleFn func(ctx context.Context, selector string) (bool, error)
	TryClickFn     func(ctx context.Context, selector string, timeout time.Duration) (bool, error)
	HTMLFn         func(ctx context.Context) (string, error)
	CookiesFn      func(ctx context.Context, url string) ([]*http.Cookie, error)
	WaitFn         func(ctx context.Context, d time.Duration) error
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.NavigateFn(ctx, url)
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	return d.CurrentURLFn(ctx)
}

func (d *Driver) Evaluate(ctx context.Context, res any, fn string, args ...any) error {
	return d.EvaluateFn(ctx, res, fn, args...)
}

func (d *Driver) QueryAll(ctx context.Context, selector string) ([]feedsnap.Element, error) {
	return d.QueryAllFn(ctx, selector)
}

func (d *Driver) QueryVisible(ctx context.Context, selector string) (bool, error) {
	return d.QueryVisibleFn(ctx, selector)
}

func (d *Driver) TryClick(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	return d.TryClickFn(ctx, selector, timeout)
}

func (d *Driver) HTML(ctx context.Context) (string, error) {
	return d.HTMLFn(ctx)
}

func (d *Driver) Cookies(ctx context.Context, url string) ([]*http.Cookie, error) {
	return d.CookiesFn(ctx, url)
}

func (d *Driver) Wait(ctx context.Context, dur time.Duration) error {
	return d.WaitFn(ctx, dur)
}

var _ feedsnap.Session = (*Session)(nil)

// Session is a mock implementation of feedsnap.Session.
type Session struct {
	Driver
	CloseFn func() error
}

func (s *Session) Close() error {
	return s.CloseFn()
}

var _ feedsnap.Browser = (*Browser)(nil)

// Browser is a mock implementation of feedsnap.Browser.
type Browser struct {
	OpenFn func(ctx context.Context) (feedsnap.Session, error)
}

func (b *Browser) Open(ctx context.Context) (feedsnap.Session, error) {
	return b.OpenFn(ctx)
}

var _ feedsnap.Element = (*Element)(nil)

// Element is a mock implementation of feedsnap.Element.
type Element struct {
	AttributeFn func(ctx context.Context, name string) (*string, error)
	InnerTextFn func(ctx context.Context) (string, error)
	ClickFn     func(ctx context.Context) error
	VisibleFn   func(ctx context.Context) (bool, error)
}

func (e *Element) Attribute(ctx context.Context, name string) (*string, error) {
	return e.AttributeFn(ctx, name)
}

func (e *Element) InnerText(ctx context.Context) (string, error) {
	return e.InnerTextFn(ctx)
}

func (e *Element) Click(ctx context.Context) error {
	return e.ClickFn(ctx)
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.VisibleFn(ctx)
}
