package feed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/feedsnap"
)

// Scroller pushes a document to its bottom, letting lazily loaded items settle.
type Scroller struct {
	Driver    feedsnap.Driver
	Selectors Selectors
	// SettleInterval defaults to DefaultSettleInterval.
	SettleInterval time.Duration
	Logger         *slog.Logger
}

// ScrollToBottom scrolls until a one-pixel probe no longer moves the viewport.
// There is no iteration cap: content height only grows between loads, so the
// probe converges once the feed stops appending items.
func (s *Scroller) ScrollToBottom(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		maxY, err := feedsnap.MaxScroll(ctx, s.Driver)
		if err != nil {
			return err
		}
		if err := feedsnap.ScrollTo(ctx, s.Driver, maxY); err != nil {
			return err
		}

		if err := s.WaitItemsSettled(ctx); err != nil {
			return err
		}

		moved, err := s.probe(ctx)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
		s.logger().Debug("viewport still moving", "max_scroll", maxY)
	}
}

// WaitItemsSettled waits while the loading indicator is visible or any item
// still shows the loader image. It returns early as soon as the viewport can
// scroll further, because items below the fold only load once scrolled into
// view and waiting for them here would never finish.
func (s *Scroller) WaitItemsSettled(ctx context.Context) error {
	for {
		pending, err := s.hasPendingItems(ctx)
		if err != nil {
			return err
		}
		if !pending {
			return nil
		}

		moved, err := s.probe(ctx)
		if err != nil {
			return err
		}
		if moved {
			return nil
		}

		if err := s.Driver.Wait(ctx, s.settleInterval()); err != nil {
			return err
		}
	}
}

// hasPendingItems reports whether the page is still loading items.
func (s *Scroller) hasPendingItems(ctx context.Context) (bool, error) {
	loading, err := s.Driver.QueryVisible(ctx, s.Selectors.Loading)
	if err != nil {
		return false, err
	}
	if loading {
		return true, nil
	}

	items, err := s.Driver.QueryAll(ctx, s.Selectors.Item)
	if err != nil {
		return false, err
	}
	for i, item := range items {
		src, err := item.Attribute(ctx, "src")
		if err != nil {
			return false, err
		}
		if src == nil {
			return false, feedsnap.Errorf(feedsnap.EINVALID, "item %d matching %q has no src", i, s.Selectors.Item)
		}
		if strings.HasSuffix(*src, LoaderSuffix) {
			return true, nil
		}
	}
	return false, nil
}

// probe scrolls down by one pixel and reports whether the viewport moved.
func (s *Scroller) probe(ctx context.Context) (bool, error) {
	before, err := feedsnap.VerticalPosition(ctx, s.Driver)
	if err != nil {
		return false, err
	}
	if err := feedsnap.ScrollBy(ctx, s.Driver, 1); err != nil {
		return false, err
	}
	after, err := feedsnap.VerticalPosition(ctx, s.Driver)
	if err != nil {
		return false, err
	}
	return after > before, nil
}

func (s *Scroller) settleInterval() time.Duration {
	if s.SettleInterval <= 0 {
		return DefaultSettleInterval
	}
	return s.SettleInterval
}

func (s *Scroller) logger() *slog.Logger {
	if s.Logger == nil {
		return discardLogger()
	}
	return s.Logger
}
