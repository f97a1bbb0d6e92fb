package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/feedsnap"
)

// LoadEvent reports progress while loading a feed.
type LoadEvent struct {
	Type    LoadEventType
	Clicks  int
	Elapsed time.Duration
}

// LoadEventType indicates the type of load event.
type LoadEventType int

const (
	// LoadMoreClicked follows each click on the load-more trigger.
	LoadMoreClicked LoadEventType = iota
	// LoadRetrying means the trigger is gone but items are still missing.
	LoadRetrying
	// LoadFinished means every declared item is rendered.
	LoadFinished
	// LoadBestEffort means loading stopped without proof of completeness.
	LoadBestEffort
)

// LoadProgressFunc is a callback for reporting load progress.
type LoadProgressFunc func(LoadEvent)

// LoadResult holds the outcome of loading a feed.
type LoadResult struct {
	Clicks int
	// Checks counts completion checks that found items missing.
	Checks int
	// Complete is true when the declared item count was reached.
	Complete bool
	// Capped is true when MaxClicks stopped loading early.
	Capped  bool
	Elapsed time.Duration
}

// Paginator repeats scroll and load-more cycles until the feed is exhausted.
type Paginator struct {
	Driver    feedsnap.Driver
	Scroller  *Scroller
	Detector  *CompletionDetector
	Selectors Selectors
	// MaxClicks stops loading after that many clicks. Zero means no limit.
	MaxClicks int
	Progress  LoadProgressFunc
	Logger    *slog.Logger
	Now       func() time.Time
}

// LoadAll loads every item of the feed. Driver errors end the run.
func (p *Paginator) LoadAll(ctx context.Context) (*LoadResult, error) {
	scroller := p.Scroller
	if scroller == nil {
		scroller = &Scroller{Driver: p.Driver, Selectors: p.Selectors, Logger: p.Logger}
	}
	detector := p.Detector
	if detector == nil {
		detector = &CompletionDetector{Selectors: p.Selectors}
	}
	logger := p.logger()

	start := p.now()
	var result LoadResult

	logger.Debug("entering load loop")
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := scroller.ScrollToBottom(ctx); err != nil {
			return nil, err
		}

		trigger, err := feedsnap.FirstVisible(ctx, p.Driver, p.Selectors.LoadMore)
		if err != nil {
			return nil, err
		}

		if trigger != nil {
			if err := trigger.Click(ctx); err != nil {
				return nil, err
			}
			result.Clicks++
			result.Elapsed = p.now().Sub(start)
			p.emit(LoadEvent{Type: LoadMoreClicked, Clicks: result.Clicks, Elapsed: result.Elapsed})

			if p.MaxClicks > 0 && result.Clicks >= p.MaxClicks {
				logger.Debug("click limit reached", "clicks", result.Clicks)
				result.Capped = true
				return &result, nil
			}
			continue
		}

		completion, err := detector.AreAllLoaded(ctx, p.Driver)
		if err != nil {
			return nil, err
		}
		result.Elapsed = p.now().Sub(start)

		switch completion {
		case CompletionComplete:
			result.Complete = true
			p.emit(LoadEvent{Type: LoadFinished, Clicks: result.Clicks, Elapsed: result.Elapsed})
			return &result, nil
		case CompletionIncomplete:
			result.Checks++
			logger.Debug("retry loading items", "checks", result.Checks)
			p.emit(LoadEvent{Type: LoadRetrying, Clicks: result.Clicks, Elapsed: result.Elapsed})
		default:
			logger.Debug("no way to guarantee all items are loaded")
			p.emit(LoadEvent{Type: LoadBestEffort, Clicks: result.Clicks, Elapsed: result.Elapsed})
			return &result, nil
		}
	}
}

func (p *Paginator) emit(e LoadEvent) {
	if p.Progress != nil {
		p.Progress(e)
	}
}

func (p *Paginator) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Paginator) logger() *slog.Logger {
	if p.Logger == nil {
		return discardLogger()
	}
	return p.Logger
}
