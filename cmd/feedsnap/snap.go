package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fwojciec/feedsnap"
	"github.com/fwojciec/feedsnap/feed"
)

// SnapCmd downloads one gallery.
type SnapCmd struct {
	URL string
	Dir string
}

// Run executes the snap command.
func (c *SnapCmd) Run(deps *Dependencies) error {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	runner := *deps.Runner
	runner.OnLoad = func(e feed.LoadEvent) {
		reportLoad(deps.Stdout, e)
	}
	runner.OnDownload = func(p feedsnap.DownloadProgress) {
		if p.Outcome.Err != nil {
			fmt.Fprintf(deps.Stderr, "\nskip %s: %s\n", p.Outcome.Ref.URL, errorText(p.Outcome.Err))
		}
		fmt.Fprintf(deps.Stdout, "\r[%d/%d] %s", p.Completed, p.Total, p.Outcome.Ref.FileName())
	}

	fmt.Fprintf(deps.Stdout, "Loading %s\n", c.URL)
	stats, err := runner.Run(deps.Ctx, c.URL, c.Dir)
	if stats == nil {
		return err
	}

	// Clear progress line
	fmt.Fprintf(deps.Stdout, "\r%80s\r", "")
	printSummary(deps.Stdout, stats, c.Dir)

	if err != nil {
		return err
	}
	if failed := stats.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed", len(failed), stats.Items)
	}
	return nil
}

func reportLoad(w io.Writer, e feed.LoadEvent) {
	switch e.Type {
	case feed.LoadMoreClicked:
		fmt.Fprintf(w, "\rLoading more items: %d clicks, %s", e.Clicks, e.Elapsed.Round(time.Second))
	case feed.LoadRetrying:
		fmt.Fprintf(w, "\rWaiting for missing items: %d clicks, %s", e.Clicks, e.Elapsed.Round(time.Second))
	case feed.LoadFinished:
		fmt.Fprintf(w, "\r%80s\rAll items loaded after %d clicks\n", "", e.Clicks)
	case feed.LoadBestEffort:
		fmt.Fprintf(w, "\r%80s\rItem count unknown, stopped after %d clicks\n", "", e.Clicks)
	}
}

func printSummary(w io.Writer, stats *feedsnap.Stats, dir string) {
	fmt.Fprintf(w, "Downloaded %s of %s images (%s) to %s\n",
		humanize.Comma(int64(stats.Succeeded())),
		humanize.Comma(int64(stats.Items)),
		humanize.Bytes(uint64(stats.Bytes())),
		dir,
	)

	completeness := "complete"
	if !stats.Complete {
		completeness = "best effort"
	}
	fmt.Fprintf(w, "Load: %s clicks in %s, %s\n",
		humanize.Comma(int64(stats.Clicks)),
		stats.LoadElapsed.Round(time.Millisecond),
		completeness,
	)
	if stats.Restarts > 0 {
		fmt.Fprintf(w, "Browser restarts: %d\n", stats.Restarts)
	}
	if n := stats.Duplicates(); n > 0 {
		fmt.Fprintf(w, "Duplicates: %s\n", humanize.Comma(int64(n)))
	}
	fmt.Fprintf(w, "Total time: %s\n", stats.Elapsed.Round(time.Millisecond))

	failed := stats.Failed()
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(w, "Failed: %d\n", len(failed))
	for _, o := range failed {
		fmt.Fprintf(w, "  %s %s: %s\n", o.Ref.FileName(), o.Ref.URL, errorText(o.Err))
	}
}

// errorText returns the message of an application error, or the full
// error text when err carries no code.
func errorText(err error) string {
	var e *feedsnap.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
