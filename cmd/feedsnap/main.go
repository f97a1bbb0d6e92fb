package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/feedsnap"
	"github.com/fwojciec/feedsnap/chromedp"
	"github.com/fwojciec/feedsnap/download"
	"github.com/fwojciec/feedsnap/feed"
	"github.com/fwojciec/feedsnap/fs"
	"github.com/fwojciec/feedsnap/goquery"
	feedsnaphttp "github.com/fwojciec/feedsnap/http"
	"github.com/fwojciec/feedsnap/rod"
	feedslog "github.com/fwojciec/feedsnap/slog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// DefaultConfigPath is read for flag defaults when it exists.
const DefaultConfigPath = "~/.config/feedsnap/config.json"

// Main represents the program.
type Main struct {
	// ConfigPaths are JSON files consulted for flag values.
	ConfigPaths []string

	// Browser replaces the engine selected on the command line.
	Browser feedsnap.Browser
	// NewFetcher replaces the HTTP fetcher factory.
	NewFetcher feedsnap.FetcherFactory
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{DefaultConfigPath},
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("feedsnap"),
		kong.Description("Load every item of an infinite-scroll gallery and download its images"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(kong.JSON, m.ConfigPaths...),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if cli.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	browser := m.Browser
	if browser == nil {
		browser = newBrowser(cli)
	}

	newFetcher := m.NewFetcher
	if newFetcher == nil {
		newFetcher = feedsnaphttp.NewFetcherFactory(feedsnaphttp.WithTimeout(cli.FetchTimeout))
	}

	dlOpts := []download.Option{
		download.WithConcurrency(cli.Concurrency),
		download.WithMaxRetries(cli.Retries),
		download.WithLogger(logger),
	}
	if cli.Rate > 0 {
		dlOpts = append(dlOpts, download.WithLimiter(download.NewDomainLimiter(cli.Rate, cli.Concurrency)))
	}

	deps.Runner = &feed.Runner{
		Browser:     feedslog.NewLoggingBrowser(browser, logger),
		Extractor:   goquery.NewAssetExtractor(),
		Downloader:  download.NewDownloader(fs.NewWriter(), dlOpts...),
		NewFetcher:  feedslog.NewLoggingFetcherFactory(newFetcher, logger),
		Selectors:   feed.DefaultSelectors(),
		MaxRestarts: cli.Restarts,
		MaxClicks:   cli.MaxClicks,
		Logger:      logger,
	}

	cmd := &SnapCmd{
		URL: cli.URL,
		Dir: cli.Dir,
	}

	return cmd.Run(deps)
}

// newBrowser builds the browser engine selected by the flags.
func newBrowser(cli *CLI) feedsnap.Browser {
	headless := !cli.ShowBrowser && !cli.Debug
	blocked := feed.BlockPatterns(feed.DefaultBlockedHosts())

	if cli.Engine == EngineChromedp {
		opts := []chromedp.Option{
			chromedp.WithHeadless(headless),
			chromedp.WithBlockedURLs(blocked...),
			chromedp.WithTimeout(cli.Timeout),
		}
		if cli.BrowserBin != "" {
			opts = append(opts, chromedp.WithExecPath(cli.BrowserBin))
		}
		return chromedp.NewBrowser(opts...)
	}
	opts := []rod.Option{
		rod.WithHeadless(headless),
		rod.WithStealth(cli.Stealth),
		rod.WithBlockedURLs(blocked...),
		rod.WithTimeout(cli.Timeout),
	}
	if cli.BrowserBin != "" {
		opts = append(opts, rod.WithBin(cli.BrowserBin))
	}
	return rod.NewBrowser(opts...)
}
