package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/feedsnap/feed"
)

// Browser engines.
const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Runner *feed.Runner
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL string `arg:"" help:"Gallery URL"`
	Dir string `arg:"" help:"Output directory (created if absent)" type:"path"`

	Config       kong.ConfigFlag `help:"Load flag defaults from a JSON file"`
	Concurrency  int             `short:"c" default:"8" env:"FEEDSNAP_CONCURRENCY" help:"Concurrent downloads"`
	Retries      int             `short:"r" default:"3" env:"FEEDSNAP_RETRIES" help:"Retries per image after a transient failure"`
	Restarts     int             `default:"3" env:"FEEDSNAP_RESTARTS" help:"Browser restarts after a page timeout"`
	Timeout      time.Duration   `short:"t" default:"30s" env:"FEEDSNAP_TIMEOUT" help:"Timeout per browser operation"`
	FetchTimeout time.Duration   `default:"30s" env:"FEEDSNAP_FETCH_TIMEOUT" help:"Timeout per image download"`
	Rate         float64         `default:"0" env:"FEEDSNAP_RATE" help:"Downloads per second per host (0 disables the limit)"`
	Engine       string          `short:"e" default:"rod" enum:"rod,chromedp" env:"FEEDSNAP_ENGINE" help:"Browser engine (rod, chromedp)"`
	BrowserBin   string          `env:"FEEDSNAP_BROWSER_BIN" help:"Chrome binary to launch instead of the one found automatically"`
	Stealth      bool            `env:"FEEDSNAP_STEALTH" help:"Hide automation fingerprints (rod only)"`
	ShowBrowser  bool            `help:"Run the browser with a visible window"`
	Debug        bool            `env:"FEEDSNAP_DEBUG" help:"Log debug output and show the browser"`
	MaxClicks    int             `hidden:"" help:"Stop after this many load-more clicks"`
}

// Validate is called by Kong after parsing.
func (c *CLI) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if c.Restarts < 0 {
		return fmt.Errorf("restarts must not be negative")
	}
	if c.Timeout <= 0 || c.FetchTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	return nil
}
