package feed

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fwojciec/feedsnap"
)

// Completion is the answer to "has every item loaded?".
type Completion int

const (
	// CompletionUnknown means the page does not declare how many items it has.
	CompletionUnknown Completion = iota
	CompletionIncomplete
	CompletionComplete
)

func (c Completion) String() string {
	switch c {
	case CompletionComplete:
		return "complete"
	case CompletionIncomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// ExpectationState tracks whether the expected item count was determined.
type ExpectationState int

const (
	// ExpectationUnknown means the heading has not been read yet.
	ExpectationUnknown ExpectationState = iota
	// ExpectationUndeterminable means the heading carries no count. Permanent.
	ExpectationUndeterminable
	// ExpectationKnown means Count holds the declared item count. Permanent.
	ExpectationKnown
)

// Expectation is the item count a gallery declares in its heading.
type Expectation struct {
	State ExpectationState
	Count int
}

var countPattern = regexp.MustCompile(`(\d+)P$`)

// ParseExpectedCount extracts the trailing "<digits>P" count from a heading.
// Trailing whitespace is ignored. A zero or unrepresentable count is
// treated as absent.
func ParseExpectedCount(heading string) (int, bool) {
	m := countPattern.FindStringSubmatch(strings.TrimSpace(heading))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// CompletionDetector decides whether the page shows as many items as it
// declares. The declared count is read once per detector and never
// re-parsed; create one detector per run.
//
// The detector holds no driver, so one detector can outlive the browser
// sessions it inspects. CompletionDetector is safe for concurrent use.
type CompletionDetector struct {
	Selectors Selectors

	expected atomic.Pointer[Expectation]
}

// Expectation returns the current expected count state.
func (d *CompletionDetector) Expectation() Expectation {
	if e := d.expected.Load(); e != nil {
		return *e
	}
	return Expectation{State: ExpectationUnknown}
}

// AreAllLoaded reports whether the item count rendered by drv matches the count
// declared in the heading. It returns CompletionUnknown on every call once
// the heading turned out to carry no count.
func (d *CompletionDetector) AreAllLoaded(ctx context.Context, drv feedsnap.Driver) (Completion, error) {
	e := d.expected.Load()
	if e == nil {
		parsed, err := d.readExpectation(ctx, drv)
		if err != nil {
			return CompletionUnknown, err
		}
		// The first published value wins; later readers adopt it.
		d.expected.CompareAndSwap(nil, &parsed)
		e = d.expected.Load()
	}

	if e.State != ExpectationKnown {
		return CompletionUnknown, nil
	}

	items, err := drv.QueryAll(ctx, d.Selectors.Item)
	if err != nil {
		return CompletionUnknown, err
	}
	if len(items) == e.Count {
		return CompletionComplete, nil
	}
	return CompletionIncomplete, nil
}

func (d *CompletionDetector) readExpectation(ctx context.Context, drv feedsnap.Driver) (Expectation, error) {
	headings, err := drv.QueryAll(ctx, d.Selectors.Heading)
	if err != nil {
		return Expectation{}, err
	}
	if len(headings) == 0 {
		return Expectation{State: ExpectationUndeterminable}, nil
	}
	text, err := headings[0].InnerText(ctx)
	if err != nil {
		return Expectation{}, err
	}
	n, ok := ParseExpectedCount(text)
	if !ok {
		return Expectation{State: ExpectationUndeterminable}, nil
	}
	return Expectation{State: ExpectationKnown, Count: n}, nil
}
