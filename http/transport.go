package http

import (
	"math"
	"net/http"
)

// defaultConnsPerHost is the per-host limit some clients ship with.
// Leaving it in place would throttle a concurrent batch to two requests.
const defaultConnsPerHost = 2

// NewTransport returns a clone of http.DefaultTransport with the per-host
// connection limit lifted.
func NewTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	LiftConnectionLimit(t)
	return t
}

// LiftConnectionLimit removes per-host connection limits that are still at
// their defaults. It reports whether t was changed; a second call on the
// same transport returns false.
func LiftConnectionLimit(t *http.Transport) bool {
	changed := false
	if t.MaxIdleConnsPerHost == 0 || t.MaxIdleConnsPerHost == http.DefaultMaxIdleConnsPerHost {
		t.MaxIdleConnsPerHost = math.MaxInt
		changed = true
	}
	if t.MaxConnsPerHost == defaultConnsPerHost {
		t.MaxConnsPerHost = 0
		changed = true
	}
	return changed
}
