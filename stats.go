package feedsnap

import "time"

// Stats summarizes one run.
type Stats struct {
	RunID string
	URL   string
	// Items is the number of asset references extracted.
	Items  int
	Clicks int
	// Complete is false when the page gave no way to prove that every
	// item was loaded and loading stopped on a best-effort basis.
	Complete    bool
	Restarts    int
	LoadElapsed time.Duration
	Elapsed     time.Duration
	Outcomes    []DownloadOutcome
}

// Succeeded returns the number of assets written.
func (s *Stats) Succeeded() int {
	var n int
	for _, o := range s.Outcomes {
		if o.Success() {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that exhausted their attempts.
func (s *Stats) Failed() []DownloadOutcome {
	var failed []DownloadOutcome
	for _, o := range s.Outcomes {
		if !o.Success() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Bytes returns the total size of the written assets.
func (s *Stats) Bytes() int {
	var n int
	for _, o := range s.Outcomes {
		n += o.Bytes
	}
	return n
}

// Duplicates returns how many written assets have the same content as an
// earlier one. Hosts that serve a placeholder for missing images show up here.
func (s *Stats) Duplicates() int {
	seen := make(map[string]struct{}, len(s.Outcomes))
	var n int
	for _, o := range s.Outcomes {
		if !o.Success() || o.Hash == "" {
			continue
		}
		if _, ok := seen[o.Hash]; ok {
			n++
			continue
		}
		seen[o.Hash] = struct{}{}
	}
	return n
}
