// Package report collects per-environment results and renders the end-of-run
// summary.
package report

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Result is the outcome of one environment run.
type Result struct {
	Env      string
	ExitCode int
	Duration time.Duration
}

// Summary is a concurrency-safe result collector. Recording never fails;
// rendering happens once at the end of a run.
type Summary struct {
	mu      sync.Mutex
	results []Result
}

func NewSummary() *Summary { return &Summary{} }

// Record appends a result.
func (s *Summary) Record(r Result) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
}

// Results returns a copy of the recorded results in record order.
func (s *Summary) Results() []Result {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Write renders one line per recorded environment plus a closing verdict.
// Writes nothing when no environments were recorded.
func (s *Summary) Write(w io.Writer) error {
	results := s.Results()
	if len(results) == 0 {
		return nil
	}
	ok := true
	if _, err := fmt.Fprintln(w, "summary:"); err != nil {
		return err
	}
	for _, r := range results {
		var line string
		if r.ExitCode == 0 {
			line = fmt.Sprintf("  %s: ok (%.2fs)", r.Env, r.Duration.Seconds())
		} else {
			ok = false
			line = fmt.Sprintf("  %s: failed, exit %d (%.2fs)", r.Env, r.ExitCode, r.Duration.Seconds())
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	verdict := "congratulations :)"
	if !ok {
		verdict = "there were failures :("
	}
	_, err := fmt.Fprintln(w, verdict)
	return err
}
