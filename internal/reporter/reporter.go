package reporter

import (
	"conntest/internal/models"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Summary counts outcomes by status.
type Summary struct {
	Total     int
	Succeeded int
	Counts    map[models.ProbeStatus]int
}

// Failed is the number of outcomes that were not successful connects.
func (s Summary) Failed() int {
	return s.Total - s.Succeeded - s.Counts[models.StatusDryRun]
}

// Reporter writes one line per outcome and keeps running counts.
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
	counts map[models.ProbeStatus]int
	total  int
}

// New creates a Reporter writing lines to out.
func New(out io.Writer, logger *slog.Logger) *Reporter {
	return &Reporter{
		out:    out,
		logger: logger.With(slog.String("component", "reporter")),
		counts: make(map[models.ProbeStatus]int),
	}
}

// Report prints the outcome line. Write errors are logged and do not stop the run.
func (r *Reporter) Report(outcome models.ProbeOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total++
	r.counts[outcome.Status]++
	if _, err := fmt.Fprintln(r.out, outcome.Line()); err != nil {
		r.logger.Error("Failed to write result line.", "target", outcome.Target, "error", err)
	}
}

// Summary returns a snapshot of the counts so far.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[models.ProbeStatus]int, len(r.counts))
	for status, n := range r.counts {
		counts[status] = n
	}
	return Summary{
		Total:     r.total,
		Succeeded: counts[models.StatusSuccess],
		Counts:    counts,
	}
}

// LogSummary logs the final counts for a run that took elapsed.
func (r *Reporter) LogSummary(elapsed time.Duration) {
	s := r.Summary()
	r.logger.Info("Run complete.",
		"total", s.Total,
		"succeeded", s.Succeeded,
		"failed", s.Failed(),
		"timeouts", s.Counts[models.StatusTimeout],
		"unresolved", s.Counts[models.StatusUnresolved]+s.Counts[models.StatusNoAddress],
		"duration", elapsed,
	)
}
