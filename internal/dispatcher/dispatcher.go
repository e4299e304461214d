// Package dispatcher runs one probe per target on a bounded pool of workers.
package dispatcher

import (
	"conntest/internal/models"
	"context"
	"log/slog"
	"sync"
)

const (
	// MaxWorkers caps the pool regardless of configuration.
	MaxWorkers = 256
	// AdvisoryThreshold is the target count above which running without a
	// configured limit is worth telling the operator about.
	AdvisoryThreshold = 1024
)

// Prober performs one probe. Implementations must report every failure
// through the returned outcome.
type Prober interface {
	Probe(ctx context.Context, target string) models.ProbeOutcome
}

// EffectiveWorkers returns the pool size for limit and a target count.
// A zero limit means one worker per target. The result never exceeds MaxWorkers.
func EffectiveWorkers(limit uint, targets int) int {
	n := targets
	if limit > 0 {
		if limit > MaxWorkers {
			return MaxWorkers
		}
		n = int(limit)
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// NeedsAdvisory reports whether a run has many targets and no configured limit.
func NeedsAdvisory(limit uint, targets int) bool {
	return limit == 0 && targets >= AdvisoryThreshold
}

// Dispatcher fans targets out over a fixed pool of workers.
type Dispatcher struct {
	prober Prober
	limit  uint
	logger *slog.Logger
}

// New creates a Dispatcher with the configured concurrency limit.
func New(p Prober, limit uint, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		prober: p,
		limit:  limit,
		logger: logger.With(slog.String("component", "dispatcher")),
	}
}

// Run probes every target and calls handle once per outcome, from a single
// goroutine, as outcomes complete. It returns after the last call to handle.
func (d *Dispatcher) Run(ctx context.Context, targets []string, handle func(models.ProbeOutcome)) {
	if len(targets) == 0 {
		return
	}

	workers := EffectiveWorkers(d.limit, len(targets))
	if NeedsAdvisory(d.limit, len(targets)) {
		d.logger.Warn("No concurrency limit set for a large target list.", "targets", len(targets), "workers", workers)
	}
	d.logger.Info("Starting probes.", "targets", len(targets), "workers", workers)

	taskQueue := make(chan string, len(targets))
	for _, target := range targets {
		taskQueue <- target
	}
	close(taskQueue)

	resultsChan := make(chan models.ProbeOutcome, workers)
	var wg, collectorWg sync.WaitGroup

	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for outcome := range resultsChan {
			handle(outcome)
		}
	}()

	for i := 1; i <= workers; i++ {
		wg.Add(1)
		go Worker(ctx, &wg, i, d.logger, d.prober, taskQueue, resultsChan)
	}

	wg.Wait()
	close(resultsChan)
	collectorWg.Wait()
	d.logger.Info("All probes finished.", "targets", len(targets))
}

// Worker pulls targets from tasks until the channel is closed and sends one
// outcome per target to results.
func Worker(ctx context.Context, wg *sync.WaitGroup, id int, parentLogger *slog.Logger, p Prober, tasks <-chan string, results chan<- models.ProbeOutcome) {
	defer wg.Done()
	workerLogger := parentLogger.With(slog.Int("worker_id", id))
	workerLogger.Debug("Worker started.")

	for target := range tasks {
		outcome := p.Probe(ctx, target)
		workerLogger.Debug("Probe finished.", "target", target, "status", outcome.Status, "latency_ms", outcome.Elapsed.Seconds()*1000)
		results <- outcome
	}
	workerLogger.Debug("Task channel closed. Shutting down.")
}
