package dispatcher

import (
	"conntest/internal/models"
	"conntest/internal/testutils"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProber records calls and tracks how many probes run at once.
type MockProber struct {
	Delay time.Duration

	mu       sync.Mutex
	Calls    []string
	inFlight int32
	maxSeen  int32
}

func (m *MockProber) Probe(ctx context.Context, target string) models.ProbeOutcome {
	n := atomic.AddInt32(&m.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, n) {
			break
		}
	}
	defer atomic.AddInt32(&m.inFlight, -1)

	m.mu.Lock()
	m.Calls = append(m.Calls, target)
	m.mu.Unlock()

	time.Sleep(m.Delay)
	return models.ProbeOutcome{Target: target, Status: models.StatusSuccess, Elapsed: m.Delay}
}

func (m *MockProber) MaxInFlight() int {
	return int(atomic.LoadInt32(&m.maxSeen))
}

func makeTargets(n int) []string {
	targets := make([]string, n)
	for i := range targets {
		targets[i] = fmt.Sprintf("10.0.%d.%d", i/256, i%256)
	}
	return targets
}

func TestEffectiveWorkers(t *testing.T) {
	tests := []struct {
		name    string
		limit   uint
		targets int
		want    int
	}{
		{name: "zero limit uses target count", limit: 0, targets: 10, want: 10},
		{name: "zero limit clamped", limit: 0, targets: 5000, want: MaxWorkers},
		{name: "explicit limit", limit: 8, targets: 100, want: 8},
		{name: "explicit limit above ceiling", limit: 1000, targets: 5000, want: MaxWorkers},
		{name: "explicit limit above target count", limit: 8, targets: 2, want: 8},
		{name: "no targets", limit: 0, targets: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveWorkers(tt.limit, tt.targets))
		})
	}
}

func TestNeedsAdvisory(t *testing.T) {
	assert.False(t, NeedsAdvisory(0, AdvisoryThreshold-1))
	assert.True(t, NeedsAdvisory(0, AdvisoryThreshold))
	assert.True(t, NeedsAdvisory(0, 10*AdvisoryThreshold))
	assert.False(t, NeedsAdvisory(16, 10*AdvisoryThreshold))
}

func TestDispatcher_Run_RespectsLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   uint
		targets int
		max     int
	}{
		{name: "small limit", limit: 4, targets: 40, max: 4},
		{name: "limit of one", limit: 1, targets: 10, max: 1},
		{name: "no limit is clamped", limit: 0, targets: 600, max: MaxWorkers},
		{name: "limit above ceiling", limit: 512, targets: 600, max: MaxWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutils.SetupTestLogger()
			prober := &MockProber{Delay: 10 * time.Millisecond}

			var count int
			New(prober, tt.limit, logger).Run(context.Background(), makeTargets(tt.targets), func(models.ProbeOutcome) {
				count++
			})

			assert.Equal(t, tt.targets, count)
			assert.LessOrEqual(t, prober.MaxInFlight(), tt.max)
			assert.GreaterOrEqual(t, prober.MaxInFlight(), 1)
		})
	}
}

func TestDispatcher_Run_OneOutcomePerTarget(t *testing.T) {
	logger, _ := testutils.SetupTestLogger()
	prober := &MockProber{Delay: time.Millisecond}
	targets := makeTargets(300)

	seen := make(map[string]int)
	var returned atomic.Bool
	New(prober, 16, logger).Run(context.Background(), targets, func(o models.ProbeOutcome) {
		assert.False(t, returned.Load(), "outcome handled after Run returned")
		seen[o.Target]++
	})
	returned.Store(true)

	require.Len(t, seen, len(targets))
	for _, target := range targets {
		assert.Equal(t, 1, seen[target], "target %s", target)
	}
	assert.Len(t, prober.Calls, len(targets))
}

func TestDispatcher_Run_DuplicateTargets(t *testing.T) {
	logger, _ := testutils.SetupTestLogger()
	prober := &MockProber{}

	var outcomes []models.ProbeOutcome
	New(prober, 2, logger).Run(context.Background(), []string{"10.0.0.1", "10.0.0.1", "10.0.0.1"}, func(o models.ProbeOutcome) {
		outcomes = append(outcomes, o)
	})

	assert.Len(t, outcomes, 3)
}

func TestDispatcher_Run_NoTargets(t *testing.T) {
	logger, _ := testutils.SetupTestLogger()
	prober := &MockProber{}

	New(prober, 0, logger).Run(context.Background(), nil, func(models.ProbeOutcome) {
		t.Fatal("handle called without targets")
	})
	assert.Empty(t, prober.Calls)
}

func TestDispatcher_Run_Advisory(t *testing.T) {
	logger, logBuf := testutils.SetupTestLogger()
	prober := &MockProber{}

	New(prober, 0, logger).Run(context.Background(), makeTargets(AdvisoryThreshold), func(models.ProbeOutcome) {})
	assert.Contains(t, logBuf.String(), "No concurrency limit set for a large target list.")

	logger, logBuf = testutils.SetupTestLogger()
	New(prober, 32, logger).Run(context.Background(), makeTargets(AdvisoryThreshold), func(models.ProbeOutcome) {})
	assert.NotContains(t, logBuf.String(), "No concurrency limit set")
}

func TestWorker_ChannelClose(t *testing.T) {
	logger, logBuf := testutils.SetupTestLogger()
	var wg sync.WaitGroup

	tasks := make(chan string, 2)
	results := make(chan models.ProbeOutcome, 2)
	prober := &MockProber{}

	tasks <- "127.0.0.1"
	tasks <- "127.0.0.2"
	close(tasks)

	wg.Add(1)
	go Worker(context.Background(), &wg, 1, logger, prober, tasks, results)
	wg.Wait()
	close(results)

	var got []string
	for o := range results {
		got = append(got, o.Target)
	}
	assert.Equal(t, []string{"127.0.0.1", "127.0.0.2"}, got)
	assert.Contains(t, logBuf.String(), "Worker started.")
	assert.Contains(t, logBuf.String(), "Task channel closed. Shutting down.")
}
