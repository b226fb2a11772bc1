package speedtest

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeMeasurer struct {
	result Result
	err    error
	calls  int
}

func (f *fakeMeasurer) Run(ctx context.Context) (Result, error) {
	f.calls++
	return f.result, f.err
}

// fakeClock advances by hand.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestCache(m Measurer, duration time.Duration, clock *fakeClock) *Cache {
	return &Cache{
		runner:   m,
		duration: duration,
		now:      clock.now,
	}
}

func TestMetrics_CachingDisabledAlwaysRuns(t *testing.T) {
	m := &fakeMeasurer{result: Result{ServerID: 1, Up: 1}}
	c := newTestCache(m, 0, &fakeClock{t: time.Unix(1000, 0)})

	for i := 0; i < 3; i++ {
		c.Metrics(context.Background())
	}

	if m.calls != 3 {
		t.Errorf("measurer ran %d times, want 3", m.calls)
	}
}

func TestMetrics_FreshEntryServedWithoutRun(t *testing.T) {
	m := &fakeMeasurer{result: Result{ServerID: 42, PingMs: 10.5, Up: 1}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newTestCache(m, 300*time.Second, clock)

	first := c.Metrics(context.Background())

	clock.advance(299 * time.Second)
	second := c.Metrics(context.Background())

	if m.calls != 1 {
		t.Fatalf("measurer ran %d times, want 1", m.calls)
	}
	if second != first {
		t.Errorf("cached result = %+v, want identical %+v", second, first)
	}
}

func TestMetrics_ExpiredEntryTriggersRun(t *testing.T) {
	m := &fakeMeasurer{result: Result{ServerID: 42, Up: 1}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newTestCache(m, 300*time.Second, clock)

	c.Metrics(context.Background())

	clock.advance(300 * time.Second)
	c.Metrics(context.Background())

	if m.calls != 2 {
		t.Errorf("measurer ran %d times, want 2", m.calls)
	}
}

func TestMetrics_FailureReturnsZeroResult(t *testing.T) {
	m := &fakeMeasurer{err: errors.New("boom")}
	c := newTestCache(m, 0, &fakeClock{t: time.Unix(1000, 0)})

	got := c.Metrics(context.Background())
	if got != (Result{}) {
		t.Errorf("Metrics() = %+v, want zero result", got)
	}
	if got.Up != 0 {
		t.Errorf("Up = %d, want 0", got.Up)
	}
}

func TestMetrics_FailureLeavesPriorEntryUntouched(t *testing.T) {
	m := &fakeMeasurer{result: Result{ServerID: 42, DownloadBps: 1e8, Up: 1}}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newTestCache(m, 300*time.Second, clock)

	good := c.Metrics(context.Background())

	// entry expires, next run fails
	clock.advance(301 * time.Second)
	m.err = errors.New("boom")
	failed := c.Metrics(context.Background())

	if failed != (Result{}) {
		t.Errorf("failed call = %+v, want zero result", failed)
	}

	// the failure must not have reset the freshness window: the slot still
	// holds the old result and the old capture time, so the next call
	// re-evaluates staleness and runs again
	m.err = nil
	c.Metrics(context.Background())
	if m.calls != 3 {
		t.Errorf("measurer ran %d times, want 3 (stale entry re-run)", m.calls)
	}
	if c.result != good {
		t.Errorf("cache slot = %+v after failure, want untouched until success", c.result)
	}
}

func TestMetrics_FailureDoesNotPrimeEmptyCache(t *testing.T) {
	m := &fakeMeasurer{err: errors.New("boom")}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c := newTestCache(m, 300*time.Second, clock)

	c.Metrics(context.Background())
	clock.advance(time.Second)
	c.Metrics(context.Background())

	if m.calls != 2 {
		t.Errorf("measurer ran %d times, want 2 (failures are never cached)", m.calls)
	}
}
