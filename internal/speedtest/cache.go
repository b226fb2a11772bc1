package speedtest

import (
	"context"
	"sync"
	"time"

	"github.com/DrC0ns0le/speedtest-exporter/internal/config"
	"github.com/DrC0ns0le/speedtest-exporter/pkg/logging"
)

// Measurer runs a full measurement. Satisfied by *Runner.
type Measurer interface {
	Run(ctx context.Context) (Result, error)
}

// Cache is the single process-wide result slot. The mutex covers the whole
// lookup-or-measure path, so concurrent scrapes serialize and at most one
// measurement is in flight.
type Cache struct {
	mu       sync.Mutex
	runner   Measurer
	duration time.Duration
	now      func() time.Time

	result     Result
	capturedAt time.Time
	primed     bool
}

func NewCache(runner Measurer, cfg *config.Config) *Cache {
	return &Cache{
		runner:   runner,
		duration: time.Duration(cfg.CacheDuration) * time.Second,
		now:      time.Now,
	}
}

// Metrics returns the cached result while it is fresh, otherwise runs a new
// measurement. It never returns an error: a failed run yields the zero
// result (Up=0) for this call only and leaves any prior entry untouched, so
// the old capture time keeps governing freshness.
func (c *Cache) Metrics(ctx context.Context) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.duration > 0 && c.primed && now.Sub(c.capturedAt) < c.duration {
		logging.Debug("serving cached metrics")
		return c.result
	}

	// a launched measurement is only ever terminated by its own timeout,
	// not by the scrape client going away
	result, err := c.runner.Run(context.WithoutCancel(ctx))
	if err != nil {
		logging.Errorf("speedtest failed: %v", err)
		return Result{}
	}

	c.result = result
	c.capturedAt = now
	c.primed = true
	return result
}
