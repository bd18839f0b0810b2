package hybrid

import (
	"context"
	"log/slog"
	"sync"
)

// Coalescer runs at most one save at a time. Requests that arrive while a
// save is running collapse into a single follow-up save.
type Coalescer struct {
	save   func(ctx context.Context) error
	logger *slog.Logger

	mu       sync.Mutex
	inFlight bool
	pending  bool
}

func NewCoalescer(save func(ctx context.Context) error, logger *slog.Logger) *Coalescer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coalescer{save: save, logger: logger}
}

// Request runs the save in the caller's goroutine when none is running and
// returns the error of the last run. Otherwise it marks a follow-up and
// returns nil immediately.
func (c *Coalescer) Request(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.pending = true
		c.mu.Unlock()
		return nil
	}
	c.inFlight = true
	c.mu.Unlock()

	for {
		err := c.save(ctx)
		if err != nil {
			c.logger.Warn("Save failed", "error", err)
		}

		c.mu.Lock()
		if !c.pending {
			c.inFlight = false
			c.mu.Unlock()
			return err
		}
		c.pending = false
		c.mu.Unlock()
	}
}
