// httpclient/run.go
package httpclient

import (
	"time"

	"go.uber.org/zap"
)

// Run performs one burst: it drains the queue, fires deferred after-run callbacks
// (which may enqueue more work), and keeps iterating until both the queue and the
// after-run list are empty. It then fires the persistent after-each-run observers,
// prunes the custom-404 cache and closes the burst's statistics window. A misbehaving
// callback never halts the engine.
func (c *Client) Run() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warn("Run aborted by panic", zap.Any("panic", r))
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
		}
	}()

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.burstResponseCount = 0
	c.burstResponseTime = 0
	c.burstRuntimeStart = time.Now()
	c.mu.Unlock()

	for {
		c.transport.Run()

		// Snapshot-and-clear: after-run observers registered by the callbacks below
		// accumulate into the next iteration's list.
		pending := c.observable.Take(EventAfterRun)
		for _, cb := range pending {
			callback := cb
			c.observable.Guard(EventAfterRun, func() { callback() })
		}

		if c.QueueSize() == 0 && c.observable.Count(EventAfterRun) == 0 {
			break
		}
	}

	c.observable.Notify(EventAfterEachRun)
	c.detector.Prune()

	c.mu.Lock()
	elapsed := time.Since(c.burstRuntimeStart)
	c.burstRuntime = elapsed
	c.totalRuntime += elapsed
	c.running = false
	c.mu.Unlock()

	c.log.Debug("Burst complete", zap.Duration("burst_runtime", elapsed))
}

// QueueSize returns the number of requests queued but not yet completed.
func (c *Client) QueueSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queueSize
}

// Running reports whether a burst is currently draining.
func (c *Client) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
