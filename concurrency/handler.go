// concurrency/handler.go
package concurrency

import (
	"sync"
	"time"

	"github.com/scantheory/go-scanner-http-client/logger"
)

// Handler controls the number of concurrent HTTP requests dispatched by the transport.
// It uses a semaphore to control concurrency; the semaphore can be resized at runtime.
type Handler struct {
	sem     chan struct{}
	limit   int
	lock    sync.Mutex
	logger  logger.Logger
	Metrics *Metrics
}

// Metrics captures dispatch-level statistics for the transport's interactions with
// target servers.
type Metrics struct {
	TotalDispatched int64         // Total number of requests handed to the wire
	TotalTimeouts   int64         // Total number of requests that timed out
	TotalFailures   int64         // Total number of transport-level failures (no HTTP response)
	PermitWaitTime  time.Duration // Total time spent waiting for a dispatch permit
	ResponseTime    struct {      // Aggregate round-trip times
		Total time.Duration
		Count int64
	}
	Lock sync.Mutex // Lock for all metric fields
}

// NewHandler initializes a new Handler with the given concurrency limit, logger and
// metrics sink. The Handler ensures no more than limit requests are in flight at once.
func NewHandler(limit int, log logger.Logger, metrics *Metrics) *Handler {
	if limit < 1 {
		limit = 1
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Handler{
		sem:     make(chan struct{}, limit),
		limit:   limit,
		logger:  log,
		Metrics: metrics,
	}
}

// Acquire blocks until a dispatch permit is available and records the wait time.
// Every successful Acquire must be paired with a Release.
func (h *Handler) Acquire() {
	start := time.Now()

	h.lock.Lock()
	sem := h.sem
	h.lock.Unlock()

	sem <- struct{}{}

	waited := time.Since(start)
	h.Metrics.Lock.Lock()
	h.Metrics.PermitWaitTime += waited
	h.Metrics.TotalDispatched++
	h.Metrics.Lock.Unlock()
}

// Release returns a previously acquired permit.
func (h *Handler) Release() {
	h.lock.Lock()
	sem := h.sem
	h.lock.Unlock()

	select {
	case <-sem:
	default:
		// Permit already drained by a resize; nothing to release.
	}
}

// Limit returns the current concurrency limit.
func (h *Handler) Limit() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.limit
}

// Resize adjusts the size of the semaphore used to control concurrency. This method
// creates a new semaphore with the specified size and transfers the tokens of in-flight
// requests, up to the new size, so ongoing operations complete unaffected. Tokens beyond
// the new size are dropped.
func (h *Handler) Resize(newSize int) {
	if newSize < 1 {
		newSize = 1
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	newSem := make(chan struct{}, newSize)

	// Transfer tokens from the old semaphore to the new one.
	for {
		select {
		case token := <-h.sem:
			select {
			case newSem <- token:
				// Token transferred to new semaphore.
			default:
				// New semaphore is full: drop the token. Release tolerates a
				// permit that was drained this way.
			}
		default:
			// No more tokens to transfer.
			h.sem = newSem
			h.limit = newSize
			return
		}
	}
}

// RecordResponse folds one completed round trip into the metrics.
func (m *Metrics) RecordResponse(rtt time.Duration, timedOut, failed bool) {
	m.Lock.Lock()
	defer m.Lock.Unlock()

	m.ResponseTime.Total += rtt
	m.ResponseTime.Count++
	if timedOut {
		m.TotalTimeouts++
	}
	if failed {
		m.TotalFailures++
	}
}
