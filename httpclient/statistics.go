// httpclient/statistics.go
package httpclient

import (
	"time"
)

// TotalRuntime returns the accumulated runtime across all bursts, including the live
// one.
func (c *Client) TotalRuntime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalRuntimeLocked()
}

// BurstRuntime returns the runtime of the current burst while one is active, or of the
// last completed burst otherwise.
func (c *Client) BurstRuntime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.burstRuntimeLocked()
}

// TotalAverageResponseTime returns the mean round-trip time across the whole scan, or 0
// when no responses have arrived.
func (c *Client) TotalAverageResponseTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.responseCount == 0 {
		return 0
	}
	return c.totalResponseTime / time.Duration(c.responseCount)
}

// BurstAverageResponseTime returns the mean round-trip time within the current burst,
// or 0 when the burst has seen no responses.
func (c *Client) BurstAverageResponseTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.burstResponseCount == 0 {
		return 0
	}
	return c.burstResponseTime / time.Duration(c.burstResponseCount)
}

// TotalResponsesPerSecond returns the scan-wide response throughput, or 0 when no
// runtime has accumulated.
func (c *Client) TotalResponsesPerSecond() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return rate(c.responseCount, c.totalRuntimeLocked())
}

// BurstResponsesPerSecond returns the current burst's response throughput, or 0 when
// the burst has no runtime yet.
func (c *Client) BurstResponsesPerSecond() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return rate(c.burstResponseCount, c.burstRuntimeLocked())
}

// RequestCount returns the number of requests forwarded so far.
func (c *Client) RequestCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount
}

// ResponseCount returns the number of responses completed so far.
func (c *Client) ResponseCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responseCount
}

// TimeOutCount returns the number of timed-out requests so far.
func (c *Client) TimeOutCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeOutCount
}

// Statistics returns an atomic snapshot of every named counter and derived rate.
func (c *Client) Statistics() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalRuntime := c.totalRuntimeLocked()
	burstRuntime := c.burstRuntimeLocked()

	var totalAverage, burstAverage time.Duration
	if c.responseCount > 0 {
		totalAverage = c.totalResponseTime / time.Duration(c.responseCount)
	}
	if c.burstResponseCount > 0 {
		burstAverage = c.burstResponseTime / time.Duration(c.burstResponseCount)
	}

	return map[string]interface{}{
		"request_count":               c.requestCount,
		"response_count":              c.responseCount,
		"time_out_count":              c.timeOutCount,
		"queue_size":                  c.queueSize,
		"total_runtime":               totalRuntime,
		"burst_runtime":               burstRuntime,
		"total_average_response_time": totalAverage,
		"burst_average_response_time": burstAverage,
		"total_responses_per_second":  rate(c.responseCount, totalRuntime),
		"burst_responses_per_second":  rate(c.burstResponseCount, burstRuntime),
	}
}

// totalRuntimeLocked folds the live burst into the accumulated runtime.
func (c *Client) totalRuntimeLocked() time.Duration {
	if c.running {
		return c.totalRuntime + time.Since(c.burstRuntimeStart)
	}
	return c.totalRuntime
}

// burstRuntimeLocked returns the live burst runtime while running.
func (c *Client) burstRuntimeLocked() time.Duration {
	if c.running {
		return time.Since(c.burstRuntimeStart)
	}
	return c.burstRuntime
}

// rate computes count per second, defined as 0 when no time has elapsed.
func rate(count int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / elapsed.Seconds()
}
