// httpclient/sandbox.go
package httpclient

// Sandbox snapshots the client's observers, cookie jar, default headers and counters,
// executes fn against the client, and restores every snapshotted field afterwards.
// Observers registered and cookies learned inside fn do not persist. The block's error
// is returned as-is.
//
// Sandbox is not safe to enter while other producers are enqueuing requests.
func (c *Client) Sandbox(fn func(*Client) error) error {
	observers := c.observable.Snapshot()
	jar := c.jar.Clone()

	c.mu.Lock()
	headersCopy := copyStringMap(c.config.DefaultHeaders)
	cookiesCopy := copyStringMap(c.config.DefaultCookies)
	requestCount := c.requestCount
	responseCount := c.responseCount
	timeOutCount := c.timeOutCount
	queueSize := c.queueSize
	burstCount := c.burstResponseCount
	c.mu.Unlock()

	defer func() {
		c.observable.Restore(observers)
		c.jar = jar

		c.mu.Lock()
		c.config.DefaultHeaders = headersCopy
		c.config.DefaultCookies = cookiesCopy
		c.requestCount = requestCount
		c.responseCount = responseCount
		c.timeOutCount = timeOutCount
		c.queueSize = queueSize
		c.burstResponseCount = burstCount
		c.mu.Unlock()
	}()

	return fn(c)
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	dup := make(map[string]string, len(m))
	for k, v := range m {
		dup[k] = v
	}
	return dup
}
