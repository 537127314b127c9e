// httpclient/events.go
package httpclient

import (
	"net/http"

	"github.com/scantheory/go-scanner-http-client/observable"
	"github.com/scantheory/go-scanner-http-client/transport"
)

// On subscribes a raw callback to a named event. The client is returned for chaining.
func (c *Client) On(event string, cb observable.Callback) (*Client, error) {
	if err := c.observable.On(event, cb); err != nil {
		return c, err
	}
	return c, nil
}

// AfterRun defers f until the next burst has drained. After-run observers fire once and
// are cleared; an observer registered by another after-run callback fires in a later
// iteration of the same burst.
func (c *Client) AfterRun(f func()) *Client {
	_ = c.observable.On(EventAfterRun, func(args ...interface{}) { f() })
	return c
}

// AfterEachRun runs f after every burst. Unlike after-run observers these persist
// across bursts.
func (c *Client) AfterEachRun(f func()) *Client {
	_ = c.observable.On(EventAfterEachRun, func(args ...interface{}) { f() })
	return c
}

// OnQueue runs f for every request just before it is queued.
func (c *Client) OnQueue(f func(*transport.Request)) *Client {
	_ = c.observable.On(EventOnQueue, func(args ...interface{}) {
		if req, ok := args[0].(*transport.Request); ok {
			f(req)
		}
	})
	return c
}

// OnComplete runs f for every completed response, after the response's own callbacks.
func (c *Client) OnComplete(f func(*transport.Response)) *Client {
	_ = c.observable.On(EventOnComplete, func(args ...interface{}) {
		if resp, ok := args[0].(*transport.Response); ok {
			f(resp)
		}
	})
	return c
}

// OnNewCookies runs f whenever cookies are harvested from a response.
func (c *Client) OnNewCookies(f func([]*http.Cookie, *transport.Response)) *Client {
	_ = c.observable.On(EventOnNewCookies, func(args ...interface{}) {
		cookies, _ := args[0].([]*http.Cookie)
		resp, _ := args[1].(*transport.Response)
		f(cookies, resp)
	})
	return c
}

// ClearObservers removes every event subscription.
func (c *Client) ClearObservers() {
	c.observable.ClearObservers()
}
