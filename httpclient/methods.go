// httpclient/methods.go
package httpclient

import (
	"net/http"

	"github.com/scantheory/go-scanner-http-client/transport"
)

// Get performs a GET request.
func (c *Client) Get(rawurl string, opts RequestOptions, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	opts.Method = http.MethodGet
	return c.Request(rawurl, opts, callbacks...)
}

// Post performs a POST request.
func (c *Client) Post(rawurl string, opts RequestOptions, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	opts.Method = http.MethodPost
	return c.Request(rawurl, opts, callbacks...)
}

// Put performs a PUT request.
func (c *Client) Put(rawurl string, opts RequestOptions, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	opts.Method = http.MethodPut
	return c.Request(rawurl, opts, callbacks...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(rawurl string, opts RequestOptions, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	opts.Method = http.MethodDelete
	return c.Request(rawurl, opts, callbacks...)
}

// Head performs a HEAD request.
func (c *Client) Head(rawurl string, opts RequestOptions, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	opts.Method = http.MethodHead
	return c.Request(rawurl, opts, callbacks...)
}

// Trace performs a TRACE request.
func (c *Client) Trace(rawurl string, opts RequestOptions, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	opts.Method = http.MethodTrace
	return c.Request(rawurl, opts, callbacks...)
}

// Cookie performs a GET request carrying params as cookies.
func (c *Client) Cookie(rawurl string, params map[string]string, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	return c.Get(rawurl, RequestOptions{Cookies: params}, callbacks...)
}

// Header performs a GET request carrying params as headers.
func (c *Client) Header(rawurl string, params map[string]string, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	return c.Get(rawurl, RequestOptions{Headers: params}, callbacks...)
}
