// transport/response.go
package transport

import (
	"net/http"
	"net/url"
	"time"

	"github.com/scantheory/go-scanner-http-client/status"
)

// Response is the result of one dispatched Request. Exactly one Response is delivered
// per dispatched Request. A transport failure or timeout yields a Response whose Code
// is 0 rather than an error.
type Response struct {
	// URL is the originally requested URL.
	URL *url.URL

	// EffectiveURL is the final URL after any followed redirects.
	EffectiveURL *url.URL

	// Code is the HTTP status code; 0 signals a transport failure or timeout.
	Code int

	// Message carries the transport-level failure description when Code is 0.
	Message string

	// Headers holds the parsed response headers.
	Headers http.Header

	// Body is the full response body.
	Body []byte

	// Time is the round-trip time of the exchange.
	Time time.Duration

	// TimedOut marks responses synthesized for requests that exceeded their timeout.
	TimedOut bool

	// Request is a non-owning back-reference to the originating request; the request
	// owns its metadata, the response merely borrows it.
	Request *Request
}

// StatusMessage returns a human-readable description of the response's status.
func (r *Response) StatusMessage() string {
	if r.Code == 0 && r.Message != "" {
		return r.Message
	}
	return status.TranslateStatusCode(r.Code)
}

// Failed reports whether the exchange produced no HTTP response at all.
func (r *Response) Failed() bool {
	return r.Code == 0
}

// Host returns the hostname the response was served from.
func (r *Response) Host() string {
	if r.EffectiveURL != nil {
		return r.EffectiveURL.Hostname()
	}
	if r.URL != nil {
		return r.URL.Hostname()
	}
	return ""
}
