// httpclient/request.go
package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/scantheory/go-scanner-http-client/headers"
	"github.com/scantheory/go-scanner-http-client/headers/redact"
	"github.com/scantheory/go-scanner-http-client/transport"
	"go.uber.org/zap"
)

// RequestOptions is the option vocabulary of the public request API.
type RequestOptions struct {
	// Method is the HTTP verb; GET when empty.
	Method string

	// Headers are merged over the client's default headers (caller wins).
	Headers map[string]string

	// Body is the raw request body.
	Body []byte

	// Parameters are merged into the query string for bodyless verbs and form-encoded
	// into the body for POST and PUT when no explicit Body is given.
	Parameters map[string]string

	// Cookies are merged over the jar's cookies for the URL (caller wins).
	Cookies map[string]string

	// NoCookieJar suppresses the jar merge entirely.
	NoCookieJar bool

	// FollowLocation makes the transport follow redirects.
	FollowLocation bool

	// HighPriority queues the request at the head of the queue.
	HighPriority bool

	// Blocking executes the request synchronously.
	Blocking bool

	// UpdateCookies feeds the response's Set-Cookie headers back into the jar.
	UpdateCookies bool

	// Timeout overrides the client's default per-request timeout when positive.
	Timeout time.Duration

	// Performer is an opaque owner tag carried into the response.
	Performer string
}

// Request builds a request for rawurl per opts, fires the on-queue event and forwards
// it to the queue. Callbacks are attached in order and run before on-complete
// observers. For blocking requests the returned Response is the delivered one;
// otherwise the Response is nil and the Request serves as the handle.
func (c *Client) Request(rawurl string, opts RequestOptions, callbacks ...transport.ResponseCallback) (*transport.Request, *transport.Response, error) {
	if rawurl == "" {
		return nil, nil, ErrEmptyURL
	}
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid URL %q: %w", rawurl, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, nil, fmt.Errorf("URL must be absolute: %q", rawurl)
	}

	req := transport.NewRequest(opts.Method, u)
	req.FollowLocation = opts.FollowLocation
	req.HighPriority = opts.HighPriority
	req.Blocking = opts.Blocking
	req.UpdateCookies = opts.UpdateCookies
	req.Timeout = opts.Timeout
	req.Performer = opts.Performer
	req.Body = opts.Body

	c.applyCookies(req, u, opts)
	c.applyHeaders(req, opts.Headers)
	c.applyParameters(req, opts.Parameters)

	for _, cb := range callbacks {
		req.OnComplete(cb)
	}

	c.log.Debug("Request built",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("cookies", redact.RedactSensitiveHeaderData(c.config.HideSensitiveData, "Cookie", req.CookieHeader())))

	return c.forwardRequest(req)
}

// applyCookies composes the request's effective cookie map: configured default cookies
// first, then the jar's cookies for the URL, then the caller's cookies, with later
// sources overriding earlier ones on name collisions. NoCookieJar restricts the map to
// the caller's cookies.
func (c *Client) applyCookies(req *transport.Request, u *url.URL, opts RequestOptions) {
	cookies := map[string]string{}

	if !opts.NoCookieJar {
		for name, value := range c.config.DefaultCookies {
			cookies[name] = value
		}
		for name, value := range c.jar.ForURL(u) {
			cookies[name] = value
		}
	}
	for name, value := range opts.Cookies {
		cookies[name] = value
	}

	req.Cookies = cookies
}

// applyHeaders merges the client's default headers under the caller's, then fills the
// identity headers when still absent.
func (c *Client) applyHeaders(req *transport.Request, callerHeaders map[string]string) {
	merged := headers.MergeDefaults(c.config.DefaultHeaders, callerHeaders)
	req.Headers = headers.ToHTTPHeader(merged)

	headers.SetIfAbsent(req.Headers, "User-Agent", c.config.UserAgent)
	headers.SetIfAbsent(req.Headers, "From", c.config.AuthorizedBy)
}

// applyParameters folds opts.Parameters into the request: into the query string for
// bodyless verbs, into a form body for POST and PUT when no explicit body was given.
func (c *Client) applyParameters(req *transport.Request, parameters map[string]string) {
	if len(parameters) == 0 {
		return
	}

	switch req.Method {
	case http.MethodPost, http.MethodPut:
		if len(req.Body) > 0 {
			return
		}
		form := url.Values{}
		for name, value := range parameters {
			form.Set(name, value)
		}
		req.Body = []byte(form.Encode())
		req.Headers.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		query := req.URL.Query()
		for name, value := range parameters {
			query.Set(name, value)
		}
		req.URL.RawQuery = query.Encode()
	}
}

// Queue forwards an externally built request to the transport, applying the same
// instrumentation as Request.
func (c *Client) Queue(req *transport.Request) {
	_, _, _ = c.forwardRequest(req)
}

// forwardRequest assigns the request id, installs the completion instrumentation and
// hands the request to the transport. Producers outpacing the transport trigger an
// emergency run once the queue crosses the configured threshold.
func (c *Client) forwardRequest(req *transport.Request) (*transport.Request, *transport.Response, error) {
	c.mu.Lock()
	c.requestCount++
	req.ID = c.requestCount
	c.mu.Unlock()

	if req.InstrumentOnce(c.handleCompletion) {
		c.observable.Notify(EventOnQueue, req)
	}

	if req.Blocking {
		resp := c.transport.Do(req)
		return req, resp, nil
	}

	if req.HighPriority {
		c.transport.QueueFront(req)
	} else {
		c.transport.QueueBack(req)
	}

	c.mu.Lock()
	c.queueSize++
	size := c.queueSize
	running := c.running
	c.mu.Unlock()

	if size >= int64(c.config.RequestQueueSize) && !running {
		c.log.Info("Request queue crossed the emergency threshold, draining now",
			zap.Int64("queue_size", size),
			zap.Int("threshold", c.config.RequestQueueSize))
		c.Run()
	}

	return req, nil, nil
}

// handleCompletion is the per-request instrumentation appended after all caller
// callbacks. It runs inside the client's serialized completion section.
func (c *Client) handleCompletion(resp *transport.Response) {
	c.completionMu.Lock()
	defer c.completionMu.Unlock()

	c.mu.Lock()
	c.responseCount++
	c.burstResponseCount++
	c.totalResponseTime += resp.Time
	c.burstResponseTime += resp.Time
	if resp.TimedOut {
		c.timeOutCount++
	}
	if !resp.Request.Blocking && c.queueSize > 0 {
		c.queueSize--
	}
	c.mu.Unlock()

	if !resp.Failed() {
		c.fingerprinter.Fingerprint(resp.Host(), resp.Headers, resp.Body)
	}

	c.observable.Notify(EventOnComplete, resp)

	if resp.Request.UpdateCookies {
		c.ParseAndSetCookies(resp)
	}
}
