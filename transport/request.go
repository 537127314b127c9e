// transport/request.go
package transport

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResponseCallback receives the single Response delivered for a dispatched Request.
type ResponseCallback func(*Response)

// Request is the value type carried through the queue and onto the wire. Once it has
// been dispatched it is frozen: completion callbacks attached later are ignored. The
// exported fields are not guarded and stay writable.
type Request struct {
	// Method is the HTTP verb (GET, POST, TRACE, HEAD, PUT, DELETE).
	Method string

	// URL is the absolute target URL.
	URL *url.URL

	// Headers holds the outbound header map. Keys are canonicalized, so lookups are
	// case-insensitive.
	Headers http.Header

	// Body is the raw request body, if any.
	Body []byte

	// Cookies is the effective cookie map sent with the request.
	Cookies map[string]string

	// FollowLocation makes the transport follow redirects for this request.
	FollowLocation bool

	// HighPriority places the request at the head of the queue.
	HighPriority bool

	// Blocking makes the client execute the request synchronously.
	Blocking bool

	// UpdateCookies feeds Set-Cookie headers of the response back into the client's
	// cookie jar.
	UpdateCookies bool

	// Timeout overrides the transport's default per-request timeout when positive.
	Timeout time.Duration

	// Performer is an opaque owner tag carried into the Response.
	Performer string

	// ID is assigned by the client at enqueue time and is monotonic within a client.
	ID int64

	// TraceID uniquely identifies the request in the transport's logs.
	TraceID uuid.UUID

	mu           sync.Mutex
	callbacks    []ResponseCallback
	frozen       bool
	instrumented bool
}

// NewRequest creates a Request for the given method and URL with empty headers and
// cookies.
func NewRequest(method string, u *url.URL) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method:  strings.ToUpper(method),
		URL:     u,
		Headers: http.Header{},
		Cookies: map[string]string{},
		TraceID: uuid.New(),
	}
}

// OnComplete appends cb to the request's completion callback list. Callbacks run in
// the order they were attached, exactly once, when the response arrives. Attaching a
// callback after dispatch has no effect.
func (r *Request) OnComplete(cb ResponseCallback) {
	if cb == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return
	}
	r.callbacks = append(r.callbacks, cb)
}

// InstrumentOnce attaches cb like OnComplete but at most once per request, so a request
// routed through the client twice is not double-counted. It reports whether cb was
// attached.
func (r *Request) InstrumentOnce(cb ResponseCallback) bool {
	if cb == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen || r.instrumented {
		return false
	}
	r.instrumented = true
	r.callbacks = append(r.callbacks, cb)
	return true
}

// CookieHeader renders the effective cookie map as a Cookie header value. Names are
// emitted in sorted order so the wire format is deterministic.
func (r *Request) CookieHeader() string {
	if len(r.Cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(r.Cookies))
	for name := range r.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + r.Cookies[name]
	}
	return strings.Join(pairs, "; ")
}

// freeze marks the request's configuration immutable. Called by the transport at
// dispatch time.
func (r *Request) freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// deliver invokes the completion callbacks in attach order.
func (r *Request) deliver(resp *Response) {
	r.mu.Lock()
	callbacks := r.callbacks
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(resp)
	}
}
