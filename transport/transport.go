// transport/transport.go

/* The transport package dispatches queued requests over net/http with bounded
parallelism. It implements the client's transport contract: two-ended queueing for
priority scheduling, a Run that drains the queue while callbacks keep feeding it,
best-effort Abort, and runtime-adjustable concurrency. Transport failures never surface
as errors; they are reported as responses with a status code of 0. */
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/scantheory/go-scanner-http-client/concurrency"
	"github.com/scantheory/go-scanner-http-client/logger"
	"github.com/scantheory/go-scanner-http-client/proxy"
	"github.com/scantheory/go-scanner-http-client/redirecthandler"
	"go.uber.org/zap"
)

// Transport is the contract the client speaks. Each dispatched request yields exactly
// one Response through the request's completion callbacks.
type Transport interface {
	// QueueBack enqueues a request at the tail of the queue.
	QueueBack(r *Request)
	// QueueFront enqueues a request at the head of the queue.
	QueueFront(r *Request)
	// Run drains the queue, dispatching up to the concurrency limit in parallel, and
	// returns once the queue is empty and every in-flight request has completed.
	Run()
	// Do executes a single request synchronously, bypassing the queue but honoring
	// the concurrency limit.
	Do(r *Request) *Response
	// Abort requests best-effort cancellation of outstanding work.
	Abort()
	// SetMaxConcurrency adjusts the parallel dispatch limit.
	SetMaxConcurrency(n int)
	// MaxConcurrency returns the current parallel dispatch limit.
	MaxConcurrency() int
}

// Config carries the knobs for the net/http-backed transport.
type Config struct {
	MaxConcurrency int
	DefaultTimeout time.Duration
	MaxRedirects   int
	ProxyURL       string
	ProxyUsername  string
	ProxyPassword  string
	Logger         logger.Logger
	Metrics        *concurrency.Metrics
}

// NetTransport is the default Transport over net/http. A single underlying
// http.Transport is shared by every dispatch so connections are reused across the scan.
type NetTransport struct {
	mu      sync.Mutex
	queue   []*Request
	runCtx  context.Context
	cancel  context.CancelFunc
	aborted bool

	handler   *concurrency.Handler
	redirects *redirecthandler.RedirectHandler
	wire      *http.Transport
	timeout   time.Duration
	log       logger.Logger
	inflight  sync.WaitGroup
}

var _ Transport = (*NetTransport)(nil)

// New builds a NetTransport from cfg.
func New(cfg Config) (*NetTransport, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	wire := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: cfg.MaxConcurrency,
		IdleConnTimeout:     90 * time.Second,
	}
	if err := proxy.Apply(wire, cfg.ProxyURL, cfg.ProxyUsername, cfg.ProxyPassword, log); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &NetTransport{
		queue:     make([]*Request, 0, 64),
		runCtx:    ctx,
		cancel:    cancel,
		handler:   concurrency.NewHandler(cfg.MaxConcurrency, log, cfg.Metrics),
		redirects: redirecthandler.New(log, cfg.MaxRedirects),
		wire:      wire,
		timeout:   cfg.DefaultTimeout,
		log:       log,
	}, nil
}

// QueueBack enqueues a request at the tail of the queue.
func (t *NetTransport) QueueBack(r *Request) {
	t.mu.Lock()
	t.queue = append(t.queue, r)
	t.mu.Unlock()
}

// QueueFront enqueues a request at the head of the queue, ahead of every request
// queued before it.
func (t *NetTransport) QueueFront(r *Request) {
	t.mu.Lock()
	t.queue = append([]*Request{r}, t.queue...)
	t.mu.Unlock()
}

// Run drains the queue. Completion callbacks may enqueue further requests; Run keeps
// going until the queue is empty and nothing is in flight.
func (t *NetTransport) Run() {
	t.mu.Lock()
	if t.aborted {
		// A previous Abort cancelled the run context; start fresh.
		t.runCtx, t.cancel = context.WithCancel(context.Background())
		t.aborted = false
	}
	t.mu.Unlock()

	for {
		req := t.pop()
		if req == nil {
			// Queue looks empty, but in-flight completions may still enqueue work.
			t.inflight.Wait()
			if req = t.pop(); req == nil {
				return
			}
		}
		t.dispatch(req)
	}
}

// Do executes a single request synchronously, honoring the concurrency limit.
func (t *NetTransport) Do(r *Request) *Response {
	t.handler.Acquire()
	defer t.handler.Release()

	r.freeze()
	resp := t.perform(r)
	r.deliver(resp)
	return resp
}

// Abort cancels the current run context and discards queued, not-yet-dispatched
// requests. In-flight completion callbacks may still execute.
func (t *NetTransport) Abort() {
	t.mu.Lock()
	t.aborted = true
	t.queue = t.queue[:0]
	cancel := t.cancel
	t.mu.Unlock()

	cancel()
}

// SetMaxConcurrency adjusts the parallel dispatch limit.
func (t *NetTransport) SetMaxConcurrency(n int) {
	t.handler.Resize(n)
}

// MaxConcurrency returns the current parallel dispatch limit.
func (t *NetTransport) MaxConcurrency() int {
	return t.handler.Limit()
}

// QueuedCount returns the number of requests waiting in the queue.
func (t *NetTransport) QueuedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

func (t *NetTransport) pop() *Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return nil
	}
	req := t.queue[0]
	t.queue = t.queue[1:]
	return req
}

func (t *NetTransport) dispatch(req *Request) {
	t.handler.Acquire()
	t.inflight.Add(1)
	req.freeze()

	go func() {
		defer t.inflight.Done()
		defer t.handler.Release()

		resp := t.perform(req)
		req.deliver(resp)
	}()
}

// perform executes one exchange and always returns a Response, never an error.
func (t *NetTransport) perform(req *Request) *Response {
	t.mu.Lock()
	runCtx := t.runCtx
	t.mu.Unlock()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.timeout
	}
	ctx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	defer cancelTimeout()

	t.log.LogRequestStart("request_dispatch", req.TraceID.String(), req.Performer,
		req.Method, req.URL.String(), req.Headers)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), bytes.NewReader(req.Body))
	if err != nil {
		return t.failedResponse(req, 0, err, false)
	}
	for key, values := range req.Headers {
		httpReq.Header[key] = values
	}
	if cookieHeader := req.CookieHeader(); cookieHeader != "" {
		httpReq.Header.Set("Cookie", cookieHeader)
	}

	httpClient := &http.Client{
		Transport:     t.wire,
		CheckRedirect: t.redirects.Policy(req.FollowLocation),
	}

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	rtt := time.Since(start)

	if err != nil {
		timedOut := isTimeout(err)
		t.handler.Metrics.RecordResponse(rtt, timedOut, !timedOut)
		return t.failedResponse(req, rtt, err, timedOut)
	}
	defer httpResp.Body.Close()

	body, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil {
		timedOut := isTimeout(readErr)
		t.handler.Metrics.RecordResponse(rtt, timedOut, !timedOut)
		return t.failedResponse(req, rtt, readErr, timedOut)
	}

	t.handler.Metrics.RecordResponse(rtt, false, false)
	t.log.LogRequestEnd("request_complete", req.Method, req.URL.String(), httpResp.StatusCode, rtt)

	return &Response{
		URL:          req.URL,
		EffectiveURL: httpResp.Request.URL,
		Code:         httpResp.StatusCode,
		Headers:      httpResp.Header,
		Body:         body,
		Time:         rtt,
		Request:      req,
	}
}

func (t *NetTransport) failedResponse(req *Request, rtt time.Duration, err error, timedOut bool) *Response {
	t.log.LogError("request_failed", req.Method, req.URL.String(), 0, "", err, "")
	t.log.Debug("Transport failure",
		zap.String("url", req.URL.String()),
		zap.Bool("timed_out", timedOut),
		zap.Error(err))

	message := ""
	if err != nil && !timedOut {
		message = err.Error()
	}
	return &Response{
		URL:          req.URL,
		EffectiveURL: req.URL,
		Code:         0,
		Message:      message,
		Headers:      http.Header{},
		Time:         rtt,
		TimedOut:     timedOut,
		Request:      req,
	}
}

// isTimeout reports whether err stems from a per-request deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
