// httpclient/client.go

/* The httpclient package provides the scanner's process-wide HTTP orchestrator. It owns
the request queue and burst lifecycle, applies default headers and jar cookies to
outbound requests, harvests cookies from responses, exposes scan statistics, and hosts
the custom-404 detector. Audit checks and extractors talk to it exclusively through the
public request API and the named events. */
package httpclient

import (
	"errors"
	"sync"
	"time"

	"github.com/scantheory/go-scanner-http-client/cookiejar"
	"github.com/scantheory/go-scanner-http-client/custom404"
	"github.com/scantheory/go-scanner-http-client/logger"
	"github.com/scantheory/go-scanner-http-client/observable"
	"github.com/scantheory/go-scanner-http-client/platform"
	"github.com/scantheory/go-scanner-http-client/transport"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Event names dispatched by the Client. Subscribing to any other name fails.
const (
	// EventAfterRun observers fire once after the next burst drains and are then
	// cleared; observers registered by an after-run callback fire in a later drain
	// iteration of the same burst.
	EventAfterRun = "after_run"

	// EventAfterEachRun observers fire after every burst and persist across bursts.
	EventAfterEachRun = "after_each_run"

	// EventOnQueue observers receive every request just before it is queued.
	EventOnQueue = "on_queue"

	// EventOnNewCookies observers receive cookies harvested from responses.
	EventOnNewCookies = "on_new_cookies"

	// EventOnComplete observers receive every completed response.
	EventOnComplete = "on_complete"
)

// ErrEmptyURL is returned when a request is attempted with an empty URL.
var ErrEmptyURL = errors.New("empty URL given")

// Client is the orchestrator. It is safe for concurrent use; completion handling is
// serialized by a client-scoped mutex.
type Client struct {
	config        *ClientConfig
	log           logger.Logger
	transport     transport.Transport
	jar           *cookiejar.Jar
	observable    *observable.Observable
	fingerprinter *platform.Fingerprinter
	detector      *custom404.Detector
	fs            afero.Fs

	// completionMu serializes the completion sections of all in-flight requests.
	completionMu sync.Mutex

	// mu guards the mutable state below.
	mu                 sync.Mutex
	requestCount       int64
	responseCount      int64
	timeOutCount       int64
	queueSize          int64
	running            bool
	burstResponseCount int64
	burstResponseTime  time.Duration
	totalResponseTime  time.Duration
	burstRuntimeStart  time.Time
	burstRuntime       time.Duration
	totalRuntime       time.Duration
}

// Build creates a Client from the configuration.
func (c *ClientConfig) Build() (*Client, error) {
	if c.Logger == nil {
		c.Logger = logger.BuildLogger(logger.LogLevelInfo, "json", "")
		c.Logger.Info("No logger provided. Defaulting to JSON logger at Info level")
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	c.setDefaults()

	client := &Client{
		config:        c,
		log:           c.Logger,
		jar:           cookiejar.New(c.Logger),
		fingerprinter: platform.New(c.Logger),
		fs:            c.Fs,
	}

	client.observable = observable.New(c.Logger,
		EventAfterRun, EventAfterEachRun, EventOnQueue, EventOnNewCookies, EventOnComplete)

	if c.Transport != nil {
		client.transport = c.Transport
	} else {
		tr, err := transport.New(transport.Config{
			MaxConcurrency: c.MaxConcurrentRequests,
			DefaultTimeout: c.RequestTimeout.Duration(),
			MaxRedirects:   c.MaxRedirects,
			ProxyURL:       c.ProxyURL,
			ProxyUsername:  c.ProxyUsername,
			ProxyPassword:  c.ProxyPassword,
			Logger:         c.Logger,
		})
		if err != nil {
			return nil, err
		}
		client.transport = tr
	}

	client.detector = custom404.NewDetector(custom404.Config{
		CacheSize:          c.Custom404CacheSize,
		SignatureThreshold: c.Custom404SignatureThreshold,
		Precision:          c.Custom404Precision,
	}, client.probeFor404Fingerprint, c.Logger)

	if len(c.DefaultCookies) > 0 {
		client.log.Debug("Default cookies configured", zap.Int("count", len(c.DefaultCookies)))
	}

	if c.CookieJarPath != "" {
		if err := client.jar.Load(client.fs, c.CookieJarPath); err != nil {
			// A missing or unreadable jar file is not fatal for a fresh scan.
			client.log.Warn("Could not load cookie jar", zap.String("path", c.CookieJarPath), zap.Error(err))
		}
	}

	return client, nil
}

// probeFor404Fingerprint issues one fingerprinting probe through the client itself, at
// high priority and following redirects like a browser would for an error page.
func (c *Client) probeFor404Fingerprint(rawurl string, cb transport.ResponseCallback) {
	_, _, err := c.Get(rawurl, RequestOptions{
		HighPriority:   true,
		FollowLocation: true,
		Performer:      "custom-404",
	}, cb)
	if err != nil {
		c.log.Warn("Failed to queue 404 fingerprinting probe", zap.String("url", rawurl), zap.Error(err))
	}
}

// Transport returns the transport the client dispatches through.
func (c *Client) Transport() transport.Transport {
	return c.transport
}

// CookieJar returns the client's cookie jar.
func (c *Client) CookieJar() *cookiejar.Jar {
	return c.jar
}

// SetMaxConcurrency adjusts the transport's parallel dispatch limit.
func (c *Client) SetMaxConcurrency(n int) {
	c.transport.SetMaxConcurrency(n)
}

// MaxConcurrency returns the transport's parallel dispatch limit.
func (c *Client) MaxConcurrency() int {
	return c.transport.MaxConcurrency()
}

// Abort requests best-effort cancellation of outstanding work. In-flight completion
// callbacks may still execute.
func (c *Client) Abort() {
	c.transport.Abort()

	c.mu.Lock()
	c.queueSize = 0
	c.mu.Unlock()
}

// Reset returns the client to a pristine state: outstanding work is aborted, cookies,
// fingerprints and statistics are dropped. When hooksToo is set, event subscriptions
// are cleared as well.
func (c *Client) Reset(hooksToo bool) {
	c.Abort()
	c.jar.Clear()
	c.detector.Reset()
	c.fingerprinter.Reset()

	c.mu.Lock()
	c.requestCount = 0
	c.responseCount = 0
	c.timeOutCount = 0
	c.queueSize = 0
	c.burstResponseCount = 0
	c.burstResponseTime = 0
	c.totalResponseTime = 0
	c.burstRuntime = 0
	c.totalRuntime = 0
	c.mu.Unlock()

	if hooksToo {
		c.observable.ClearObservers()
	}
}

// SaveCookieJar persists the jar to the configured cookie jar path, if any.
func (c *Client) SaveCookieJar() error {
	if c.config.CookieJarPath == "" {
		return nil
	}
	return c.jar.Save(c.fs, c.config.CookieJarPath)
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// Default returns the process-wide Client, building it with default configuration on
// first use. Call sites that can take an injected *Client should prefer that.
func Default() *Client {
	defaultOnce.Do(func() {
		cfg := &ClientConfig{Logger: logger.NewNopLogger()}
		client, err := cfg.Build()
		if err != nil {
			panic(err)
		}
		defaultClient = client
	})
	return defaultClient
}
