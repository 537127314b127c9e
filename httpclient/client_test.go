// httpclient/client_test.go
package httpclient

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scantheory/go-scanner-http-client/helpers"
	"github.com/scantheory/go-scanner-http-client/logger"
	"github.com/scantheory/go-scanner-http-client/transport"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newTestClient(t *testing.T, mutate func(*ClientConfig)) *Client {
	t.Helper()
	cfg := &ClientConfig{
		Logger: logger.NewNopLogger(),
		Fs:     afero.NewMemMapFs(),
	}
	if mutate != nil {
		mutate(cfg)
	}
	client, err := cfg.Build()
	require.NoError(t, err)
	return client
}

// TestRequestEmptyURL tests that an empty URL is rejected.
func TestRequestEmptyURL(t *testing.T) {
	c := newTestClient(t, nil)

	_, _, err := c.Request("", RequestOptions{})
	assert.ErrorIs(t, err, ErrEmptyURL)
}

// TestSimpleGetDefaults tests that a bare request carries the configured identity and
// default headers, an empty cookie map and the GET method.
func TestSimpleGetDefaults(t *testing.T) {
	c := newTestClient(t, func(cfg *ClientConfig) {
		cfg.UserAgent = "X/1"
		cfg.DefaultHeaders = map[string]string{"Accept": "*/*"}
	})

	req, _, err := c.Request("http://h/p", RequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "X/1", req.Headers.Get("User-Agent"))
	assert.Equal(t, "*/*", req.Headers.Get("Accept"))
	assert.Empty(t, req.Cookies)
	assert.Equal(t, int64(1), req.ID, "The first request should get id 1")
}

// TestCookieMergeCallerWins tests that caller cookies override jar cookies by name.
func TestCookieMergeCallerWins(t *testing.T) {
	c := newTestClient(t, nil)
	c.jar.SetFromValues(mustURL(t, "http://h/"), map[string]string{"a": "1"})

	req, _, err := c.Get("http://h/p", RequestOptions{Cookies: map[string]string{"a": "2", "b": "3"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"a": "2", "b": "3"}, req.Cookies)
}

// TestNoCookieJar tests that the jar merge can be suppressed per request.
func TestNoCookieJar(t *testing.T) {
	c := newTestClient(t, nil)
	c.jar.SetFromValues(mustURL(t, "http://h/"), map[string]string{"a": "1"})

	req, _, err := c.Get("http://h/p", RequestOptions{NoCookieJar: true, Cookies: map[string]string{"b": "2"}})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"b": "2"}, req.Cookies)
}

// TestHeaderMergeCallerWins tests that caller headers override the defaults.
func TestHeaderMergeCallerWins(t *testing.T) {
	c := newTestClient(t, func(cfg *ClientConfig) {
		cfg.DefaultHeaders = map[string]string{"Accept": "*/*", "X-Scan": "1"}
	})

	req, _, err := c.Get("http://h/p", RequestOptions{Headers: map[string]string{"Accept": "text/html"}})
	require.NoError(t, err)

	assert.Equal(t, "text/html", req.Headers.Get("Accept"))
	assert.Equal(t, "1", req.Headers.Get("X-Scan"))
}

// TestDeterministicCounting tests that N dispatched requests yield N counted responses.
func TestDeterministicCounting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	c := newTestClient(t, func(cfg *ClientConfig) {
		cfg.MaxConcurrentRequests = 5
	})

	const n = 12
	for i := 0; i < n; i++ {
		_, _, err := c.Get(server.URL+fmt.Sprintf("/p/%d", i), RequestOptions{})
		require.NoError(t, err)
	}
	c.Run()

	assert.Equal(t, int64(n), c.RequestCount())
	assert.Equal(t, int64(n), c.ResponseCount())
	assert.Zero(t, c.QueueSize())
}

// TestTimeoutAccounting tests that timed-out requests are counted as both responses and
// timeouts.
func TestTimeoutAccounting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/slow") {
			time.Sleep(400 * time.Millisecond)
		}
	}))
	defer server.Close()

	c := newTestClient(t, func(cfg *ClientConfig) {
		cfg.MaxConcurrentRequests = 10
	})

	for i := 0; i < 7; i++ {
		_, _, err := c.Get(server.URL+fmt.Sprintf("/fast/%d", i), RequestOptions{})
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, _, err := c.Get(server.URL+fmt.Sprintf("/slow/%d", i), RequestOptions{Timeout: 50 * time.Millisecond})
		require.NoError(t, err)
	}
	c.Run()

	assert.Equal(t, int64(10), c.ResponseCount())
	assert.Equal(t, int64(3), c.TimeOutCount())
}

// TestBlockingRequest tests synchronous execution through the request API.
func TestBlockingRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	c := newTestClient(t, nil)

	_, resp, err := c.Get(server.URL, RequestOptions{Blocking: true})
	require.NoError(t, err)
	require.NotNil(t, resp, "Blocking requests should return their response")
	assert.Equal(t, http.StatusTeapot, resp.Code)
	assert.Equal(t, int64(1), c.ResponseCount(), "Blocking responses should be counted")
}

// TestEmergencyRun tests that crossing the queue threshold triggers an immediate drain.
func TestEmergencyRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(t, func(cfg *ClientConfig) {
		cfg.RequestQueueSize = 3
	})

	for i := 0; i < 3; i++ {
		_, _, err := c.Get(server.URL+fmt.Sprintf("/%d", i), RequestOptions{})
		require.NoError(t, err)
	}

	assert.Zero(t, c.QueueSize(), "The emergency run should have drained the queue")
	assert.Equal(t, int64(3), c.ResponseCount())
}

// TestOnCompleteObserverResilience tests that a panicking observer does not starve the
// remaining observers.
func TestOnCompleteObserverResilience(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(t, nil)

	var mu sync.Mutex
	var ran []string
	c.OnComplete(func(resp *transport.Response) {
		mu.Lock()
		ran = append(ran, "first")
		mu.Unlock()
		panic("observer failure")
	})
	c.OnComplete(func(resp *transport.Response) {
		mu.Lock()
		ran = append(ran, "second")
		mu.Unlock()
	})

	_, _, err := c.Get(server.URL, RequestOptions{})
	require.NoError(t, err)
	c.Run()

	assert.Equal(t, []string{"first", "second"}, ran)
}

// TestRequestCallbacksRunBeforeOnComplete tests per-request callback ordering.
func TestRequestCallbacksRunBeforeOnComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(t, nil)

	var mu sync.Mutex
	var order []string
	c.OnComplete(func(resp *transport.Response) {
		mu.Lock()
		order = append(order, "observer")
		mu.Unlock()
	})

	_, _, err := c.Get(server.URL, RequestOptions{}, func(resp *transport.Response) {
		mu.Lock()
		order = append(order, "callback")
		mu.Unlock()
	})
	require.NoError(t, err)
	c.Run()

	assert.Equal(t, []string{"callback", "observer"}, order,
		"Request callbacks should fire before on-complete observers")
}

// TestAfterRunReentrancy tests the snapshot-and-clear semantics of after-run observers:
// an observer registered by another after-run callback fires in a later drain iteration
// of the same burst.
func TestAfterRunReentrancy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(t, nil)

	var fired []string
	c.AfterRun(func() {
		fired = append(fired, "outer")
		_, _, err := c.Get(server.URL+"/spawned", RequestOptions{})
		require.NoError(t, err)
		c.AfterRun(func() {
			fired = append(fired, "inner")
		})
	})

	_, _, err := c.Get(server.URL, RequestOptions{})
	require.NoError(t, err)
	c.Run()

	assert.Equal(t, []string{"outer", "inner"}, fired, "Nested after-run hooks should fire within the same burst")
	assert.Equal(t, int64(2), c.ResponseCount(), "Work enqueued by after-run hooks should drain in the same burst")
	assert.Zero(t, c.observableAfterRunCount(), "After-run hooks should be cleared at burst end")
}

// observableAfterRunCount is a test hook into the pending after-run observer count.
func (c *Client) observableAfterRunCount() int {
	return c.observable.Count(EventAfterRun)
}

// TestAfterEachRunPersists tests that after-each-run observers survive across bursts.
func TestAfterEachRunPersists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(t, nil)

	var count int
	c.AfterEachRun(func() { count++ })

	for i := 0; i < 2; i++ {
		_, _, err := c.Get(server.URL, RequestOptions{})
		require.NoError(t, err)
		c.Run()
	}

	assert.Equal(t, 2, count, "After-each-run observers should fire once per burst")
}

// TestUpdateCookiesFlow tests cookie harvesting: a response's Set-Cookie headers land
// in the jar and fire the on-new-cookies event.
func TestUpdateCookiesFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok123", Path: "/"})
	}))
	defer server.Close()

	c := newTestClient(t, nil)

	var harvested []string
	c.OnNewCookies(func(cookies []*http.Cookie, resp *transport.Response) {
		for _, cookie := range cookies {
			harvested = append(harvested, cookie.Name)
		}
	})

	_, _, err := c.Get(server.URL, RequestOptions{UpdateCookies: true})
	require.NoError(t, err)
	c.Run()

	assert.Equal(t, []string{"session"}, harvested)

	req, _, err := c.Get(server.URL+"/next", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "tok123", req.Cookies["session"], "Harvested cookies should apply to later requests")
}

// TestSandboxIsolation tests that cookies, observers and counters mutated inside a
// sandbox block do not leak out.
func TestSandboxIsolation(t *testing.T) {
	c := newTestClient(t, nil)
	u := mustURL(t, "http://h/")
	c.jar.SetFromValues(u, map[string]string{"outer": "1"})

	err := c.Sandbox(func(sc *Client) error {
		sc.jar.SetFromValues(u, map[string]string{"inner": "2"})
		sc.OnComplete(func(resp *transport.Response) {})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"outer": "1"}, c.jar.ForURL(u),
		"Cookies learned inside the sandbox should not persist")
	assert.Zero(t, c.observable.Count(EventOnComplete),
		"Observers registered inside the sandbox should not persist")
}

// TestStatisticsZeroDenominators tests that rates read as 0 before any traffic.
func TestStatisticsZeroDenominators(t *testing.T) {
	c := newTestClient(t, nil)

	stats := c.Statistics()
	assert.Equal(t, float64(0), stats["total_responses_per_second"])
	assert.Equal(t, float64(0), stats["burst_responses_per_second"])
	assert.Equal(t, time.Duration(0), stats["total_average_response_time"])
}

// TestStatisticsAfterBurst tests the populated statistics snapshot.
func TestStatisticsAfterBurst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(t, nil)
	for i := 0; i < 4; i++ {
		_, _, err := c.Get(server.URL, RequestOptions{})
		require.NoError(t, err)
	}
	c.Run()

	stats := c.Statistics()
	assert.Equal(t, int64(4), stats["request_count"])
	assert.Equal(t, int64(4), stats["response_count"])
	assert.Greater(t, stats["total_responses_per_second"].(float64), float64(0))
	assert.Greater(t, stats["total_runtime"].(time.Duration), time.Duration(0))
}

// TestConfigDefaults tests defaults population and the raw cookie string.
func TestConfigDefaults(t *testing.T) {
	cfg := &ClientConfig{
		Logger:            logger.NewNopLogger(),
		Fs:                afero.NewMemMapFs(),
		DefaultCookiesRaw: "a=1; b=2",
	}
	_, err := cfg.Build()
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxConcurrentRequests, cfg.MaxConcurrentRequests)
	assert.Equal(t, helpers.JSONDuration(DefaultRequestTimeout), cfg.RequestTimeout)
	assert.Equal(t, DefaultRequestQueueSize, cfg.RequestQueueSize)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, cfg.DefaultCookies)
}

// TestConfigValidation tests rejection of broken configurations.
func TestConfigValidation(t *testing.T) {
	cfg := &ClientConfig{
		Logger:                logger.NewNopLogger(),
		MaxConcurrentRequests: -1,
	}
	_, err := cfg.Build()
	assert.Error(t, err)
}

// TestCustom404EndToEnd tests soft-404 detection against a server that answers missing
// resources with a templated 200 page.
func TestCustom404EndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Every unknown path draws the same styled page, echoing the path.
		fmt.Fprintf(w, "<html><body>Sorry, the page %s could not be located on this server</body></html>", r.URL.Path)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := newTestClient(t, nil)

	_, missing, err := c.Get(server.URL+"/dir/missing.html", RequestOptions{Blocking: true})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, missing.Code, "The soft handler should answer 200")

	verdicts := make(chan bool, 1)
	c.Custom404(missing, func(is404 bool) { verdicts <- is404 })
	c.Run()

	select {
	case is404 := <-verdicts:
		assert.True(t, is404, "A body matching the soft-404 template should classify as 404")
	default:
		t.Fatal("No verdict delivered after the probe burst")
	}

	// A genuinely distinct page under the same directory is not a 404.
	distinct := &transport.Response{
		URL:  mustURL(t, server.URL+"/dir/real.html"),
		Code: http.StatusOK,
		Body: []byte("<html><body>Annual financial statements archive with download links</body></html>"),
	}
	second := make(chan bool, 1)
	c.Custom404(distinct, func(is404 bool) { second <- is404 })
	c.Run()

	select {
	case is404 := <-second:
		assert.False(t, is404, "Distinct content should not classify as 404")
	default:
		t.Fatal("No verdict delivered for the analyzed directory")
	}

	assert.True(t, c.CheckedForCustom404(server.URL+"/dir/page.html"))
}
