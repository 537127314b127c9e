// httpclient/config.go
// Configuration values can be loaded from a JSON file or populated programmatically;
// missing values fall back to the defaults below.
package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/scantheory/go-scanner-http-client/custom404"
	"github.com/scantheory/go-scanner-http-client/helpers"
	"github.com/scantheory/go-scanner-http-client/logger"
	"github.com/scantheory/go-scanner-http-client/transport"
	"github.com/scantheory/go-scanner-http-client/version"
	"github.com/spf13/afero"
)

const (
	// DefaultMaxConcurrentRequests limits parallel dispatch when not configured.
	DefaultMaxConcurrentRequests = 20

	// DefaultRequestTimeout is the per-request timeout when not configured.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultRequestQueueSize is the queued-request threshold past which an emergency
	// run is triggered to bound memory.
	DefaultRequestQueueSize = 500

	// DefaultMaxRedirects caps redirect chains for requests that follow redirects.
	DefaultMaxRedirects = 5
)

// ClientConfig carries every knob of the Client.
type ClientConfig struct {
	// UserAgent is sent as the User-Agent header unless a request overrides it.
	UserAgent string `json:"user_agent"`

	// DefaultHeaders are merged under every request's headers.
	DefaultHeaders map[string]string `json:"default_headers"`

	// AuthorizedBy is a contact e-mail advertised through the From header, so site
	// operators can attribute the scan traffic.
	AuthorizedBy string `json:"authorized_by"`

	// CookieJarPath persists the cookie jar between scans when non-empty.
	CookieJarPath string `json:"cookie_jar_path"`

	// DefaultCookies are merged under every applicable request's cookies.
	DefaultCookies map[string]string `json:"default_cookies"`

	// DefaultCookiesRaw accepts the same cookies in "name=value; name2=value2" form.
	DefaultCookiesRaw string `json:"default_cookies_raw"`

	// MaxConcurrentRequests limits how many requests are on the wire at once.
	MaxConcurrentRequests int `json:"max_concurrent_requests"`

	// RequestTimeout is the default per-request timeout.
	RequestTimeout helpers.JSONDuration `json:"request_timeout"`

	// RequestQueueSize is the emergency-run threshold.
	RequestQueueSize int `json:"request_queue_size"`

	// MaxRedirects caps redirect chains.
	MaxRedirects int `json:"max_redirects"`

	// Proxy settings for routing the scan through an intercepting proxy.
	ProxyURL      string `json:"proxy_url"`
	ProxyUsername string `json:"proxy_username"`
	ProxyPassword string `json:"proxy_password"`

	// HideSensitiveData redacts cookie and authorization values in logs.
	HideSensitiveData bool `json:"hide_sensitive_data"`

	// Custom-404 detector tunables; zero values select the detector defaults.
	Custom404CacheSize          int     `json:"custom_404_cache_size"`
	Custom404SignatureThreshold float64 `json:"custom_404_signature_threshold"`
	Custom404Precision          int     `json:"custom_404_precision"`

	// Logger receives all diagnostics.
	Logger logger.Logger `json:"-"`

	// Transport overrides the default net/http transport, mostly for tests.
	Transport transport.Transport `json:"-"`

	// Fs is the filesystem used for cookie-jar persistence.
	Fs afero.Fs `json:"-"`
}

// LoadConfigFromFile reads a ClientConfig from a JSON file.
func LoadConfigFromFile(fs afero.Fs, path string) (*ClientConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := &ClientConfig{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// validate rejects configurations the client cannot run with.
func (c *ClientConfig) validate() error {
	if c.MaxConcurrentRequests < 0 {
		return errors.New("max concurrent requests cannot be negative")
	}
	if c.RequestTimeout.Duration() < 0 {
		return errors.New("request timeout cannot be negative")
	}
	if c.RequestQueueSize < 0 {
		return errors.New("request queue size cannot be negative")
	}
	if c.ProxyURL != "" {
		if _, err := url.Parse(c.ProxyURL); err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}
	}
	if c.Custom404SignatureThreshold < 0 || c.Custom404SignatureThreshold > 1 {
		return errors.New("custom 404 signature threshold must be within [0, 1]")
	}
	return nil
}

// setDefaults fills in every unset value.
func (c *ClientConfig) setDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	if c.MaxConcurrentRequests == 0 {
		c.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = helpers.JSONDuration(DefaultRequestTimeout)
	}
	if c.RequestQueueSize == 0 {
		c.RequestQueueSize = DefaultRequestQueueSize
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.Custom404CacheSize == 0 {
		c.Custom404CacheSize = custom404.DefaultCacheSize
	}
	if c.Custom404SignatureThreshold == 0 {
		c.Custom404SignatureThreshold = custom404.DefaultSignatureThreshold
	}
	if c.Custom404Precision == 0 {
		c.Custom404Precision = custom404.DefaultPrecision
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}

	if c.DefaultCookiesRaw != "" {
		if c.DefaultCookies == nil {
			c.DefaultCookies = map[string]string{}
		}
		for name, value := range parseCookiePairs(c.DefaultCookiesRaw) {
			if _, ok := c.DefaultCookies[name]; !ok {
				c.DefaultCookies[name] = value
			}
		}
	}
}

// parseCookiePairs parses a "name=value; name2=value2" cookie string. Malformed pairs
// are skipped.
func parseCookiePairs(raw string) map[string]string {
	pairs := map[string]string{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found || name == "" {
			continue
		}
		pairs[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return pairs
}
