// redirecthandler/redirecthandler.go
package redirecthandler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/scantheory/go-scanner-http-client/logger"
	"go.uber.org/zap"
)

// RedirectHandler contains configuration for handling HTTP redirects during a scan.
type RedirectHandler struct {
	Logger           logger.Logger // Logger instance for logging.
	MaxRedirects     int           // Maximum allowed redirects to prevent infinite loops.
	SensitiveHeaders []string      // Headers to be removed on cross-host redirects.
}

// MaxRedirectsError is returned by the redirect policy when the redirect chain exceeds
// the configured maximum.
type MaxRedirectsError struct {
	MaxRedirects int
}

func (e *MaxRedirectsError) Error() string {
	return fmt.Sprintf("stopped after %d redirects", e.MaxRedirects)
}

// New creates a new instance of RedirectHandler.
func New(log logger.Logger, maxRedirects int) *RedirectHandler {
	if maxRedirects < 1 {
		maxRedirects = 1
	}
	return &RedirectHandler{
		Logger:           log,
		MaxRedirects:     maxRedirects,
		SensitiveHeaders: []string{"Authorization", "Cookie"},
	}
}

// AddSensitiveHeader allows adding configurable sensitive headers.
func (r *RedirectHandler) AddSensitiveHeader(header string) {
	r.SensitiveHeaders = append(r.SensitiveHeaders, header)
}

// Policy returns a CheckRedirect function for an http.Client. When follow is false the
// first redirect response is returned to the caller untouched; otherwise redirects are
// followed up to MaxRedirects, with loop detection and sensitive-header stripping on
// cross-host hops.
func (r *RedirectHandler) Policy(follow bool) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}

		if len(via) >= r.MaxRedirects {
			r.Logger.Warn("Maximum redirects reached",
				zap.Int("max_redirects", r.MaxRedirects),
				zap.String("url", req.URL.String()))
			return &MaxRedirectsError{MaxRedirects: r.MaxRedirects}
		}

		if hasLoop(req.URL, via) {
			r.Logger.Warn("Redirect loop detected", zap.String("url", req.URL.String()))
			return fmt.Errorf("redirect loop detected at %s", req.URL)
		}

		// Strip credentials when the chain leaves the original host.
		if len(via) > 0 && req.URL.Host != via[0].URL.Host {
			r.secureRequest(req)
		}

		r.Logger.Debug("Following redirect",
			zap.String("from", via[len(via)-1].URL.String()),
			zap.String("to", req.URL.String()),
			zap.Int("redirect_count", len(via)))
		return nil
	}
}

// hasLoop reports whether the next hop revisits a URL already seen in the chain.
func hasLoop(next *url.URL, via []*http.Request) bool {
	for _, prev := range via {
		if prev.URL.String() == next.String() {
			return true
		}
	}
	return false
}

// secureRequest removes sensitive headers from the request on a cross-host hop.
func (r *RedirectHandler) secureRequest(req *http.Request) {
	for _, header := range r.SensitiveHeaders {
		req.Header.Del(header)
	}
}
