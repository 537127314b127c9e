// proxy.go

package proxy

import (
	"net/http"
	"net/url"

	"github.com/scantheory/go-scanner-http-client/logger"
	"go.uber.org/zap"
)

// Apply configures transport to route requests through the given proxy, with optional
// username/password authentication. Scans are commonly driven through an intercepting
// proxy, so this is applied before any request is dispatched. An empty proxyURL leaves
// the transport untouched.
func Apply(transport *http.Transport, proxyURL, proxyUsername, proxyPassword string, log logger.Logger) error {
	if proxyURL == "" {
		return nil
	}

	parsedProxyURL, err := url.Parse(proxyURL)
	if err != nil {
		log.Error("Failed to parse proxy URL", zap.String("proxy_url", proxyURL), zap.Error(err))
		return err
	}

	if proxyUsername != "" && proxyPassword != "" {
		parsedProxyURL.User = url.UserPassword(proxyUsername, proxyPassword)
	}

	transport.Proxy = http.ProxyURL(parsedProxyURL)

	log.Info("Outbound proxy configured",
		zap.String("proxy_host", parsedProxyURL.Host),
		zap.Bool("authenticated", parsedProxyURL.User != nil))
	return nil
}
