// httpclient/custom404.go
package httpclient

import (
	"net/url"

	"github.com/scantheory/go-scanner-http-client/transport"
	"go.uber.org/zap"
)

// Custom404 classifies resp's body as soft-404 or not and delivers the verdict to cb.
// The first classification for a directory fingerprints it with high-priority probes
// issued through this client; concurrent classifications of the same directory share
// that single probe set.
func (c *Client) Custom404(resp *transport.Response, cb func(is404 bool)) {
	c.detector.Check(resp, cb)
}

// CheckedForCustom404 reports whether the URL's directory has completed soft-404
// fingerprinting.
func (c *Client) CheckedForCustom404(rawurl string) bool {
	u, err := url.Parse(rawurl)
	if err != nil {
		c.log.Debug("Unparseable URL in custom-404 lookup", zap.String("url", rawurl), zap.Error(err))
		return false
	}
	return c.detector.Checked(u)
}

// NeedsCustom404Check reports whether responses under the URL's directory still require
// soft-404 classification. Directories proven to answer missing resources with real
// 404 statuses do not.
func (c *Client) NeedsCustom404Check(rawurl string) bool {
	u, err := url.Parse(rawurl)
	if err != nil {
		c.log.Debug("Unparseable URL in custom-404 lookup", zap.String("url", rawurl), zap.Error(err))
		return true
	}
	return c.detector.NeedsCheck(u)
}
