// httpclient/cookies.go
package httpclient

import (
	"net/http"

	"github.com/scantheory/go-scanner-http-client/cookiejar"
	"github.com/scantheory/go-scanner-http-client/headers/redact"
	"github.com/scantheory/go-scanner-http-client/transport"
)

// UpdateCookies merges parsed cookies into the client's jar.
func (c *Client) UpdateCookies(cookies ...*http.Cookie) {
	c.jar.Update(cookies...)
}

// ParseAndSetCookies extracts Set-Cookie headers from resp, merges them into the jar
// scoped to the response's effective URL, and fires the on-new-cookies event. Cookie
// parse failures are logged and swallowed; they never reach callers.
func (c *Client) ParseAndSetCookies(resp *transport.Response) {
	setCookies := resp.Headers.Values("Set-Cookie")
	if len(setCookies) == 0 {
		return
	}

	u := resp.EffectiveURL
	if u == nil {
		u = resp.URL
	}

	parsed := c.jar.SetFromHeaders(u, setCookies)
	if len(parsed) == 0 {
		return
	}

	values := make(map[string]string, len(parsed))
	for _, cookie := range parsed {
		values[cookie.Name] = cookie.Value
	}
	c.log.LogCookies("incoming",
		redact.RedactSensitiveCookieValues(c.config.HideSensitiveData, values),
		resp.Request.Method, u.String())

	c.observable.Notify(EventOnNewCookies, parsed, resp)
}

// Cookies returns every cookie currently held by the jar.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies()
}

// SerializedCookies renders the jar's cookies for diagnostics.
func (c *Client) SerializedCookies() string {
	return cookiejar.SerializeCookies(c.jar.Cookies())
}
