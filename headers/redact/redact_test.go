// headers/redact/redact_test.go
package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRedactSensitiveHeaderData tests that sensitive header values are redacted only when enabled.
func TestRedactSensitiveHeaderData(t *testing.T) {
	assert.Equal(t, "REDACTED", RedactSensitiveHeaderData(true, "Cookie", "session=secret"), "Cookie header should be redacted")
	assert.Equal(t, "REDACTED", RedactSensitiveHeaderData(true, "Authorization", "Basic abc"), "Authorization header should be redacted")
	assert.Equal(t, "text/html", RedactSensitiveHeaderData(true, "Accept", "text/html"), "Non-sensitive headers should pass through")
	assert.Equal(t, "session=secret", RedactSensitiveHeaderData(false, "Cookie", "session=secret"), "Redaction should be disabled when the flag is false")
}

// TestRedactSensitiveCookieValues tests that cookie values are blanked while names survive.
func TestRedactSensitiveCookieValues(t *testing.T) {
	cookies := map[string]string{"session": "secret", "lang": "en"}

	redacted := RedactSensitiveCookieValues(true, cookies)

	assert.Equal(t, map[string]string{"session": "REDACTED", "lang": "REDACTED"}, redacted, "All values should be redacted")
	assert.Equal(t, "secret", cookies["session"], "Input map should not be mutated")

	passthrough := RedactSensitiveCookieValues(false, cookies)
	assert.Equal(t, cookies, passthrough, "Disabled redaction should return the original values")
}
