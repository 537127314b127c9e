// status/status_test.go
package status

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTranslateStatusCode tests translation of known, unknown and absent status codes.
func TestTranslateStatusCode(t *testing.T) {
	assert.Equal(t, "Request successful.", TranslateStatusCode(http.StatusOK))
	assert.Contains(t, TranslateStatusCode(0), "network or connection error")
	assert.Contains(t, TranslateStatusCode(599), "Unknown status code: 599")
}

// TestIsRedirectStatusCode tests redirect classification.
func TestIsRedirectStatusCode(t *testing.T) {
	assert.True(t, IsRedirectStatusCode(http.StatusFound))
	assert.True(t, IsRedirectStatusCode(http.StatusPermanentRedirect))
	assert.False(t, IsRedirectStatusCode(http.StatusOK))
	assert.False(t, IsRedirectStatusCode(http.StatusNotModified))
}

// TestIsPermanentRedirect tests permanent redirect classification.
func TestIsPermanentRedirect(t *testing.T) {
	assert.True(t, IsPermanentRedirect(http.StatusMovedPermanently))
	assert.False(t, IsPermanentRedirect(http.StatusFound))
}
