// version_test.go
package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestUserAgent tests that the default user agent is derived from the library name and version.
func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	assert.True(t, strings.HasPrefix(ua, GetAppName()+"/"), "User agent should start with the app name")
	assert.True(t, strings.HasSuffix(ua, GetVersion()), "User agent should end with the version")
}
