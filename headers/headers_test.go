// headers/headers_test.go
package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMergeDefaults tests that caller-supplied headers win over defaults on a case-insensitive basis.
func TestMergeDefaults(t *testing.T) {
	defaults := map[string]string{
		"User-Agent": "scanner/1",
		"Accept":     "*/*",
	}
	overrides := map[string]string{
		"accept":          "text/html",
		"X-Custom-Header": "yes",
	}

	merged := MergeDefaults(defaults, overrides)

	assert.Equal(t, "scanner/1", merged["User-Agent"], "Default header should survive when not overridden")
	assert.Equal(t, "text/html", merged["accept"], "Override should win over the default regardless of case")
	assert.Equal(t, "yes", merged["X-Custom-Header"], "Caller-only headers should be preserved")
	_, hasCanonicalAccept := merged["Accept"]
	assert.False(t, hasCanonicalAccept, "Overridden default should not be duplicated under its canonical key")
}

// TestMergeDefaultsDoesNotMutateInputs tests that the input maps are left untouched.
func TestMergeDefaultsDoesNotMutateInputs(t *testing.T) {
	defaults := map[string]string{"Accept": "*/*"}
	overrides := map[string]string{"Accept": "text/html"}

	_ = MergeDefaults(defaults, overrides)

	assert.Equal(t, "*/*", defaults["Accept"], "Defaults map should not be mutated")
	assert.Equal(t, "text/html", overrides["Accept"], "Overrides map should not be mutated")
}

// TestSetIfAbsent tests conditional header assignment.
func TestSetIfAbsent(t *testing.T) {
	h := ToHTTPHeader(map[string]string{"User-Agent": "scanner/1"})

	SetIfAbsent(h, "User-Agent", "other/2")
	SetIfAbsent(h, "From", "security@example.com")
	SetIfAbsent(h, "Accept", "")

	assert.Equal(t, "scanner/1", h.Get("User-Agent"), "Existing header should not be replaced")
	assert.Equal(t, "security@example.com", h.Get("From"), "Absent header should be set")
	assert.Empty(t, h.Get("Accept"), "Empty values should not be set")
}
