// headers/redact/redact.go
package redact

// RedactSensitiveHeaderData redacts sensitive data based on the hideSensitiveData flag.
func RedactSensitiveHeaderData(hideSensitiveData bool, key, value string) string {
	if hideSensitiveData {
		// Header keys whose values must never reach the logs.
		sensitiveKeys := map[string]bool{
			"Authorization":       true,
			"Proxy-Authorization": true,
			"Cookie":              true,
			"Set-Cookie":          true,
		}

		if _, found := sensitiveKeys[key]; found {
			return "REDACTED"
		}
	}
	return value
}

// RedactSensitiveCookieValues replaces the values of the given cookie map when
// hideSensitiveData is set, preserving the names so logs stay useful.
func RedactSensitiveCookieValues(hideSensitiveData bool, cookies map[string]string) map[string]string {
	if !hideSensitiveData {
		return cookies
	}
	redacted := make(map[string]string, len(cookies))
	for name := range cookies {
		redacted[name] = "REDACTED"
	}
	return redacted
}
