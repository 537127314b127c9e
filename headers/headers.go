// headers/headers.go
package headers

import (
	"net/http"
	"net/textproto"
)

// MergeDefaults returns a header map containing every entry of overrides plus every
// entry of defaults whose key (compared case-insensitively) is not present in overrides.
// Neither input map is mutated.
func MergeDefaults(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))

	seen := make(map[string]struct{}, len(overrides))
	for k, v := range overrides {
		merged[k] = v
		seen[textproto.CanonicalMIMEHeaderKey(k)] = struct{}{}
	}

	for k, v := range defaults {
		if _, ok := seen[textproto.CanonicalMIMEHeaderKey(k)]; ok {
			continue
		}
		merged[k] = v
	}

	return merged
}

// ToHTTPHeader converts a plain string map into an http.Header, canonicalizing keys.
func ToHTTPHeader(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

// SetIfAbsent sets the header key to value only when no value for key exists yet.
func SetIfAbsent(h http.Header, key, value string) {
	if h.Get(key) == "" && value != "" {
		h.Set(key, value)
	}
}
