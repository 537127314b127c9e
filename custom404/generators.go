// custom404/generators.go
package custom404

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// generator produces one probe URL expected to elicit a 404 when called. Tokens are
// fresh per call, so repeated calls of the same generator never collide.
type generator func() string

// generators returns the probe URL builders for u. Each targets a different flavor of
// missing resource so handlers that special-case extensions, directories or parent
// paths are all sampled:
//
//  1. a random file with a random extension in u's directory
//  2. a random extensionless path in u's directory
//  3. a random file in the parent directory
//  4. a random file with a random extension in the parent directory
//  5. a random sub-directory of u's directory
func generators(u *url.URL, precision int) []generator {
	upToPath := directoryOf(u)
	parent := parentOf(upToPath)

	return []generator{
		func() string { return upToPath + token() + "." + token()[:precision] },
		func() string { return upToPath + token() },
		func() string { return parent + token() },
		func() string { return parent + token() + "." + token()[:precision] },
		func() string { return upToPath + token() + "/" },
	}
}

// directoryOf returns u truncated to its containing directory, with a trailing slash.
func directoryOf(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return u.Scheme + "://" + u.Host + p[:strings.LastIndex(p, "/")+1]
}

// parentOf goes one directory level up from a URL ending in a slash.
func parentOf(dirURL string) string {
	trimmed := strings.TrimSuffix(dirURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx <= strings.Index(trimmed, "://")+2 {
		// Already at the host root.
		return trimmed + "/"
	}
	return trimmed[:idx+1]
}

// token returns a fresh opaque token for probe URL construction.
func token() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
