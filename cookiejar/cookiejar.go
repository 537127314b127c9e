// cookiejar/cookiejar.go

/* The cookiejar package implements a scoped cookie store for the scanner's HTTP client.
Unlike net/http/cookiejar it supports full enumeration, deep cloning and file
persistence, which the client needs for sandboxing and for carrying sessions across
scans. Cookies are indexed by (name, domain, path); later writes to the same index
replace earlier ones, and lookups return at most one cookie per name. */
package cookiejar

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scantheory/go-scanner-http-client/logger"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// entry is a stored cookie plus the scoping metadata http.Cookie does not carry.
type entry struct {
	cookie   *http.Cookie
	hostOnly bool
	expires  time.Time // zero means session cookie
	seq      int64
}

// Jar holds cookies indexed for domain/path matching. All methods are safe for
// concurrent use.
type Jar struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq int64
	log     logger.Logger
}

// New creates an empty Jar.
func New(log logger.Logger) *Jar {
	return &Jar{
		entries: make(map[string]*entry),
		log:     log,
	}
}

// Update installs the given parsed cookies. Each cookie must carry its own Domain; a
// cookie whose Path is empty defaults to "/". Later entries with the same
// (name, domain, path) replace earlier ones.
func (j *Jar) Update(cookies ...*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		j.installLocked(c, c.Domain == "")
	}
}

// UpdateForURL installs cookies in the scope of u: a cookie with no Domain becomes a
// host-only cookie for u's host, and an empty Path defaults to u's directory.
func (j *Jar) UpdateForURL(u *url.URL, cookies ...*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		dup := *c
		hostOnly := dup.Domain == ""
		if hostOnly {
			dup.Domain = u.Hostname()
		}
		if dup.Path == "" {
			dup.Path = defaultPath(u)
		}
		j.installLocked(&dup, hostOnly)
	}
}

// SetFromValues installs plain name/value pairs as host-only cookies scoped to u.
func (j *Jar) SetFromValues(u *url.URL, values map[string]string) {
	cookies := make([]*http.Cookie, 0, len(values))
	for name, value := range values {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	j.UpdateForURL(u, cookies...)
}

// SetFromHeaders parses raw Set-Cookie header values and installs the result in the
// scope of u. Unparseable headers are skipped, never raised; a warning is logged when
// none of the headers parse.
func (j *Jar) SetFromHeaders(u *url.URL, setCookieHeaders []string) []*http.Cookie {
	cookies := ParseSetCookieHeaders(setCookieHeaders)
	if len(cookies) == 0 && len(setCookieHeaders) > 0 {
		j.log.Warn("No cookies could be parsed from Set-Cookie headers",
			zap.Int("header_count", len(setCookieHeaders)),
			zap.String("url", u.String()))
		return nil
	}

	j.UpdateForURL(u, cookies...)
	return cookies
}

// ForURL returns a name to value map containing exactly the cookies whose domain and
// path scope u and which have not expired. When several stored cookies share a name,
// the most recently written one wins.
func (j *Jar) ForURL(u *url.URL) map[string]string {
	matched := j.CookiesForURL(u)

	result := make(map[string]string, len(matched))
	for _, c := range matched {
		// CookiesForURL yields oldest first, so later writes overwrite here.
		result[c.Name] = c.Value
	}
	return result
}

// CookiesForURL returns the applicable cookies for u in write order (oldest first).
func (j *Jar) CookiesForURL(u *url.URL) []*http.Cookie {
	now := time.Now()
	host := u.Hostname()
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	secure := u.Scheme == "https"

	j.mu.RLock()
	defer j.mu.RUnlock()

	matched := make([]*entry, 0, len(j.entries))
	for _, e := range j.entries {
		if e.expired(now) {
			continue
		}
		if e.cookie.Secure && !secure {
			continue
		}
		if !e.domainMatches(host) || !pathMatches(e.cookie.Path, path) {
			continue
		}
		matched = append(matched, e)
	}

	sort.Slice(matched, func(a, b int) bool { return matched[a].seq < matched[b].seq })

	cookies := make([]*http.Cookie, len(matched))
	for i, e := range matched {
		dup := *e.cookie
		cookies[i] = &dup
	}
	return cookies
}

// Cookies returns every stored, unexpired cookie in write order.
func (j *Jar) Cookies() []*http.Cookie {
	now := time.Now()

	j.mu.RLock()
	defer j.mu.RUnlock()

	live := make([]*entry, 0, len(j.entries))
	for _, e := range j.entries {
		if !e.expired(now) {
			live = append(live, e)
		}
	}
	sort.Slice(live, func(a, b int) bool { return live[a].seq < live[b].seq })

	cookies := make([]*http.Cookie, len(live))
	for i, e := range live {
		dup := *e.cookie
		cookies[i] = &dup
	}
	return cookies
}

// Clear removes every cookie.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make(map[string]*entry)
}

// Clone returns a deep copy of the jar.
func (j *Jar) Clone() *Jar {
	j.mu.RLock()
	defer j.mu.RUnlock()

	clone := &Jar{
		entries: make(map[string]*entry, len(j.entries)),
		nextSeq: j.nextSeq,
		log:     j.log,
	}
	for key, e := range j.entries {
		dupCookie := *e.cookie
		clone.entries[key] = &entry{
			cookie:   &dupCookie,
			hostOnly: e.hostOnly,
			expires:  e.expires,
			seq:      e.seq,
		}
	}
	return clone
}

// installLocked normalizes and stores c. Callers must hold j.mu.
func (j *Jar) installLocked(c *http.Cookie, hostOnly bool) {
	if c.Name == "" {
		return
	}

	dup := *c
	dup.Domain = strings.TrimPrefix(strings.ToLower(dup.Domain), ".")
	if dup.Path == "" {
		dup.Path = "/"
	}

	var expires time.Time
	switch {
	case dup.MaxAge < 0:
		// Immediate expiry requested: drop any stored cookie under the same index.
		delete(j.entries, indexKey(&dup))
		return
	case dup.MaxAge > 0:
		expires = time.Now().Add(time.Duration(dup.MaxAge) * time.Second)
	case !dup.Expires.IsZero():
		expires = dup.Expires
	}

	j.nextSeq++
	j.entries[indexKey(&dup)] = &entry{
		cookie:   &dup,
		hostOnly: hostOnly,
		expires:  expires,
		seq:      j.nextSeq,
	}
}

func indexKey(c *http.Cookie) string {
	return c.Name + "\x00" + c.Domain + "\x00" + c.Path
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && e.expires.Before(now)
}

// domainMatches implements RFC 6265 domain matching. Host-only cookies require an exact
// host match; domain cookies also match subdomains unless the cookie domain is a bare
// public suffix.
func (e *entry) domainMatches(host string) bool {
	host = strings.ToLower(host)
	domain := e.cookie.Domain

	if host == domain {
		return true
	}
	if e.hostOnly {
		return false
	}
	if ps, _ := publicsuffix.PublicSuffix(domain); ps == domain {
		return false
	}
	return strings.HasSuffix(host, "."+domain)
}

// pathMatches implements RFC 6265 path matching.
func pathMatches(cookiePath, requestPath string) bool {
	if cookiePath == requestPath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

// defaultPath computes the RFC 6265 default cookie path for a URL.
func defaultPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" || !strings.HasPrefix(path, "/") {
		return "/"
	}
	idx := strings.LastIndex(path, "/")
	if idx == 0 {
		return "/"
	}
	return path[:idx]
}

// ParseSetCookieHeaders converts raw Set-Cookie header values into parsed cookies.
// Malformed headers yield no cookie and are silently skipped, mirroring browser
// behavior.
func ParseSetCookieHeaders(headers []string) []*http.Cookie {
	if len(headers) == 0 {
		return nil
	}
	resp := http.Response{Header: http.Header{"Set-Cookie": headers}}
	return resp.Cookies()
}

// SerializeCookies serializes a slice of *http.Cookie into a single string, mostly for
// diagnostic logging.
func SerializeCookies(cookies []*http.Cookie) string {
	cookieStrings := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		cookieStrings = append(cookieStrings, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(cookieStrings, "; ")
}
