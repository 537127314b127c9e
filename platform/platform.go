// platform/platform.go

/* The platform package performs passive platform fingerprinting on responses flowing
through the client. Identification relies on server headers, session cookie naming
conventions and HTML generator tags; no extra requests are ever issued. Results are
cached per host so each host pays the body-parsing cost at most once. */
package platform

import (
	"bytes"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/scantheory/go-scanner-http-client/logger"
	"go.uber.org/zap"
)

// Fingerprinter accumulates per-host platform identifications.
type Fingerprinter struct {
	mu     sync.Mutex
	byHost map[string]map[string]struct{}
	seen   map[string]struct{}
	log    logger.Logger
}

// New creates an empty Fingerprinter.
func New(log logger.Logger) *Fingerprinter {
	return &Fingerprinter{
		byHost: make(map[string]map[string]struct{}),
		seen:   make(map[string]struct{}),
		log:    log,
	}
}

// headerPlatforms maps lowercase fragments of identifying header values to platform names.
var headerPlatforms = map[string]string{
	"nginx":     "nginx",
	"apache":    "apache",
	"iis":       "iis",
	"php":       "php",
	"asp.net":   "aspnet",
	"express":   "nodejs",
	"jetty":     "java",
	"tomcat":    "java",
	"gunicorn":  "python",
	"werkzeug":  "python",
	"passenger": "ruby",
	"puma":      "ruby",
}

// cookiePlatforms maps well-known session cookie names to platform names.
var cookiePlatforms = map[string]string{
	"phpsessid":         "php",
	"jsessionid":        "java",
	"asp.net_sessionid": "aspnet",
	"aspsessionid":      "asp",
	"laravel_session":   "php",
	"ci_session":        "php",
	"rack.session":      "ruby",
	"_session_id":       "ruby",
}

// generatorPlatforms maps fragments of <meta name="generator"> content to platform names.
var generatorPlatforms = map[string]string{
	"wordpress": "wordpress",
	"drupal":    "drupal",
	"joomla":    "joomla",
	"typo3":     "typo3",
}

// Fingerprint inspects one response and records any platforms identified for host.
// Only the first response per host is examined in depth; later calls return quickly.
func (f *Fingerprinter) Fingerprint(host string, header http.Header, body []byte) {
	f.mu.Lock()
	if _, done := f.seen[host]; done {
		f.mu.Unlock()
		return
	}
	f.seen[host] = struct{}{}
	f.mu.Unlock()

	found := make(map[string]struct{})

	for _, key := range []string{"Server", "X-Powered-By", "X-AspNet-Version"} {
		value := strings.ToLower(header.Get(key))
		if value == "" {
			continue
		}
		if key == "X-AspNet-Version" {
			found["aspnet"] = struct{}{}
			continue
		}
		for fragment, platform := range headerPlatforms {
			if strings.Contains(value, fragment) {
				found[platform] = struct{}{}
			}
		}
	}

	for _, setCookie := range header.Values("Set-Cookie") {
		name := strings.ToLower(strings.TrimSpace(strings.SplitN(setCookie, "=", 2)[0]))
		if platform, ok := cookiePlatforms[name]; ok {
			found[platform] = struct{}{}
		}
	}

	if ct := header.Get("Content-Type"); strings.Contains(ct, "text/html") && len(body) > 0 {
		f.fingerprintHTML(body, found)
	}

	if len(found) == 0 {
		return
	}

	f.mu.Lock()
	platforms, ok := f.byHost[host]
	if !ok {
		platforms = make(map[string]struct{})
		f.byHost[host] = platforms
	}
	for platform := range found {
		platforms[platform] = struct{}{}
	}
	f.mu.Unlock()

	f.log.Debug("Platforms fingerprinted",
		zap.String("host", host),
		zap.Strings("platforms", setToSorted(found)))
}

// fingerprintHTML inspects the generator meta tag of an HTML body.
func (f *Fingerprinter) fingerprintHTML(body []byte, found map[string]struct{}) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return
	}

	doc.Find(`meta[name="generator"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		content = strings.ToLower(content)
		for fragment, platform := range generatorPlatforms {
			if strings.Contains(content, fragment) {
				found[platform] = struct{}{}
			}
		}
	})
}

// Platforms returns the sorted platform list identified for host so far.
func (f *Fingerprinter) Platforms(host string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return setToSorted(f.byHost[host])
}

// Reset forgets every identification, so the next response per host is examined again.
func (f *Fingerprinter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHost = make(map[string]map[string]struct{})
	f.seen = make(map[string]struct{})
}

func setToSorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
