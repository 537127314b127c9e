// custom404/detector.go

/* The custom404 package fingerprints per-directory soft-404 behavior. Many applications
answer missing resources with a styled page and a 200 status; to audit such targets the
client must be able to ask "is this body actually a not-found page". The detector probes
each directory once with URLs expected to elicit a 404, distills the responses into
refined signatures, and classifies later bodies against them. Concurrent classification
requests for a directory whose fingerprinting is under way are parked and answered when
the probe set completes. */
package custom404

import (
	"net/url"
	"strings"
	"sync"

	"github.com/scantheory/go-scanner-http-client/logger"
	"github.com/scantheory/go-scanner-http-client/signature"
	"github.com/scantheory/go-scanner-http-client/transport"
	"go.uber.org/zap"
)

const (
	// DefaultCacheSize bounds the number of directory records kept between runs.
	DefaultCacheSize = 50

	// DefaultSignatureThreshold is the similarity distance threshold for 404 signatures.
	DefaultSignatureThreshold = 0.1

	// DefaultPrecision is the number of probes issued per generator.
	DefaultPrecision = 2
)

// ProbeFunc issues one high-priority, redirect-following GET for rawurl and hands the
// response to cb. The client supplies it; the detector never talks to the wire itself.
type ProbeFunc func(rawurl string, cb transport.ResponseCallback)

// Config carries the detector's tunables. Zero values select the defaults.
type Config struct {
	CacheSize          int
	SignatureThreshold float64
	Precision          int
}

// waiter is a deferred classification parked on an in-progress directory record.
type waiter struct {
	url  *url.URL
	body []byte
	cb   func(bool)
}

// sigPair accumulates one generator's samples: body holds the first sample's signature,
// rdiff the refinement of body across the later samples.
type sigPair struct {
	body  *signature.Signature
	rdiff *signature.Signature
}

// record is the fingerprinting state of one directory.
type record struct {
	analyzed   bool
	inProgress bool
	waiting    []waiter
	signatures []sigPair
	expected   int
	probesDone int
	probes404  int
	lastUsed   int64
}

// Detector keys fingerprint state by directory and answers soft-404 classification for
// arbitrary responses.
type Detector struct {
	mu         sync.Mutex
	records    map[string]*record
	regular404 map[string]struct{}
	clock      int64

	probe     ProbeFunc
	cacheSize int
	threshold float64
	precision int
	log       logger.Logger
}

// NewDetector creates a Detector that issues its probes through probe.
func NewDetector(cfg Config, probe ProbeFunc, log logger.Logger) *Detector {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.SignatureThreshold <= 0 {
		cfg.SignatureThreshold = DefaultSignatureThreshold
	}
	if cfg.Precision <= 0 {
		cfg.Precision = DefaultPrecision
	}
	return &Detector{
		records:    make(map[string]*record),
		regular404: make(map[string]struct{}),
		probe:      probe,
		cacheSize:  cfg.CacheSize,
		threshold:  cfg.SignatureThreshold,
		precision:  cfg.Precision,
		log:        log,
	}
}

// Check classifies resp's body as soft-404 or not and delivers the verdict to cb.
// The first call for a directory triggers fingerprinting; concurrent calls for the same
// directory are deduplicated onto the single probe set and answered together.
func (d *Detector) Check(resp *transport.Response, cb func(bool)) {
	u := resp.URL
	key := KeyFor(u)

	d.mu.Lock()
	rec, ok := d.records[key]
	if !ok {
		rec = &record{}
		d.records[key] = rec
	}
	d.clock++
	rec.lastUsed = d.clock

	if rec.analyzed {
		is404 := d.is404Locked(u, resp.Body)
		d.mu.Unlock()
		cb(is404)
		return
	}

	if rec.inProgress {
		rec.waiting = append(rec.waiting, waiter{url: u, body: resp.Body, cb: cb})
		d.mu.Unlock()
		return
	}

	rec.inProgress = true
	gens := generators(u, d.precision)
	rec.signatures = make([]sigPair, len(gens))
	expected := len(gens) * d.precision
	rec.expected = expected
	d.mu.Unlock()

	d.log.Debug("Fingerprinting directory for custom 404 behavior",
		zap.String("directory", key),
		zap.Int("probe_count", expected))

	for i, gen := range gens {
		for p := 0; p < d.precision; p++ {
			genIdx := i
			d.probe(gen(), func(probeResp *transport.Response) {
				d.probeDone(key, genIdx, u, resp.Body, cb, probeResp)
			})
		}
	}
}

// probeDone folds one probe response into the directory record and, when the record is
// complete, answers the original caller plus every parked waiter.
func (d *Detector) probeDone(key string, genIdx int, origURL *url.URL, origBody []byte, cb func(bool), probeResp *transport.Response) {
	d.mu.Lock()
	rec := d.records[key]
	if rec == nil || rec.analyzed {
		d.mu.Unlock()
		return
	}

	if probeResp.Code == 404 {
		rec.probes404++
	}

	pair := &rec.signatures[genIdx]
	if pair.body == nil {
		pair.body = signature.New(probeResp.Body, signature.WithThreshold(d.threshold))
	} else {
		pair.rdiff = pair.body.Refine(probeResp.Body)
	}

	rec.probesDone++
	if rec.probesDone < rec.expected {
		d.mu.Unlock()
		return
	}

	rec.analyzed = true
	rec.inProgress = false
	if rec.probes404 == rec.expected {
		// Every probe drew a real 404: the directory has no custom handler.
		d.regular404[key] = struct{}{}
	}

	origResult := d.is404Locked(origURL, origBody)
	waiting := rec.waiting
	rec.waiting = nil
	results := make([]bool, len(waiting))
	for i, w := range waiting {
		results[i] = d.is404Locked(w.url, w.body)
	}
	d.mu.Unlock()

	d.log.Debug("Directory fingerprinting complete",
		zap.String("directory", key),
		zap.Int("waiters", len(waiting)))

	cb(origResult)
	for i, w := range waiting {
		w.cb(results[i])
	}
}

// is404Locked classifies body against the URL's own directory signatures first and then
// against every other analyzed directory. Callers must hold d.mu.
func (d *Detector) is404Locked(u *url.URL, body []byte) bool {
	key := KeyFor(u)

	if rec, ok := d.records[key]; ok && rec.analyzed && matchesLocked(rec, body, d.threshold) {
		return true
	}
	for otherKey, rec := range d.records {
		if otherKey == key || !rec.analyzed {
			continue
		}
		if matchesLocked(rec, body, d.threshold) {
			return true
		}
	}
	return false
}

func matchesLocked(rec *record, body []byte, threshold float64) bool {
	for i := range rec.signatures {
		pair := &rec.signatures[i]
		if pair.body == nil || pair.rdiff == nil || pair.rdiff.Empty() {
			// An empty refinement carries no stable fragment to match against.
			continue
		}
		if pair.rdiff.Similar(pair.body.Refine(body)) {
			return true
		}
	}
	return false
}

// Checked reports whether the URL's directory has completed fingerprinting.
func (d *Detector) Checked(u *url.URL) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.records[KeyFor(u)]
	return ok && rec.analyzed
}

// NeedsCheck reports whether classification for the URL's directory still requires
// fingerprint data: directories already proven to answer missing resources with real
// 404 statuses do not.
func (d *Detector) NeedsCheck(u *url.URL) bool {
	key := KeyFor(u)

	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.records[key]
	if !ok || !rec.analyzed {
		return true
	}
	_, regular := d.regular404[key]
	return !regular
}

// Prune drops analyzed directory records, least recently used first, until the record
// count is within the cache bound. In-progress records are never dropped.
func (d *Detector) Prune() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.records) > d.cacheSize {
		var oldestKey string
		var oldest int64
		for key, rec := range d.records {
			if !rec.analyzed {
				continue
			}
			if oldestKey == "" || rec.lastUsed < oldest {
				oldestKey = key
				oldest = rec.lastUsed
			}
		}
		if oldestKey == "" {
			// Every surplus record is still in progress.
			return
		}
		delete(d.records, oldestKey)
	}
}

// Len returns the number of directory records currently cached.
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

// Reset drops all fingerprinting state.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = make(map[string]*record)
	d.regular404 = make(map[string]struct{})
}

// KeyFor yields the canonical directory key for u: the containing directory when the
// last path segment has an extension, otherwise the parent of the path, always with a
// trailing slash.
func KeyFor(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}

	var dir string
	seg := p[strings.LastIndex(p, "/")+1:]
	if strings.Contains(seg, ".") {
		dir = p[:strings.LastIndex(p, "/")+1]
	} else {
		trimmed := strings.TrimSuffix(p, "/")
		idx := strings.LastIndex(trimmed, "/")
		if idx < 0 {
			dir = "/"
		} else {
			dir = trimmed[:idx+1]
		}
	}

	return u.Scheme + "://" + u.Host + dir
}
