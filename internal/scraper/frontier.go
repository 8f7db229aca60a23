package scraper

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// disallowedPathParts excludes transactional and auth pages from the crawl.
var disallowedPathParts = []string{
	"login", "log-in", "signin", "sign-in", "signup", "sign-up", "register",
	"admin", "wp-admin", "wp-login", "cart", "checkout", "account", "logout",
}

// skippedExtensions excludes non-HTML resources by file extension.
var skippedExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".svg": {},
	".ico": {}, ".css": {}, ".js": {}, ".pdf": {}, ".doc": {}, ".docx": {},
	".xls": {}, ".xlsx": {}, ".zip": {}, ".rar": {}, ".mp3": {}, ".mp4": {},
	".avi": {}, ".mov": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {},
	".xml": {}, ".rss": {}, ".json": {},
}

// trackingParams are query parameters stripped during normalization because
// they never change the page content.
var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "msclkid": {}, "ref": {}, "mc_cid": {}, "mc_eid": {},
}

// Frontier is the insertion-ordered queue of URLs discovered but not yet
// fetched in one crawl session. A visited-set gate keyed by the canonical
// form of each URL guarantees nothing is enqueued twice. The frontier is
// session-local state and is discarded when the crawl ends.
type Frontier struct {
	host    string
	queue   []string
	visited map[string]struct{}
}

// NewFrontier seeds a frontier with seedURL. The seed must be an absolute
// http(s) URL.
func NewFrontier(seedURL string) (*Frontier, error) {
	key, cleaned, err := normalizeURL(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed url %q: %w", seedURL, err)
	}

	u, _ := url.Parse(cleaned)
	f := &Frontier{
		host:    canonicalHost(u.Host),
		queue:   []string{cleaned},
		visited: map[string]struct{}{key: {}},
	}
	return f, nil
}

// Next pops the next URL in discovery order.
func (f *Frontier) Next() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next, true
}

// Enqueue adds rawURL if it is in-domain, allowed, and not seen before.
// It reports whether the URL was accepted.
func (f *Frontier) Enqueue(rawURL string) bool {
	key, cleaned, err := normalizeURL(rawURL)
	if err != nil {
		return false
	}

	u, _ := url.Parse(cleaned)
	if canonicalHost(u.Host) != f.host {
		return false
	}
	if disallowedPath(u.Path) || skippedExtension(u.Path) {
		return false
	}
	if _, seen := f.visited[key]; seen {
		return false
	}

	f.visited[key] = struct{}{}
	f.queue = append(f.queue, cleaned)
	return true
}

// Len returns the number of URLs waiting to be fetched.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// normalizeURL returns the canonical dedupe key and a cleaned fetchable URL.
// Cleaning strips the fragment and tracking parameters and trims trailing
// slashes; the key additionally folds the "www." prefix so both host
// spellings dedupe to one page.
func normalizeURL(rawURL string) (key, cleaned string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("missing host")
	}

	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	q := u.Query()
	for param := range q {
		if _, drop := trackingParams[param]; drop || strings.HasPrefix(param, "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	cleaned = u.String()

	ku := *u
	ku.Host = canonicalHost(ku.Host)
	ku.Scheme = "https"
	key = ku.String()

	return key, cleaned, nil
}

func canonicalHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// disallowedPath matches on whole path segments so "/cart" is excluded but
// "/a-la-carte" is not.
func disallowedPath(p string) bool {
	for _, seg := range strings.Split(strings.ToLower(p), "/") {
		for _, part := range disallowedPathParts {
			if seg == part || strings.HasPrefix(seg, part+".") {
				return true
			}
		}
	}
	return false
}

func skippedExtension(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	_, skip := skippedExtensions[ext]
	return skip
}
