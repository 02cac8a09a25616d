package crawler

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Browser user agents rotated when none is configured.
var defaultUAs = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/74.0.3729.131 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/74.0.3729.169 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:66.0) Gecko/20100101 Firefox/66.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/12.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 6.2; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/68.0.3440.106 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:67.0) Gecko/20100101 Firefox/67.0",
}

// Hosts that refuse to redirect when a Referer is present.
var noRefererHosts = []string{
	"feedsportal.com",
	"feedburner.com",
	"feedproxy.google.com",
}

func pickUserAgent(configured string) string {
	if configured != "" {
		return configured
	}
	return defaultUAs[rand.Intn(len(defaultUAs))]
}

// setBrowserlyHeaders makes requests look like an ordinary browser:
// User-Agent, Accept-Language and a same-origin Referer (suppressed for
// feed-relay hosts whose redirects break when one is present).
func setBrowserlyHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	host := strings.ToLower(req.URL.Hostname())
	for _, suppressed := range noRefererHosts {
		if host == suppressed || strings.HasSuffix(host, "."+suppressed) {
			return
		}
	}
	req.Header.Set("Referer", req.URL.Scheme+"://"+req.URL.Host+"/")
}

// buildAccept renders an Accept header from prioritized mime groups. The
// first group gets full preference and each following group loses 0.1 of
// q; a */* catch-all is appended at the lowest priority unless strict.
func buildAccept(groups []string, strict bool) string {
	if len(groups) == 0 {
		return ""
	}

	var parts []string
	q := 1.0

	for _, group := range groups {
		types := MimeGroups[group]
		if types == nil {
			types = []string{group}
		}

		for _, t := range types {
			if q >= 1.0 {
				parts = append(parts, t)
			} else {
				parts = append(parts, fmt.Sprintf("%s;q=%.1f", t, q))
			}
		}
		q -= 0.1
	}

	if !strict {
		parts = append(parts, fmt.Sprintf("*/*;q=%.1f", q))
	}

	return strings.Join(parts, ",")
}

// unGzip decompresses a gzip body, keeping whatever was decoded when the
// stream turns out to be truncated.
func unGzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	out, err := io.ReadAll(zr)
	if err != nil && err != io.ErrUnexpectedEOF && len(out) == 0 {
		return nil, err
	}

	return out, nil
}

var (
	tagAttrRe = regexp.MustCompile(`(?P<key>[^=\s]+)=['"](?P<value>[^'"]+)['"]`)
	refreshRe = regexp.MustCompile(`(?i)^([0-9]+)\s*;\s*url=(["']?)(.+)$`)
)

const headScanBytes = 10000

// iterHTMLTags yields the attribute maps of every <tag ...> occurrence in
// the first part of a page, without parsing the whole document.
func iterHTMLTags(body []byte, tag string) []map[string]string {
	if len(body) > headScanBytes {
		body = body[:headScanBytes]
	}

	tagRe := regexp.MustCompile(`(?i)<` + tag + `(\s[^>]*)?>`)

	var out []map[string]string
	for _, m := range tagRe.FindAll(body, -1) {
		attrs := make(map[string]string)
		for _, am := range tagAttrRe.FindAllSubmatch(m, -1) {
			attrs[strings.ToLower(string(am[1]))] = string(am[2])
		}
		out = append(out, attrs)
	}

	return out
}

// promoteHTTPEquiv copies <meta http-equiv> directives of an HTML page
// into the response headers, where the refresh handler picks them up.
func promoteHTTPEquiv(resp *response) {
	if resp.status < 200 || resp.status >= 300 {
		return
	}
	if !inGroup(resp.contentType(), "html") {
		return
	}

	for _, meta := range iterHTMLTags(resp.body, "meta") {
		equiv, okE := meta["http-equiv"]
		content, okC := meta["content"]
		if okE && okC {
			resp.header.Set(equiv, content)
		}
	}
}

// applyRefresh turns a Refresh header ("N;url=...") into a temporary
// redirect so the main loop re-enters the chain for the new URL.
func applyRefresh(resp *response) {
	if resp.status < 200 || resp.status >= 300 {
		return
	}

	refresh := resp.header.Get("Refresh")
	if refresh == "" {
		return
	}

	m := refreshRe.FindStringSubmatch(refresh)
	if m == nil {
		return
	}

	target := strings.TrimSuffix(m[3], m[2])
	if target == "" {
		return
	}

	resp.status = http.StatusFound
	resp.header.Set("Location", target)
}

// applyAlternate follows <link rel="alternate"> to a feed document when an
// HTML page was returned instead of the requested feed type.
func applyAlternate(resp *response, follow string) {
	if follow == "" || resp.status < 200 || resp.status >= 300 {
		return
	}

	contentType := resp.contentType()
	if !inGroup(contentType, "html") || inGroup(contentType, follow) {
		return
	}

	for _, link := range iterHTMLTags(resp.body, "link") {
		if link["rel"] == "alternate" && link["href"] != "" && inGroup(link["type"], follow) {
			resp.status = http.StatusFound
			resp.header.Set("Location", link["href"])
			return
		}
	}
}

func redirectTarget(resp *response, base *url.URL) string {
	switch resp.status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return ""
	}

	loc := resp.header.Get("Location")
	if loc == "" {
		return ""
	}

	if ref, err := url.Parse(loc); err == nil {
		return base.ResolveReference(ref).String()
	}

	return loc
}
