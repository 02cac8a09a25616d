// Package crawler performs single logical HTTP fetches through a fixed
// chain of request/response transforms: browserly headers, content
// negotiation, gzip, redirect following (including meta refresh and
// alternate feed links), conditional caching and encoding normalization.
package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/feedmill/feedmill/app/cache"
)

// Policy controls how the conditional cache participates in a fetch.
const (
	PolicyDefault = ""        // follow HTTP caching semantics
	PolicyRefresh = "refresh" // skip the cache, always hit the network
	PolicyCached  = "cached"  // serve from cache, fetch when absent
	PolicyOffline = "offline" // serve from cache, fail when absent
)

// Options tune one fetch. The zero value requests anything, follows HTTP
// caching semantics and uses the crawler's default timeout.
type Options struct {
	Accept   []string // mime groups or raw types, in priority order
	Strict   bool     // no */* catch-all in the Accept header
	Follow   string   // follow <link rel=alternate> to this mime group
	Policy   string
	ForceMin time.Duration // treat cache entries younger than this as fresh
	ForceMax time.Duration // treat cache entries older than this as stale
	Timeout  time.Duration
}

// FetchResult is the normalized outcome of one logical fetch.
type FetchResult struct {
	URL          string // final URL, post-redirect
	Status       int
	ContentType  string
	Encoding     string
	Body         []byte
	ETag         string
	LastModified string
	FromCache    bool
}

// IsText reports whether the response is HTML or plain text, i.e. worth
// feeding to the article extractor.
func (r *FetchResult) IsText() bool {
	return inGroup(r.ContentType, "html") || r.ContentType == "text/plain"
}

// response is the internal shape passed along the handler chain.
type response struct {
	status    int
	header    http.Header
	body      []byte
	fromCache bool
}

func (r *response) contentType() string {
	ct, _, _ := strings.Cut(r.header.Get("Content-Type"), ";")
	return strings.TrimSpace(ct)
}

type Crawler struct {
	client       *http.Client
	cache        cache.ContentCache
	userAgent    string
	maxDownload  int64
	maxRedirects int
	timeout      time.Duration
}

func New(contentCache cache.ContentCache, userAgent string, maxDownload int64, maxRedirects int, timeout time.Duration) *Crawler {
	return &Crawler{
		client: &http.Client{
			// redirects are followed by the handler chain, not the stdlib
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cache:        contentCache,
		userAgent:    userAgent,
		maxDownload:  maxDownload,
		maxRedirects: maxRedirects,
		timeout:      timeout,
	}
}

// Get performs one logical fetch: it sanitizes the URL, walks the redirect
// chain (each hop re-entering the full handler chain) and returns the
// decoded final response.
func (c *Crawler) Get(ctx context.Context, rawURL string, opts Options) (*FetchResult, error) {
	urlStr := SanitizeURL(rawURL)
	cacheHandler := newCacheHandler(c.cache, opts.Policy, opts.ForceMin, opts.ForceMax)

	var resp *response

	for hop := 0; ; hop++ {
		if hop > c.maxRedirects {
			return nil, ErrTooManyRedirects
		}

		current, err := c.fetchOnce(ctx, urlStr, opts, cacheHandler)
		if err != nil {
			return nil, err
		}

		base, err := url.Parse(urlStr)
		if err != nil {
			return nil, &NetworkError{URL: urlStr, Err: err}
		}

		if target := redirectTarget(current, base); target != "" {
			slog.Debug("Following redirect", "from", urlStr, "to", target, "status", current.status)
			urlStr = target
			continue
		}

		resp = current
		break
	}

	encoding := DetectEncoding(resp.body, resp.header.Get("Content-Type"))

	return &FetchResult{
		URL:          urlStr,
		Status:       resp.status,
		ContentType:  resp.contentType(),
		Encoding:     encoding,
		Body:         resp.body,
		ETag:         resp.header.Get("Etag"),
		LastModified: resp.header.Get("Last-Modified"),
		FromCache:    resp.fromCache,
	}, nil
}

// fetchOnce performs a single request attempt and runs the response
// handlers. Redirect statuses are returned as-is for the caller to follow.
func (c *Crawler) fetchOnce(ctx context.Context, urlStr string, opts Options, ch *cacheHandler) (*response, error) {
	resp, handled, err := ch.serve(urlStr)
	if err != nil {
		return nil, err
	}

	if !handled {
		resp, err = c.network(ctx, urlStr, opts, ch)
		if err != nil {
			return nil, err
		}
	}

	// response transforms; order matters: gzip first so every later
	// handler sees the real body
	if resp.status >= 200 && resp.status < 300 && !resp.fromCache {
		if resp.header.Get("Content-Encoding") == "gzip" {
			if body, err := unGzip(resp.body); err == nil {
				resp.body = body
				resp.header.Set("Content-Encoding", "identity")
			}
		}
	}

	resp = ch.finish(urlStr, resp)

	promoteHTTPEquiv(resp)
	applyRefresh(resp)
	applyAlternate(resp, opts.Follow)

	return resp, nil
}

func (c *Crawler) network(ctx context.Context, urlStr string, opts Options, ch *cacheHandler) (*response, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	// per attempt, not per redirect chain
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &NetworkError{URL: urlStr, Err: err}
	}

	setBrowserlyHeaders(req, pickUserAgent(c.userAgent))
	req.Header.Set("Accept-Encoding", "gzip")

	if accept := buildAccept(opts.Accept, opts.Strict); accept != "" {
		req.Header.Set("Accept", accept)
	}

	ch.condition(urlStr, req)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: urlStr, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxDownload+1))
	if err != nil {
		return nil, &NetworkError{URL: urlStr, Err: err}
	}
	if int64(len(body)) > c.maxDownload {
		return nil, ErrResponseTooLarge
	}

	return &response{
		status: httpResp.StatusCode,
		header: httpResp.Header,
		body:   body,
	}, nil
}
