package crawler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/feedmill/feedmill/app/cache"
)

// Permanent redirects are reused for a week regardless of cache headers.
const permanentRedirectLifetime = 7 * 24 * time.Hour

// cacheEntry is the persisted form of a response.
type cacheEntry struct {
	Code      int               `json:"code"`
	Headers   map[string]string `json:"headers"`
	Body      []byte            `json:"body"`
	Timestamp int64             `json:"timestamp"`
}

func (e *cacheEntry) age() time.Duration {
	return time.Since(time.Unix(e.Timestamp, 0))
}

func (e *cacheEntry) header(name string) string {
	return e.Headers[strings.ToLower(name)]
}

func (e *cacheEntry) response() *response {
	header := make(http.Header, len(e.Headers))
	for k, v := range e.Headers {
		header.Set(k, v)
	}

	return &response{
		status:    e.Code,
		header:    header,
		body:      e.Body,
		fromCache: true,
	}
}

// cacheHandler implements conditional requests and response caching on top
// of the content cache: it decides whether a fetch may be answered from
// cache, attaches validators, synthesizes 200s from 304s and saves
// cacheable responses.
type cacheHandler struct {
	cache    cache.ContentCache
	policy   string
	forceMin time.Duration
	forceMax time.Duration
}

func newCacheHandler(contentCache cache.ContentCache, policy string, forceMin, forceMax time.Duration) *cacheHandler {
	return &cacheHandler{
		cache:    contentCache,
		policy:   policy,
		forceMin: forceMin,
		forceMax: forceMax,
	}
}

func (h *cacheHandler) load(url string) *cacheEntry {
	if h.cache == nil {
		return nil
	}

	raw, ok := h.cache.Get(url)
	if !ok {
		return nil
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil
	}

	return &entry
}

func (h *cacheHandler) save(url string, resp *response) {
	if h.cache == nil {
		return
	}

	headers := make(map[string]string, len(resp.header))
	for name := range resp.header {
		headers[strings.ToLower(name)] = resp.header.Get(name)
	}

	raw, err := json.Marshal(cacheEntry{
		Code:      resp.status,
		Headers:   headers,
		Body:      resp.body,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return
	}

	h.cache.Set(url, raw)
}

// condition attaches If-None-Match/If-Modified-Since validators from a
// previously cached response.
func (h *cacheHandler) condition(url string, req *http.Request) {
	entry := h.load(url)
	if entry == nil {
		return
	}

	if etag := entry.header("Etag"); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if modified := entry.header("Last-Modified"); modified != "" {
		req.Header.Set("If-Modified-Since", modified)
	}
}

// serve decides whether the fetch can be answered from cache without
// touching the network. The bool result reports whether it was.
func (h *cacheHandler) serve(url string) (*response, bool, error) {
	entry := h.load(url)

	switch h.policy {
	case PolicyOffline:
		if entry == nil {
			return nil, false, ErrOffline
		}
		return entry.response(), true, nil

	case PolicyCached:
		if entry == nil {
			return nil, false, nil
		}
		return entry.response(), true, nil

	case PolicyRefresh:
		return nil, false, nil
	}

	if entry == nil {
		return nil, false, nil
	}

	flags, values := parseCacheControl(entry.header("Cache-Control") + "," + entry.header("Pragma"))
	age := entry.age()

	switch {
	case h.forceMax > 0 && age > h.forceMax:
		// older than we tolerate, refresh
		return nil, false, nil

	case h.forceMin > 0 && age < h.forceMin:
		// recent enough, use cache
		return entry.response(), true, nil

	case entry.Code == http.StatusMovedPermanently && age < permanentRedirectLifetime:
		return entry.response(), true, nil

	case h.forceMin == 0 && (flags["no-cache"] || flags["no-store"]):
		return nil, false, nil

	case maxAgeFresh(values, age):
		return entry.response(), true, nil
	}

	return nil, false, nil
}

// finish runs after a network response: a 304 is replaced by the cached
// body, anything cacheable is saved.
func (h *cacheHandler) finish(url string, resp *response) *response {
	if resp.fromCache {
		// do not re-save, it would reset the entry's age
		return resp
	}

	if resp.status == http.StatusNotModified {
		if entry := h.load(url); entry != nil {
			return entry.response()
		}
		return resp
	}

	flags, _ := parseCacheControl(resp.header.Get("Cache-Control") + "," + resp.header.Get("Pragma"))
	if h.forceMin == 0 && (flags["no-cache"] || flags["no-store"]) {
		// kindly follow web servers indications
		return resp
	}

	h.save(url, resp)
	return resp
}

func parseCacheControl(value string) (map[string]bool, map[string]string) {
	flags := make(map[string]bool)
	values := make(map[string]string)

	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}

		if key, val, found := strings.Cut(part, "="); found {
			values[strings.TrimSpace(key)] = strings.TrimSpace(val)
		} else {
			flags[part] = true
		}
	}

	return flags, values
}

func maxAgeFresh(values map[string]string, age time.Duration) bool {
	raw, ok := values["max-age"]
	if !ok {
		return false
	}

	maxAge, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}

	return time.Duration(maxAge)*time.Second > age
}
