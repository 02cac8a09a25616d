package crawler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/feedmill/feedmill/app/cache"
)

func newTestCrawler(t *testing.T) (*Crawler, *cache.MemoryCache) {
	t.Helper()
	contentCache := cache.NewMemoryCache(100, 0)
	t.Cleanup(func() { contentCache.Close() })
	return New(contentCache, "feedmill-test/1.0", 512000, 10, 4*time.Second), contentCache
}

func TestCrawler_Get_PlainResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	c, _ := newTestCrawler(t)
	res, err := c.Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Status != 200 {
		t.Errorf("Expected status 200, got %d", res.Status)
	}
	if res.ContentType != "text/html" {
		t.Errorf("Expected content type text/html, got %q", res.ContentType)
	}
	if res.Encoding != "utf-8" {
		t.Errorf("Expected utf-8 encoding, got %q", res.Encoding)
	}
	if !bytes.Contains(res.Body, []byte("hello")) {
		t.Errorf("Expected body to contain page text")
	}
}

func TestCrawler_Get_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/middle", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusPermanentRedirect)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("arrived"))
	})

	c, _ := newTestCrawler(t)
	res, err := c.Get(context.Background(), server.URL+"/start", Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.URL != server.URL+"/end" {
		t.Errorf("Expected final URL %s/end, got %q", server.URL, res.URL)
	}
	if string(res.Body) != "arrived" {
		t.Errorf("Expected final body, got %q", res.Body)
	}
}

func TestCrawler_Get_TooManyRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer server.Close()

	contentCache := cache.NewMemoryCache(100, 0)
	defer contentCache.Close()
	c := New(contentCache, "feedmill-test/1.0", 512000, 3, 4*time.Second)

	_, err := c.Get(context.Background(), server.URL+"/loop", Options{})
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("Expected ErrTooManyRedirects, got %v", err)
	}
}

func TestCrawler_Get_MetaRefresh(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><meta http-equiv="refresh" content="0;url=/target"></head><body></body></html>`))
	})
	mux.HandleFunc("/target", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("the real page"))
	})

	c, _ := newTestCrawler(t)
	res, err := c.Get(context.Background(), server.URL+"/page", Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(res.Body) != "the real page" {
		t.Errorf("Expected meta refresh to be followed, got body %q", res.Body)
	}
}

func TestCrawler_Get_Gzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte("compressed content"))
		zw.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/plain")
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	c, _ := newTestCrawler(t)
	res, err := c.Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(res.Body) != "compressed content" {
		t.Errorf("Expected decompressed body, got %q", res.Body)
	}
}

func TestCrawler_Get_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 2048))
	}))
	defer server.Close()

	contentCache := cache.NewMemoryCache(100, 0)
	defer contentCache.Close()
	c := New(contentCache, "feedmill-test/1.0", 1024, 10, 4*time.Second)

	_, err := c.Get(context.Background(), server.URL, Options{})
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Errorf("Expected ErrResponseTooLarge, got %v", err)
	}
}

func TestCrawler_Get_ConditionalCache(t *testing.T) {
	var hits atomic.Int64
	body := "cached article body"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Etag", `"v1"`)

		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	defer server.Close()

	c, _ := newTestCrawler(t)

	first, err := c.Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Expected no error on first fetch, got %v", err)
	}

	// second fetch revalidates and must synthesize the cached body
	second, err := c.Get(context.Background(), server.URL, Options{})
	if err != nil {
		t.Fatalf("Expected no error on second fetch, got %v", err)
	}

	if hits.Load() != 2 {
		t.Errorf("Expected 2 server hits, got %d", hits.Load())
	}
	if second.Status != 200 {
		t.Errorf("Expected synthesized 200, got %d", second.Status)
	}
	if !bytes.Equal(first.Body, second.Body) {
		t.Errorf("Expected byte-identical body from cache, got %q vs %q", first.Body, second.Body)
	}
}

func TestCrawler_Get_OfflinePolicy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("network body"))
	}))
	defer server.Close()

	c, _ := newTestCrawler(t)

	_, err := c.Get(context.Background(), server.URL, Options{Policy: PolicyOffline})
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("Expected ErrOffline for a cold cache, got %v", err)
	}

	if _, err := c.Get(context.Background(), server.URL, Options{}); err != nil {
		t.Fatalf("Expected warm-up fetch to succeed, got %v", err)
	}

	res, err := c.Get(context.Background(), server.URL, Options{Policy: PolicyOffline})
	if err != nil {
		t.Fatalf("Expected offline hit after warm-up, got %v", err)
	}
	if !res.FromCache {
		t.Errorf("Expected response to come from cache")
	}
	if string(res.Body) != "network body" {
		t.Errorf("Expected cached body, got %q", res.Body)
	}
}

func TestCrawler_Get_AlternateFeedLink(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><link rel="alternate" type="application/rss+xml" href="/feed.xml"></head><body>homepage</body></html>`))
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(`<rss version="2.0"><channel><title>t</title></channel></rss>`))
	})

	c, _ := newTestCrawler(t)
	res, err := c.Get(context.Background(), server.URL+"/", Options{Follow: "rss"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.URL != server.URL+"/feed.xml" {
		t.Errorf("Expected alternate link to be followed, final URL %q", res.URL)
	}
	if res.ContentType != "application/rss+xml" {
		t.Errorf("Expected feed content type, got %q", res.ContentType)
	}
}

func TestBuildAccept(t *testing.T) {
	tests := []struct {
		name     string
		groups   []string
		strict   bool
		expected string
	}{
		{"empty", nil, false, ""},
		{"single raw type", []string{"text/plain"}, true, "text/plain"},
		{"catch-all appended", []string{"text/plain"}, false, "text/plain,*/*;q=0.9"},
		{"group priorities", []string{"html", "text/plain"}, true,
			"text/html,application/xhtml+xml,application/xml,text/plain;q=0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildAccept(tt.groups, tt.strict); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUnGzip_Truncated(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("some reasonably long payload to compress"))
	zw.Close()

	full := buf.Bytes()
	truncated := full[:len(full)-5]

	out, err := unGzip(truncated)
	if err != nil {
		t.Fatalf("Expected truncated stream to be tolerated, got %v", err)
	}
	if len(out) == 0 {
		t.Errorf("Expected partial decoded output")
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"example.com/page", "http://example.com/page"},
		{"http:/example.com/page", "http://example.com/page"},
		{"http://example.com/a page", "http://example.com/a%20page"},
	}

	for _, tt := range tests {
		if got := SanitizeURL(tt.raw); got != tt.expected {
			t.Errorf("SanitizeURL(%q): expected %q, got %q", tt.raw, tt.expected, got)
		}
	}
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		expected    string
	}{
		{"header charset", "<html></html>", `text/html; charset=ISO-8859-1`, "iso-8859-1"},
		{"meta charset", `<html><head><meta charset="windows-1251"></head></html>`, "text/html", "windows-1251"},
		{"xml declaration", `<?xml version="1.0" encoding="KOI8-R"?><rss/>`, "text/xml", "koi8-r"},
		{"gb2312 promoted", "<html></html>", `text/html; charset=gb2312`, "gbk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectEncoding([]byte(tt.body), tt.contentType); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
