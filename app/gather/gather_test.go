package gather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/feedmill/feedmill/app/cache"
	"github.com/feedmill/feedmill/app/cfg"
	"github.com/feedmill/feedmill/app/crawler"
	"github.com/feedmill/feedmill/app/feed"
)

func testConfig() *cfg.Cfg {
	return &cfg.Cfg{
		MaxItem:      -1,
		MaxTime:      -1,
		LimItem:      -1,
		LimTime:      -1,
		WorkerCount:  5,
		Timeout:      4,
		UserAgent:    "feedmill-test/1.0",
		MaxDownload:  512000,
		MaxRedirects: 10,
	}
}

func newTestGatherer(t *testing.T, config *cfg.Cfg) *Gatherer {
	t.Helper()
	contentCache := cache.NewMemoryCache(100, 0)
	t.Cleanup(func() { contentCache.Close() })

	c := crawler.New(contentCache, config.UserAgent, config.MaxDownload,
		config.MaxRedirects, time.Duration(config.Timeout)*time.Second)

	return New(c, nil, config)
}

func buildFeed(titles ...string) *feed.Feed {
	f := &feed.Feed{Title: "test feed"}
	for _, title := range titles {
		item := f.Append()
		item.SetTitle(title)
	}
	return f
}

func titles(f *feed.Feed) []string {
	out := make([]string, 0, f.Len())
	for _, item := range f.Items() {
		out = append(out, item.Title())
	}
	return out
}

func TestGatherer_Run_HardItemLimit(t *testing.T) {
	for _, workers := range []int{1, 5} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			config := testConfig()
			config.LimItem = 3
			config.WorkerCount = workers

			g := newTestGatherer(t, config)
			f := buildFeed("one", "two", "three", "four", "five", "six")

			g.Run(context.Background(), f, "http://feeds.example.com/rss", Options{Proxy: true})

			got := titles(f)
			expected := []string{"one", "two", "three"}

			if len(got) != len(expected) {
				t.Fatalf("Expected %d items, got %d: %v", len(expected), len(got), got)
			}
			for i := range expected {
				if got[i] != expected[i] {
					t.Errorf("Expected item %d to be %q, got %q", i, expected[i], got[i])
				}
			}
		})
	}
}

func TestGatherer_Run_SearchFilter(t *testing.T) {
	g := newTestGatherer(t, testConfig())
	f := buildFeed("go release notes", "python news", "go modules deep dive")

	g.Run(context.Background(), f, "http://feeds.example.com/rss", Options{Proxy: true, Search: "go"})

	got := titles(f)
	if len(got) != 2 {
		t.Fatalf("Expected 2 items, got %d: %v", len(got), got)
	}
	if got[0] != "go release notes" || got[1] != "go modules deep dive" {
		t.Errorf("Expected only matching items in order, got %v", got)
	}
}

func TestGatherer_Run_SoftBudgetEndToEnd(t *testing.T) {
	longArticle := `<html><body><article>` +
		strings.Repeat("<p>"+strings.Repeat("plenty of genuine article prose right here ", 10)+"</p>", 5) +
		`</article></body></html>`

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/article/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Path == "/article/0" {
			w.Write([]byte(longArticle))
			return
		}
		w.Write([]byte(`<html><body><p>just ten short words</p></body></html>`))
	})

	config := testConfig()
	config.MaxItem = 1 // only the first item gets a network fill

	g := newTestGatherer(t, config)

	f := &feed.Feed{Title: "test"}
	for i := 0; i < 3; i++ {
		item := f.Append()
		item.SetTitle(fmt.Sprintf("item %d", i))
		item.SetLink(fmt.Sprintf("%s/article/%d", server.URL, i))
		item.SetDesc("a short teaser")
	}

	g.Run(context.Background(), f, server.URL+"/feed", Options{Mono: true})

	if f.Len() != 1 {
		t.Fatalf("Expected items beyond the soft budget to be removed on cold cache, got %d items", f.Len())
	}

	filled := f.Items()[0]
	if filled.Title() != "item 0" {
		t.Errorf("Expected the first item to survive, got %q", filled.Title())
	}
	if !strings.Contains(filled.Content(), "genuine article prose") {
		t.Errorf("Expected extracted article content, got %q", filled.Content())
	}
}

func TestGatherer_Run_ProxySkipsFilling(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("<html><body>should never be fetched</body></html>"))
	}))
	defer server.Close()

	g := newTestGatherer(t, testConfig())

	f := buildFeed("one")
	f.Items()[0].SetLink(server.URL + "/article")
	f.Items()[0].SetContent("original content")

	g.Run(context.Background(), f, server.URL+"/feed", Options{Proxy: true, Mono: true})

	if requests != 0 {
		t.Errorf("Expected no article fetches in proxy mode, got %d", requests)
	}
	if f.Items()[0].Content() != "original content" {
		t.Errorf("Expected content to be untouched in proxy mode")
	}
}

func TestGatherer_Run_PostProcessing(t *testing.T) {
	g := newTestGatherer(t, testConfig())

	f := buildFeed("one")
	item := f.Items()[0]
	item.SetLink("http://example.com/article")
	item.SetDesc("the teaser")
	item.SetContent(`full text with <a href="http://example.com/x">a link</a> inside`)

	g.Run(context.Background(), f, "http://feeds.example.com/rss",
		Options{Proxy: true, Clip: true, NoLink: true, NoRef: true, Mono: true})

	item = f.Items()[0]
	if item.Link() != "" {
		t.Errorf("Expected link to be blanked by noref, got %q", item.Link())
	}
	if !strings.Contains(item.Content(), "the teaser") {
		t.Errorf("Expected clipped description in content, got %q", item.Content())
	}
	if strings.Contains(item.Content(), "<a ") {
		t.Errorf("Expected anchors stripped from content, got %q", item.Content())
	}
	if !strings.Contains(item.Content(), "a link") {
		t.Errorf("Expected anchor text to be kept, got %q", item.Content())
	}
}

func TestFillItem_NoLink(t *testing.T) {
	g := newTestGatherer(t, testConfig())

	f := buildFeed("one")
	item := f.Items()[0]
	item.SetDesc("unchanged")

	if err := g.fillItem(context.Background(), item, "http://feeds.example.com/rss", Options{}, false); err != nil {
		t.Errorf("Expected no error for an item without a link, got %v", err)
	}
	if item.Desc() != "unchanged" || item.Content() != "" {
		t.Errorf("Expected item to be untouched")
	}
}

func TestSubstituteLink(t *testing.T) {
	content := `<p>tweet text <a href="https://t.co/abc" data-expanded-url="http://real.example/article">link</a></p>`

	link, err := substituteLink("https://twitter.com/someone", content)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if link != "http://real.example/article" {
		t.Errorf("Expected expanded url, got %q", link)
	}

	if _, err := substituteLink("https://twitter.com/someone", "<p>no anchors</p>"); err != ErrNoUsableLink {
		t.Errorf("Expected ErrNoUsableLink, got %v", err)
	}

	link, err = substituteLink("http://feeds.example.com/rss", content)
	if err != nil || link != "" {
		t.Errorf("Expected no substitution for ordinary hosts, got %q, %v", link, err)
	}
}

func TestOptionsFromQuery(t *testing.T) {
	values, _ := url.ParseQuery("proxy&hungry=1&cache=false&search=golang&format=json")

	opts := OptionsFromQuery(values)

	if !opts.Proxy {
		t.Errorf("Expected bare key to enable proxy")
	}
	if !opts.Hungry {
		t.Errorf("Expected hungry=1 to enable hungry")
	}
	if opts.Cache {
		t.Errorf("Expected cache=false to stay disabled")
	}
	if opts.Search != "golang" {
		t.Errorf("Expected search term, got %q", opts.Search)
	}
	if opts.Format != "json" {
		t.Errorf("Expected format json, got %q", opts.Format)
	}
	if opts.NoRef || opts.Mono || opts.Resolve {
		t.Errorf("Expected unset flags to stay off")
	}
}
