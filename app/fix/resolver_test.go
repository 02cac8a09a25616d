package fix

import (
	"testing"

	"github.com/feedmill/feedmill/app/feed"
)

func newItem(f *feed.Feed, title, link, desc, content string) feed.Item {
	item := f.Append()
	item.SetTitle(title)
	item.SetLink(link)
	item.SetDesc(desc)
	item.SetContent(content)
	return item
}

func TestResolver_Run_NoLink(t *testing.T) {
	resolver := NewResolver()
	f := &feed.Feed{}
	item := newItem(f, "Some Title", "", "a description", "some content")

	resolver.Run(item, "http://feeds.example.com/rss")

	if item.Link() != "" {
		t.Errorf("Expected link to stay empty, got %q", item.Link())
	}
	if item.Desc() != "a description" || item.Content() != "some content" {
		t.Errorf("Expected item fields to be unchanged")
	}
}

func TestResolver_Run_TitleCase(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"long all-uppercase", "BREAKING NEWS ABOUT EVERYTHING", "Breaking News About Everything"},
		{"short all-uppercase", "BREAKING NEWS", "BREAKING NEWS"},
		{"long mixed case", "Breaking News About Everything Else", "Breaking News About Everything Else"},
		{"long lowercase", "breaking news about everything", "breaking news about everything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &feed.Feed{}
			item := newItem(f, tt.title, "http://example.com/article", "", "")

			resolver.Run(item, "http://example.com/rss")

			if item.Title() != tt.expected {
				t.Errorf("Expected title %q, got %q", tt.expected, item.Title())
			}
		})
	}
}

func TestResolver_Run_RelativeLink(t *testing.T) {
	resolver := NewResolver()
	f := &feed.Feed{}
	item := newItem(f, "Title", "/articles/42", "", "")

	resolver.Run(item, "http://news.example.com/feed.xml")

	if item.Link() != "http://news.example.com/articles/42" {
		t.Errorf("Expected absolute link, got %q", item.Link())
	}
}

func TestResolver_Run_RedirectorUnwrap(t *testing.T) {
	resolver := NewResolver()

	tests := []struct {
		name     string
		link     string
		expected string
	}{
		{
			"google translate",
			"http://translate.google.com/translate?sl=auto&u=http%3A%2F%2Freal.example%2Fpage",
			"http://real.example/page",
		},
		{
			"google url",
			"https://www.google.com/url?q=http%3A%2F%2Freal.example%2Fpage&sa=X",
			"http://real.example/page",
		},
		{
			"pocket",
			"https://getpocket.com/redirect?url=http%3A%2F%2Freal.example%2Fstory",
			"http://real.example/story",
		},
		{
			"facebook",
			"https://www.facebook.com/l.php?u=http%3A%2F%2Freal.example%2Fshared",
			"http://real.example/shared",
		},
		{
			"plain link untouched",
			"http://real.example/direct",
			"http://real.example/direct",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &feed.Feed{}
			item := newItem(f, "Title", tt.link, "", "")

			resolver.Run(item, "http://feeds.example.com/rss")

			if item.Link() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, item.Link())
			}
		})
	}
}

func TestResolver_Run_ExtraRedirector(t *testing.T) {
	rules := []SiteRule{{Pattern: "http*://tracker.example/*u=*", Param: "u"}}
	resolver := NewResolver(WithRedirectors(rules))

	f := &feed.Feed{}
	item := newItem(f, "Title", "http://tracker.example/?u=http%3A%2F%2Freal.example%2Fpage", "", "")

	resolver.Run(item, "http://feeds.example.com/rss")

	if item.Link() != "http://real.example/page" {
		t.Errorf("Expected unwrapped link, got %q", item.Link())
	}
}

func TestResolver_Run_Idempotent(t *testing.T) {
	resolver := NewResolver()
	feedURL := "http://feeds.example.com/rss"

	links := []string{
		"/relative/path",
		"http://tracker.example/?u=nothing",
		"https://www.google.com/url?q=http%3A%2F%2Freal.example%2Fpage",
		"http://real.example/plain",
	}

	for _, link := range links {
		f := &feed.Feed{}
		item := newItem(f, "Title", link, "", "")

		resolver.Run(item, feedURL)
		once := item.Link()

		resolver.Run(item, feedURL)

		if item.Link() != once {
			t.Errorf("Expected %q after second run, got %q", once, item.Link())
		}
	}
}

func TestResolver_Run_Feedsportal(t *testing.T) {
	f := &feed.Feed{}
	// segments decode to http:// example .com /story
	link := "http://rss.feedsportal.com/c/1/f/2/0Lexample0Bcom0Cstory/story01.htm"
	item := newItem(f, "Title", link, "", "")

	NewResolver().Run(item, "http://rss.feedsportal.com/rss")

	if item.Link() != "http://example.com/story" {
		t.Errorf("Expected decoded feedsportal link, got %q", item.Link())
	}
}

func TestResolver_Run_RedditLink(t *testing.T) {
	resolver := NewResolver()
	f := &feed.Feed{}
	content := `<p>submitted by someone</p> <a href="http://article.example/story">[link]</a> <a href="http://reddit.com/comments">[comments]</a>`
	item := newItem(f, "Title", "https://www.reddit.com/r/news/comments/abc", "", content)

	resolver.Run(item, "https://www.reddit.com/r/news/.rss")

	if item.Link() != "http://article.example/story" {
		t.Errorf("Expected article link from content, got %q", item.Link())
	}
}

func TestResolver_Run_FirstLink(t *testing.T) {
	resolver := NewResolver(WithFirstLink())
	f := &feed.Feed{}
	desc := `Read more at <a href="http://real.example/full">the site</a>`
	item := newItem(f, "Title", "http://aggregator.example/entry", desc, "")

	resolver.Run(item, "http://aggregator.example/rss")

	if item.Link() != "http://real.example/full" {
		t.Errorf("Expected first anchor link, got %q", item.Link())
	}
}

func TestDecodeFeedsportal(t *testing.T) {
	tests := []struct {
		link     string
		expected string
	}{
		{"http://rss.feedsportal.com/c/1/f/2/0Mnews0Bsite0Bco0Buk0Carticle/story01.htm", "https://news.site.co.uk/article"},
		{"http://example.com/normal/link", ""},
	}

	for _, tt := range tests {
		if got := decodeFeedsportal(tt.link); got != tt.expected {
			t.Errorf("decodeFeedsportal(%q): expected %q, got %q", tt.link, tt.expected, got)
		}
	}
}
