package gather

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// substituteLink recomputes the article link from the item's content for
// feed hosts that point their nominal link somewhere useless. Returns ""
// when the feed's host needs no substitution.
func substituteLink(feedURL, content string) (string, error) {
	switch hostOf(feedURL) {
	case "twitter.com", "mobile.twitter.com":
		// the real target hides in the anchor's expanded-url attribute
		if link := anchorAttr(content, "data-expanded-url"); link != "" {
			return link, nil
		}
		return "", ErrNoUsableLink

	case "graph.facebook.com":
		// the first href that leaves facebook is the shared article
		if link := firstHref(content); link != "" && hostOf(link) != "www.facebook.com" {
			return link, nil
		}
		return "", ErrNoUsableLink
	}

	return "", nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func anchorAttr(fragment, attr string) string {
	doc, err := parseFragment(fragment)
	if err != nil {
		return ""
	}

	value, _ := doc.Find("a[" + attr + "]").First().Attr(attr)
	return value
}

func firstHref(fragment string) string {
	doc, err := parseFragment(fragment)
	if err != nil {
		return ""
	}

	href, _ := doc.Find("a").First().Attr("href")
	return href
}

// stripAnchors unwraps every anchor, keeping its inner markup.
func stripAnchors(fragment string) string {
	doc, err := parseFragment(fragment)
	if err != nil {
		return fragment
	}

	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if inner, err := sel.Html(); err == nil {
			sel.ReplaceWithHtml(inner)
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return fragment
	}
	return out
}

func parseFragment(fragment string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(fragment))
}
