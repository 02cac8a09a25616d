package readability

import "strings"

// Keyword fragments matched against a node's class+id string. "bad" marks
// chrome around the article, "junk" marks things that are never content.
var classBad = []string{
	"comment", "community", "extra", "foot", "sponsor", "pagination",
	"pager", "tweet", "twitter", "masthead", "media", "meta", "related",
	"shopping", "tags", "tool", "author", "about", "head",
	"robots-nocontent", "combx", "disqus", "menu", "remark", "rss",
	"shoutbox", "contact", "footnote", "promo", "scroll", "hidden",
	"widget", "hide",
}

var classJunk = []string{
	"sidebar", "ad-", "agegate", "popup", "sharing", "share", "social",
	"outbrain", "com-",
}

var classGood = []string{
	"and", "article", "body", "column", "main", "shadow", "content",
	"entry", "hentry", "page", "pagination", "post", "text", "blog",
	"story", "par", "editorial",
}

// Tags that must never survive extraction.
var tagsDangerous = set("script", "head", "iframe", "object", "style", "link", "meta")

// Tags removed outright while scoring.
var tagsJunk = merge(tagsDangerous, set("noscript", "param", "embed", "layer",
	"applet", "form", "input", "textarea", "button", "footer"))

// Tags whose score is clamped to zero or below.
var tagsBad = merge(tagsJunk, set("a", "aside"))

// Tags inherently likely to hold article content.
var tagsGood = set("h1", "h2", "h3", "article", "p", "cite", "section",
	"figcaption", "figure", "em", "strong", "pre", "br", "hr", "headline")

// Tags carrying meaning on their own; kept even without direct text.
var tagsMeaning = set("a", "abbr", "address", "acronym", "audio", "article",
	"aside", "b", "bdi", "bdo", "big", "blockquote", "br", "caption", "cite",
	"center", "code", "col", "colgroup", "data", "dd", "del", "details",
	"dfn", "dl", "font", "dt", "em", "figure", "figcaption", "h1", "h2",
	"h3", "h4", "h5", "h6", "hr", "i", "img", "ins", "kbd", "li", "main",
	"mark", "nav", "ol", "p", "pre", "q", "ruby", "rp", "rt", "s", "samp",
	"small", "source", "strike", "strong", "sub", "summary", "sup", "table",
	"tbody", "td", "tfoot", "th", "thead", "time", "tr", "track", "tt", "u",
	"ul", "var", "wbr", "video")

// Tags kept even when empty.
var tagsVoid = set("img", "hr", "br")

// Attributes preserved on extracted nodes.
var attributesFine = set("title", "src", "href", "type", "value")

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

func merge(a, b map[string]bool) map[string]bool {
	m := make(map[string]bool, len(a)+len(b))
	for k := range a {
		m[k] = true
	}
	for k := range b {
		m[k] = true
	}
	return m
}

// countMatches counts how many keywords occur in the class+id string.
func countMatches(classID string, keywords []string) int {
	if classID == "" {
		return 0
	}

	classID = strings.ToLower(classID)
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(classID, keyword) {
			count++
		}
	}
	return count
}
