package fix

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// firstAnchor returns the href of the first anchor matching the selector
// inside an HTML fragment, or "".
func firstAnchor(fragment, selector string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	href, _ := doc.Find(selector).First().Attr("href")
	return href
}

// anchorWithText returns the href of the first anchor whose text equals
// the given string, or "".
func anchorWithText(fragment, text string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	var href string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.TrimSpace(sel.Text()) == text {
			href, _ = sel.Attr("href")
			return false
		}
		return true
	})

	return href
}
