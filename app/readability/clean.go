package readability

import (
	"net/url"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// promoteBreaks turns <br> followed by text into real block boundaries:
// the text and everything after it moves into a fresh sibling element of
// the same tag as the parent, so flat pages still score per paragraph.
func promoteBreaks(root *html.Node) {
	for _, br := range dom.GetElementsByTagName(root, "br") {
		next := br.NextSibling
		if next == nil || next.Type != html.TextNode || countWords(next.Data) == 0 {
			continue
		}

		parent := br.Parent
		if parent == nil || parent.Parent == nil {
			continue
		}

		block := dom.CreateElement(dom.TagName(parent))
		for sibling := br.NextSibling; sibling != nil; {
			after := sibling.NextSibling
			parent.RemoveChild(sibling)
			dom.AppendChild(block, sibling)
			sibling = after
		}
		parent.RemoveChild(br)

		parent.Parent.InsertBefore(block, parent.NextSibling)
	}
}

// prune decides whether an element must go before it is scored.
func prune(node *html.Node) bool {
	tag := dom.TagName(node)

	if tagsJunk[tag] {
		return true
	}

	// link farms: an anchor wrapping a whole block of markup
	if tag == "a" && countElements(node) > 3 {
		return true
	}

	if countMatches(classID(node), classJunk) >= 2 {
		return true
	}

	return false
}

// unwrappable reports whether the node is a pointless wrapper: a div
// with no direct text and at most one child.
func unwrappable(node *html.Node) bool {
	if dom.TagName(node) != "div" {
		return false
	}
	if countWords(ownText(node)) > 0 {
		return false
	}

	children := 0
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			children++
		}
	}
	return children <= 1
}

func countElements(node *html.Node) int {
	count := 0
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			count += 1 + countElements(child)
		}
	}
	return count
}

// unwrap replaces the node with its own children and returns the first
// of them so the caller can resume the walk there.
func unwrap(node *html.Node) *html.Node {
	parent := node.Parent
	first := node.FirstChild

	for child := node.FirstChild; child != nil; {
		next := child.NextSibling
		node.RemoveChild(child)
		parent.InsertBefore(child, node)
		child = next
	}
	parent.RemoveChild(node)

	return first
}

// stripAttributes drops everything but a small allow-list so extracted
// markup carries no styling or tracking hooks.
func stripAttributes(node *html.Node) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if attributesFine[attr.Key] {
			kept = append(kept, attr)
		}
	}
	node.Attr = kept
}

// dropEmpty removes elements that carry neither text nor meaning of
// their own, bottom-up so emptied parents go too.
func dropEmpty(node *html.Node) {
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode {
			dropEmpty(child)
		}
		child = next
	}

	if node.Type != html.ElementNode || node.Parent == nil {
		return
	}

	tag := dom.TagName(node)
	if tagsVoid[tag] || tagsMeaning[tag] {
		return
	}

	if node.FirstChild == nil && countWords(dom.TextContent(node)) == 0 {
		node.Parent.RemoveChild(node)
	}
}

// absolutize rewrites href and src attributes relative to the page URL.
func absolutize(root *html.Node, pageURL string) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			for i, attr := range node.Attr {
				if attr.Key != "href" && attr.Key != "src" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				node.Attr[i].Val = base.ResolveReference(ref).String()
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
}
