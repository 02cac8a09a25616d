// Package readability extracts the main article from an HTML page. It
// scores every element from its text density, markup and class/id hints,
// prunes boilerplate as it goes, then picks the container shared by the
// two best candidates. Pages without enough body text are rejected.
package readability

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// defaultThreshold is the minimum score a node needs to be a candidate.
const defaultThreshold = 5.0

// lcaMaxDepth bounds how far up the common container search may walk.
const lcaMaxDepth = 3

type Extractor struct {
	threshold float64
}

func NewExtractor() *Extractor {
	return &Extractor{threshold: defaultThreshold}
}

// Run extracts the article markup from a page. It returns "" with a nil
// error when the page holds no extractable article; that is a negative
// result, not a failure.
func (e *Extractor) Run(data []byte, pageURL string) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "", fmt.Errorf("empty document")
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	promoteBreaks(doc)

	s := scores{}
	e.scoreAndPrune(doc, s)

	best := s.best(e.threshold)
	if best == nil {
		return "", nil
	}

	candidate := lowestCommonAncestor(best, s.secondBest(best), lcaMaxDepth)

	if !accept(candidate) {
		return "", nil
	}

	forEachElement(candidate, stripAttributes)
	dropEmpty(candidate)
	absolutize(candidate, pageURL)

	var buf bytes.Buffer
	if err := html.Render(&buf, candidate); err != nil {
		return "", fmt.Errorf("failed to render article: %w", err)
	}

	return buf.String(), nil
}

// scoreAndPrune walks the tree in document order, removing boilerplate
// and crediting scores as it goes. A pruned node's positive score folds
// into its surviving ancestors so content mass is preserved.
func (e *Extractor) scoreAndPrune(node *html.Node, s scores) {
	for child := node.FirstChild; child != nil; {
		next := child.NextSibling

		switch child.Type {
		case html.CommentNode:
			node.RemoveChild(child)

		case html.ElementNode:
			if prune(child) {
				if own := scoreNode(child); own > 0 {
					s.spread(node, own)
				}
				node.RemoveChild(child)
			} else if unwrappable(child) {
				if first := unwrap(child); first != nil {
					next = first
				}
			} else {
				s.spread(child, scoreNode(child))
				e.scoreAndPrune(child, s)
			}
		}

		child = next
	}
}

// accept applies the quality gate: at least 50 words outside anchors,
// and no more than 30% of the words inside anchors.
func accept(candidate *html.Node) bool {
	wc := countWords(dom.TextContent(candidate))

	wca := 0
	for _, anchor := range dom.GetElementsByTagName(candidate, "a") {
		wca += countWords(dom.TextContent(anchor))
	}

	if wc-wca < 50 {
		return false
	}

	return float64(wca)/float64(wc) <= 0.3
}

func forEachElement(node *html.Node, fn func(*html.Node)) {
	if node.Type == html.ElementNode {
		fn(node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		forEachElement(child, fn)
	}
}

// Words returns the approximate word count of an HTML fragment's text.
func Words(fragment string) int {
	if strings.TrimSpace(fragment) == "" {
		return 0
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return countWords(fragment)
	}

	return countWords(dom.TextContent(doc))
}
