package readability

import (
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// countWords estimates word count without splitting: every run of
// non-space bytes advances by an average word width, whitespace by one.
// Cheap and stable across languages without spaces.
func countWords(s string) int {
	s = strings.TrimSpace(s)

	count := 0
	for i := 0; i < len(s); {
		if s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r' {
			i++
		} else {
			count++
			i += 6
		}
	}

	return count
}

// ownText returns the text sitting directly inside the node, ignoring
// text held by element children.
func ownText(node *html.Node) string {
	var sb strings.Builder
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}

func classID(node *html.Node) string {
	return dom.GetAttribute(node, "class") + " " + dom.GetAttribute(node, "id")
}

// scoreNode rates a single element from its direct text and its markup.
func scoreNode(node *html.Node) float64 {
	score := 0.0
	tag := dom.TagName(node)

	wc := countWords(ownText(node))
	score += float64(min(wc/10, 3))

	attrs := classID(node)
	score -= float64(countMatches(attrs, classBad))
	score -= float64(countMatches(attrs, classJunk))
	score += float64(countMatches(attrs, classGood))

	if tagsBad[tag] {
		score = min(score, 0)
	}

	if tagsGood[tag] {
		score += 3
	}

	return score
}

// scores accumulates per-node totals during a pass.
type scores map[*html.Node]float64

// spread credits a node's score to itself and its ancestors with a
// linear decay: the node keeps the full amount, each ancestor gets the
// remainder after subtracting half the original score again.
func (s scores) spread(node *html.Node, score float64) {
	delta := score / 2

	for cur := node; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}

		if score < 1 && cur != node {
			break
		}

		s[cur] += score
		score -= delta
	}
}

// best returns the highest scored node above the threshold, or nil.
func (s scores) best(threshold float64) *html.Node {
	var top *html.Node
	topScore := threshold

	for node, score := range s {
		if score > topScore {
			top, topScore = node, score
		}
	}

	return top
}

// secondBest returns the runner-up of the full ranking, used to locate
// a common container. Unlike best it applies no threshold: a weak
// runner-up still tells us where the content sits.
func (s scores) secondBest(best *html.Node) *html.Node {
	var top *html.Node
	topScore := 0.0

	for node, score := range s {
		if node == best {
			continue
		}
		if top == nil || score > topScore {
			top, topScore = node, score
		}
	}

	return top
}

// lowestCommonAncestor finds the nearest node both chains share, with
// each chain truncated to maxDepth ancestors. Falls back to a.
func lowestCommonAncestor(a, b *html.Node, maxDepth int) *html.Node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	chainB := make(map[*html.Node]bool, maxDepth+1)
	for cur, depth := b, 0; depth <= maxDepth && cur != nil; depth++ {
		chainB[cur] = true
		cur = cur.Parent
	}

	for cur, depth := a, 0; depth <= maxDepth && cur != nil; depth++ {
		if chainB[cur] {
			return cur
		}
		cur = cur.Parent
	}

	return a
}
