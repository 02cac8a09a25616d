package feed

import (
	"bytes"
	"fmt"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses RSS/Atom/JSON feed data into the internal model.
func (p *Parser) Run(data []byte) (*Feed, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	feed := &Feed{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}

	if parsed.Image != nil {
		feed.ImageURL = parsed.Image.URL
	}

	if parsed.UpdatedParsed != nil {
		feed.UpdatedAt = parsed.UpdatedParsed
	}

	for _, item := range parsed.Items {
		feed.items = append(feed.items, p.normalizeItem(item))
	}

	return feed, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) *feedItem {
	normalized := &feedItem{
		title:   item.Title,
		link:    item.Link,
		desc:    item.Description,
		content: item.Content,
		guid:    item.GUID,
	}

	if item.PublishedParsed != nil {
		normalized.time = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.time = item.UpdatedParsed
	}

	if len(item.Extensions) > 0 {
		normalized.extensions = make(map[string]map[string]string, len(item.Extensions))
		for prefix, elements := range item.Extensions {
			values := make(map[string]string, len(elements))
			for name, exts := range elements {
				if len(exts) > 0 {
					values[name] = exts[0].Value
				}
			}
			normalized.extensions[prefix] = values
		}
	}

	return normalized
}
