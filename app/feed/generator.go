package feed

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/feedmill/feedmill/app/cfg"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders the feed in the requested format: rss (default), json, html
// or csv.
func (g *Generator) Run(feed *Feed, format string) (string, string, error) {
	switch format {
	case "", "rss":
		out, err := g.toRSS(feed)
		return out, "application/rss+xml; charset=utf-8", err
	case "json":
		out, err := g.toJSON(feed)
		return out, "application/json; charset=utf-8", err
	case "html":
		out, err := g.toHTML(feed)
		return out, "text/html; charset=utf-8", err
	case "csv":
		out, err := g.toCSV(feed)
		return out, "text/csv; charset=utf-8", err
	default:
		return "", "", fmt.Errorf("unknown output format: %s", format)
	}
}

func (g *Generator) toRSS(feed *Feed) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", feed.Title, 4)
	g.writeElement(&buf, "link", feed.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(feed.Description, "Full-text feed"), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("feedmill/%s", cfg.Get().Version), 4)

	if feed.Language != "" {
		g.writeElement(&buf, "language", feed.Language, 4)
	}

	if feed.UpdatedAt != nil {
		g.writeElement(&buf, "lastBuildDate", feed.UpdatedAt.Format(time.RFC1123Z), 4)
	}

	if feed.ImageURL != "" {
		buf.WriteString("    <image>\n")
		g.writeElement(&buf, "url", feed.ImageURL, 6)
		g.writeElement(&buf, "title", feed.Title, 6)
		g.writeElement(&buf, "link", feed.Link, 6)
		buf.WriteString("    </image>\n")
	}

	for _, item := range feed.Items() {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	if item.Title() != "" {
		g.writeElement(buf, "title", item.Title(), 6)
	}

	if item.Link() != "" {
		g.writeElement(buf, "link", item.Link(), 6)
	}

	if item.Id() != "" {
		g.writeElement(buf, "guid", item.Id(), 6)
	}

	if item.Desc() != "" {
		g.writeElement(buf, "description", item.Desc(), 6)
	}

	if item.Content() != "" && item.Content() != item.Desc() {
		buf.WriteString("      <content:encoded><![CDATA[")
		// a literal ]]> inside the content would close the section early
		buf.WriteString(strings.ReplaceAll(item.Content(), "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if t := item.Time(); t != nil {
		g.writeElement(buf, "pubDate", t.Format(time.RFC1123Z), 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, name, value string, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteString("<" + name + ">")
	xml.EscapeText(buf, []byte(value))
	buf.WriteString("</" + name + ">\n")
}

type jsonItem struct {
	Title   string `json:"title,omitempty"`
	Link    string `json:"link,omitempty"`
	Desc    string `json:"desc,omitempty"`
	Content string `json:"content,omitempty"`
	Time    string `json:"time,omitempty"`
}

func (g *Generator) toJSON(feed *Feed) (string, error) {
	out := struct {
		Title       string     `json:"title"`
		Link        string     `json:"link,omitempty"`
		Description string     `json:"desc,omitempty"`
		Items       []jsonItem `json:"items"`
	}{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Items:       make([]jsonItem, 0, feed.Len()),
	}

	for _, item := range feed.Items() {
		ji := jsonItem{
			Title:   item.Title(),
			Link:    item.Link(),
			Desc:    item.Desc(),
			Content: item.Content(),
		}
		if t := item.Time(); t != nil {
			ji.Time = t.Format(time.RFC3339)
		}
		out.Items = append(out.Items, ji)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render json: %w", err)
	}

	return string(data), nil
}

func (g *Generator) toHTML(feed *Feed) (string, error) {
	var buf bytes.Buffer

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("  <meta charset=\"utf-8\"/>\n")
	buf.WriteString("  <title>" + html.EscapeString(feed.Title) + "</title>\n")
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString("  <h1>" + html.EscapeString(feed.Title) + "</h1>\n")

	for _, item := range feed.Items() {
		buf.WriteString("  <article>\n")
		if item.Link() != "" {
			buf.WriteString("    <h2><a href=\"" + html.EscapeString(item.Link()) + "\">" +
				html.EscapeString(item.Title()) + "</a></h2>\n")
		} else {
			buf.WriteString("    <h2>" + html.EscapeString(item.Title()) + "</h2>\n")
		}
		buf.WriteString("    <div>" + cmp.Or(item.Content(), item.Desc()) + "</div>\n")
		buf.WriteString("  </article>\n")
	}

	buf.WriteString("</body>\n</html>")

	return buf.String(), nil
}

func (g *Generator) toCSV(feed *Feed) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"title", "link", "time", "desc", "content"}); err != nil {
		return "", fmt.Errorf("failed to render csv: %w", err)
	}

	for _, item := range feed.Items() {
		var when string
		if t := item.Time(); t != nil {
			when = t.Format(time.RFC3339)
		}

		if err := w.Write([]string{item.Title(), item.Link(), when, item.Desc(), item.Content()}); err != nil {
			return "", fmt.Errorf("failed to render csv: %w", err)
		}
	}

	w.Flush()
	return buf.String(), w.Error()
}
