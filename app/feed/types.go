package feed

import (
	"time"

	"github.com/araddon/dateparse"
)

// Item is the capability surface the resolver and orchestrator work
// against. Implementations own where the fields actually live.
type Item interface {
	Link() string
	SetLink(string)
	Title() string
	SetTitle(string)
	Desc() string
	SetDesc(string)
	Content() string
	SetContent(string)
	Time() *time.Time
	SetTime(string)
	// Id is the item's stable identifier (RSS guid, Atom id).
	Id() string
	SetId(string)
	// Extension returns a vendor-namespaced child element value, e.g.
	// Extension("feedburner", "origLink"), or "" when absent.
	Extension(ns, name string) string
	// Remove marks the item for removal; the feed drops it on Compact.
	Remove()
	Removed() bool
}

// Feed is an ordered, mutable collection of items plus channel metadata.
type Feed struct {
	Title       string
	Link        string
	Description string
	Language    string
	ImageURL    string
	UpdatedAt   *time.Time

	items []Item
}

func (f *Feed) Items() []Item {
	return f.items
}

func (f *Feed) Len() int {
	return len(f.items)
}

// Append creates a blank item at the end of the feed and returns it.
func (f *Feed) Append() Item {
	item := &feedItem{}
	f.items = append(f.items, item)
	return item
}

// Compact drops every item marked removed, preserving order. Structural
// mutation happens only here, never concurrently with item processing.
func (f *Feed) Compact() {
	kept := f.items[:0]
	for _, item := range f.items {
		if !item.Removed() {
			kept = append(kept, item)
		}
	}
	f.items = kept
}

// feedItem is the single concrete Item implementation, populated by the
// parser from any of the wire formats gofeed understands.
type feedItem struct {
	title      string
	link       string
	desc       string
	content    string
	time       *time.Time
	guid       string
	extensions map[string]map[string]string
	removed    bool
}

func (i *feedItem) Link() string         { return i.link }
func (i *feedItem) SetLink(link string)  { i.link = link }
func (i *feedItem) Title() string        { return i.title }
func (i *feedItem) SetTitle(title string) { i.title = title }
func (i *feedItem) Desc() string         { return i.desc }
func (i *feedItem) SetDesc(desc string)  { i.desc = desc }
func (i *feedItem) Content() string      { return i.content }
func (i *feedItem) SetContent(c string)  { i.content = c }
func (i *feedItem) Time() *time.Time     { return i.time }
func (i *feedItem) Id() string           { return i.guid }
func (i *feedItem) SetId(id string)      { i.guid = id }

// SetTime accepts loose date strings ("5 Oct 2013 22:42", RFC1123, ...).
func (i *feedItem) SetTime(value string) {
	if value == "" {
		i.time = nil
		return
	}

	if t, err := dateparse.ParseAny(value); err == nil {
		i.time = &t
	}
}

func (i *feedItem) Extension(ns, name string) string {
	if i.extensions == nil {
		return ""
	}
	return i.extensions[ns][name]
}

func (i *feedItem) Remove()       { i.removed = true }
func (i *feedItem) Removed() bool { return i.removed }
