package crawler

// MimeGroups maps short names to the mime types they cover. Short names can
// be used anywhere a mime type is expected in accept lists.
var MimeGroups = map[string][]string{
	"xml": {"text/xml", "application/xml", "application/rss+xml",
		"application/rdf+xml", "application/atom+xml", "application/xhtml+xml"},
	"rss":  {"application/rss+xml", "application/rdf+xml", "application/atom+xml"},
	"html": {"text/html", "application/xhtml+xml", "application/xml"},
}

func inGroup(contentType, group string) bool {
	types, ok := MimeGroups[group]
	if !ok {
		return contentType == group
	}
	for _, t := range types {
		if t == contentType {
			return true
		}
	}
	return false
}
