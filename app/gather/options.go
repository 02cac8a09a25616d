package gather

import "net/url"

// Options is the per-request feature set. All flags default to off;
// unrecognized query keys are ignored.
type Options struct {
	Cache     bool   // serve everything from cache, no network
	Force     bool   // bypass cache freshness, refetch
	Proxy     bool   // skip filling entirely, pass the feed through
	Hungry    bool   // always attempt extraction, ignore size heuristics
	Mono      bool   // single worker, deterministic sequential processing
	Newest    bool   // process newest items first instead of feed order
	FirstLink bool   // use the first anchor of desc/content as the link
	Resolve   bool   // rewrite item links to their post-redirect URL
	NoLink    bool   // strip anchors from extracted content
	NoRef     bool   // blank out item links in the output
	Clip      bool   // prepend the original description to the content
	Search    string // drop items whose title does not contain this
	Format    string // output format: rss (default), json, html, csv
}

// OptionsFromQuery reads flags from URL query parameters. A flag is on
// when the key is present with any value but "0" or "false".
func OptionsFromQuery(values url.Values) Options {
	flag := func(key string) bool {
		if !values.Has(key) {
			return false
		}
		v := values.Get(key)
		return v != "0" && v != "false"
	}

	return Options{
		Cache:     flag("cache"),
		Force:     flag("force"),
		Proxy:     flag("proxy"),
		Hungry:    flag("hungry"),
		Mono:      flag("mono"),
		Newest:    flag("newest"),
		FirstLink: flag("firstlink"),
		Resolve:   flag("resolve"),
		NoLink:    flag("nolink"),
		NoRef:     flag("noref"),
		Clip:      flag("clip"),
		Search:    values.Get("search"),
		Format:    values.Get("format"),
	}
}
