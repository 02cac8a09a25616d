package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var brokenSchemeRe = regexp.MustCompile(`^(https?):/([^/])`)

// SanitizeURL normalizes user-supplied URLs: adds a missing scheme, repairs
// "http:/host" typos, escapes spaces and encodes non-ASCII hosts and paths.
func SanitizeURL(raw string) string {
	scheme, _, found := strings.Cut(raw, ":")
	if !found || (scheme != "http" && scheme != "https") {
		raw = "http://" + raw
	}

	raw = brokenSchemeRe.ReplaceAllString(raw, "$1://$2")
	raw = strings.ReplaceAll(raw, " ", "%20")

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if !isASCII(u.Host) {
		if host, err := idna.ToASCII(u.Hostname()); err == nil {
			if port := u.Port(); port != "" {
				u.Host = host + ":" + port
			} else {
				u.Host = host
			}
		}
	}

	// url.String re-encodes non-ASCII path/query segments on its own
	return u.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
