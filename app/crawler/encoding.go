package crawler

import (
	"bytes"
	"mime"
	"regexp"
	"strings"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var (
	charsetRe  = regexp.MustCompile(`charset=["']?([0-9a-zA-Z-]+)`)
	xmlDeclRe  = regexp.MustCompile(`encoding=["']?([0-9a-zA-Z-]+)`)
	htmlDetect = chardet.NewHtmlDetector()
)

// DetectEncoding resolves the character encoding of a body by priority:
// the Content-Type header charset, a charset= hint in the first kilobyte,
// an XML declaration, then a statistical guess over the tail of the body.
func DetectEncoding(data []byte, contentTypeHeader string) string {
	enc := detectRawEncoding(data, contentTypeHeader)

	// gb2312 is a subset of gbk and pages lie about which one they use
	if strings.EqualFold(enc, "gb2312") {
		enc = "gbk"
	}

	return enc
}

func detectRawEncoding(data []byte, contentTypeHeader string) string {
	if contentTypeHeader != "" {
		if _, params, err := mime.ParseMediaType(contentTypeHeader); err == nil {
			if charset := params["charset"]; charset != "" {
				return strings.ToLower(charset)
			}
		}
	}

	head := data
	if len(head) > 1000 {
		head = head[:1000]
	}

	if m := charsetRe.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}

	if m := xmlDeclRe.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}

	tail := data
	if len(tail) > 2000 {
		tail = tail[len(tail)-2000:]
	}

	if result, err := htmlDetect.DetectBest(tail); err == nil && result != nil {
		if result.Charset != "" && !strings.EqualFold(result.Charset, "ascii") {
			return strings.ToLower(result.Charset)
		}
	}

	return "utf-8"
}

// DecodeBody converts a body to UTF-8 using the given encoding name,
// replacing invalid byte sequences. Unknown encodings return the body
// unchanged.
func DecodeBody(data []byte, encoding string) []byte {
	if encoding == "" || strings.EqualFold(encoding, "utf-8") {
		return data
	}

	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return data
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return data
	}

	return bytes.ToValidUTF8(decoded, []byte("�"))
}
