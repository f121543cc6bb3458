// Package archive lists, downloads, and unpacks the zipped trip archives.
package archive

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ArchiveSuffix is the href suffix that marks a trip archive link.
const ArchiveSuffix = ".zip"

// ParseIndexLinks returns the absolute URL of every anchor in the HTML
// document whose href ends with suffix, in document order. Relative hrefs
// are resolved against base. Duplicates are kept.
func ParseIndexLinks(r io.Reader, base *url.URL, suffix string) ([]string, error) {
	var links []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return links, nil
			}
			return nil, fmt.Errorf("parse index: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			href, ok := hrefAttr(z)
			if !ok || !strings.HasSuffix(href, suffix) {
				continue
			}
			ref, err := url.Parse(strings.TrimSpace(href))
			if err != nil {
				continue
			}
			links = append(links, base.ResolveReference(ref).String())
		}
	}
}

func hrefAttr(z *html.Tokenizer) (string, bool) {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "href" {
			return string(val), true
		}
		if !more {
			return "", false
		}
	}
}
