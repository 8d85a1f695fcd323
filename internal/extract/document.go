package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed page together with the URL it was fetched from.
type Document struct {
	*goquery.Document
	base *url.URL
}

// Parse reads an HTML body fetched from pageURL.
func Parse(pageURL string, r io.Reader) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	return &Document{Document: doc, base: base}, nil
}

// ParseString is [Parse] for an in-memory body.
func ParseString(pageURL, body string) (*Document, error) {
	return Parse(pageURL, strings.NewReader(body))
}

// Resolve makes ref absolute against the page URL. Empty refs stay empty.
func (d *Document) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if d.base == nil {
		return u.String()
	}
	return d.base.ResolveReference(u).String()
}

// attr returns the trimmed value of the first non-empty attribute among names.
func attr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(s.AttrOr(name, "")); v != "" {
			return v
		}
	}
	return ""
}

// firstSrcset returns the URL of the first srcset candidate.
func firstSrcset(srcset string) string {
	fields := strings.Fields(srcset)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimSuffix(fields[0], ",")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
